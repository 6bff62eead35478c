package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable kobot reads, e.g. KOBOT_PLATFORM.
const EnvPrefix = "KOBOT"

// Load loads and validates configuration from, in increasing precedence:
//  1. Default values
//  2. the YAML file at path (optional; missing file is fine)
//  3. KOBOT_* environment variables, plus DISCORD_TOKEN and REDIS_URL
//
// A .env file in the working directory is loaded into the environment first
// without overriding variables that are already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: failed to load .env file: %v", ErrConfiguration, err)
	}

	v := viper.New()
	setDefaults(v)

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("%w: failed to bind environment: %v", ErrConfiguration, err)
	}

	if err := readConfigFile(v, path); err != nil {
		return nil, fmt.Errorf("%w: failed to load config file: %v", ErrConfiguration, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// readConfigFile reads path into v. A missing file is not an error.
func readConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// bindEnv maps environment variables onto config keys. Keys with defaults are
// picked up by AutomaticEnv; required keys without defaults are bound explicitly.
// DISCORD_TOKEN and REDIS_URL are accepted for compatibility with existing
// deployments.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := [][]string{
		{"token", EnvPrefix + "_TOKEN", "DISCORD_TOKEN"},
		{"store_url", EnvPrefix + "_STORE_URL", "REDIS_URL"},
		{"owner_id", EnvPrefix + "_OWNER_ID"},
		{"metrics.addr", EnvPrefix + "_METRICS_ADDR"},
	}
	for _, b := range bindings {
		if err := v.BindEnv(b...); err != nil {
			return err
		}
	}
	return nil
}

// setDefaults sets default values for optional configuration parameters
func setDefaults(v *viper.Viper) {
	v.SetDefault("platform", DefaultPlatform)

	// Logger defaults
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	// Messages defaults
	v.SetDefault("messages.registered", DefaultMessages.Registered)
	v.SetDefault("messages.already_listening", DefaultMessages.AlreadyListening)
	v.SetDefault("messages.not_authorized", DefaultMessages.NotAuthorized)

	// Scheduler defaults
	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}
}
