// Package config manages application configuration from environment variables,
// an optional .env file, an optional YAML config file and default values.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrConfiguration wraps every configuration loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Supported chat platforms.
const (
	PlatformDiscord  = "discord"
	PlatformTelegram = "telegram"
)

// Default values for configuration
const (
	DefaultPlatform = PlatformDiscord
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	// Scheduled task names
	TaskListenResync     = "listen_resync"
	TaskStoreMaintenance = "store_maintenance"
	TaskStorePing        = "store_ping"
)

// DefaultMessages are the replies kobot sends. {server} and {channel} are
// replaced with the resolved names.
var DefaultMessages = MessagesConfig{
	Registered:       "yip! kobot now lives in {server} #{channel} (listen mode enabled)",
	AlreadyListening: "kobot is already listening here!",
	NotAuthorized:    "you're not authorized to control kobot! (from: {channel})",
}

// DefaultTasks schedules every maintenance task.
var DefaultTasks = map[string]TaskConfig{
	TaskListenResync:     {Enabled: true, Schedule: "*/5 * * * *"},
	TaskStorePing:        {Enabled: true, Schedule: "* * * * *"},
	TaskStoreMaintenance: {Enabled: true, Schedule: "0 4 * * *"},
}

// Config is the complete kobot configuration.
type Config struct {
	Platform string `mapstructure:"platform"  validate:"required,oneof=discord telegram"`
	Token    string `mapstructure:"token"     validate:"required"`
	OwnerID  string `mapstructure:"owner_id"  validate:"omitempty,numeric"`
	StoreURL string `mapstructure:"store_url" validate:"required"`

	Logger    LoggerConfig    `mapstructure:"logger"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig selects log verbosity and format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// MetricsConfig controls the optional /metrics and /healthz listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// MessagesConfig holds the user-visible reply texts.
type MessagesConfig struct {
	Registered       string `mapstructure:"registered"        validate:"required"`
	AlreadyListening string `mapstructure:"already_listening" validate:"required"`
	NotAuthorized    string `mapstructure:"not_authorized"    validate:"required"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// Validate checks struct tags and the rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Platform == PlatformTelegram && c.OwnerID == "" {
		return fmt.Errorf("owner_id is required for the %s platform", PlatformTelegram)
	}
	return nil
}
