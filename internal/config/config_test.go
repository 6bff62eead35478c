package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads. Empty variables are ignored by
// the loader, so this isolates tests from the host environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DISCORD_TOKEN", "REDIS_URL",
		"KOBOT_TOKEN", "KOBOT_STORE_URL", "KOBOT_OWNER_ID", "KOBOT_PLATFORM",
		"KOBOT_LOGGER_LEVEL", "KOBOT_LOGGER_JSON", "KOBOT_METRICS_ADDR",
		"KOBOT_SCHEDULER_TASKS_LISTEN_RESYNC_ENABLED",
		"KOBOT_SCHEDULER_TASKS_LISTEN_RESYNC_SCHEDULE",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "discord-token")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	req := require.New(t)

	cfg, err := Load("")
	req.NoError(err)

	req.Equal(PlatformDiscord, cfg.Platform)
	req.Equal("discord-token", cfg.Token)
	req.Equal("redis://localhost:6379/0", cfg.StoreURL)
	req.Empty(cfg.OwnerID)
	req.Equal(DefaultLogLevel, cfg.Logger.Level)
	req.False(cfg.Logger.JSON)
	req.Equal(DefaultMessages, cfg.Messages)
	req.Equal(DefaultTasks, cfg.Scheduler.Tasks)
}

func TestLoad_PrefixedEnvironmentWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "legacy")
	t.Setenv("KOBOT_TOKEN", "prefixed")
	t.Setenv("REDIS_URL", "redis://legacy")
	t.Setenv("KOBOT_STORE_URL", "sqlite:///var/lib/kobot/kobot.db")
	t.Setenv("KOBOT_LOGGER_LEVEL", "debug")
	t.Setenv("KOBOT_LOGGER_JSON", "true")
	t.Setenv("KOBOT_METRICS_ADDR", ":9090")
	t.Setenv("KOBOT_SCHEDULER_TASKS_LISTEN_RESYNC_SCHEDULE", "*/1 * * * *")
	req := require.New(t)

	cfg, err := Load("")
	req.NoError(err)

	req.Equal("prefixed", cfg.Token)
	req.Equal("sqlite:///var/lib/kobot/kobot.db", cfg.StoreURL)
	req.Equal("debug", cfg.Logger.Level)
	req.True(cfg.Logger.JSON)
	req.Equal(":9090", cfg.Metrics.Addr)
	req.Equal("*/1 * * * *", cfg.Scheduler.Tasks[TaskListenResync].Schedule)
}

func TestLoad_MissingRequired(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "no token", env: map[string]string{"REDIS_URL": "redis://localhost"}},
		{name: "no store url", env: map[string]string{"DISCORD_TOKEN": "token"}},
		{name: "telegram without owner", env: map[string]string{
			"KOBOT_PLATFORM": PlatformTelegram, "KOBOT_TOKEN": "token", "KOBOT_STORE_URL": "redis://localhost",
		}},
		{name: "unknown platform", env: map[string]string{
			"KOBOT_PLATFORM": "irc", "KOBOT_TOKEN": "token", "KOBOT_STORE_URL": "redis://localhost",
		}},
		{name: "non numeric owner", env: map[string]string{
			"KOBOT_OWNER_ID": "someone", "KOBOT_TOKEN": "token", "KOBOT_STORE_URL": "redis://localhost",
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("KOBOT_TOKEN", "from-env")
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	req.NoError(os.WriteFile(path, []byte(`
platform: telegram
token: from-file
owner_id: "123456"
store_url: sqlite://kobot.db
messages:
  already_listening: "already here"
scheduler:
  tasks:
    store_maintenance:
      enabled: false
`), 0o600))

	cfg, err := Load(path)
	req.NoError(err)

	req.Equal(PlatformTelegram, cfg.Platform)
	req.Equal("from-env", cfg.Token, "environment overrides the file")
	req.Equal("123456", cfg.OwnerID)
	req.Equal("sqlite://kobot.db", cfg.StoreURL)
	req.Equal("already here", cfg.Messages.AlreadyListening)
	req.Equal(DefaultMessages.Registered, cfg.Messages.Registered)
	req.False(cfg.Scheduler.Tasks[TaskStoreMaintenance].Enabled)
	req.True(cfg.Scheduler.Tasks[TaskStorePing].Enabled)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("REDIS_URL", "redis://localhost")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, "token", cfg.Token)
}

func TestValidate_EnabledTaskNeedsSchedule(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Platform: PlatformDiscord,
		Token:    "token",
		StoreURL: "redis://localhost",
		Logger:   LoggerConfig{Level: "info"},
		Messages: DefaultMessages,
		Scheduler: SchedulerConfig{Tasks: map[string]TaskConfig{
			TaskStorePing: {Enabled: true},
		}},
	}
	require.Error(t, cfg.Validate())

	cfg.Scheduler.Tasks[TaskStorePing] = TaskConfig{Enabled: false}
	require.NoError(t, cfg.Validate())
}
