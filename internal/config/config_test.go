package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metime.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

var envKeys = []string{
	"METIME_DATA_FILE", "PORT", "LOG_LEVEL", "APP_ENV",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_ENABLED",
	"RATE_LIMIT_REQUESTS", "STRUGGLING_WINDOW", "WORKER_QUEUE_SIZE",
}

// isolate runs the test in an empty directory with every config variable unset.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "habits.json", cfg.Storage.DataFile)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
server:
  port: "9090"
storage:
  data_file: /var/lib/metime/habits.json
redis:
  enabled: true
  db: 3
analytics:
  struggling_window: 14
`)
	t.Setenv("PORT", "7070")
	t.Setenv("STRUGGLING_WINDOW", "7")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "/var/lib/metime/habits.json", cfg.Storage.DataFile)
	assert.Equal(t, 7, cfg.Analytics.StrugglingWindow)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 100, cfg.Worker.QueueSize, "untouched keys keep defaults")
}

func TestLoad_DotEnvFile(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("METIME_DATA_FILE=from-dotenv.json\n"), 0o644))

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.json", cfg.Storage.DataFile)
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{"Malformed YAML", "server: [", nil},
		{"Non numeric window", "", map[string]string{"STRUGGLING_WINDOW": "thirty"}},
		{"Zero window", "analytics:\n  struggling_window: 0\n", nil},
		{"Negative queue", "", map[string]string{"WORKER_QUEUE_SIZE": "-1"}},
		{"Bad bool", "", map[string]string{"REDIS_ENABLED": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeConfig(t, tt.yaml)
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
