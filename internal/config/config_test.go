package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "123:abc")

	path := writeConfig(t, `
telegram:
  enabled: true
  bot_token: ${TEST_BOT_TOKEN}
  chat_id: 42
storage:
  backend: sqlite
  path: `+filepath.Join(t.TempDir(), "data", "household.db")+`
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	path := writeConfig(t, "{}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "json", cfg.Storage.Backend)
	assert.Equal(t, 3*time.Minute, cfg.FailsafeDelay())
	assert.Equal(t, 5*time.Minute, cfg.FailsafeSnooze())
	assert.Equal(t, time.Hour, cfg.AssistCacheTTL())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
