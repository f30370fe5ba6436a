package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.HTTPPort)
	assert.Equal(t, 15, cfg.ChatMaxSteps)
	assert.Equal(t, 5, cfg.StreamTextMaxSteps)
	assert.Equal(t, 30*time.Second, cfg.ChatMaxDuration)
	assert.Equal(t, 5007*time.Millisecond, cfg.LivePollInterval)
	assert.Equal(t, "llava-v1.5-7b", cfg.Models.Vision)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "learnchat.toml")
	content := `
http_port = 4000
storage_dir = "/data/courses"
chat_max_duration_ms = 45000

[models]
chat = "llama-3.1-8b"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "5000")
	t.Setenv("LIVE_POLL_INTERVAL_MS", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.HTTPPort, "env wins over file")
	assert.Equal(t, "/data/courses", cfg.StorageDir)
	assert.Equal(t, 45*time.Second, cfg.ChatMaxDuration)
	assert.Equal(t, 250*time.Millisecond, cfg.LivePollInterval)
	assert.Equal(t, "llama-3.1-8b", cfg.Models.Chat)
	assert.Equal(t, "qwq-32b", cfg.Models.Structured, "unset keys keep defaults")
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("LEARNCHAT_TEST_INT", "abc")
	assert.Equal(t, 7, getEnvInt("LEARNCHAT_TEST_INT", 7))
}
