package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5000", cfg.Addr())
	assert.Equal(t, "meetings.db", cfg.Storage.Database)
	assert.Equal(t, "auto", cfg.Speech.Engine)
	assert.Equal(t, 120*time.Second, cfg.ClientTimeout())
	assert.False(t, cfg.DriveEnabled())
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", `
server:
  port: 8080
storage:
  database: data/test.db
client:
  server_url: http://example.local:8080
speech:
  engine: whisper
  audio_file: meeting.wav
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "data/test.db", cfg.Storage.Database)
	assert.Equal(t, "http://example.local:8080", cfg.Client.ServerURL)
	assert.Equal(t, "whisper", cfg.Speech.Engine)
	assert.Equal(t, "meeting.wav", cfg.Speech.AudioFile)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", "openai:\n  api_key: from-file\n")
	writeFile(t, dir, ".env", "MEETING_SPEECH_ENGINE=NONE\n")
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("MEETING_SERVER_URL", "http://override:9000")
	t.Setenv("MEETING_SPEECH_ENGINE", "")
	require.NoError(t, os.Unsetenv("MEETING_SPEECH_ENGINE"))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "http://override:9000", cfg.Client.ServerURL)
	assert.Equal(t, "none", cfg.Speech.Engine)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "config.yaml", "server: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}
