package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// writeConfig writes a config file into a temp dir and returns its path
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	settings, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.False(t, settings.Debug)
	assert.Equal(t, "memobread", settings.Main.Name)
	assert.Equal(t, "8000", settings.WebServer.Port)
	assert.Equal(t, []string{"*"}, settings.WebServer.AllowedOrigins)
	assert.Equal(t, 30*time.Second, settings.WebServer.ReadTimeout)
	assert.Equal(t, "stub", settings.Transcription.Provider)
	assert.Equal(t, "zh-CN", settings.Transcription.Language)
	assert.Equal(t, 100, settings.Transcription.PrefixLength)
	assert.False(t, settings.Transcription.StrictDecode)
	assert.InDelta(t, 50.0, settings.Location.Threshold, 0)
	assert.Equal(t, "memory", settings.Storage.Backend)
	assert.Equal(t, "memobread", settings.MQTT.ClientID, "client id falls back to main.name")
	assert.Equal(t, "info", settings.Logging.DefaultLevel)
	assert.Same(t, settings, GetSettings())
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
debug: true
webserver:
  port: "9000"
  allowedorigins: ["https://memo.example.com"]
transcription:
  strictdecode: true
  timeout: 5s
location:
  threshold: 25
storage:
  backend: sqlite
logging:
  module_levels:
    datastore: trace
`)

	settings, err := Load(path)
	require.NoError(t, err)

	assert.True(t, settings.Debug)
	assert.Equal(t, "debug", settings.Logging.DefaultLevel, "debug flag raises the default level")
	assert.Equal(t, "9000", settings.WebServer.Port)
	assert.Equal(t, []string{"https://memo.example.com"}, settings.WebServer.AllowedOrigins)
	assert.True(t, settings.Transcription.StrictDecode)
	assert.Equal(t, 5*time.Second, settings.Transcription.Timeout)
	assert.InDelta(t, 25.0, settings.Location.Threshold, 0)
	assert.Equal(t, "sqlite", settings.Storage.Backend)
	assert.Equal(t, "trace", settings.Logging.ModuleLevels["datastore"])
	assert.Equal(t, path, ConfigFileUsed())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("MEMOBREAD_WEBSERVER_PORT", "8123")
	t.Setenv("MEMOBREAD_TRANSCRIPTION_LANGUAGE", "en-US")
	t.Setenv("MEMOBREAD_MQTT_TOPIC", "memos")

	settings, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "8123", settings.WebServer.Port)
	assert.Equal(t, "en-US", settings.Transcription.Language)
	assert.Equal(t, "memos", settings.MQTT.Topic)
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("MEMOBREAD_WEBSERVER_PORT", "not-a-port")

	_, err := Load(writeConfig(t, "{}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEMOBREAD_WEBSERVER_PORT")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidateSettings(t *testing.T) {
	valid := func() *Settings {
		settings, err := Load(writeConfig(t, "{}\n"))
		require.NoError(t, err)
		return settings
	}

	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"defaults", func(s *Settings) {}, ""},
		{"bad port", func(s *Settings) { s.WebServer.Port = "70000" }, "webserver.port"},
		{"negative port", func(s *Settings) { s.WebServer.Port = "-1" }, "webserver.port"},
		{"free port", func(s *Settings) { s.WebServer.Port = "0" }, ""},
		{"unknown backend", func(s *Settings) { s.Storage.Backend = "redis" }, "storage.backend"},
		{"unknown provider", func(s *Settings) { s.Transcription.Provider = "whisper" }, "transcription.provider"},
		{"bad language", func(s *Settings) { s.Transcription.Language = "??" }, "transcription.language"},
		{"short prefix", func(s *Settings) { s.Transcription.PrefixLength = 2 }, "prefixlength"},
		{"zero threshold", func(s *Settings) { s.Location.Threshold = 0 }, "location.threshold"},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, "sentry.dsn"},
		{"mqtt bad broker", func(s *Settings) { s.MQTT.Enabled = true; s.MQTT.Broker = "localhost" }, "mqtt.broker"},
		{"bad module level", func(s *Settings) { s.Logging.ModuleLevels = map[string]string{"api": "loud"} }, "module_levels.api"},
		{"rate limit without burst", func(s *Settings) {
			s.WebServer.RateLimit.Enabled = true
			s.WebServer.RateLimit.Burst = 0
		}, "ratelimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := valid()
			tt.mutate(settings)
			err := ValidateSettings(settings)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDumpYAMLMasksSecrets(t *testing.T) {
	settings, err := Load(writeConfig(t, "mqtt:\n  password: hunter2\n"))
	require.NoError(t, err)

	data, err := DumpYAML(settings, false)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
	assert.Contains(t, string(data), maskedSecret)

	data, err = DumpYAML(settings, true)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hunter2")
}

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	settings, err := Load(writeConfig(t, "webserver:\n  port: \"8555\"\n"))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveYAMLConfig(out, settings))

	reloaded, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, "8555", reloaded.WebServer.Port)
	assert.Equal(t, settings.Transcription, reloaded.Transcription)
}

func TestWriteDefaultConfig(t *testing.T) {
	out := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(out))
	require.Error(t, WriteDefaultConfig(out), "existing files are not overwritten")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &parsed))
	assert.Contains(t, parsed, "transcription")

	settings, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, "memory", settings.Storage.Backend)
}
