package serve

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memobread/memobread/internal/conf"
	"github.com/memobread/memobread/internal/datastore"
	"github.com/memobread/memobread/internal/errors"
	"github.com/memobread/memobread/internal/location"
	"github.com/memobread/memobread/internal/recording"
	"github.com/memobread/memobread/internal/transcription"
)

func loadSettings(t *testing.T, content string) *conf.Settings {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	settings, err := conf.Load(path)
	require.NoError(t, err)
	return settings
}

const testConfig = `
webserver:
  host: 127.0.0.1
  port: "0"
logging:
  default_level: error
`

func ptr[T any](v T) *T { return &v }

func TestBuildDefaults(t *testing.T) {
	app, err := Build(loadSettings(t, testConfig))
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Telemetry)
	assert.Nil(t, app.MQTT)
	assert.IsType(t, &datastore.MemoryStore{}, app.Store)

	rec, err := app.Service.Create(context.Background(), &recording.CreateRequest{
		AudioData: "QQ==",
		Latitude:  ptr(39.9042),
		Longitude: ptr(116.4074),
	})
	require.NoError(t, err)
	assert.Equal(t, transcription.PlaceholderText, rec.Text)
	require.NotNil(t, rec.City)
	assert.Equal(t, "北京", *rec.City)
}

func TestBuildSQLiteWithCachedResolver(t *testing.T) {
	settings := loadSettings(t, testConfig+`
storage:
  backend: sqlite
location:
  cache:
    enabled: true
`)
	app, err := Build(settings)
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &datastore.SQLiteStore{}, app.Store)
	assert.IsType(t, &location.CachedResolver{}, newResolver(settings))

	_, err = app.Service.Create(context.Background(), &recording.CreateRequest{AudioData: "QQ=="})
	require.NoError(t, err)
	recs, err := app.Service.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestBuildStrictDecode(t *testing.T) {
	app, err := Build(loadSettings(t, testConfig+`
transcription:
  strictdecode: true
`))
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Service.Create(context.Background(), &recording.CreateRequest{AudioData: "Q"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestBuildWithTelemetryAndMQTT(t *testing.T) {
	app, err := Build(loadSettings(t, testConfig+`
telemetry:
  enabled: true
  listen: 127.0.0.1:0
mqtt:
  enabled: true
  broker: tcp://127.0.0.1:1
`))
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Telemetry)
	assert.NotNil(t, app.MQTT)
	assert.False(t, app.MQTT.IsConnected())
	assert.Same(t, app.Metrics, app.Telemetry.GetMetrics())
}

func TestNewTranscriberRejectsUnknownProvider(t *testing.T) {
	settings := loadSettings(t, testConfig)
	settings.Transcription.Provider = "whisper"

	_, err := Build(settings)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestRunStopsOnCancel(t *testing.T) {
	app, err := Build(loadSettings(t, testConfig+`
telemetry:
  enabled: true
  listen: 127.0.0.1:0
`))
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestPrivacyFilters(t *testing.T) {
	event := &sentry.Event{
		ServerName: "memo-host",
		User:       sentry.User{ID: "42", IPAddress: "10.0.0.1"},
		Contexts:   map[string]sentry.Context{"os": {"name": "linux"}, "trace": {}},
		Tags:       map[string]string{"hostname": "memo-host", "component": "api"},
		Request:    &sentry.Request{Method: "POST", Data: `{"audio_data":"QQ=="}`},
		Message:    "resolve failed for 39.9042, 116.4074",
		Exception:  []sentry.Exception{{Type: "error", Value: "dial tcp://u:p@10.0.0.5:1883"}},
	}

	filtered := applyPrivacyFilters(event, nil)
	assert.Empty(t, filtered.ServerName)
	assert.Equal(t, sentry.User{}, filtered.User)
	assert.NotContains(t, filtered.Contexts, "os")
	assert.Contains(t, filtered.Contexts, "trace")
	assert.NotContains(t, filtered.Tags, "hostname")
	assert.Equal(t, "api", filtered.Tags["component"])
	assert.Empty(t, filtered.Request.Data)
	assert.Equal(t, "POST", filtered.Request.Method)
	assert.Equal(t, "resolve failed for [COORDINATES]", filtered.Message)
	assert.NotContains(t, filtered.Exception[0].Value, "10.0.0.5")
}

func TestInitSentryDisabledIsNoop(t *testing.T) {
	require.NoError(t, initSentry(loadSettings(t, testConfig)))
}
