package submit

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memobread/memobread/internal/api"
	"github.com/memobread/memobread/internal/conf"
	"github.com/memobread/memobread/internal/datastore"
	"github.com/memobread/memobread/internal/errors"
	"github.com/memobread/memobread/internal/location"
	"github.com/memobread/memobread/internal/logger"
	"github.com/memobread/memobread/internal/recording"
	"github.com/memobread/memobread/internal/transcription"
)

var testLog = logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)

func startServer(t *testing.T) (*httptest.Server, *datastore.MemoryStore) {
	t.Helper()
	store := datastore.NewMemoryStore()
	service := recording.NewService(store,
		transcription.NewStub(transcription.WithLogger(testLog)),
		location.NewTableResolver(),
		recording.WithLogger(testLog))

	settings := &conf.Settings{}
	settings.WebServer.Port = "0"
	settings.WebServer.BodyLimit = "10M"
	settings.WebServer.AllowedOrigins = []string{"*"}

	s, err := api.New(settings, service, api.WithLogger(testLog))
	require.NoError(t, err)

	ts := httptest.NewServer(s.Echo())
	t.Cleanup(ts.Close)
	return ts, store
}

func writeAudio(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memo.wav")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := Command(&conf.Settings{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSubmitWithCoordinates(t *testing.T) {
	ts, store := startServer(t)
	path := writeAudio(t, []byte("A"))

	out, err := execute(t, path, "--server", ts.URL, "--latitude", "39.9042", "--longitude", "116.4074")
	require.NoError(t, err)

	assert.Contains(t, out, "北京")
	assert.Contains(t, out, transcription.PlaceholderText)

	recs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Contains(t, out, recs[0].ID)
}

func TestSubmitWithCity(t *testing.T) {
	ts, store := startServer(t)
	path := writeAudio(t, []byte("hello"))

	_, err := execute(t, path, "--server", ts.URL, "--city", "上海", "--timestamp", "2025-03-01T10:00:00+08:00")
	require.NoError(t, err)

	recs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].City)
	assert.Equal(t, "上海", *recs[0].City)
	assert.Equal(t, 2025, recs[0].Timestamp.Year())
}

func TestSubmitRejectsHalfCoordinates(t *testing.T) {
	path := writeAudio(t, []byte("A"))
	_, err := execute(t, path, "--server", "http://127.0.0.1:1", "--latitude", "39.9")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestSubmitRejectsBadTimestamp(t *testing.T) {
	path := writeAudio(t, []byte("A"))
	_, err := execute(t, path, "--server", "http://127.0.0.1:1", "--timestamp", "yesterday")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestNewRequest(t *testing.T) {
	req, err := newRequest(writeAudio(t, []byte("A")))
	require.NoError(t, err)
	assert.Equal(t, "QQ==", req.AudioData)

	_, err = newRequest(writeAudio(t, nil))
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = newRequest(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}
