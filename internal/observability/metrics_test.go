package observability

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memobread/memobread/internal/conf"
	"github.com/memobread/memobread/internal/observability/metrics"
)

func TestNewMetricsUsesPrivateRegistries(t *testing.T) {
	first, err := NewMetrics()
	require.NoError(t, err)
	second, err := NewMetrics()
	require.NoError(t, err, "a second instance must not collide with the first")

	first.Recordings.RecordOperation(metrics.OpCreate, metrics.StatusSuccess)
	assert.InDelta(t, 1, testutil.ToFloat64(first.Recordings.OperationsTotal.WithLabelValues(metrics.OpCreate, metrics.StatusSuccess)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(second.Recordings.OperationsTotal.WithLabelValues(metrics.OpCreate, metrics.StatusSuccess)), 0)
}

func TestRecordingMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	rec := m.Recordings

	rec.SetStored(3)
	assert.InDelta(t, 3, testutil.ToFloat64(rec.Stored), 0)

	rec.RecordLocation(metrics.LocationResolved)
	rec.RecordLocation(metrics.LocationResolved)
	rec.RecordLocation(metrics.LocationUnknown)
	assert.InDelta(t, 2, testutil.ToFloat64(rec.LocationResolutions.WithLabelValues(metrics.LocationResolved)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(rec.LocationResolutions.WithLabelValues(metrics.LocationUnknown)), 0)

	rec.RecordError(metrics.OpCreate, "integration")
	assert.InDelta(t, 1, testutil.ToFloat64(rec.ErrorsTotal.WithLabelValues(metrics.OpCreate, "integration")), 0)

	rec.ObserveTranscription("stub", 2*time.Millisecond, nil)
	rec.ObserveTranscription("stub", time.Millisecond, errors.New("boom"))
	assert.Equal(t, 2, testutil.CollectAndCount(rec.TranscriptionDuration))

	rec.RecordDuration(metrics.OpCreate, 0.01)
	assert.Equal(t, 1, testutil.CollectAndCount(rec.OperationDuration))
}

func TestHTTPAndMQTTMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.HTTP.RequestStarted()
	m.HTTP.RecordRequest(http.MethodGet, "/api/recordings", http.StatusOK, 0.002, 128)

	expected := `
# HELP http_requests_total Total number of HTTP requests
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/api/recordings",status_code="200"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "http_requests_total"))

	m.MQTT.UpdateConnectionStatus(true)
	m.MQTT.RecordPublish(time.Millisecond, nil)
	m.MQTT.RecordPublish(time.Millisecond, errors.New("offline"))
	assert.InDelta(t, 1, testutil.ToFloat64(m.MQTT.ConnectionStatus), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MQTT.MessagesDelivered), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MQTT.Errors), 0)
}

func TestNewEndpointRequiresTelemetry(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	_, err = NewEndpoint(&conf.Settings{}, m)
	require.Error(t, err)
}

func TestEndpointServesMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	m.Recordings.SetStored(7)

	settings := &conf.Settings{}
	settings.Telemetry.Enabled = true
	settings.Telemetry.Listen = "127.0.0.1:0"

	endpoint, err := NewEndpoint(settings, m)
	require.NoError(t, err)
	assert.Same(t, m, endpoint.GetMetrics())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- endpoint.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "memobread_recordings_stored 7")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("endpoint did not stop")
	}
}
