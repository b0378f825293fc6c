package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memobread/memobread/internal/errors"
)

const baseURL = "http://memobread.test"

func setupClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	c, err := New(baseURL+"/", WithHTTPClient(&http.Client{Transport: transport}))
	require.NoError(t, err)
	return c, transport
}

const recordingJSON = `{
  "id": "0b7c3c0e-4a4c-4f8e-9c1e-3f1f3b7d2a10",
  "text": "这是一个语音转文字的测试。",
  "timestamp": "2025-03-01T10:00:00+08:00",
  "latitude": 39.9042,
  "longitude": 116.4074,
  "city": "北京",
  "created_at": "2025-03-01T02:00:01.5Z"
}`

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New("localhost:8000")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	_, err = New("http://localhost:8000")
	require.NoError(t, err)
}

func TestCreate(t *testing.T) {
	c, transport := setupClient(t)

	transport.RegisterResponder(http.MethodPost, baseURL+"/api/recordings/",
		func(req *http.Request) (*http.Response, error) {
			var body map[string]any
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
			}
			assert.Equal(t, "QQ==", body["audio_data"])
			assert.InDelta(t, 39.9042, body["latitude"], 1e-9)
			assert.NotContains(t, body, "city")
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			assert.Equal(t, "memobread-client", req.Header.Get("User-Agent"))
			return httpmock.NewStringResponse(http.StatusOK, recordingJSON), nil
		})

	lat, lon := 39.9042, 116.4074
	rec, err := c.Create(context.Background(), &CreateRequest{AudioData: "QQ==", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)

	assert.Equal(t, "0b7c3c0e-4a4c-4f8e-9c1e-3f1f3b7d2a10", rec.ID)
	require.NotNil(t, rec.City)
	assert.Equal(t, "北京", *rec.City)
	assert.True(t, rec.Timestamp.Equal(time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestList(t *testing.T) {
	c, transport := setupClient(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/recordings/",
		httpmock.NewStringResponder(http.StatusOK, "["+recordingJSON+"]"))

	recs, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 116.4074, *recs[0].Longitude, 1e-9)
}

func TestListEmpty(t *testing.T) {
	c, transport := setupClient(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/recordings/",
		httpmock.NewStringResponder(http.StatusOK, "[]"))

	recs, err := c.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestGetNotFound(t *testing.T) {
	c, transport := setupClient(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/recordings/missing",
		httpmock.NewStringResponder(http.StatusNotFound,
			`{"error":"recording not found","message":"Recording not found","code":404,"correlation_id":"AbCd1234"}`))

	_, err := c.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Recording not found", apiErr.Message)
	assert.Equal(t, "AbCd1234", apiErr.CorrelationID)
	assert.Contains(t, err.Error(), "AbCd1234")
}

func TestDelete(t *testing.T) {
	c, transport := setupClient(t)
	transport.RegisterResponder(http.MethodDelete, baseURL+"/api/recordings/abc",
		httpmock.NewStringResponder(http.StatusOK, `{"message":"Recording deleted successfully"}`))

	require.NoError(t, c.Delete(context.Background(), "abc"))
	assert.Equal(t, 1, transport.GetCallCountInfo()["DELETE "+baseURL+"/api/recordings/abc"])
}

func TestLocations(t *testing.T) {
	c, transport := setupClient(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/locations",
		httpmock.NewStringResponder(http.StatusOK, `[{"city":"上海","count":2,"recording_ids":["a","b"]}]`))

	groups, err := c.Locations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []LocationGroup{{City: "上海", Count: 2, RecordingIDs: []string{"a", "b"}}}, groups)
}

func TestHealth(t *testing.T) {
	c, transport := setupClient(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/healthz",
		httpmock.NewStringResponder(http.StatusOK, `{"status":"ok"}`))
	require.NoError(t, c.Health(context.Background()))

	transport.RegisterResponder(http.MethodGet, baseURL+"/healthz",
		httpmock.NewStringResponder(http.StatusOK, `{"status":"degraded"}`))
	require.Error(t, c.Health(context.Background()))
}

func TestStatusCategories(t *testing.T) {
	tests := []struct {
		status int
		want   errors.ErrorCategory
	}{
		{http.StatusBadRequest, errors.CategoryValidation},
		{http.StatusConflict, errors.CategoryConflict},
		{http.StatusTooManyRequests, errors.CategoryValidation},
		{http.StatusBadGateway, errors.CategoryIntegration},
		{http.StatusGatewayTimeout, errors.CategoryTimeout},
		{http.StatusInternalServerError, errors.CategoryHTTP},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, transport := setupClient(t)
			transport.RegisterResponder(http.MethodPost, baseURL+"/api/recordings/",
				httpmock.NewStringResponder(tt.status, `not json`))

			_, err := c.Create(context.Background(), &CreateRequest{AudioData: "QQ=="})
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, tt.want), "got %v", err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestTransportError(t *testing.T) {
	c, transport := setupClient(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/recordings/",
		httpmock.NewErrorResponder(errors.NewStd("connection refused")))

	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}

func TestMalformedResponse(t *testing.T) {
	c, transport := setupClient(t)
	transport.RegisterResponder(http.MethodGet, baseURL+"/api/recordings/x",
		httpmock.NewStringResponder(http.StatusOK, `{"id":`))

	_, err := c.Get(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryHTTP))
}

func TestBaseURLForListener(t *testing.T) {
	assert.Equal(t, "http://localhost:8000", BaseURLForListener("", "8000"))
	assert.Equal(t, "http://localhost:8000", BaseURLForListener("0.0.0.0", "8000"))
	assert.Equal(t, "http://localhost:8000", BaseURLForListener("::", "8000"))
	assert.Equal(t, "http://127.0.0.1:9000", BaseURLForListener("127.0.0.1", "9000"))
	assert.Equal(t, "http://[::1]:9000", BaseURLForListener("::1", "9000"))
}
