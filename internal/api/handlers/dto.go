package handlers

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/memobread/memobread/internal/datastore"
	"github.com/memobread/memobread/internal/errors"
	"github.com/memobread/memobread/internal/recording"
)

// CreateRecordingRequest is the POST /api/recordings body
type CreateRecordingRequest struct {
	AudioData *string  `json:"audio_data"`
	Timestamp *Timestamp `json:"timestamp,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	City      *string    `json:"city,omitempty"`
	Language  *string    `json:"language,omitempty"`
}

// Timestamp holds the raw request timestamp. JSON strings and numbers are
// both accepted; numbers are Unix epoch values.
type Timestamp string

// UnmarshalJSON keeps the string value or the literal text of a number
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*ts = Timestamp(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Newf("timestamp must be a string or a number").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	*ts = Timestamp(n.String())
	return nil
}

// RecordingResponse is the JSON form of a stored recording
type RecordingResponse struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	City      *string  `json:"city"`
	CreatedAt string   `json:"created_at"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// timestampLayouts are tried in order; zone-less values are read as local time
var timestampLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04Z07:00", true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02 15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds
const epochMillisThreshold = 2e10

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, ok := parseEpoch(value); ok {
		return t, nil
	}
	for _, l := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, value)
		} else {
			t, err = time.ParseInLocation(l.layout, value, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Newf("invalid timestamp %q, expected ISO 8601 (YYYY-MM-DD[THH:MM[:SS[.ffffff]]][Z|±HH:MM]) or Unix epoch seconds", value).
		Component("api").
		Category(errors.CategoryValidation).
		Build()
}

// parseEpoch reads Unix seconds, or milliseconds above epochMillisThreshold, as UTC
func parseEpoch(value string) (time.Time, bool) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	micros := f * 1e6
	if math.Abs(f) > epochMillisThreshold {
		micros = f * 1e3
	}
	return time.UnixMicro(int64(math.Round(micros))).UTC(), true
}

// toCreateRequest validates the body and converts it for the service
func (r *CreateRecordingRequest) toCreateRequest() (*recording.CreateRequest, error) {
	if r.AudioData == nil {
		return nil, errors.ValidationError("audio_data is required")
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return nil, errors.ValidationError("latitude and longitude must be provided together")
	}

	req := &recording.CreateRequest{
		AudioData: *r.AudioData,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		City:      r.City,
	}
	if r.Language != nil {
		req.Language = *r.Language
	}
	if r.Timestamp != nil && *r.Timestamp != "" {
		ts, err := parseTimestamp(string(*r.Timestamp))
		if err != nil {
			return nil, err
		}
		req.Timestamp = &ts
	}
	return req, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// NewRecordingResponse converts a stored recording
func NewRecordingResponse(rec *datastore.Recording) RecordingResponse {
	return RecordingResponse{
		ID:        rec.ID,
		Text:      rec.Text,
		Timestamp: formatTime(rec.Timestamp),
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
		City:      rec.City,
		CreatedAt: formatTime(rec.CreatedAt),
	}
}
