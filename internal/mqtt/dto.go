package mqtt

import (
	"time"

	"github.com/memobread/memobread/internal/datastore"
)

// Event names, also used as the last topic segment
const (
	EventCreated = "created"
	EventDeleted = "deleted"
)

// RecordingEventDTO is the JSON payload of a recording event.
//
// Field names are part of the event contract consumed by subscribers.
type RecordingEventDTO struct {
	Event     string   `json:"event"`
	ID        string   `json:"id"`
	Text      string   `json:"text,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"` // RFC 3339
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	City      *string  `json:"city,omitempty"`
	SentAt    string   `json:"sent_at"`
}

// NewCreatedEventDTO builds the payload for a newly stored recording.
func NewCreatedEventDTO(rec *datastore.Recording, now time.Time) *RecordingEventDTO {
	return &RecordingEventDTO{
		Event:     EventCreated,
		ID:        rec.ID,
		Text:      rec.Text,
		Timestamp: rec.Timestamp.Format(time.RFC3339Nano),
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
		City:      rec.City,
		SentAt:    now.UTC().Format(time.RFC3339Nano),
	}
}

// NewDeletedEventDTO builds the payload for a deleted recording.
func NewDeletedEventDTO(id string, now time.Time) *RecordingEventDTO {
	return &RecordingEventDTO{
		Event:  EventDeleted,
		ID:     id,
		SentAt: now.UTC().Format(time.RFC3339Nano),
	}
}
