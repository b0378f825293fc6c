package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/memobread/memobread/internal/datastore"
	"github.com/memobread/memobread/internal/errors"
)

// Publisher turns recording lifecycle changes into MQTT messages.
type Publisher struct {
	client Client
	topic  string
	now    func() time.Time
}

// NewPublisher creates a Publisher that sends to <topic>/created and <topic>/deleted.
func NewPublisher(client Client, topic string) *Publisher {
	return &Publisher{
		client: client,
		topic:  strings.TrimSuffix(topic, "/"),
		now:    time.Now,
	}
}

// Topic returns the full topic for an event.
func (p *Publisher) Topic(event string) string {
	return p.topic + "/" + event
}

// RecordingCreated publishes a created event.
func (p *Publisher) RecordingCreated(ctx context.Context, rec *datastore.Recording) error {
	return p.publish(ctx, EventCreated, NewCreatedEventDTO(rec, p.now()))
}

// RecordingDeleted publishes a deleted event.
func (p *Publisher) RecordingDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, EventDeleted, NewDeletedEventDTO(id, p.now()))
}

func (p *Publisher) publish(ctx context.Context, event string, dto *RecordingEventDTO) error {
	payload, err := json.Marshal(dto)
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("operation", "marshal_event").
			Context("event", event).
			Build()
	}
	return p.client.Publish(ctx, p.Topic(event), payload)
}
