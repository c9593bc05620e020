// Package outbox records clinic events in an append-only collection that downstream
// consumers (reporting, notifications) read from.
package outbox

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollectionName = "outbox"

// EventType identifies the kind of event
type EventType string

const (
	EventTypeAppointmentsImported EventType = "appointmentsImported"
)

// Event is the common envelope for all outbox events
type Event struct {
	Id          *primitive.ObjectID `bson:"_id,omitempty"`
	EventType   EventType           `bson:"eventType"`
	CreatedTime time.Time           `bson:"createdTime"`
	Payload     bson.Raw            `bson:"payload"`
}

// AppointmentsImportedPayload is the payload for appointmentsImported events
type AppointmentsImportedPayload struct {
	Rows      int      `bson:"rows"`
	Created   int      `bson:"created"`
	Updated   int      `bson:"updated"`
	Unmatched int      `bson:"unmatched"`
	Skipped   int      `bson:"skipped"`
	HNs       []string `bson:"hns"`
}

//go:generate mockgen --build_flags=--mod=mod -source=./outbox.go -destination=./test/mock_outbox.go -package test

type Repository interface {
	Create(ctx context.Context, event Event) error
	Initialize(ctx context.Context) error
}

// NewEvent creates an Event from a typed payload
func NewEvent(eventType EventType, payload interface{}) (Event, error) {
	raw, err := bson.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("error marshaling outbox event payload: %w", err)
	}

	return Event{
		EventType:   eventType,
		CreatedTime: time.Now(),
		Payload:     bson.Raw(raw),
	}, nil
}

// DecodePayload unmarshals the payload of an event into a typed value
func DecodePayload[T any](event Event) (T, error) {
	var payload T
	if err := bson.Unmarshal(event.Payload, &payload); err != nil {
		return payload, fmt.Errorf("error unmarshaling outbox event payload: %w", err)
	}
	return payload, nil
}
