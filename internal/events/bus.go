// Package events records domain events and fans them out to in-process
// notifiers. Notifier failures are logged by the caller-provided notifier
// chain and never fail the emitting operation.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store defines the persistence operation required by the bus.
type Store interface {
	InsertDomainEvent(ctx context.Context, id uuid.UUID, topic string, aggregateID int64, payload []byte) error
}

// Event is an emitted domain event.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	Topic       string          `json:"topic"`
	AggregateID int64           `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
}

// Notifier reacts to emitted events.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Bus persists domain events and fans them out to notifiers.
type Bus struct {
	Store     Store
	Notifiers []Notifier
}

// Emit records the event and dispatches it to all configured notifiers.
func (b *Bus) Emit(ctx context.Context, topic string, aggregateID int64, payload any) (Event, error) {
	if b == nil || b.Store == nil {
		return Event{}, errors.New("events: store not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Event{}, errors.New("events: topic is required")
	}
	if aggregateID <= 0 {
		return Event{}, errors.New("events: aggregate id is required")
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("events: encode payload: %w", err)
	}
	event := Event{
		ID:          uuid.New(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     encoded,
	}
	if err := b.Store.InsertDomainEvent(ctx, event.ID, event.Topic, event.AggregateID, event.Payload); err != nil {
		return Event{}, fmt.Errorf("events: persist event: %w", err)
	}
	for _, n := range b.Notifiers {
		if n == nil {
			continue
		}
		_ = n.Notify(ctx, event)
	}
	return event, nil
}

// LogNotifier writes emitted events to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Info().
		Str("event_id", event.ID.String()).
		Str("topic", event.Topic).
		Int64("aggregate_id", event.AggregateID).
		RawJSON("payload", event.Payload).
		Msg("domain_event")
	return nil
}
