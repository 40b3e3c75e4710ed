// Package events defines the change notifications emitted after every
// mutation of budget data and the ports used to publish and consume them.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	AccountCreated     Kind = "account.created"
	AccountUpdated     Kind = "account.updated"
	AccountDeleted     Kind = "account.deleted"
	TransactionCreated Kind = "transaction.created"
	TransactionUpdated Kind = "transaction.updated"
	TransactionDeleted Kind = "transaction.deleted"
	CategoryAdded      Kind = "category.added"
	DataReset          Kind = "data.reset"
	DataImported       Kind = "data.imported"
)

// Event carries only what changed; consumers re-read state from storage.
type Event struct {
	Kind     Kind      `json:"kind"`
	EntityID string    `json:"entityId,omitempty"`
	At       time.Time `json:"at"`
}

func New(kind Kind, entityID string) Event {
	return Event{Kind: kind, EntityID: entityID, At: time.Now().UTC()}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes an event, rejecting payloads without a kind.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Kind == "" {
		return Event{}, errors.New("decode event: missing kind")
	}
	return e, nil
}

type (
	Publisher interface {
		Publish(ctx context.Context, e Event) error
	}

	// Handler processes one event. Returning an error asks the transport to redeliver.
	Handler func(ctx context.Context, e Event) error

	// Consumer delivers events to h until ctx is done or the transport fails.
	Consumer interface {
		Consume(ctx context.Context, h Handler) error
		Close() error
	}
)

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Nop discards every event.
var Nop Publisher = PublisherFunc(func(context.Context, Event) error { return nil })

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
