package backend

import (
	"context"

	"github.com/jc9677/budget-app-2/internal/events"
	"github.com/jc9677/budget-app-2/internal/storage"
)

// CleanupFunc releases resources held by a created backend.
type CleanupFunc func() error

// StoreResult contains the persistence gateway and its cleanup function.
type StoreResult struct {
	Store   storage.Gateway
	Cleanup CleanupFunc
}

// EventsResult contains the change-event transport. Consumer is nil unless
// the config asked for one; Publisher is never nil.
type EventsResult struct {
	Publisher events.Publisher
	Consumer  events.Consumer
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreateEvents(ctx context.Context, config Config) (*EventsResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath  string
	DatabaseURL   string
	DataDirectory string

	Events       EventsType
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// WithConsumer requests a consumer as well as a publisher. Processes that
	// only publish leave it false so a broker outage degrades to no events.
	WithConsumer bool
}

// BackendType represents the type of persistence backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// EventsType selects the change-event broker.
type EventsType string

const (
	NoEvents    EventsType = "none"
	AMQPEvents  EventsType = "amqp"
	KafkaEvents EventsType = "kafka"
)

func (et EventsType) IsValid() bool {
	switch et {
	case NoEvents, AMQPEvents, KafkaEvents:
		return true
	default:
		return false
	}
}
