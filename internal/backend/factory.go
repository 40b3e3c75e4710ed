package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jc9677/budget-app-2/internal/amqp"
	"github.com/jc9677/budget-app-2/internal/events"
	"github.com/jc9677/budget-app-2/internal/events/kafka"
	"github.com/jc9677/budget-app-2/internal/storage"
	"github.com/jc9677/budget-app-2/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

var _ Factory = (*DefaultFactory)(nil)

func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateStore opens the configured persistence gateway, running migrations
// for the SQL backends.
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.Gateway
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = storage.OpenSQLite(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case PostgresBackend:
		store, err = storage.OpenPostgres(config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized Postgres backend")
	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		store = memory.NewFromFiles(dataDir)
		f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dataDir)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	return &StoreResult{Store: store, Cleanup: store.Close}, nil
}

// CreateEvents builds the broker publisher, and the consumer when asked for.
func (f *DefaultFactory) CreateEvents(ctx context.Context, config Config) (*EventsResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Events {
	case AMQPEvents:
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			if config.WithConsumer {
				return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
			}
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
			return &EventsResult{Publisher: events.Nop, Cleanup: noCleanup}, nil
		}
		f.logger.InfoContext(ctx, "Initialized AMQP client",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
		res := &EventsResult{Publisher: client, Cleanup: client.Close}
		if config.WithConsumer {
			res.Consumer = client
		}
		return res, nil

	case KafkaEvents:
		pub := kafka.NewPublisher(config.KafkaBrokers, config.KafkaTopic)
		res := &EventsResult{Publisher: pub, Cleanup: pub.Close}
		if config.WithConsumer {
			consumer := kafka.NewConsumer(config.KafkaBrokers, config.KafkaTopic, config.KafkaGroupID)
			res.Consumer = consumer
			res.Cleanup = func() error {
				return errors.Join(pub.Close(), consumer.Close())
			}
		}
		f.logger.InfoContext(ctx, "Initialized Kafka transport",
			"brokers", config.KafkaBrokers,
			"topic", config.KafkaTopic,
			"consumer", config.WithConsumer)
		return res, nil

	default:
		return &EventsResult{Publisher: events.Nop, Cleanup: noCleanup}, nil
	}
}

func noCleanup() error { return nil }
