// Package embedded is an in-process backend: accounts, messages and
// attachments live in BadgerDB, inserts are pushed to subscribers through an
// in-memory hub. Each caller gets its own Client holding its session.
package embedded

import (
	"app-chat/auth"
	"app-chat/contract"
	"app-chat/domain/event"
	"app-chat/infrastructure/storage"
	"app-chat/runtime"
	"app-chat/runtime/workers"
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type Config struct {
	TokenSecret   string
	TokenDuration time.Duration
	PageSize      int
	BufferSize    int
	SinkTimeout   time.Duration
}

// Backend owns the stores and the realtime hub shared by every Client.
type Backend struct {
	log         *slog.Logger
	users       storage.IUserRepository
	messages    storage.IMessageRepository
	blobs       storage.IBlobRepository
	tokens      *auth.TokenIssuer
	registry    contract.IRegistry
	supervisor  *workers.Supervisor
	handler     event.Handler
	inserted    chan event.MessageInserted
	done        chan struct{}
	bufferSize  int
	sinkTimeout time.Duration
}

func NewBackend(log *slog.Logger, db *badger.DB, handler event.Handler, cfg Config) *Backend {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = time.Second
	}
	return &Backend{
		log:         log,
		users:       storage.NewUserRepository(db),
		messages:    storage.NewMessageRepository(db, log, cfg.PageSize),
		blobs:       storage.NewBlobRepository(db),
		tokens:      auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenDuration),
		registry:    runtime.NewRegistry(),
		supervisor:  workers.NewSupervisor(log, handler, 0),
		handler:     handler,
		inserted:    make(chan event.MessageInserted, cfg.BufferSize),
		bufferSize:  cfg.BufferSize,
		sinkTimeout: cfg.SinkTimeout,
	}
}

// Start runs the realtime hub in the background until ctx is done.
func (b *Backend) Start(ctx context.Context) {
	b.done = make(chan struct{})
	b.supervisor.Add(workers.NewEventFanout(b.log, b.registry, b.inserted, b.sinkTimeout))
	go func() {
		defer close(b.done)
		b.supervisor.Run(ctx)
	}()
}

// Wait blocks until the hub started by Start has stopped.
func (b *Backend) Wait() {
	if b.done != nil {
		<-b.done
	}
}

// NewClient returns a logged out client of the backend.
func (b *Backend) NewClient() *Client {
	return &Client{backend: b}
}

func (b *Backend) publish(ctx context.Context, evt event.MessageInserted) error {
	select {
	case b.inserted <- evt:
	case <-ctx.Done():
		return ctx.Err()
	}
	if b.handler != nil {
		b.handler.Handle(event.New(event.MessageInsertedType, evt))
	}
	return nil
}
