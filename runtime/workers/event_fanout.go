package workers

import (
	"app-chat/contract"
	"app-chat/domain/event"
	"context"
	"log/slog"
	"time"
)

// EventFanout delivers every inserted message to the sinks subscribed to its
// collection.
//
// Delivery is best effort: no durability and no retry. Sinks are served one
// after the other so that each subscriber sees inserts in publication order.
// A sink gets sinkTimeout per message to accept it; the context handed to the
// sink expires later so that the sink's own slow consumer timeout always fires
// first and reports the drop.
const deliveryGrace = 2

type EventFanout struct {
	log         *slog.Logger
	registry    contract.IRegistry
	inserted    chan event.MessageInserted
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry,
	inserted chan event.MessageInserted, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{log: log, registry: registry, inserted: inserted, sinkTimeout: sinkTimeout}
}

func (w EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.inserted:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Fanout One consume per subscribed sink
func (w EventFanout) Fanout(ctx context.Context, evt event.MessageInserted) {
	for _, sink := range w.registry.GetSinksForCollection(evt.Collection) {
		sinkCtx, cancel := context.WithTimeout(ctx, deliveryGrace*w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt.Message); err != nil {
			w.log.Debug("Sink dropped message", "collection", evt.Collection, "message_id", evt.Message.ID, "error", err)
		}
		cancel()
	}
}
