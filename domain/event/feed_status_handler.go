package event

import (
	"log/slog"
)

// FeedStatusHandler logs every transition of the feed between live, degraded
// and stopped, and counts them along with published inserts.
type FeedStatusHandler struct {
	log     *slog.Logger
	counter *Counter
}

func NewFeedStatusHandler(log *slog.Logger, counter *Counter) *FeedStatusHandler {
	return &FeedStatusHandler{log: log, counter: counter}
}

func (h *FeedStatusHandler) Handle(event Event) {
	switch payload := event.Payload.(type) {
	case FeedLive:
		h.counter.Increment(FeedLiveType)
		h.log.Info("Feed is live", "owner", payload.Owner, "rendered", payload.Rendered)
	case FeedDegraded:
		h.counter.Increment(FeedDegradedType)
		h.log.Warn("Feed degraded, live updates stopped", "owner", payload.Owner, "error", payload.Err)
	case FeedStopped:
		h.counter.Increment(FeedStoppedType)
		h.log.Debug("Feed stopped", "owner", payload.Owner)
	case MessageInserted:
		h.counter.Increment(MessageInsertedType)
		h.log.Debug("Message published", "collection", payload.Collection, "message_id", payload.Message.ID)
	}
}
