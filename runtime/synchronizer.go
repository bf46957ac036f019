// Package runtime keeps the rendered feed in step with the message store and
// its realtime channel. It orchestrates the services without containing
// business rules.
package runtime

import (
	"app-chat/domain/chat"
	"app-chat/domain/event"
	"app-chat/projection"
	"app-chat/services"
	"context"
	"log/slog"
	"sync"
)

// Synchronizer drives one feed for one session at a time.
//
// Start subscribes before fetching so that no insert is lost between the two:
// events received while the fetch runs are buffered, then flushed once the
// fetched messages are rendered. The feed drops the ids it already shows.
type Synchronizer struct {
	log      *slog.Logger
	messages services.IMessageService
	realtime services.IRealtimeService
	feed     *projection.Feed
	handler  event.Handler

	mu         sync.Mutex
	generation uint64
	owner      chat.UserID
	buffering  bool
	buffer     []chat.Message
	handle     *services.SubscriptionHandle
	cancel     context.CancelFunc
}

func NewSynchronizer(log *slog.Logger, messages services.IMessageService, realtime services.IRealtimeService,
	feed *projection.Feed, handler event.Handler) *Synchronizer {
	return &Synchronizer{log: log, messages: messages, realtime: realtime, feed: feed, handler: handler}
}

// Start renders the whole collection for session then keeps it live. A
// realtime failure does not fail Start: the feed is reported degraded and
// still shows the fetched messages. A fetch failure is returned.
func (s *Synchronizer) Start(ctx context.Context, session chat.Session) error {
	s.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.owner = session.UserID
	s.buffering = true
	s.buffer = nil
	s.cancel = cancel
	s.mu.Unlock()

	s.feed.Reset(session.UserID)

	handle, err := s.realtime.Subscribe(runCtx, func(m chat.Message) { s.onInsert(generation, m) })
	if err != nil {
		s.emit(event.New(event.FeedDegradedType, event.FeedDegraded{Owner: session.UserID, Err: err}))
	}

	fetched, err := s.messages.FetchAll(runCtx)
	if err != nil {
		s.mu.Lock()
		s.generation++
		s.buffering = false
		s.buffer = nil
		s.cancel = nil
		s.mu.Unlock()
		s.realtime.Unsubscribe(handle)
		cancel()
		return err
	}

	for _, m := range fetched {
		s.feed.Append(m)
	}

	s.mu.Lock()
	flushed := len(s.buffer)
	for _, m := range s.buffer {
		s.feed.Append(m)
	}
	s.buffer = nil
	s.buffering = false
	s.handle = handle
	s.mu.Unlock()

	s.feed.ScrollToLatest()
	s.log.Debug("Feed synchronized", "owner", session.UserID, "fetched", len(fetched), "buffered", flushed)
	s.emit(event.New(event.FeedLiveType, event.FeedLive{Owner: session.UserID, Rendered: s.feed.Len()}))

	if handle != nil {
		go s.watch(generation, session.UserID, handle)
	}
	return nil
}

// Stop releases the subscription. It is safe to call when nothing runs.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.generation++
	handle, cancel, owner := s.handle, s.cancel, s.owner
	s.handle, s.cancel = nil, nil
	s.buffering = false
	s.buffer = nil
	s.mu.Unlock()

	s.realtime.Unsubscribe(handle)
	cancel()
	s.emit(event.New(event.FeedStoppedType, event.FeedStopped{Owner: owner}))
}

func (s *Synchronizer) onInsert(generation uint64, m chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return
	}
	if s.buffering {
		s.buffer = append(s.buffer, m)
		return
	}
	if s.feed.Append(m) {
		s.feed.ScrollToLatest()
	}
}

func (s *Synchronizer) watch(generation uint64, owner chat.UserID, handle *services.SubscriptionHandle) {
	<-handle.Done()
	err := handle.Err()
	if err == nil {
		return
	}
	s.mu.Lock()
	current := generation == s.generation
	s.mu.Unlock()
	if current {
		s.emit(event.New(event.FeedDegradedType, event.FeedDegraded{Owner: owner, Err: err}))
	}
}

func (s *Synchronizer) emit(e event.Event) {
	if s.handler != nil {
		s.handler.Handle(e)
	}
}
