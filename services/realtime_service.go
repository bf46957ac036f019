package services

import (
	"app-chat/contract"
	"app-chat/domain/chat"
	"app-chat/errors"
	"context"
	"log/slog"
	"sync"
)

type IRealtimeService interface {
	Subscribe(ctx context.Context, onInsert func(chat.Message)) (*SubscriptionHandle, error)
	Unsubscribe(handle *SubscriptionHandle)
}

// RealtimeService opens insert subscriptions on the message collection and
// pumps their events into a callback under supervision.
type RealtimeService struct {
	log        *slog.Logger
	channel    contract.RealtimeChannel
	supervisor contract.ISupervisor
	collection string
}

func NewRealtimeService(log *slog.Logger, channel contract.RealtimeChannel,
	supervisor contract.ISupervisor, collection string) *RealtimeService {
	return &RealtimeService{log: log, channel: channel, supervisor: supervisor, collection: collection}
}

// Subscribe calls onInsert once per insert event, in delivery order, from a
// single goroutine. The subscription lives until ctx is done, Unsubscribe is
// called or the channel drops; the handle's Done and Err report which.
func (s *RealtimeService) Subscribe(ctx context.Context, onInsert func(chat.Message)) (*SubscriptionHandle, error) {
	sub, err := s.channel.SubscribeToInserts(ctx, s.collection)
	if err != nil {
		s.log.Warn("Realtime channel could not be opened", "collection", s.collection, "error", err)
		return nil, errors.Channel("subscribe", err)
	}
	pumpCtx, cancel := context.WithCancel(ctx)
	handle := &SubscriptionHandle{
		log:        s.log,
		collection: s.collection,
		sub:        sub,
		onInsert:   onInsert,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.supervisor.Start(pumpCtx, handle)
	s.log.Debug("Subscribed to inserts", "collection", s.collection)
	return handle, nil
}

// Unsubscribe releases the channel. Calling it more than once, or with a nil
// handle, is harmless.
func (s *RealtimeService) Unsubscribe(handle *SubscriptionHandle) {
	if handle == nil {
		return
	}
	handle.Close()
}

// SubscriptionHandle is the worker pumping one subscription.
type SubscriptionHandle struct {
	log        *slog.Logger
	collection string
	sub        contract.Subscription
	onInsert   func(chat.Message)
	cancel     context.CancelFunc

	closeOnce  sync.Once
	finishOnce sync.Once
	done       chan struct{}
	mu         sync.Mutex
	err        error
}

// Run delivers events until the stream ends. It returns nil in every case so
// the supervisor only restarts it after a panic in the callback.
func (h *SubscriptionHandle) Run(ctx context.Context) error {
	events := h.sub.Events()
	for {
		select {
		case <-ctx.Done():
			h.release()
			h.finish(nil)
			return nil
		case message, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					h.finish(nil)
					return nil
				}
				err := h.sub.Err()
				if err == nil {
					err = errors.ErrChannelClosed
				}
				h.log.Warn("Realtime channel dropped", "collection", h.collection, "error", err)
				h.release()
				h.finish(err)
				return nil
			}
			h.onInsert(message)
		}
	}
}

// Done is closed once the subscription delivers no more events.
func (h *SubscriptionHandle) Done() <-chan struct{} {
	return h.done
}

// Err is the channel error that ended the subscription, nil when it was
// closed on purpose or is still running.
func (h *SubscriptionHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *SubscriptionHandle) Close() {
	h.cancel()
	h.release()
	h.finish(nil)
}

func (h *SubscriptionHandle) release() {
	h.closeOnce.Do(func() {
		if err := h.sub.Close(); err != nil {
			h.log.Debug("Closing subscription failed", "collection", h.collection, "error", err)
		}
	})
}

func (h *SubscriptionHandle) finish(err error) {
	h.finishOnce.Do(func() {
		h.mu.Lock()
		h.err = errors.Channel("realtime", err)
		h.mu.Unlock()
		close(h.done)
	})
}
