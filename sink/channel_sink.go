package sink

import (
	"app-chat/domain/chat"
	"app-chat/errors"
	"context"
	"sync"
	"time"
)

// ChannelSink hands pushed messages to one subscriber through a buffered
// channel. It is both the hub side EventSink and the subscriber side
// Subscription.
type ChannelSink struct {
	events  chan chat.Message
	done    chan struct{}
	timeout time.Duration

	mu           sync.Mutex
	eventsClosed bool
	closing      sync.Once
	err          error
	onClose      func()
}

// NewChannelSink builds a sink. A consumer that leaves the buffer full for
// longer than timeout is cut off with ErrSlowConsumer. onClose runs once,
// when the sink stops for any reason, and may be nil.
func NewChannelSink(bufferSize int, timeout time.Duration, onClose func()) *ChannelSink {
	return &ChannelSink{
		events:  make(chan chat.Message, bufferSize),
		done:    make(chan struct{}),
		timeout: timeout,
		onClose: onClose,
	}
}

// Consume is called by the fanout worker
func (s *ChannelSink) Consume(ctx context.Context, message chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return errors.ErrChannelClosed
	default:
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case s.events <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return errors.ErrChannelClosed
	case <-timer.C:
		s.shutdown(errors.ErrSlowConsumer)
		s.closeEvents()
		return errors.ErrSlowConsumer
	}
}

func (s *ChannelSink) Events() <-chan chat.Message {
	return s.events
}

// Err reports why the sink stopped, nil after a plain Close.
func (s *ChannelSink) Err() error {
	select {
	case <-s.done:
	default:
		return nil
	}
	return s.err
}

// Close stops the delivery. It can be called any number of times.
func (s *ChannelSink) Close() error {
	s.shutdown(nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeEvents()
	return nil
}

// shutdown records err and unblocks a pending Consume.
func (s *ChannelSink) shutdown(err error) {
	s.closing.Do(func() {
		s.err = err
		close(s.done)
		if s.onClose != nil {
			s.onClose()
		}
	})
}

// closeEvents must be called with mu held.
func (s *ChannelSink) closeEvents() {
	if !s.eventsClosed {
		s.eventsClosed = true
		close(s.events)
	}
}
