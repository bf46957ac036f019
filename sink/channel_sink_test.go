package sink

import (
	"app-chat/domain/chat"
	"app-chat/errors"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChannelSink_Consume(t *testing.T) {
	req := require.New(t)
	sink := NewChannelSink(2, time.Second, nil)

	req.NoError(sink.Consume(context.Background(), chat.Message{ID: "m1"}))

	message := <-sink.Events()
	req.Equal(chat.MessageID("m1"), message.ID)
	req.NoError(sink.Err())
}

func TestChannelSink_SlowConsumerIsCutOff(t *testing.T) {
	req := require.New(t)
	var closed atomic.Int32
	sink := NewChannelSink(1, 10*time.Millisecond, func() { closed.Add(1) })

	// Given nobody reads the events
	req.NoError(sink.Consume(context.Background(), chat.Message{ID: "m1"}))

	// When the buffer stays full past the timeout
	err := sink.Consume(context.Background(), chat.Message{ID: "m2"})

	// Then the sink gives up on this consumer
	req.ErrorIs(err, errors.ErrSlowConsumer)
	req.ErrorIs(sink.Err(), errors.ErrSlowConsumer)
	req.Equal(int32(1), closed.Load())

	// And the buffered event is still readable before the channel ends
	message, ok := <-sink.Events()
	req.True(ok)
	req.Equal(chat.MessageID("m1"), message.ID)
	_, ok = <-sink.Events()
	req.False(ok)

	req.ErrorIs(sink.Consume(context.Background(), chat.Message{ID: "m3"}), errors.ErrChannelClosed)
}

func TestChannelSink_CloseIsIdempotent(t *testing.T) {
	req := require.New(t)
	var closed atomic.Int32
	sink := NewChannelSink(1, time.Second, func() { closed.Add(1) })

	req.NoError(sink.Close())
	req.NoError(sink.Close())

	_, ok := <-sink.Events()
	req.False(ok)
	req.NoError(sink.Err())
	req.Equal(int32(1), closed.Load())
}

func TestChannelSink_CloseUnblocksPendingConsume(t *testing.T) {
	req := require.New(t)
	sink := NewChannelSink(1, time.Minute, nil)
	req.NoError(sink.Consume(context.Background(), chat.Message{ID: "m1"}))

	result := make(chan error, 1)
	go func() { result <- sink.Consume(context.Background(), chat.Message{ID: "m2"}) }()

	time.Sleep(10 * time.Millisecond)
	req.NoError(sink.Close())

	select {
	case err := <-result:
		req.ErrorIs(err, errors.ErrChannelClosed)
	case <-time.After(time.Second):
		req.Fail("Consume should return once the sink is closed")
	}
}
