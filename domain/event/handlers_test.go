package event

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestFeedStatusHandler_CountsTransitions(t *testing.T) {
	req := require.New(t)
	counter := NewCounter()
	handler := NewFeedStatusHandler(logs.GetLoggerFromLevel(slog.LevelDebug), counter)

	handler.Handle(New(FeedLiveType, FeedLive{Owner: "u1", Rendered: 3}))
	handler.Handle(New(FeedDegradedType, FeedDegraded{Owner: "u1", Err: fmt.Errorf("boom")}))
	handler.Handle(New(FeedDegradedType, FeedDegraded{Owner: "u1", Err: fmt.Errorf("boom again")}))
	handler.Handle(New(FeedStoppedType, FeedStopped{Owner: "u1"}))
	handler.Handle(New(MessageInsertedType, MessageInserted{Collection: "messages"}))

	req.Equal(1, counter.Get(FeedLiveType))
	req.Equal(2, counter.Get(FeedDegradedType))
	req.Equal(1, counter.Get(FeedStoppedType))
	req.Equal(1, counter.Get(MessageInsertedType))
}

func TestChain_HandsEventToEveryHandler(t *testing.T) {
	req := require.New(t)
	var seen []string
	chain := Chain{
		HandlerFunc(func(e Event) { seen = append(seen, "first:"+string(e.Type)) }),
		HandlerFunc(func(e Event) { seen = append(seen, "second:"+string(e.Type)) }),
	}

	chain.Handle(New(FeedStoppedType, FeedStopped{}))

	req.Equal([]string{"first:FEED_STOPPED", "second:FEED_STOPPED"}, seen)
}

func TestWorkerRestartedAfterPanicHandler_IgnoresBadPayload(t *testing.T) {
	req := require.New(t)
	counter := NewCounter()
	handler := NewWorkerRestartedAfterPanicHandler(logs.GetLoggerFromLevel(slog.LevelDebug), counter)

	handler.Handle(Event{Type: RestartedAfterPanicType, Payload: "not a payload"})
	handler.Handle(New(RestartedAfterPanicType, WorkerRestartedAfterPanic{WorkerName: "pump"}))

	req.Equal(1, counter.Get(RestartedAfterPanicType))
}
