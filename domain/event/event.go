package event

import (
	"app-chat/domain/chat"
	"time"
)

type Type string

const (
	FeedLiveType            Type = "FEED_LIVE"
	FeedDegradedType        Type = "FEED_DEGRADED"
	FeedStoppedType         Type = "FEED_STOPPED"
	MessageInsertedType     Type = "MESSAGE_INSERTED"
	RestartedAfterPanicType Type = "WORKER_RESTARTED_AFTER_PANIC"
)

// Event is a technical notification about the feed, never a domain command.
type Event struct {
	Type    Type
	At      time.Time
	Payload any
}

func New(t Type, payload any) Event {
	return Event{Type: t, At: time.Now().UTC(), Payload: payload}
}

// FeedLive means the initial fetch is rendered and live updates are flowing.
type FeedLive struct {
	Owner    chat.UserID
	Rendered int
}

// FeedDegraded means live updates stopped: the feed only shows what was
// fetched or received before Err happened.
type FeedDegraded struct {
	Owner chat.UserID
	Err   error
}

type FeedStopped struct {
	Owner chat.UserID
}

// MessageInserted is published by a realtime channel for every created message.
type MessageInserted struct {
	Collection string
	Message    chat.Message
}

type WorkerRestartedAfterPanic struct {
	WorkerName string
}
