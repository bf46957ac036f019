// Package chat contains the core concepts of the chat feed.
// Messages are immutable once the store has created them.
package chat

import (
	"sort"
	"time"
)

type (
	MessageID    string
	UserID       string
	AttachmentID string
)

// Message is an immutable chat entry as returned by the document store.
type Message struct {
	ID           MessageID
	AuthorID     UserID
	AuthorName   string // copied from the session at send time
	Text         string
	AttachmentID *AttachmentID
	CreatedAt    time.Time
}

func (m Message) HasAttachment() bool {
	return m.AttachmentID != nil && *m.AttachmentID != ""
}

// Draft is what the sender hands to the store before an id is assigned.
type Draft struct {
	AuthorID     UserID
	AuthorName   string
	Text         string
	AttachmentID *AttachmentID
	SentAt       time.Time
}

// SortByCreation orders messages by CreatedAt ascending.
// Messages sharing a timestamp keep the order the store returned them in.
func SortByCreation(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
