// Package projection builds the local feed from fetched and pushed messages.
// Handles ordering, deduplication, and attachment resolution.
// Does not talk to the backend: the view is handed to it.
package projection

import (
	"app-chat/domain/chat"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// View is the display the feed renders into. Calls are made one at a time.
type View interface {
	Clear()
	Insert(index int, item FeedItem)
	ScrollToLatest()
}

// FeedItem is one rendered message.
type FeedItem struct {
	Message  chat.Message
	Own      bool
	ImageURL string
}

type AttachmentResolver interface {
	AttachmentURL(id chat.AttachmentID) (string, error)
}

// Feed keeps rendered messages ordered by creation time, each id once.
type Feed struct {
	mu          sync.Mutex
	log         *slog.Logger
	view        View
	resolver    AttachmentResolver
	scrollDelay time.Duration

	owner  chat.UserID
	items  []FeedItem
	seen   map[chat.MessageID]struct{}
	scroll *time.Timer
}

// NewFeed builds a feed. resolver may be nil, attachments then render
// without an image URL.
func NewFeed(log *slog.Logger, view View, resolver AttachmentResolver, scrollDelay time.Duration) *Feed {
	return &Feed{
		log:         log,
		view:        view,
		resolver:    resolver,
		scrollDelay: scrollDelay,
		seen:        make(map[chat.MessageID]struct{}),
	}
}

// Reset empties the feed and the view, owner is used to flag own messages.
func (f *Feed) Reset(owner chat.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scroll != nil {
		f.scroll.Stop()
		f.scroll = nil
	}
	f.owner = owner
	f.items = nil
	f.seen = make(map[chat.MessageID]struct{})
	f.view.Clear()
}

// Append renders m at its chronological position and reports whether it was
// new. Messages with the same creation time keep their arrival order.
func (f *Feed) Append(m chat.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[m.ID]; ok {
		return false
	}
	f.seen[m.ID] = struct{}{}

	item := FeedItem{Message: m, Own: m.AuthorID == f.owner}
	if m.HasAttachment() && f.resolver != nil {
		url, err := f.resolver.AttachmentURL(*m.AttachmentID)
		if err != nil {
			f.log.Warn("Attachment not resolved", "message_id", m.ID, "attachment_id", *m.AttachmentID, "error", err)
		} else {
			item.ImageURL = url
		}
	}

	index := sort.Search(len(f.items), func(i int) bool {
		return f.items[i].Message.CreatedAt.After(m.CreatedAt)
	})
	f.items = append(f.items, FeedItem{})
	copy(f.items[index+1:], f.items[index:])
	f.items[index] = item
	f.view.Insert(index, item)
	return true
}

// ScrollToLatest asks the view to scroll once the scroll delay has passed
// without another request.
func (f *Feed) ScrollToLatest() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scroll != nil {
		f.scroll.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(f.scrollDelay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		// replaced by a later request or a reset
		if f.scroll != timer {
			return
		}
		f.scroll = nil
		f.view.ScrollToLatest()
	})
	f.scroll = timer
}

// Messages returns the rendered messages in display order.
func (f *Feed) Messages() []chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]chat.Message, len(f.items))
	for i, item := range f.items {
		res[i] = item.Message
	}
	return res
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
