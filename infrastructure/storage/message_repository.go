package storage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(collection string, message DiskMessage) (DiskMessage, error)
	GetMessages(collection string, cursor *string) ([]DiskMessage, *string, error)
}

// DiskMessage mirrors the document schema of the message collection.
type DiskMessage struct {
	ID        string    `msgpack:"id"`
	UserID    string    `msgpack:"userId"`
	Username  string    `msgpack:"username"`
	Message   string    `msgpack:"message"`
	ImageID   *string   `msgpack:"imageId"`
	Timestamp time.Time `msgpack:"timestamp"`
	CreatedAt time.Time `msgpack:"createdAt"`
}

type MessageRepository struct {
	db       *badger.DB
	log      *slog.Logger
	pageSize int
	now      func() time.Time
}

// NewMessageRepository builds the repository, pageSize bounds GetMessages and
// falls back to 100 when not positive.
func NewMessageRepository(db *badger.DB, log *slog.Logger, pageSize int) *MessageRepository {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &MessageRepository{db: db, log: log, pageSize: pageSize, now: time.Now}
}

// StoreMessage assigns the id and creation time then persists the message.
// The key is formatted as "msg:{collection}:{created_at_padded}:{id}" so that
// a prefix scan returns the collection in creation order, the id breaking
// ties within the same nanosecond.
func (m *MessageRepository) StoreMessage(collection string, message DiskMessage) (DiskMessage, error) {
	message.ID = uuid.NewString()
	message.CreatedAt = m.now().UTC()
	key := fmt.Sprintf("msg:%s:%019d:%s", collection, message.CreatedAt.UnixNano(), message.ID)
	err := m.db.Update(func(txn *badger.Txn) error {
		return set(txn, []byte(key), message)
	})
	if err != nil {
		return DiskMessage{}, err
	}
	return message, nil
}

// GetMessages returns one page of the collection, oldest first, starting
// after cursor. The returned cursor is nil on the last page.
func (m *MessageRepository) GetMessages(collection string, cursor *string) ([]DiskMessage, *string, error) {
	var messages []DiskMessage
	var next *string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", collection)
		prefix := []byte(prefixStr)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		if cursor != nil {
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}
		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(seekKey) {
			it.Next()
		}

		var lastKey string
		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == m.pageSize {
				// Something is left, resume after the last returned key
				next = &lastKey
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			var message DiskMessage
			if err := item.Value(func(val []byte) error {
				return deserialize(val, &message)
			}); err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return messages, next, nil
}
