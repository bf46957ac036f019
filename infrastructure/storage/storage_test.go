package storage

import (
	"app-chat/errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	// Given a user is created
	created, err := repository.CreateUser("Alice", "Alice@Example.com", "hash")
	req.NoError(err)
	req.NotEmpty(created.ID)

	// When looking it up by email or id
	byEmail, err := repository.GetUserByEmail("alice@example.com")
	req.NoError(err)
	byID, err := repository.GetUser(created.ID)
	req.NoError(err)

	// Then the same record comes back
	req.Equal(created.ID, byEmail.ID)
	req.Equal("Alice", byID.Name)
	req.Equal("hash", byID.PasswordHash)
}

func TestUserRepository_EmailIsUnique(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	_, err := repository.CreateUser("Alice", "alice@example.com", "hash")
	req.NoError(err)

	_, err = repository.CreateUser("Other Alice", "ALICE@example.com", "hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_Unknown(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openDB(t))

	_, err := repository.GetUserByEmail("nobody@example.com")
	req.ErrorIs(err, errors.ErrNotFound)
	_, err = repository.GetUser("nope")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestMessageRepository_Record_And_Get_Sorted_Messages(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openDB(t), slog.Default(), 0)
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	repository.now = func() time.Time {
		tick++
		// stored in reverse creation order
		return at.Add(time.Duration(10-tick) * time.Second)
	}

	for _, text := range []string{"third", "second", "first"} {
		_, err := repository.StoreMessage("messages", DiskMessage{UserID: "u1", Username: "Alice", Message: text})
		req.NoError(err)
	}
	_, err := repository.StoreMessage("other", DiskMessage{Message: "elsewhere"})
	req.NoError(err)

	messages, cursor, err := repository.GetMessages("messages", nil)

	req.NoError(err)
	req.Nil(cursor)
	req.Equal([]string{"first", "second", "third"},
		lo.Map(messages, func(m DiskMessage, _ int) string { return m.Message }))
	req.True(lo.IsSortedByKey(messages, func(m DiskMessage) int64 { return m.CreatedAt.UnixNano() }))
}

func TestMessageRepository_Pagination(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openDB(t), slog.Default(), 2)
	imageID := "img-1"
	at := time.Now().UTC()
	tick := 0
	repository.now = func() time.Time {
		tick++
		return at.Add(time.Duration(tick) * time.Millisecond)
	}

	for i := range 5 {
		message := DiskMessage{UserID: "u1", Message: string(rune('a' + i))}
		if i == 4 {
			message.ImageID = &imageID
		}
		_, err := repository.StoreMessage("messages", message)
		req.NoError(err)
	}

	var all []DiskMessage
	var cursor *string
	pages := 0
	for {
		page, next, err := repository.GetMessages("messages", cursor)
		req.NoError(err)
		all = append(all, page...)
		pages++
		if next == nil {
			break
		}
		cursor = next
	}

	req.Equal(3, pages)
	req.Equal([]string{"a", "b", "c", "d", "e"}, lo.Map(all, func(m DiskMessage, _ int) string { return m.Message }))
	req.Equal(&imageID, all[4].ImageID)
	req.Nil(all[0].ImageID)
}

func TestBlobRepository_StoreAndGet(t *testing.T) {
	req := require.New(t)
	repository := NewBlobRepository(openDB(t))

	stored, err := repository.StoreBlob("images", DiskBlob{Name: "cat.png", MimeType: "image/png", SizeBytes: 3, Data: []byte{1, 2, 3}})
	req.NoError(err)

	blob, err := repository.GetBlob("images", stored.ID)
	req.NoError(err)
	req.Equal([]byte{1, 2, 3}, blob.Data)

	ok, err := repository.Exists("images", stored.ID)
	req.NoError(err)
	req.True(ok)

	ok, err = repository.Exists("other", stored.ID)
	req.NoError(err)
	req.False(ok)

	_, err = repository.GetBlob("images", "missing")
	req.ErrorIs(err, errors.ErrNotFound)
}
