package embedded

import (
	"app-chat/domain/chat"
	"app-chat/domain/event"
	"app-chat/errors"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *Backend {
	return newBackendWithHandler(t, nil)
}

func newBackendWithHandler(t *testing.T, handler event.Handler) *Backend {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	backend := NewBackend(logs.GetLoggerFromLevel(slog.LevelDebug), db, handler, Config{
		TokenSecret:   "test-secret",
		TokenDuration: time.Hour,
		PageSize:      2,
		BufferSize:    8,
		SinkTimeout:   50 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	backend.Start(ctx)
	t.Cleanup(func() {
		cancel()
		backend.Wait()
	})
	return backend
}

func loggedIn(t *testing.T, backend *Backend, name, email string) (*Client, chat.UserID) {
	ctx := context.Background()
	client := backend.NewClient()
	account, err := client.CreateAccount(ctx, email, "secret", name)
	require.NoError(t, err)
	require.NoError(t, client.CreateSession(ctx, email, "secret"))
	return client, chat.UserID(account.ID)
}

func TestClient_AccountLifecycle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	client := newBackend(t).NewClient()

	// Given nobody is logged in
	_, err := client.GetCurrentAccount(ctx)
	req.ErrorIs(err, errors.ErrSessionNotFound)

	// When Alice registers and logs in
	created, err := client.CreateAccount(ctx, "alice@example.com", "secret", "Alice")
	req.NoError(err)
	req.NoError(client.CreateSession(ctx, "alice@example.com", "secret"))

	// Then the session resolves to her account
	current, err := client.GetCurrentAccount(ctx)
	req.NoError(err)
	req.Equal(created, current)
	req.Equal("Alice", current.Name)

	// And logging out ends it
	req.NoError(client.DeleteCurrentSession(ctx))
	_, err = client.GetCurrentAccount(ctx)
	req.ErrorIs(err, errors.ErrSessionNotFound)
	req.ErrorIs(client.DeleteCurrentSession(ctx), errors.ErrSessionNotFound)
}

func TestClient_Credentials(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	backend := newBackend(t)
	client := backend.NewClient()

	_, err := client.CreateAccount(ctx, "alice@example.com", "secret", "Alice")
	req.NoError(err)

	_, err = backend.NewClient().CreateAccount(ctx, "alice@example.com", "other1", "Alice bis")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	req.ErrorIs(client.CreateSession(ctx, "alice@example.com", "wrong!"), errors.ErrInvalidCredentials)
	req.ErrorIs(client.CreateSession(ctx, "bob@example.com", "secret"), errors.ErrInvalidCredentials)
}

func TestClient_InvalidTokenIsNoSession(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	backend := newBackend(t)
	client, _ := loggedIn(t, backend, "Alice", "alice@example.com")

	// Given the stored token no longer validates
	client.mu.Lock()
	client.token = "not-a-jwt"
	client.mu.Unlock()

	// Then the caller is logged out
	_, err := client.GetCurrentAccount(ctx)
	req.ErrorIs(err, errors.ErrSessionNotFound)
	req.ErrorIs(client.DeleteCurrentSession(ctx), errors.ErrSessionNotFound)
}

func TestClient_InsertAndListAll(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	backend := newBackend(t)
	alice, aliceID := loggedIn(t, backend, "Alice", "alice@example.com")

	// Anonymous callers cannot read or write
	anonymous := backend.NewClient()
	_, err := anonymous.ListAll(ctx, "messages")
	req.ErrorIs(err, errors.ErrSessionNotFound)
	_, err = anonymous.Insert(ctx, "messages", chat.Draft{AuthorID: aliceID, Text: "hi"})
	req.ErrorIs(err, errors.ErrSessionNotFound)

	// Alice cannot post under someone else's id
	_, err = alice.Insert(ctx, "messages", chat.Draft{AuthorID: "u2", Text: "hi"})
	req.ErrorIs(err, errors.ErrNotAuthenticated)

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		_, err := alice.Insert(ctx, "messages", chat.Draft{AuthorID: aliceID, AuthorName: "Alice", Text: text, SentAt: time.Now()})
		req.NoError(err)
	}

	messages, err := alice.ListAll(ctx, "messages")

	req.NoError(err)
	req.Equal([]string{"one", "two", "three", "four", "five"},
		lo.Map(messages, func(m chat.Message, _ int) string { return m.Text }))
	req.True(lo.EveryBy(messages, func(m chat.Message) bool {
		return m.AuthorID == aliceID && m.AuthorName == "Alice" && !m.HasAttachment()
	}))
}

func TestClient_UploadAndPreview(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	backend := newBackend(t)
	alice, aliceID := loggedIn(t, backend, "Alice", "alice@example.com")

	id, err := alice.Upload(ctx, "images", chat.UploadAttachmentCommand{Filename: "cat.png", MimeType: "image/png", Data: []byte{1, 2, 3}})
	req.NoError(err)

	url, err := alice.PreviewURL("images", id)
	req.NoError(err)
	req.Equal("blob://images/"+string(id), url)

	_, err = alice.PreviewURL("images", "missing")
	req.ErrorIs(err, errors.ErrNotFound)

	message, err := alice.Insert(ctx, "messages", chat.Draft{AuthorID: aliceID, AttachmentID: &id})
	req.NoError(err)
	req.True(message.HasAttachment())
	req.Equal(id, *message.AttachmentID)
}

func TestClient_SubscribersReceiveInserts(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	backend := newBackend(t)
	alice, aliceID := loggedIn(t, backend, "Alice", "alice@example.com")
	bob, _ := loggedIn(t, backend, "Bob", "bob@example.com")

	// Given Bob listens to the collection
	sub, err := bob.SubscribeToInserts(ctx, "messages")
	req.NoError(err)
	other, err := bob.SubscribeToInserts(ctx, "elsewhere")
	req.NoError(err)

	// When Alice posts
	posted, err := alice.Insert(ctx, "messages", chat.Draft{AuthorID: aliceID, AuthorName: "Alice", Text: "hi"})
	req.NoError(err)

	// Then Bob gets it, and only on that collection
	select {
	case message := <-sub.Events():
		req.Equal(posted, message)
	case <-time.After(time.Second):
		req.Fail("insert was not pushed")
	}
	select {
	case <-other.Events():
		req.Fail("insert pushed to the wrong collection")
	case <-time.After(20 * time.Millisecond):
	}

	// And closing the subscription unregisters it
	req.NoError(sub.Close())
	req.NoError(sub.Err())
	req.Eventually(func() bool {
		return len(backend.registry.GetSinksForCollection("messages")) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestClient_SubscriptionEndsWithContext(t *testing.T) {
	req := require.New(t)
	backend := newBackend(t)
	bob, _ := loggedIn(t, backend, "Bob", "bob@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := bob.SubscribeToInserts(ctx, "messages")
	req.NoError(err)

	cancel()

	select {
	case _, ok := <-sub.Events():
		req.False(ok)
	case <-time.After(time.Second):
		req.Fail("subscription should close with its context")
	}
}

func TestClient_InsertIsReportedToHandler(t *testing.T) {
	req := require.New(t)
	counter := event.NewCounter()
	backend := newBackendWithHandler(t, event.NewFeedStatusHandler(logs.GetLoggerFromLevel(slog.LevelDebug), counter))
	alice, aliceID := loggedIn(t, backend, "Alice", "alice@example.com")

	_, err := alice.Insert(context.Background(), "messages", chat.Draft{AuthorID: aliceID, AuthorName: "Alice", Text: "hi"})
	req.NoError(err)

	req.Equal(1, counter.Get(event.MessageInsertedType))
}
