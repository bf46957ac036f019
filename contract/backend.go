//go:generate go run go.uber.org/mock/mockgen -source=backend.go -destination=../mocks/mock_backend.go -package=mocks
package contract

import (
	"app-chat/domain/chat"
	"context"
)

// Account is the user record owned by the auth provider.
type Account struct {
	ID    string
	Name  string
	Email string
}

// AuthProvider is the hosted authentication service. The session token it
// issues is kept by the provider client itself and is opaque to callers.
// GetCurrentAccount returns errors.ErrSessionNotFound when nobody is logged in.
type AuthProvider interface {
	CreateAccount(ctx context.Context, email, password, name string) (Account, error)
	CreateSession(ctx context.Context, email, password string) error
	GetCurrentAccount(ctx context.Context) (Account, error)
	DeleteCurrentSession(ctx context.Context) error
}

// DocumentStore is the hosted document database. ListAll gives no ordering guarantee.
type DocumentStore interface {
	Insert(ctx context.Context, collection string, draft chat.Draft) (chat.Message, error)
	ListAll(ctx context.Context, collection string) ([]chat.Message, error)
}

// BlobStore is the hosted file storage.
type BlobStore interface {
	Upload(ctx context.Context, bucket string, file chat.UploadAttachmentCommand) (chat.AttachmentID, error)
	PreviewURL(bucket string, id chat.AttachmentID) (string, error)
}

// RealtimeChannel opens a push stream of the inserts made in a collection.
type RealtimeChannel interface {
	SubscribeToInserts(ctx context.Context, collection string) (Subscription, error)
}

// Subscription delivers insert events until it is closed or the channel drops.
// Once Events is closed, Err tells why; it is nil after a regular Close.
type Subscription interface {
	Events() <-chan chat.Message
	Err() error
	Close() error
}

// Backend bundles every collaborator of a single hosted service.
type Backend interface {
	AuthProvider
	DocumentStore
	BlobStore
	RealtimeChannel
}
