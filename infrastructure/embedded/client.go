package embedded

import (
	"app-chat/auth"
	"app-chat/contract"
	"app-chat/domain/chat"
	"app-chat/domain/event"
	"app-chat/errors"
	"app-chat/infrastructure/storage"
	"app-chat/sink"
	"context"
	goerrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Client is one caller of the backend. It keeps the session token the way a
// browser keeps the provider cookie.
type Client struct {
	backend *Backend

	mu    sync.Mutex
	token string
}

var _ contract.Backend = (*Client)(nil)

func (c *Client) CreateAccount(_ context.Context, email, password, name string) (contract.Account, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return contract.Account{}, err
	}
	user, err := c.backend.users.CreateUser(name, strings.TrimSpace(email), hash)
	if err != nil {
		return contract.Account{}, err
	}
	c.backend.log.Debug("Account created", "user_id", user.ID)
	return toAccount(user), nil
}

func (c *Client) CreateSession(_ context.Context, email, password string) error {
	user, err := c.backend.users.GetUserByEmail(email)
	if goerrors.Is(err, errors.ErrNotFound) {
		return errors.ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	ok, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrInvalidCredentials
	}
	token, err := c.backend.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

func (c *Client) GetCurrentAccount(_ context.Context) (contract.Account, error) {
	claims, err := c.claims()
	if err != nil {
		return contract.Account{}, err
	}
	user, err := c.backend.users.GetUser(claims.UserID)
	if goerrors.Is(err, errors.ErrNotFound) {
		c.clear()
		return contract.Account{}, errors.ErrSessionNotFound
	}
	if err != nil {
		return contract.Account{}, err
	}
	return toAccount(user), nil
}

func (c *Client) DeleteCurrentSession(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return errors.ErrSessionNotFound
	}
	c.token = ""
	return nil
}

// Insert stores the message on behalf of the logged in user, then pushes it
// to the collection subscribers.
func (c *Client) Insert(ctx context.Context, collection string, draft chat.Draft) (chat.Message, error) {
	claims, err := c.claims()
	if err != nil {
		return chat.Message{}, err
	}
	if string(draft.AuthorID) != claims.UserID {
		return chat.Message{}, fmt.Errorf("%w: author %s is not the session user", errors.ErrNotAuthenticated, draft.AuthorID)
	}
	stored, err := c.backend.messages.StoreMessage(collection, fromDraft(draft))
	if err != nil {
		return chat.Message{}, err
	}
	message := toMessage(stored)
	if err := c.backend.publish(ctx, event.MessageInserted{Collection: collection, Message: message}); err != nil {
		c.backend.log.Warn("Insert not pushed", "collection", collection, "message_id", message.ID, "error", err)
	}
	return message, nil
}

// ListAll walks every page of the collection.
func (c *Client) ListAll(ctx context.Context, collection string) ([]chat.Message, error) {
	if _, err := c.claims(); err != nil {
		return nil, err
	}
	var res []chat.Message
	var cursor *string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, next, err := c.backend.messages.GetMessages(collection, cursor)
		if err != nil {
			return nil, err
		}
		res = append(res, lo.Map(page, func(m storage.DiskMessage, _ int) chat.Message { return toMessage(m) })...)
		if next == nil {
			return res, nil
		}
		cursor = next
	}
}

func (c *Client) Upload(_ context.Context, bucket string, file chat.UploadAttachmentCommand) (chat.AttachmentID, error) {
	if _, err := c.claims(); err != nil {
		return "", err
	}
	blob, err := c.backend.blobs.StoreBlob(bucket, storage.DiskBlob{
		Name:      file.Filename,
		MimeType:  file.MimeType,
		SizeBytes: file.Size(),
		Data:      file.Data,
	})
	if err != nil {
		return "", err
	}
	return chat.AttachmentID(blob.ID), nil
}

// PreviewURL points at the stored blob, blob://{bucket}/{id}.
func (c *Client) PreviewURL(bucket string, id chat.AttachmentID) (string, error) {
	ok, err := c.backend.blobs.Exists(bucket, string(id))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: attachment %s", errors.ErrNotFound, id)
	}
	return fmt.Sprintf("blob://%s/%s", bucket, id), nil
}

// SubscribeToInserts registers a sink on the hub. It is released on Close,
// when ctx is done, or when the hub cuts a slow consumer off.
func (c *Client) SubscribeToInserts(ctx context.Context, collection string) (contract.Subscription, error) {
	if _, err := c.claims(); err != nil {
		return nil, err
	}
	subscriberID := uuid.NewString()
	registry := c.backend.registry
	channelSink := sink.NewChannelSink(c.backend.bufferSize, c.backend.sinkTimeout, func() {
		registry.Unsubscribe(subscriberID, collection)
	})
	registry.Subscribe(subscriberID, collection, channelSink)
	context.AfterFunc(ctx, func() { _ = channelSink.Close() })
	return channelSink, nil
}

func (c *Client) claims() (*auth.CustomClaims, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return nil, errors.ErrSessionNotFound
	}
	claims, err := c.backend.tokens.ValidateToken(token)
	if err != nil {
		c.clear()
		return nil, fmt.Errorf("%w: %v", errors.ErrSessionNotFound, err)
	}
	return claims, nil
}

func (c *Client) clear() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func toAccount(user storage.User) contract.Account {
	return contract.Account{ID: user.ID, Name: user.Name, Email: user.Email}
}

func fromDraft(draft chat.Draft) storage.DiskMessage {
	message := storage.DiskMessage{
		UserID:    string(draft.AuthorID),
		Username:  draft.AuthorName,
		Message:   draft.Text,
		Timestamp: draft.SentAt,
	}
	if draft.AttachmentID != nil {
		message.ImageID = lo.ToPtr(string(*draft.AttachmentID))
	}
	return message
}

// toMessage orders by the store creation time, the client timestamp only
// when the store has none.
func toMessage(m storage.DiskMessage) chat.Message {
	message := chat.Message{
		ID:         chat.MessageID(m.ID),
		AuthorID:   chat.UserID(m.UserID),
		AuthorName: m.Username,
		Text:       m.Message,
		CreatedAt:  m.CreatedAt.UTC(),
	}
	if m.CreatedAt.IsZero() {
		message.CreatedAt = m.Timestamp.UTC()
	}
	if m.ImageID != nil && *m.ImageID != "" {
		message.AttachmentID = lo.ToPtr(chat.AttachmentID(*m.ImageID))
	}
	return message
}
