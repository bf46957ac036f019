package services

import (
	"app-chat/contract"
	"app-chat/domain/chat"
	"app-chat/domain/mimetypes"
	"app-chat/errors"
	"context"
	"fmt"
	"log/slog"
	"time"
)

type IMessageService interface {
	FetchAll(ctx context.Context) ([]chat.Message, error)
	Append(ctx context.Context, session chat.Session, cmd chat.PostMessageCommand) (chat.Message, error)
	UploadAttachment(ctx context.Context, cmd chat.UploadAttachmentCommand) (chat.AttachmentID, error)
	AttachmentURL(id chat.AttachmentID) (string, error)
}

// MessageService is the client side of the document and blob stores.
// It performs no retry: a failed call is reported once, as a store error.
type MessageService struct {
	log        *slog.Logger
	documents  contract.DocumentStore
	blobs      contract.BlobStore
	collection string
	bucket     string
	now        func() time.Time
}

// NewMessageService builds the client. blobs may be nil when the backend
// has no attachment bucket, uploads then fail with ErrAttachmentsOff.
func NewMessageService(log *slog.Logger, documents contract.DocumentStore, blobs contract.BlobStore,
	collection, bucket string) *MessageService {
	return &MessageService{
		log:        log,
		documents:  documents,
		blobs:      blobs,
		collection: collection,
		bucket:     bucket,
		now:        time.Now,
	}
}

// FetchAll returns every message of the collection sorted by creation time.
// The store does not guarantee any order, so the sort always happens here.
func (s *MessageService) FetchAll(ctx context.Context) ([]chat.Message, error) {
	messages, err := s.documents.ListAll(ctx, s.collection)
	if err != nil {
		return nil, errors.Store("fetch messages", err)
	}
	chat.SortByCreation(messages)
	s.log.Debug("Messages fetched", "collection", s.collection, "count", len(messages))
	return messages, nil
}

// Append inserts one message authored by session. The author name is copied
// now and never re-resolved.
func (s *MessageService) Append(ctx context.Context, session chat.Session, cmd chat.PostMessageCommand) (chat.Message, error) {
	if session.UserID == "" {
		return chat.Message{}, errors.Auth("append message", errors.ErrNotAuthenticated)
	}
	cmd, err := cmd.Normalize()
	if err != nil {
		return chat.Message{}, errors.Validation("append message", err)
	}
	message, err := s.documents.Insert(ctx, s.collection, chat.Draft{
		AuthorID:     session.UserID,
		AuthorName:   session.DisplayName,
		Text:         cmd.Text,
		AttachmentID: cmd.AttachmentID,
		SentAt:       s.now().UTC(),
	})
	if err != nil {
		return chat.Message{}, errors.Store("append message", err)
	}
	return message, nil
}

// UploadAttachment stores an image. Type and size are checked locally first,
// so a refused file never reaches the network.
func (s *MessageService) UploadAttachment(ctx context.Context, cmd chat.UploadAttachmentCommand) (chat.AttachmentID, error) {
	if err := cmd.CheckSize(); err != nil {
		return "", errors.Validation("upload attachment", err)
	}
	mediaType := mimetypes.Resolve(cmd.MimeType, cmd.Data)
	if !mediaType.IsImage() {
		return "", errors.Validation("upload attachment", fmt.Errorf("%w: %s", errors.ErrNotAnImage, mediaType))
	}
	if s.blobs == nil {
		return "", errors.Store("upload attachment", errors.ErrAttachmentsOff)
	}
	cmd.MimeType = string(mediaType)
	cmd.SizeBytes = int64(len(cmd.Data))

	id, err := s.blobs.Upload(ctx, s.bucket, cmd)
	if err != nil {
		return "", errors.Store("upload attachment", err)
	}
	s.log.Debug("Attachment uploaded", "bucket", s.bucket, "id", id, "size", cmd.SizeBytes)
	return id, nil
}

func (s *MessageService) AttachmentURL(id chat.AttachmentID) (string, error) {
	if s.blobs == nil {
		return "", errors.Store("attachment url", errors.ErrAttachmentsOff)
	}
	url, err := s.blobs.PreviewURL(s.bucket, id)
	if err != nil {
		return "", errors.Store("attachment url", err)
	}
	return url, nil
}
