package chat

import (
	"app-chat/errors"
	"fmt"
	"strings"
)

// MaxAttachmentSize is the largest image accepted for upload (5 MiB).
const MaxAttachmentSize int64 = 5 << 20

type PostMessageCommand struct {
	Text         string
	AttachmentID *AttachmentID
}

// Normalize trims the text and rejects a message carrying neither text nor image.
func (c PostMessageCommand) Normalize() (PostMessageCommand, error) {
	c.Text = strings.TrimSpace(c.Text)
	if c.AttachmentID != nil && *c.AttachmentID == "" {
		c.AttachmentID = nil
	}
	if c.Text == "" && c.AttachmentID == nil {
		return c, errors.ErrEmptyMessage
	}
	return c, nil
}

type UploadAttachmentCommand struct {
	Filename  string
	MimeType  string
	SizeBytes int64
	Data      []byte
}

// Size is the larger of the declared size and the payload length, so a
// small declared size never hides a large payload.
func (c UploadAttachmentCommand) Size() int64 {
	return max(c.SizeBytes, int64(len(c.Data)))
}

func (c UploadAttachmentCommand) CheckSize() error {
	if len(c.Data) == 0 {
		return errors.ErrEmptyAttachment
	}
	if size := c.Size(); size > MaxAttachmentSize {
		return fmt.Errorf("%w: %d bytes (max %d)", errors.ErrAttachmentTooLarge, size, MaxAttachmentSize)
	}
	return nil
}
