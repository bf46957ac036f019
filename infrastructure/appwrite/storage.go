package appwrite

import (
	"app-chat/domain/chat"
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	pkgerrors "github.com/pkg/errors"
)

type file struct {
	ID string `json:"$id"`
}

// Upload sends the attachment as a multipart form, the way the web SDK does.
func (c *Client) Upload(ctx context.Context, bucket string, attachment chat.UploadAttachmentCommand) (chat.AttachmentID, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("fileId", "unique()"); err != nil {
		return "", pkgerrors.Wrap(err, "unable to write form")
	}
	filename := attachment.Filename
	if filename == "" {
		filename = "attachment"
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", attachment.MimeType)
	part, err := form.CreatePart(header)
	if err != nil {
		return "", pkgerrors.Wrap(err, "unable to write form")
	}
	if _, err := part.Write(attachment.Data); err != nil {
		return "", pkgerrors.Wrap(err, "unable to write form")
	}
	if err := form.Close(); err != nil {
		return "", pkgerrors.Wrap(err, "unable to write form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.url(fmt.Sprintf("/storage/buckets/%s/files", bucket), nil), &body)
	if err != nil {
		return "", pkgerrors.Wrap(err, "unable to build request")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var created file
	if err := c.send(req, &created); err != nil {
		return "", err
	}
	return chat.AttachmentID(created.ID), nil
}

// PreviewURL builds the preview link without calling the server.
func (c *Client) PreviewURL(bucket string, id chat.AttachmentID) (string, error) {
	return c.url(fmt.Sprintf("/storage/buckets/%s/files/%s/preview", bucket, id),
		url.Values{"project": {c.cfg.ProjectID}}), nil
}
