package appwrite

import (
	"app-chat/domain/chat"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	pkgerrors "github.com/pkg/errors"
	"github.com/samber/lo"
)

// document is a row of the message collection.
type document struct {
	ID        string  `json:"$id,omitempty"`
	CreatedAt string  `json:"$createdAt,omitempty"`
	UserID    string  `json:"userId"`
	Username  string  `json:"username"`
	Message   string  `json:"message"`
	ImageID   *string `json:"imageId"`
	Timestamp string  `json:"timestamp"`
}

type documentList struct {
	Total     int        `json:"total"`
	Documents []document `json:"documents"`
}

type query struct {
	Method string        `json:"method"`
	Values []interface{} `json:"values,omitempty"`
}

func (c *Client) documentsPath(collection string) string {
	return fmt.Sprintf("/databases/%s/collections/%s/documents", c.cfg.DatabaseID, collection)
}

func (c *Client) Insert(ctx context.Context, collection string, draft chat.Draft) (chat.Message, error) {
	data := document{
		UserID:    string(draft.AuthorID),
		Username:  draft.AuthorName,
		Message:   draft.Text,
		Timestamp: draft.SentAt.UTC().Format(time.RFC3339Nano),
	}
	if draft.AttachmentID != nil {
		data.ImageID = lo.ToPtr(string(*draft.AttachmentID))
	}
	var created document
	err := c.do(ctx, http.MethodPost, c.documentsPath(collection), nil, map[string]interface{}{
		"documentId": "unique()",
		"data":       data,
	}, &created)
	if err != nil {
		return chat.Message{}, err
	}
	return created.message(), nil
}

// ListAll pages through the collection with limit / offset queries. The
// order of the pages is left to the server.
func (c *Client) ListAll(ctx context.Context, collection string) ([]chat.Message, error) {
	var res []chat.Message
	for offset := 0; ; offset += c.cfg.PageSize {
		params, err := pageQuery(c.cfg.PageSize, offset)
		if err != nil {
			return nil, err
		}
		var page documentList
		if err := c.do(ctx, http.MethodGet, c.documentsPath(collection), params, nil, &page); err != nil {
			return nil, err
		}
		res = append(res, lo.Map(page.Documents, func(d document, _ int) chat.Message { return d.message() })...)
		if len(page.Documents) < c.cfg.PageSize || len(res) >= page.Total {
			return res, nil
		}
	}
}

func pageQuery(limit, offset int) (url.Values, error) {
	params := url.Values{}
	for _, q := range []query{
		{Method: "limit", Values: []interface{}{limit}},
		{Method: "offset", Values: []interface{}{offset}},
	} {
		buf, err := jsoniter.Marshal(q)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "unable to marshal query")
		}
		params.Add("queries[]", string(buf))
	}
	return params, nil
}

// message prefers the server creation time and falls back to the client
// timestamp written at send time.
func (d document) message() chat.Message {
	m := chat.Message{
		ID:         chat.MessageID(d.ID),
		AuthorID:   chat.UserID(d.UserID),
		AuthorName: d.Username,
		Text:       d.Message,
		CreatedAt:  parseTime(d.CreatedAt),
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = parseTime(d.Timestamp)
	}
	if d.ImageID != nil && *d.ImageID != "" {
		m.AttachmentID = lo.ToPtr(chat.AttachmentID(*d.ImageID))
	}
	return m
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
