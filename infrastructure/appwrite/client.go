// Package appwrite talks to a hosted Appwrite project: account sessions,
// the message collection, the attachment bucket and the realtime socket.
// The session cookie is kept in the client's cookie jar and shared with the
// realtime dialer.
package appwrite

import (
	"app-chat/contract"
	"app-chat/errors"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	pkgerrors "github.com/pkg/errors"
)

const defaultPageSize = 100

type Config struct {
	Endpoint     string // e.g. https://cloud.appwrite.io/v1
	ProjectID    string
	DatabaseID   string
	PageSize     int
	PingInterval time.Duration
	BufferSize   int
}

type Client struct {
	log      *slog.Logger
	cfg      Config
	endpoint *url.URL
	http     *http.Client
}

var _ contract.Backend = (*Client)(nil)

func NewClient(log *slog.Logger, cfg Config) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("%w: project", errors.ErrMissingAppwriteID)
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("%w: database", errors.ErrMissingAppwriteID)
	}
	endpoint, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invalid appwrite endpoint")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 20 * time.Second
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "unable to create cookie jar")
	}
	return &Client{
		log:      log,
		cfg:      cfg,
		endpoint: endpoint,
		http:     &http.Client{Jar: jar},
	}, nil
}

// apiError is the error body Appwrite returns with any non 2xx status.
type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.endpoint
	u.Path = u.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends a JSON request and decodes the JSON answer into out, when given.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := jsoniter.Marshal(in)
		if err != nil {
			return pkgerrors.Wrap(err, "unable to marshal request")
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
	if err != nil {
		return pkgerrors.Wrap(err, "unable to build request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	req.Header.Set("X-Appwrite-Project", c.cfg.ProjectID)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return translate(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := jsoniter.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrapf(err, "unable to decode %s %s", req.Method, req.URL.Path)
	}
	return nil
}

// translate maps an Appwrite failure to the sentinel errors of the module.
func translate(resp *http.Response) error {
	var apiErr apiError
	_ = jsoniter.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&apiErr)
	detail := apiErr.Message
	if detail == "" {
		detail = resp.Status
	}
	switch {
	case resp.StatusCode == http.StatusConflict || apiErr.Type == "user_already_exists":
		return fmt.Errorf("%w: %s", errors.ErrUserAlreadyExists, detail)
	case apiErr.Type == "user_invalid_credentials":
		return fmt.Errorf("%w: %s", errors.ErrInvalidCredentials, detail)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", errors.ErrSessionNotFound, detail)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", errors.ErrNotFound, detail)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", errors.ErrUnreachable, detail)
	default:
		return fmt.Errorf("appwrite %d %s: %s", resp.StatusCode, apiErr.Type, detail)
	}
}
