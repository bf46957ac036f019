package internal

import (
	"app-chat/errors"
	"fmt"
	"strings"
	"time"
)

const (
	BackendEmbedded = "embedded"
	BackendAppwrite = "appwrite"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL,default=INFO"`
	Backend  string `env:"BACKEND,default=embedded"`

	MessagesCollection string `env:"MESSAGES_COLLECTION,default=messages"`
	AttachmentsBucket  string `env:"ATTACHMENTS_BUCKET,default=attachments"`
	PageSize           int    `env:"PAGE_SIZE,default=100"`

	AppwriteEndpoint     string        `env:"APPWRITE_ENDPOINT,default=https://cloud.appwrite.io/v1"`
	AppwriteProjectID    string        `env:"APPWRITE_PROJECT_ID"`
	AppwriteDatabaseID   string        `env:"APPWRITE_DATABASE_ID"`
	RealtimePingInterval time.Duration `env:"REALTIME_PING_INTERVAL,default=20s"`

	BadgerFilepath    string        `env:"BADGER_FILEPATH,default=./data/chatfeed"`
	AuthSecret        string        `env:"AUTH_SECRET,default=change-me"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	ScrollDelay            time.Duration `env:"SCROLL_DELAY,default=100ms"`
	RestartInterval        time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	DeliveryTimeout        time.Duration `env:"DELIVERY_TIMEOUT,default=1s"`
	SubscriptionBufferSize int           `env:"SUBSCRIPTION_BUFFER_SIZE,default=64"`
}

// Validate checks what the tags cannot express.
func (c Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case BackendEmbedded:
		return nil
	case BackendAppwrite:
		if c.AppwriteProjectID == "" {
			return fmt.Errorf("%w: APPWRITE_PROJECT_ID", errors.ErrMissingAppwriteID)
		}
		if c.AppwriteDatabaseID == "" {
			return fmt.Errorf("%w: APPWRITE_DATABASE_ID", errors.ErrMissingAppwriteID)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownBackend, c.Backend)
	}
}
