package internal

import (
	"app-chat/errors"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	var config Config

	_, err := env.UnmarshalFromEnviron(&config)

	req.NoError(err)
	req.Equal("embedded", config.Backend)
	req.Equal("messages", config.MessagesCollection)
	req.Equal(100*time.Millisecond, config.ScrollDelay)
	req.Equal(24*time.Hour, config.AuthTokenDuration)
	req.NoError(config.Validate())
}

func TestConfig_FromEnvironment(t *testing.T) {
	req := require.New(t)
	t.Setenv("BACKEND", "appwrite")
	t.Setenv("APPWRITE_PROJECT_ID", "project")
	t.Setenv("APPWRITE_DATABASE_ID", "db")
	t.Setenv("SCROLL_DELAY", "250ms")
	var config Config

	_, err := env.UnmarshalFromEnviron(&config)

	req.NoError(err)
	req.Equal(BackendAppwrite, config.Backend)
	req.Equal(250*time.Millisecond, config.ScrollDelay)
	req.NoError(config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	req := require.New(t)

	req.ErrorIs(Config{Backend: "firebase"}.Validate(), errors.ErrUnknownBackend)
	req.ErrorIs(Config{Backend: "appwrite", AppwriteDatabaseID: "db"}.Validate(), errors.ErrMissingAppwriteID)
	req.ErrorIs(Config{Backend: "appwrite", AppwriteProjectID: "p"}.Validate(), errors.ErrMissingAppwriteID)
}
