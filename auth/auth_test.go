package auth

import (
	"app-chat/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "correct horse"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.Contains(hash, "$argon2id$")

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("wrong horse", hash)
	req.NoError(err)
	req.False(match)

	_, err = ComparePassword(password, "plain-text")
	req.Error(err)
}

func TestSignUpValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     SignUpRequest
		wantErr error
	}{
		{"Valid request", SignUpRequest{"Alice", "alice@example.com", "secret"}, nil},
		{"Missing name", SignUpRequest{"", "alice@example.com", "secret"}, errors.ErrEmptyField},
		{"Missing email", SignUpRequest{"Alice", "", "secret"}, errors.ErrEmptyField},
		{"Empty password", SignUpRequest{"Alice", "alice@example.com", ""}, errors.ErrEmptyField},
		{"Invalid email", SignUpRequest{"Alice", "not-an-email", "secret"}, errors.ErrInvalidEmail},
		{"Password too short", SignUpRequest{"Alice", "alice@example.com", "12345"}, errors.ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignUp(tt.req)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogInValidation(t *testing.T) {
	req := require.New(t)
	req.NoError(ValidateLogIn(LogInRequest{"alice@example.com", "x"}))
	req.ErrorIs(ValidateLogIn(LogInRequest{"alice@example.com", ""}), errors.ErrEmptyField)
	req.ErrorIs(ValidateLogIn(LogInRequest{"", "x"}), errors.ErrEmptyField)
}

func TestTokenIssuer(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.GenerateToken("u1", "alice@example.com")
	req.NoError(err)

	claims, err := issuer.ValidateToken(token)
	req.NoError(err)
	req.Equal("u1", claims.UserID)
	req.Equal("alice@example.com", claims.Email)

	_, err = NewTokenIssuer("other-secret", time.Hour).ValidateToken(token)
	req.Error(err)

	expired := NewTokenIssuer("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.GenerateToken("u1", "alice@example.com")
	req.NoError(err)
	_, err = issuer.ValidateToken(old)
	req.Error(err)
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
