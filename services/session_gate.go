package services

import (
	"app-chat/auth"
	"app-chat/contract"
	"app-chat/domain/chat"
	"app-chat/errors"
	"context"
	goerrors "errors"
	"log/slog"
	"sync"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

type ISessionGate interface {
	SignUp(ctx context.Context, name, email, password string) (chat.Session, error)
	LogIn(ctx context.Context, email, password string) (chat.Session, error)
	LogOut(ctx context.Context)
	CurrentSession(ctx context.Context) (*chat.Session, error)
	Session() (chat.Session, bool)
	State() State
}

var _ ISessionGate = (*SessionGate)(nil)

// SessionGate tracks whether the caller is authenticated against the provider.
type SessionGate struct {
	provider contract.AuthProvider
	log      *slog.Logger

	mu      sync.RWMutex
	session *chat.Session
}

func NewSessionGate(log *slog.Logger, provider contract.AuthProvider) *SessionGate {
	return &SessionGate{provider: provider, log: log}
}

// SignUp creates the account then logs in with the same credentials, since
// the provider does not open a session on registration.
func (g *SessionGate) SignUp(ctx context.Context, name, email, password string) (chat.Session, error) {
	if err := auth.ValidateSignUp(auth.SignUpRequest{Name: name, Email: email, Password: password}); err != nil {
		return chat.Session{}, errors.Validation("sign up", err)
	}
	if _, err := g.provider.CreateAccount(ctx, email, password, name); err != nil {
		g.log.Debug("Account creation rejected", "email", email, "error", err)
		return chat.Session{}, errors.Auth("sign up", err)
	}
	return g.LogIn(ctx, email, password)
}

func (g *SessionGate) LogIn(ctx context.Context, email, password string) (chat.Session, error) {
	if err := auth.ValidateLogIn(auth.LogInRequest{Email: email, Password: password}); err != nil {
		return chat.Session{}, errors.Validation("log in", err)
	}
	if err := g.provider.CreateSession(ctx, email, password); err != nil {
		g.log.Debug("Session creation rejected", "email", email, "error", err)
		return chat.Session{}, errors.Auth("log in", err)
	}
	account, err := g.provider.GetCurrentAccount(ctx)
	if err != nil {
		return chat.Session{}, errors.Auth("log in", err)
	}
	session := toSession(account)
	g.set(&session)
	g.log.Info("Logged in", "user_id", session.UserID, "name", session.DisplayName)
	return session, nil
}

// LogOut is best-effort: the local session is dropped even if the provider
// call fails, the failure is only logged.
func (g *SessionGate) LogOut(ctx context.Context) {
	if err := g.provider.DeleteCurrentSession(ctx); err != nil {
		g.log.Warn("Logout failed", "error", err)
	}
	g.set(nil)
}

// CurrentSession probes the provider for an existing session. A missing
// session is the logged-out state, not an error.
func (g *SessionGate) CurrentSession(ctx context.Context) (*chat.Session, error) {
	account, err := g.provider.GetCurrentAccount(ctx)
	if goerrors.Is(err, errors.ErrSessionNotFound) {
		g.log.Debug("No active session")
		g.set(nil)
		return nil, nil
	}
	if err != nil {
		g.set(nil)
		return nil, errors.Auth("current session", err)
	}
	session := toSession(account)
	g.set(&session)
	return &session, nil
}

func (g *SessionGate) Session() (chat.Session, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil {
		return chat.Session{}, false
	}
	return *g.session, true
}

func (g *SessionGate) State() State {
	if _, ok := g.Session(); ok {
		return Authenticated
	}
	return Unauthenticated
}

func (g *SessionGate) set(session *chat.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = session
}

func toSession(account contract.Account) chat.Session {
	return chat.Session{
		UserID:      chat.UserID(account.ID),
		DisplayName: account.Name,
		Email:       account.Email,
	}
}
