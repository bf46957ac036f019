package appwrite

import (
	"app-chat/contract"
	"app-chat/errors"
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
)

type user struct {
	ID    string `json:"$id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u user) account() contract.Account {
	return contract.Account{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (c *Client) CreateAccount(ctx context.Context, email, password, name string) (contract.Account, error) {
	var created user
	err := c.do(ctx, http.MethodPost, "/account", nil, map[string]string{
		"userId":   "unique()",
		"email":    email,
		"password": password,
		"name":     name,
	}, &created)
	if err != nil {
		return contract.Account{}, err
	}
	return created.account(), nil
}

// CreateSession opens an email session; the session cookie lands in the jar.
func (c *Client) CreateSession(ctx context.Context, email, password string) error {
	err := c.do(ctx, http.MethodPost, "/account/sessions/email", nil, map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if goerrors.Is(err, errors.ErrSessionNotFound) {
		return fmt.Errorf("%w: %v", errors.ErrInvalidCredentials, err)
	}
	return err
}

func (c *Client) GetCurrentAccount(ctx context.Context) (contract.Account, error) {
	var current user
	if err := c.do(ctx, http.MethodGet, "/account", nil, nil, &current); err != nil {
		return contract.Account{}, err
	}
	return current.account(), nil
}

func (c *Client) DeleteCurrentSession(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/account/sessions/current", nil, nil, nil)
}
