package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/mdrscore/client/internal/client/api"
	"github.com/mdrscore/client/internal/client/models"
	"github.com/mdrscore/client/internal/client/repositories/metadata"
)

// TokenKey is the repository key of the backend-issued token.
const TokenKey = "mdr_token"

type loginResponse struct {
	Token string           `json:"token"`
	User  *models.Identity `json:"user"`
}

// TokenTransport signs in against POST /api/login and keeps the returned
// token.
type TokenTransport struct {
	repo metadata.Repository

	mu     sync.Mutex
	loaded bool
	token  string
}

func NewTokenTransport(repo metadata.Repository) *TokenTransport {
	return &TokenTransport{repo: repo}
}

func (t *TokenTransport) Mode() string { return ModeToken }

func (t *TokenTransport) Credential(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.loaded {
		v, err := t.repo.Get(ctx, TokenKey)
		if err != nil {
			return "", fmt.Errorf("load token: %w", err)
		}
		t.token, t.loaded = string(v), true
	}
	return t.token, nil
}

func (t *TokenTransport) HasSession(ctx context.Context) (bool, error) {
	tok, err := t.Credential(ctx)
	return tok != "", err
}

func (t *TokenTransport) SignIn(ctx context.Context, doer api.Doer, identifier, password string) (*Grant, error) {
	var resp loginResponse
	creds := models.Credentials{Identifier: identifier, Password: password}
	if err := doer.Do(api.WithBearer(ctx, ""), http.MethodPost, "/api/login", creds, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrNoCredential
	}

	ident := resp.User
	if ident == nil || ident.ID == "" {
		var err error
		if ident, err = FetchIdentity(ctx, doer, resp.Token); err != nil {
			return nil, err
		}
	}
	return &Grant{Identity: ident, Value: []byte(resp.Token)}, nil
}

func (t *TokenTransport) Establish(ctx context.Context, g *Grant) error {
	if g == nil || len(g.Value) == 0 {
		return ErrNoCredential
	}
	if err := t.repo.Set(ctx, TokenKey, g.Value); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	t.mu.Lock()
	t.token, t.loaded = string(g.Value), true
	t.mu.Unlock()
	return nil
}

func (t *TokenTransport) SignOut(ctx context.Context) error {
	t.mu.Lock()
	t.token, t.loaded = "", true
	t.mu.Unlock()

	if err := t.repo.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("forget token: %w", err)
	}
	return nil
}
