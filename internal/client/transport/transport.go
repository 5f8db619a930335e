// Package transport decides where the bearer credential comes from.
//
// A SessionTransport signs users in, keeps the resulting credential in a
// metadata.Repository and hands it to the api.Client on every request. Two
// variants exist: TokenTransport keeps the token issued by the backend's
// own login endpoint, ProviderTransport keeps an OAuth2 session obtained
// from an external identity provider.
//
// Sign-in is split in two steps. SignIn talks to the network and returns a
// Grant without touching local state; Establish persists the Grant. The
// caller decides whether a finished sign-in is still wanted before making
// it current.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mdrscore/client/internal/client/api"
	"github.com/mdrscore/client/internal/client/models"
	"github.com/mdrscore/client/internal/common"
)

const (
	ModeToken    = "token"
	ModeProvider = "provider"
)

var (
	ErrNoCredential = errors.New("sign-in returned no credential")
	ErrNoIdentity   = errors.New("backend returned no identity")
	ErrUnknownMode  = errors.New("unknown transport mode")
)

// Grant is the outcome of a successful SignIn that is not persisted yet.
type Grant struct {
	Identity *models.Identity
	// Value is what Establish stores. Its encoding belongs to the transport
	// that produced it.
	Value []byte
}

type SessionTransport interface {
	api.CredentialSource

	Mode() string
	// HasSession reports whether credential material is persisted, usable
	// or not.
	HasSession(ctx context.Context) (bool, error)
	SignIn(ctx context.Context, doer api.Doer, identifier, password string) (*Grant, error)
	Establish(ctx context.Context, g *Grant) error
	// SignOut forgets the credential in memory even when the repository
	// fails.
	SignOut(ctx context.Context) error
}

// FetchIdentity loads the account behind token from GET /api/me.
func FetchIdentity(ctx context.Context, doer api.Doer, token string) (*models.Identity, error) {
	var env api.Envelope
	if err := doer.Do(api.WithBearer(ctx, token), http.MethodGet, "/api/me", nil, &env); err != nil {
		return nil, err
	}
	if env.Status != common.StatusSuccess || len(env.Data) == 0 {
		return nil, ErrNoIdentity
	}

	var ident models.Identity
	if err := json.Unmarshal(env.Data, &ident); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	if ident.ID == "" {
		return nil, ErrNoIdentity
	}
	return &ident, nil
}
