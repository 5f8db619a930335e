package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/mdrscore/client/internal/client/api"
	"github.com/mdrscore/client/internal/client/repositories/metadata"
	"golang.org/x/oauth2"
)

// ProviderSessionKey is the repository key of the JSON-encoded OAuth2 token.
const ProviderSessionKey = "mdr_provider_session"

var ErrProviderConfig = errors.New("provider transport: issuer or token_url and client_id are required")

type ProviderConfig struct {
	// Issuer enables OIDC discovery of the token endpoint. Ignored when
	// TokenURL is set.
	Issuer       string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// ProviderTransport obtains the credential from an external OAuth2/OIDC
// provider with the resource-owner password grant. Tokens are never
// refreshed; an expired session counts as no credential.
type ProviderTransport struct {
	repo   metadata.Repository
	oauth  *oauth2.Config
	client *http.Client

	mu     sync.Mutex
	loaded bool
	tok    *oauth2.Token
}

type ProviderOption func(*ProviderTransport)

// WithProviderHTTPClient sets the client used for discovery and token calls.
func WithProviderHTTPClient(hc *http.Client) ProviderOption {
	return func(p *ProviderTransport) { p.client = hc }
}

// NewProviderTransport resolves the token endpoint, running discovery
// against cfg.Issuer when cfg.TokenURL is empty.
func NewProviderTransport(ctx context.Context, cfg ProviderConfig, repo metadata.Repository, opts ...ProviderOption) (*ProviderTransport, error) {
	if cfg.ClientID == "" || (cfg.Issuer == "" && cfg.TokenURL == "") {
		return nil, ErrProviderConfig
	}

	p := &ProviderTransport{repo: repo}
	for _, o := range opts {
		o(p)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}

	ep := oauth2.Endpoint{TokenURL: cfg.TokenURL}
	if ep.TokenURL == "" {
		provider, err := oidc.NewProvider(p.clientContext(ctx), cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery %s: %w", cfg.Issuer, err)
		}
		ep = provider.Endpoint()
	}

	p.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     ep,
		Scopes:       scopes,
	}
	return p, nil
}

func (p *ProviderTransport) clientContext(ctx context.Context) context.Context {
	if p.client == nil {
		return ctx
	}
	// go-oidc and x/oauth2 read the same context key
	return oidc.ClientContext(ctx, p.client)
}

func (p *ProviderTransport) Mode() string { return ModeProvider }

func (p *ProviderTransport) load(ctx context.Context) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		raw, err := p.repo.Get(ctx, ProviderSessionKey)
		if err != nil {
			return nil, fmt.Errorf("load provider session: %w", err)
		}
		var tok *oauth2.Token
		if len(raw) > 0 {
			tok = new(oauth2.Token)
			if err := json.Unmarshal(raw, tok); err != nil {
				// unreadable session is treated as none
				tok = nil
			}
		}
		p.tok, p.loaded = tok, true
	}
	return p.tok, nil
}

func (p *ProviderTransport) Credential(ctx context.Context) (string, error) {
	tok, err := p.load(ctx)
	if err != nil || !tok.Valid() {
		return "", err
	}
	return tok.AccessToken, nil
}

func (p *ProviderTransport) HasSession(ctx context.Context) (bool, error) {
	tok, err := p.load(ctx)
	return tok != nil, err
}

func (p *ProviderTransport) SignIn(ctx context.Context, doer api.Doer, identifier, password string) (*Grant, error) {
	tok, err := p.oauth.PasswordCredentialsToken(p.clientContext(ctx), identifier, password)
	if err != nil {
		return nil, providerError(ctx, err)
	}
	if tok.AccessToken == "" {
		return nil, ErrNoCredential
	}

	ident, err := FetchIdentity(ctx, doer, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(tok)
	if err != nil {
		return nil, fmt.Errorf("encode provider session: %w", err)
	}
	return &Grant{Identity: ident, Value: raw}, nil
}

func (p *ProviderTransport) Establish(ctx context.Context, g *Grant) error {
	if g == nil || len(g.Value) == 0 {
		return ErrNoCredential
	}
	tok := new(oauth2.Token)
	if err := json.Unmarshal(g.Value, tok); err != nil {
		return fmt.Errorf("decode provider session: %w", err)
	}
	if err := p.repo.Set(ctx, ProviderSessionKey, g.Value); err != nil {
		return fmt.Errorf("persist provider session: %w", err)
	}

	p.mu.Lock()
	p.tok, p.loaded = tok, true
	p.mu.Unlock()
	return nil
}

func (p *ProviderTransport) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.tok, p.loaded = nil, true
	p.mu.Unlock()

	if err := p.repo.Delete(ctx, ProviderSessionKey); err != nil {
		return fmt.Errorf("forget provider session: %w", err)
	}
	return nil
}

// providerError maps token endpoint failures onto the api error taxonomy so
// callers can render them the same way as backend errors.
func providerError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return fmt.Errorf("%w: %v", api.ErrUnavailable, err)
	}

	he := &api.HTTPError{Status: re.ErrorCode, Message: re.ErrorDescription}
	if re.Response != nil {
		he.StatusCode = re.Response.StatusCode
	}
	if he.Message == "" {
		he.Message = re.ErrorCode
	}
	return fmt.Errorf("provider sign-in: %w", he)
}
