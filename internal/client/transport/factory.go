package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mdrscore/client/internal/client/repositories/metadata"
)

// New builds the transport named by mode.
func New(ctx context.Context, mode string, cfg ProviderConfig, repo metadata.Repository, hc *http.Client) (SessionTransport, error) {
	switch mode {
	case ModeToken, "":
		return NewTokenTransport(repo), nil
	case ModeProvider:
		var opts []ProviderOption
		if hc != nil {
			opts = append(opts, WithProviderHTTPClient(hc))
		}
		return NewProviderTransport(ctx, cfg, repo, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}
