// Package server wires and runs the MDRScore reference backend: an
// in-memory account store, an avatar store and the HTTP API in front of
// them.
package server

import (
	"context"
	"fmt"

	"github.com/mdrscore/client/internal/logging"
	"github.com/mdrscore/client/internal/server/avatars"
	"github.com/mdrscore/client/internal/server/config"
	"github.com/mdrscore/client/internal/server/httpserver"
	"github.com/mdrscore/client/internal/server/users"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *users.Service
	avatars     avatars.Store
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	store, err := avatars.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("avatar store init error: %w", err)
	}

	us := users.NewService(users.NewMemoryRepository(), c)

	return &App{config: c, logger: logger, userService: us, avatars: store}, nil
}

// Run serves until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...",
		"avatar_store", app.config.AvatarStore,
		"require_verify", app.config.RequireVerify,
	)

	s := httpserver.NewHTTPServer(app.config.Addr, app.config.PublicURL, app.logger, app.userService, app.avatars)
	return s.Run(ctx)
}
