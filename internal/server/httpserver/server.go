// Package httpserver exposes the reference backend over HTTP/JSON with the
// same envelope the MDRScore client expects: {status, message, data}.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mdrscore/client/internal/logging"
	"github.com/mdrscore/client/internal/server/avatars"
	"github.com/mdrscore/client/internal/server/users"
)

// MaxAvatarBytes caps the size of an uploaded avatar.
const MaxAvatarBytes = 5 << 20

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address   string
	publicURL string
	users     *users.Service
	avatars   avatars.Store
	logger    logging.Logger
}

func NewHTTPServer(addr, publicURL string, l logging.Logger, us *users.Service, as avatars.Store) *HTTPServer {
	return &HTTPServer{
		address:   addr,
		publicURL: strings.TrimRight(publicURL, "/"),
		users:     us,
		avatars:   as,
		logger:    l.With("module", "http_server"),
	}
}

// Handler returns the routed handler. Exposed for httptest.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/register", s.register)
		r.Get("/verify", s.verify)

		r.Group(func(r chi.Router) {
			r.Use(s.bearerAuth)

			r.Get("/me", s.me)
			r.Delete("/me", s.deleteAccount)
			r.Patch("/me/profile", s.updateProfile)
			r.Post("/me/avatar", s.uploadAvatar)
			r.Patch("/me/account", s.updateAccount)
		})
	})

	r.Get("/avatars/*", s.serveAvatar)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Warn(ctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
