package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mdrscore/client/internal/client/api"
	"github.com/mdrscore/client/internal/client/config"
	"github.com/mdrscore/client/internal/client/notify"
	"github.com/mdrscore/client/internal/client/services"
	"github.com/mdrscore/client/internal/client/storage"
	"github.com/mdrscore/client/internal/client/transport"
	"github.com/mdrscore/client/internal/logging"
)

// Screen is the flow the user is currently in.
type Screen string

const (
	ScreenLogin     Screen = "login"
	ScreenRegister  Screen = "register"
	ScreenVerify    Screen = "verify"
	ScreenWelcome   Screen = "welcome"
	ScreenDashboard Screen = "dashboard"
)

type App struct {
	auth    services.AuthService
	profile services.ProfileService
	notes   *notify.Slot
	logger  logging.Logger

	reader *bufio.Reader
	out    io.Writer
	screen Screen

	closers []io.Closer
}

// NewApp opens the credential store and wires transport, api client and
// stores according to cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	store, err := storage.Open(ctx, storage.Options{
		Backend:       cfg.TokenStore,
		SQLitePath:    cfg.DBPath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   cfg.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	tr, err := transport.New(ctx, cfg.Transport, transport.ProviderConfig{
		Issuer:       cfg.Provider.Issuer,
		TokenURL:     cfg.Provider.TokenURL,
		ClientID:     cfg.Provider.ClientID,
		ClientSecret: cfg.Provider.ClientSecret,
		Scopes:       cfg.Provider.Scopes,
	}, store, nil)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	client, err := api.New(cfg.APIBaseURL, tr, api.WithTimeout(cfg.RequestTimeout), api.WithLogger(logger))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	auth := services.NewAuthService(tr, client, logger)
	a := newApp(auth, services.NewProfileService(client, tr, auth, logger), notify.NewSlot(cfg.NotificationTTL), logger)
	a.closers = append(a.closers, store)
	return a, nil
}

func newApp(auth services.AuthService, profile services.ProfileService, notes *notify.Slot, logger logging.Logger) *App {
	if logger == nil {
		logger = logging.Discard()
	}
	return &App{
		auth:    auth,
		profile: profile,
		notes:   notes,
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		screen:  ScreenLogin,
	}
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Run restores the previous session and serves the REPL until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) {
	printlnFn("MDRScore (type 'help' for commands)")

	if err := a.auth.Init(ctx); err != nil {
		a.logger.Warn(ctx, "session restore failed", "error", err)
		a.notes.Post(notify.Warning, a.auth.State().Err)
	}
	if a.isLoggedIn() {
		a.welcome()
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.auth.IsAuthenticated()
}

func (a *App) getStatus() string {
	if st := a.auth.State(); st.Identity != nil {
		return fmt.Sprintf("(%s)", st.Identity.DisplayName())
	}
	return "(guest)"
}

func (a *App) notice() (notify.Notification, bool) {
	return a.notes.Take()
}

func (a *App) welcome() {
	a.screen = ScreenWelcome
	name := a.auth.State().Identity.DisplayName()
	printlnFn(fmt.Sprintf("Welcome, %s! Type 'profile' to open your dashboard.", name))
}

// sessionLost moves back to the login screen when the backend dropped the
// session during the last command. It reports whether that happened.
func (a *App) sessionLost() bool {
	if a.isLoggedIn() {
		return false
	}
	a.profile.ResetUser()
	a.screen = ScreenLogin
	msg := a.auth.State().Err
	if msg == "" {
		msg = services.ErrNoSession.Error()
	}
	a.notes.Post(notify.Warning, msg)
	return true
}

// fail posts err as an error notification, preferring message when set.
func (a *App) fail(err error, message string) error {
	if message == "" {
		message = err.Error()
	}
	a.notes.Post(notify.Error, message)
	return err
}
