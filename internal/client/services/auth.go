package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mdrscore/client/internal/client/api"
	"github.com/mdrscore/client/internal/client/models"
	"github.com/mdrscore/client/internal/client/transport"
	"github.com/mdrscore/client/internal/logging"
	"golang.org/x/sync/singleflight"
)

// User-facing fallbacks for failures the server did not describe.
const (
	msgInitFailed     = "could not restore session"
	msgLoginFailed    = "login failed"
	msgRegisterFailed = "registration failed"
	msgSessionExpired = "session expired, please log in again"
)

// AuthState is a snapshot of the session. Identity is nil while anonymous.
type AuthState struct {
	Identity *models.Identity
	Loading  bool
	Err      string
}

// RegisterResult tells the caller where to go after a successful
// registration. Both flags are false when the backend did not say.
type RegisterResult struct {
	RequireVerify bool
	Activated     bool
}

// AuthService is the auth session store.
//
// Contract:
//   - Init: restore the session from the persisted credential.
//   - Login: sign in and make the new credential current.
//   - Register: create an account; never signs in by itself.
//   - Logout: forget the session; never fails.
//   - Invalidate: like Logout, used when the backend rejects the credential.
type AuthService interface {
	Init(ctx context.Context) error
	Login(ctx context.Context, identifier, password string) error
	Register(ctx context.Context, reg models.Registration) (RegisterResult, error)
	Logout(ctx context.Context)
	Invalidate(ctx context.Context)
	State() AuthState
	IsAuthenticated() bool
}

type authService struct {
	transport transport.SessionTransport
	doer      api.Doer
	logger    logging.Logger
	now       func() time.Time

	flights *flights
	reads   singleflight.Group
	// commitMu orders credential writes: sign-in commits and sign-outs.
	commitMu sync.Mutex

	mu    sync.RWMutex
	state AuthState
	// epoch changes whenever a session is made current or ended, so a
	// slower Init does not overwrite it.
	epoch uint64
}

// NewAuthService binds the store to a transport and the api client that
// uses that transport as its credential source.
func NewAuthService(tr transport.SessionTransport, doer api.Doer, logger logging.Logger) AuthService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &authService{
		transport: tr,
		doer:      doer,
		logger:    logger.With("store", "auth", "transport", tr.Mode()),
		now:       time.Now,
		flights:   newFlights(),
	}
}

func (s *authService) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	if st.Identity != nil {
		ident := *st.Identity
		st.Identity = &ident
	}
	return st
}

func (s *authService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Identity != nil
}

func (s *authService) update(fn func(st *AuthState)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
}

func (s *authService) Init(ctx context.Context) error {
	s.mu.Lock()
	epoch := s.epoch
	s.state.Loading, s.state.Err = true, ""
	s.mu.Unlock()

	ch := s.reads.DoChan("init:"+strconv.FormatUint(epoch, 10), func() (any, error) {
		return s.restore(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		s.update(func(st *AuthState) { st.Loading = false })
		return ctx.Err()
	case res := <-ch:
		ident, _ := res.Val.(*models.Identity)

		s.mu.Lock()
		if s.epoch != epoch {
			s.mu.Unlock()
			return ErrSuperseded
		}
		s.state.Loading = false
		s.state.Identity = ident
		if res.Err != nil {
			s.state.Err = api.Message(res.Err, msgInitFailed)
		}
		s.mu.Unlock()
		if res.Err != nil {
			return fmt.Errorf("restore session: %w", res.Err)
		}
		return nil
	}
}

// restore resolves the identity behind the persisted credential. A
// credential the backend no longer accepts is dropped.
func (s *authService) restore(ctx context.Context) (*models.Identity, error) {
	has, err := s.transport.HasSession(ctx)
	if err != nil || !has {
		return nil, err
	}

	tok, err := s.transport.Credential(ctx)
	if err != nil {
		return nil, err
	}
	if tok == "" || tokenExpired(tok, s.now()) {
		s.logger.Info(ctx, "stored credential expired")
		s.drop(ctx, tok)
		return nil, nil
	}

	ident, err := transport.FetchIdentity(ctx, s.doer, tok)
	switch {
	case api.IsUnauthorized(err), errors.Is(err, transport.ErrNoIdentity):
		s.logger.Info(ctx, "stored credential rejected", "error", err)
		s.drop(ctx, tok)
		return nil, nil
	case err != nil:
		return nil, err
	}
	return ident, nil
}

// drop signs out unless a newer sign-in already replaced tok.
func (s *authService) drop(ctx context.Context, tok string) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if cur, err := s.transport.Credential(ctx); err == nil && cur != "" && cur != tok {
		return
	}
	s.signOut(ctx)
}

// tokenExpired reports whether tok is a JWT whose exp lies in the past.
// Opaque tokens are never considered expired here; the backend decides.
func tokenExpired(tok string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

func (s *authService) Login(ctx context.Context, identifier, password string) error {
	fctx, t, done := s.flights.begin(ctx, "login")
	defer done()

	s.update(func(st *AuthState) { st.Loading, st.Err = true, "" })

	g, err := s.transport.SignIn(fctx, s.doer, identifier, password)

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if !s.flights.current(t) {
		return ErrSuperseded
	}
	if ctx.Err() != nil {
		s.update(func(st *AuthState) { st.Loading = false })
		return ctx.Err()
	}
	if err == nil {
		err = s.transport.Establish(ctx, g)
	}
	if err != nil {
		s.logger.Warn(ctx, "login failed", "error", err)
		s.update(func(st *AuthState) {
			st.Loading = false
			st.Err = api.Message(err, msgLoginFailed)
		})
		return err
	}

	s.logger.Info(ctx, "signed in", "user_id", g.Identity.ID)
	s.mu.Lock()
	s.state.Loading = false
	s.state.Identity = g.Identity
	s.epoch++
	s.mu.Unlock()
	return nil
}

type registerData struct {
	RequireVerify *bool `json:"require_verify"`
}

func (s *authService) Register(ctx context.Context, reg models.Registration) (RegisterResult, error) {
	fctx, t, done := s.flights.begin(ctx, "register")
	defer done()

	s.update(func(st *AuthState) { st.Loading, st.Err = true, "" })

	var env api.Envelope
	err := s.doer.Do(api.WithBearer(fctx, ""), http.MethodPost, "/api/register", reg, &env)

	var res RegisterResult
	if err == nil && len(env.Data) > 0 {
		var data registerData
		if jerr := json.Unmarshal(env.Data, &data); jerr != nil {
			err = fmt.Errorf("decode register response: %w", jerr)
		} else if data.RequireVerify != nil {
			res.RequireVerify = *data.RequireVerify
			res.Activated = !*data.RequireVerify
		}
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if !s.flights.current(t) {
		return RegisterResult{}, ErrSuperseded
	}
	if ctx.Err() != nil {
		s.update(func(st *AuthState) { st.Loading = false })
		return RegisterResult{}, ctx.Err()
	}
	if err != nil {
		s.logger.Warn(ctx, "register failed", "error", err)
		s.update(func(st *AuthState) {
			st.Loading = false
			st.Err = api.Message(err, msgRegisterFailed)
		})
		return RegisterResult{}, err
	}

	s.logger.Info(ctx, "registered", "username", reg.Username, "require_verify", res.RequireVerify)
	s.update(func(st *AuthState) { st.Loading = false })
	return res, nil
}

func (s *authService) Logout(ctx context.Context) {
	s.endSession(ctx, "")
	s.logger.Info(ctx, "signed out")
}

func (s *authService) Invalidate(ctx context.Context) {
	s.endSession(ctx, msgSessionExpired)
	s.logger.Warn(ctx, "session invalidated by backend")
}

func (s *authService) endSession(ctx context.Context, reason string) {
	s.flights.reset()

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.signOut(ctx)

	s.mu.Lock()
	s.state = AuthState{Err: reason}
	s.epoch++
	s.mu.Unlock()
}

func (s *authService) signOut(ctx context.Context) {
	if err := s.transport.SignOut(ctx); err != nil {
		s.logger.Error(ctx, "failed to forget credential", "error", err)
	}
}
