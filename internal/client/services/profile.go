package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/mdrscore/client/internal/client/api"
	"github.com/mdrscore/client/internal/client/models"
	"github.com/mdrscore/client/internal/common"
	"github.com/mdrscore/client/internal/logging"
	"golang.org/x/sync/singleflight"
)

const (
	msgUpdateFailed  = "could not update profile"
	msgUploadFailed  = "could not upload avatar"
	msgAccountFailed = "could not update account"
	msgDeleteFailed  = "could not delete account"
	msgFetchFailed   = "could not load profile"
)

// AvatarField is the multipart field name of an avatar upload.
const AvatarField = "avatar"

type ProfileState struct {
	Profile *models.Profile
	Loading bool
	Err     string
}

// SessionControl is the part of the auth store the profile store drives.
type SessionControl interface {
	Invalidate(ctx context.Context)
	Logout(ctx context.Context)
}

// ProfileService is the cached user profile store.
type ProfileService interface {
	FetchProfile(ctx context.Context) error
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) error
	UploadAvatar(ctx context.Context, filename string, content io.Reader) error
	UpdateAccountSettings(ctx context.Context, settings models.AccountSettings) error
	DeleteAccount(ctx context.Context) error
	// ResetUser clears the cache and drops any in-flight result. It is
	// synchronous and idempotent.
	ResetUser()
	State() ProfileState
}

type profileService struct {
	doer    api.Doer
	creds   api.CredentialSource
	session SessionControl
	logger  logging.Logger

	flights *flights
	reads   singleflight.Group

	mu    sync.RWMutex
	state ProfileState
}

// NewProfileService wires the store. creds is consulted before every
// operation so that calls without a credential never reach the network.
func NewProfileService(doer api.Doer, creds api.CredentialSource, session SessionControl, logger logging.Logger) ProfileService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &profileService{
		doer:    doer,
		creds:   creds,
		session: session,
		logger:  logger.With("store", "profile"),
		flights: newFlights(),
	}
}

func (s *profileService) State() ProfileState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Profile = st.Profile.Clone()
	return st
}

func (s *profileService) ResetUser() {
	s.flights.reset()

	s.mu.Lock()
	s.state = ProfileState{}
	s.mu.Unlock()
}

func (s *profileService) requireSession(ctx context.Context) error {
	tok, err := s.creds.Credential(ctx)
	if err != nil {
		return fmt.Errorf("resolve credential: %w", err)
	}
	if tok == "" {
		return ErrNoSession
	}
	return nil
}

// rejected invalidates the session when err says the credential is no
// longer accepted.
func (s *profileService) rejected(ctx context.Context, err error) {
	if api.IsUnauthorized(err) {
		s.session.Invalidate(ctx)
	}
}

func (s *profileService) FetchProfile(ctx context.Context) error {
	gen := s.flights.generation()
	s.mu.Lock()
	s.state.Loading = true
	s.mu.Unlock()

	// keyed by generation: a fetch begun after ResetUser must not join one
	// that is still loading the previous session's profile
	ch := s.reads.DoChan("profile:"+strconv.FormatUint(gen, 10), func() (any, error) {
		return s.load(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		s.mu.Lock()
		s.state.Loading = false
		s.mu.Unlock()
		return ctx.Err()
	case res := <-ch:
		p, _ := res.Val.(*models.Profile)

		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.flights.valid(gen) {
			return ErrSuperseded
		}
		s.state.Loading = false
		s.state.Profile = p
		if res.Err != nil {
			s.state.Err = message(res.Err, msgFetchFailed)
		}
		return res.Err
	}
}

// load returns a nil profile without error when the backend answers with a
// non-success status.
func (s *profileService) load(ctx context.Context) (*models.Profile, error) {
	if err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	var env api.Envelope
	if err := s.doer.Do(ctx, http.MethodGet, "/api/me", nil, &env); err != nil {
		s.rejected(ctx, err)
		return nil, err
	}
	if env.Status != common.StatusSuccess {
		s.logger.Info(ctx, "profile not available", "status", env.Status)
		return nil, nil
	}

	var none *models.Profile
	return none.Merge(env.Data)
}

// mutate runs one superseding operation. call performs the request and
// returns apply, which is run against the state only if the call is still
// current.
func (s *profileService) mutate(
	ctx context.Context,
	op, fallback string,
	call func(ctx context.Context) (apply func(st *ProfileState) error, err error),
) error {
	fctx, t, done := s.flights.begin(ctx, op)
	defer done()

	s.mu.Lock()
	s.state.Loading, s.state.Err = true, ""
	s.mu.Unlock()

	var apply func(st *ProfileState) error
	err := s.requireSession(fctx)
	if err == nil {
		apply, err = call(fctx)
	}

	s.mu.Lock()
	if !s.flights.current(t) {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if ctx.Err() != nil {
		s.state.Loading = false
		s.mu.Unlock()
		return ctx.Err()
	}
	s.state.Loading = false
	if err == nil {
		err = apply(&s.state)
	}
	if err != nil {
		s.state.Err = message(err, fallback)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn(ctx, op+" failed", "error", err)
		s.rejected(ctx, err)
	}
	return err
}

func message(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrNoSession), errors.Is(err, ErrNoAvatarURL):
		return err.Error()
	default:
		return api.Message(err, fallback)
	}
}

func (s *profileService) UpdateProfile(ctx context.Context, patch models.ProfilePatch) error {
	return s.mutate(ctx, "update_profile", msgUpdateFailed, func(ctx context.Context) (func(*ProfileState) error, error) {
		var env api.Envelope
		if err := s.doer.Do(ctx, http.MethodPatch, "/api/me/profile", patch, &env); err != nil {
			return nil, err
		}
		return func(st *ProfileState) error {
			merged, err := st.Profile.Merge(env.Data)
			if err != nil {
				return err
			}
			st.Profile = merged
			return nil
		}, nil
	})
}

type avatarData struct {
	AvatarURL string `json:"avatar_url"`
}

func (s *profileService) UploadAvatar(ctx context.Context, filename string, content io.Reader) error {
	return s.mutate(ctx, "upload_avatar", msgUploadFailed, func(ctx context.Context) (func(*ProfileState) error, error) {
		var env api.Envelope
		if err := s.doer.Upload(ctx, "/api/me/avatar", AvatarField, filename, content, &env); err != nil {
			return nil, err
		}

		var data avatarData
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return nil, fmt.Errorf("decode avatar response: %w", err)
			}
		}
		if data.AvatarURL == "" {
			return nil, ErrNoAvatarURL
		}

		return func(st *ProfileState) error {
			if st.Profile != nil {
				p := st.Profile.Clone()
				p.AvatarURL = data.AvatarURL
				st.Profile = p
			}
			return nil
		}, nil
	})
}

func (s *profileService) UpdateAccountSettings(ctx context.Context, settings models.AccountSettings) error {
	var emailChanged bool

	err := s.mutate(ctx, "update_account", msgAccountFailed, func(ctx context.Context) (func(*ProfileState) error, error) {
		if err := s.doer.Do(ctx, http.MethodPatch, "/api/me/account", settings, nil); err != nil {
			return nil, err
		}
		return func(st *ProfileState) error {
			emailChanged = settings.Email != nil && (st.Profile == nil || st.Profile.Email != *settings.Email)
			return nil
		}, nil
	})
	if err != nil || !emailChanged {
		return err
	}

	if ferr := s.FetchProfile(ctx); ferr != nil {
		s.logger.Warn(ctx, "re-fetch after email change failed", "error", ferr)
	}
	return nil
}

func (s *profileService) DeleteAccount(ctx context.Context) error {
	err := s.mutate(ctx, "delete_account", msgDeleteFailed, func(ctx context.Context) (func(*ProfileState) error, error) {
		if err := s.doer.Do(ctx, http.MethodDelete, "/api/me", nil, nil); err != nil {
			return nil, err
		}
		return func(st *ProfileState) error {
			st.Profile = nil
			return nil
		}, nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "account deleted")
	s.session.Logout(ctx)
	return nil
}
