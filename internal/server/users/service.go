package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/mdrscore/client/internal/common"
	"github.com/mdrscore/client/internal/server/auth"
	"github.com/mdrscore/client/internal/server/config"
	"github.com/mdrscore/client/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// InputError is a rejected request field. It matches shared.ErrValidation.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string { return e.Field + " " + e.Message }

func (e *InputError) Unwrap() error { return shared.ErrValidation }

type RegisterInput struct {
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func noSpaces(value any) error {
	s, _ := value.(string)
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return errors.New("must not contain spaces")
	}
	return nil
}

var (
	usernameRules = []validation.Rule{validation.Required.Error("is required"), validation.By(noSpaces)}
	emailRules    = []validation.Rule{validation.Required.Error("is required"), is.Email.Error("must be a valid email address")}
	passwordRules = []validation.Rule{validation.Required.Error("is required"), validation.Length(minPasswordLength, 0).Error("must be at least 6 characters")}
)

func check(field string, value any, rules ...validation.Rule) error {
	if err := validation.Validate(value, rules...); err != nil {
		return &InputError{Field: field, Message: err.Error()}
	}
	return nil
}

func (in RegisterInput) validate() error {
	for _, err := range []error{
		check("full_name", strings.TrimSpace(in.FullName), validation.Required.Error("is required")),
		check("username", in.Username, usernameRules...),
		check("email", in.Email, emailRules...),
		check("password", in.Password, passwordRules...),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

type Service struct {
	repo          Repository
	tokens        *auth.Issuer
	requireVerify bool
	now           func() time.Time
}

func NewService(repo Repository, cfg *config.Config) *Service {
	return &Service{
		repo:          repo,
		tokens:        auth.NewIssuer([]byte(cfg.SecretKey), cfg.TokenTTL),
		requireVerify: cfg.RequireVerify,
		now:           time.Now,
	}
}

// RequireVerify reports whether new accounts start unverified.
func (s *Service) RequireVerify() bool { return s.requireVerify }

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		FullName:     strings.TrimSpace(in.FullName),
		UserName:     in.Username,
		Email:        strings.ToLower(in.Email),
		PasswordHash: hash,
		Verified:     !s.requireVerify,
		CreatedAt:    s.now(),
	}
	if s.requireVerify {
		if user.VerifyToken, err = common.MakeRandHexString(16); err != nil {
			return nil, err
		}
	}

	return s.repo.Create(ctx, user)
}

// Verify activates the account awaiting token. Tokens are single use.
func (s *Service) Verify(ctx context.Context, token string) (*User, error) {
	user, err := s.repo.GetByVerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	user.Verified = true
	user.VerifyToken = ""
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the password of the account named by login (email or
// username) and issues an access token.
func (s *Service) Login(ctx context.Context, login, password string) (string, *User, error) {
	user, err := s.repo.GetUserByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil, shared.ErrInvalidLoginPassword
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return "", nil, shared.ErrInvalidLoginPassword
	}
	if !user.Verified {
		return "", nil, shared.ErrNotVerified
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Authenticate resolves a bearer token to its account. A valid token for a
// deleted account is reported as shared.ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	id, err := s.tokens.UserID(token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrInvalidToken
	}
	return user, err
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// readOnlyFields cannot be changed through UpdateProfile.
var readOnlyFields = map[string]bool{
	"id": true, "email": true, "avatar_url": true, "password": true,
}

// UpdateProfile applies patch and returns the updated account. A JSON null
// clears an optional field.
func (s *Service) UpdateProfile(ctx context.Context, id string, patch map[string]json.RawMessage) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		user.Profile = make(map[string]json.RawMessage)
	}

	for field, raw := range patch {
		if readOnlyFields[field] {
			return nil, &InputError{Field: field, Message: "cannot be changed here"}
		}
		null := bytes.Equal(bytes.TrimSpace(raw), []byte("null"))

		switch field {
		case "full_name", "username":
			var v string
			if null || json.Unmarshal(raw, &v) != nil {
				return nil, &InputError{Field: field, Message: "must be a string"}
			}
			if field == "full_name" {
				if err := check(field, strings.TrimSpace(v), validation.Required.Error("is required")); err != nil {
					return nil, err
				}
				user.FullName = strings.TrimSpace(v)
			} else {
				if err := check(field, v, usernameRules...); err != nil {
					return nil, err
				}
				user.UserName = v
			}
			continue

		case "height_cm", "weight_kg", "target_sleep_hours":
			var v float64
			if !null && json.Unmarshal(raw, &v) != nil {
				return nil, &InputError{Field: field, Message: "must be a number"}
			}
		case "target_water_ml":
			var v int
			if !null && json.Unmarshal(raw, &v) != nil {
				return nil, &InputError{Field: field, Message: "must be a whole number"}
			}
		}

		if null {
			delete(user.Profile, field)
		} else {
			user.Profile[field] = append(json.RawMessage(nil), raw...)
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateAccount changes the email and/or password. Nil leaves a value as is.
func (s *Service) UpdateAccount(ctx context.Context, id string, email, password *string) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if email != nil {
		if err := check("email", *email, emailRules...); err != nil {
			return nil, err
		}
		user.Email = strings.ToLower(*email)
	}
	if password != nil {
		if err := check("password", *password, passwordRules...); err != nil {
			return nil, err
		}
		if user.PasswordHash, err = bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetAvatar records key as the account's avatar and returns the key it
// replaced ("" when there was none).
func (s *Service) SetAvatar(ctx context.Context, id, key string) (string, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	previous := user.AvatarKey
	user.AvatarKey = key
	if err := s.repo.Update(ctx, user); err != nil {
		return "", err
	}
	return previous, nil
}

// Delete removes the account and returns it so the caller can clean up
// what it referenced.
func (s *Service) Delete(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return user, nil
}
