// Package forms validates login, registration and account input before it
// reaches a store. Only the first failing field is reported, in the order
// the fields are shown on screen.
package forms

import (
	"errors"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/mdrscore/client/internal/client/models"
)

// MinPasswordLength is the shortest password accepted locally.
const MinPasswordLength = 6

// FieldError names the offending field and why it was rejected.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

var ErrNothingToChange = errors.New("nothing to change")

// first turns ozzo's per-field map into a single FieldError following order.
func first(err error, order ...string) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	for _, field := range order {
		if fe, ok := errs[field]; ok && fe != nil {
			return &FieldError{Field: field, Message: fe.Error()}
		}
	}
	return err
}

func noWhitespace(value any) error {
	s, _ := value.(string)
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return errors.New("must not contain spaces")
	}
	return nil
}

func equals(other string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != other {
			return errors.New("passwords do not match")
		}
		return nil
	}
}

var passwordRules = []validation.Rule{
	validation.Length(MinPasswordLength, 0).Error("must be at least 6 characters"),
}

type Login struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (f Login) Validate() error {
	return first(validation.ValidateStruct(&f,
		validation.Field(&f.Identifier, validation.Required.Error("email or username is required")),
		validation.Field(&f.Password, validation.Required.Error("password is required")),
	), "identifier", "password")
}

type Register struct {
	FullName        string `json:"full_name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate checks every field; the confirmation is compared against the
// password whatever order they were typed in.
func (f Register) Validate() error {
	return first(validation.ValidateStruct(&f,
		validation.Field(&f.FullName, validation.Required.Error("full name is required")),
		validation.Field(&f.Username, validation.Required.Error("username is required"), validation.By(noWhitespace)),
		validation.Field(&f.Email, validation.Required.Error("email is required"), is.Email.Error("must be a valid email address")),
		validation.Field(&f.Password, append([]validation.Rule{validation.Required.Error("password is required")}, passwordRules...)...),
		validation.Field(&f.ConfirmPassword, validation.Required.Error("confirm your password"), validation.By(equals(f.Password))),
	), "full_name", "username", "email", "password", "confirm_password")
}

func (f Register) Registration() models.Registration {
	return models.Registration{
		FullName: f.FullName,
		Username: f.Username,
		Email:    f.Email,
		Password: f.Password,
	}
}

// Account is the account settings form. Empty fields mean "unchanged".
type Account struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (f Account) Validate() error {
	if f.Email == "" && f.Password == "" {
		return ErrNothingToChange
	}

	confirm := []validation.Rule{validation.By(equals(f.Password))}
	if f.Password != "" {
		confirm = append(confirm, validation.Required.Error("confirm your password"))
	}

	return first(validation.ValidateStruct(&f,
		validation.Field(&f.Email, is.Email.Error("must be a valid email address")),
		validation.Field(&f.Password, passwordRules...),
		validation.Field(&f.ConfirmPassword, confirm...),
	), "email", "password", "confirm_password")
}

func (f Account) Settings() models.AccountSettings {
	var s models.AccountSettings
	if f.Email != "" {
		email := f.Email
		s.Email = &email
	}
	if f.Password != "" {
		pw := f.Password
		s.Password = &pw
	}
	return s
}
