package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mdrscore/client/internal/client/forms"
	"github.com/mdrscore/client/internal/client/notify"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getLines      = GetLines
)

// Register runs the registration screen. Input is validated locally; the
// store is only called with a valid form.
func (a *App) Register(ctx context.Context) error {
	if a.isLoggedIn() {
		return a.fail(errAlreadySignedIn, "")
	}
	a.screen = ScreenRegister

	var f forms.Register
	var err error
	for _, step := range []struct {
		prompt string
		dst    *string
	}{
		{"Full name", &f.FullName},
		{"Username", &f.Username},
		{"Email", &f.Email},
	} {
		if *step.dst, err = getSimpleText(a.reader, step.prompt, a.out); err != nil {
			return err
		}
	}
	if f.Password, err = getPassword(a.reader, "Password", a.out); err != nil {
		return err
	}
	if f.ConfirmPassword, err = getPassword(a.reader, "Confirm password", a.out); err != nil {
		return err
	}

	if err := f.Validate(); err != nil {
		return a.fail(err, validationMessage(err))
	}

	res, err := a.auth.Register(ctx, f.Registration())
	if err != nil {
		return a.fail(err, a.auth.State().Err)
	}

	switch {
	case res.RequireVerify:
		a.screen = ScreenVerify
		printlnFn(fmt.Sprintf("Check your inbox: we sent a verification link to %s.", f.Email))
		printlnFn("Open it, then use 'login'.")
		return nil

	case res.Activated:
		a.profile.ResetUser()
		if err := a.auth.Login(ctx, f.Email, f.Password); err != nil {
			a.screen = ScreenLogin
			return a.fail(err, a.auth.State().Err)
		}
		a.notes.Post(notify.Success, "Account created")
		a.welcome()
		return nil

	default:
		a.screen = ScreenLogin
		a.notes.Post(notify.Success, "Account created. Please log in.")
		return nil
	}
}

// Login runs the login screen.
func (a *App) Login(ctx context.Context) error {
	a.screen = ScreenLogin

	var f forms.Login
	var err error
	if f.Identifier, err = getSimpleText(a.reader, "Email or username", a.out); err != nil {
		return err
	}
	if f.Password, err = getPassword(a.reader, "Password", a.out); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return a.fail(err, validationMessage(err))
	}

	a.profile.ResetUser()
	if err := a.auth.Login(ctx, f.Identifier, f.Password); err != nil {
		return a.fail(err, a.auth.State().Err)
	}

	a.welcome()
	return nil
}

// Logout never fails from the user's point of view.
func (a *App) Logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	a.profile.ResetUser()
	a.screen = ScreenLogin
	a.notes.Post(notify.Info, "Logged out")
	return nil
}

var errAlreadySignedIn = errors.New("already logged in, use 'logout' first")

func validationMessage(err error) string {
	var fe *forms.FieldError
	if errors.As(err, &fe) {
		return fmt.Sprintf("%s %s", fieldLabels[fe.Field], fe.Message)
	}
	return err.Error()
}

var fieldLabels = map[string]string{
	"identifier":       "Email or username:",
	"full_name":        "Full name:",
	"username":         "Username:",
	"email":            "Email:",
	"password":         "Password:",
	"confirm_password": "Confirmation:",
}
