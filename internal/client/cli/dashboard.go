package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdrscore/client/internal/client/forms"
	"github.com/mdrscore/client/internal/client/models"
	"github.com/mdrscore/client/internal/client/notify"
	"github.com/mdrscore/client/internal/client/services"
)

// openFile is a test seam for reading avatar files.
var openFile = func(path string) (io.ReadCloser, error) { return os.Open(path) }

// deleteConfirmation must be typed verbatim to delete the account.
const deleteConfirmation = "DELETE"

func (a *App) requireLogin() error {
	if a.isLoggedIn() {
		return nil
	}
	return a.fail(services.ErrNoSession, "Please log in first")
}

// afterStoreError reports a failed store call. Session loss takes priority
// over the store's own message.
func (a *App) afterStoreError(err error) error {
	if a.sessionLost() {
		return err
	}
	return a.fail(err, a.profile.State().Err)
}

// Profile fetches and renders the dashboard.
func (a *App) Profile(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.screen = ScreenDashboard

	if err := a.profile.FetchProfile(ctx); err != nil {
		return a.afterStoreError(err)
	}

	p := a.profile.State().Profile
	if p == nil {
		a.notes.Post(notify.Warning, "Profile is not available right now")
		return nil
	}
	return renderProfile(a.out, p)
}

// Edit collects field=value lines into one partial update.
func (a *App) Edit(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	lines, err := getLines(a.reader, "Enter changes as field=value (e.g. bio=Runner, height_cm=172)", a.out)
	if err != nil {
		return err
	}

	var patch models.ProfilePatch
	for _, line := range lines {
		field, value, ok := strings.Cut(line, "=")
		if !ok {
			return a.fail(fmt.Errorf("malformed line %q", line), fmt.Sprintf("Expected field=value, got %q", line))
		}
		if err := patch.Set(strings.TrimSpace(field), strings.TrimSpace(value)); err != nil {
			return a.fail(err, "")
		}
	}
	if patch.IsEmpty() {
		a.notes.Post(notify.Info, "Nothing to change")
		return nil
	}

	if err := a.profile.UpdateProfile(ctx, patch); err != nil {
		return a.afterStoreError(err)
	}
	a.notes.Post(notify.Success, "Profile updated")
	return nil
}

func (a *App) Avatar(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	path, err := getSimpleText(a.reader, "Path to image file", a.out)
	if err != nil {
		return err
	}
	f, err := openFile(path)
	if err != nil {
		return a.fail(err, fmt.Sprintf("Cannot open %s", path))
	}
	defer f.Close()

	if err := a.profile.UploadAvatar(ctx, filepath.Base(path), f); err != nil {
		return a.afterStoreError(err)
	}
	a.notes.Post(notify.Success, "Avatar updated")
	return nil
}

func (a *App) Account(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	var f forms.Account
	var err error
	if f.Email, err = getSimpleText(a.reader, "New email (empty to keep)", a.out); err != nil {
		return err
	}
	if f.Password, err = getPassword(a.reader, "New password (empty to keep)", a.out); err != nil {
		return err
	}
	if f.Password != "" {
		if f.ConfirmPassword, err = getPassword(a.reader, "Confirm new password", a.out); err != nil {
			return err
		}
	}

	if err := f.Validate(); err != nil {
		if errors.Is(err, forms.ErrNothingToChange) {
			a.notes.Post(notify.Info, "Nothing to change")
			return nil
		}
		return a.fail(err, validationMessage(err))
	}

	if err := a.profile.UpdateAccountSettings(ctx, f.Settings()); err != nil {
		return a.afterStoreError(err)
	}
	a.notes.Post(notify.Success, "Account updated")
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	answer, err := getSimpleText(a.reader, fmt.Sprintf("This permanently deletes your account. Type %s to confirm", deleteConfirmation), a.out)
	if err != nil {
		return err
	}
	if answer != deleteConfirmation {
		a.notes.Post(notify.Info, "Account kept")
		return nil
	}

	if err := a.profile.DeleteAccount(ctx); err != nil {
		return a.afterStoreError(err)
	}
	a.screen = ScreenLogin
	a.notes.Post(notify.Success, "Account deleted")
	return nil
}
