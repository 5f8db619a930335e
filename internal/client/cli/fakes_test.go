package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/mdrscore/client/internal/client/models"
	"github.com/mdrscore/client/internal/client/notify"
	"github.com/mdrscore/client/internal/client/services"
)

type fakeAuth struct {
	state services.AuthState

	initErr error

	loginCalls []models.Credentials
	loginErr   error
	loginIdent *models.Identity

	regCalls []models.Registration
	regRes   services.RegisterResult
	regErr   error

	logoutCalls int
}

func (f *fakeAuth) Init(context.Context) error { return f.initErr }

func (f *fakeAuth) Login(_ context.Context, identifier, password string) error {
	f.loginCalls = append(f.loginCalls, models.Credentials{Identifier: identifier, Password: password})
	if f.loginErr != nil {
		f.state.Err = f.loginErr.Error()
		return f.loginErr
	}
	f.state = services.AuthState{Identity: f.loginIdent}
	return nil
}

func (f *fakeAuth) Register(_ context.Context, reg models.Registration) (services.RegisterResult, error) {
	f.regCalls = append(f.regCalls, reg)
	if f.regErr != nil {
		f.state.Err = f.regErr.Error()
	}
	return f.regRes, f.regErr
}

func (f *fakeAuth) Logout(context.Context) {
	f.logoutCalls++
	f.state = services.AuthState{}
}

func (f *fakeAuth) Invalidate(context.Context) {
	f.state = services.AuthState{Err: "session expired"}
}

func (f *fakeAuth) State() services.AuthState { return f.state }
func (f *fakeAuth) IsAuthenticated() bool     { return f.state.Identity != nil }

type fakeProfile struct {
	auth  *fakeAuth
	state services.ProfileState

	fetchErr  error
	fetched   *models.Profile
	patches   []models.ProfilePatch
	updateErr error
	uploads   []string
	accounts  []models.AccountSettings
	deletes   int
	deleteErr error
	resets    int
	// unauthorized makes every mutation behave like a 401
	unauthorized bool
}

func (f *fakeProfile) fail(err error) error {
	f.state.Err = err.Error()
	if f.unauthorized {
		f.auth.Invalidate(context.Background())
	}
	return err
}

func (f *fakeProfile) FetchProfile(context.Context) error {
	if f.fetchErr != nil {
		f.state.Profile = nil
		return f.fail(f.fetchErr)
	}
	f.state.Profile = f.fetched
	return nil
}

func (f *fakeProfile) UpdateProfile(_ context.Context, patch models.ProfilePatch) error {
	f.patches = append(f.patches, patch)
	if f.updateErr != nil {
		return f.fail(f.updateErr)
	}
	return nil
}

func (f *fakeProfile) UploadAvatar(_ context.Context, filename string, content io.Reader) error {
	b, _ := io.ReadAll(content)
	f.uploads = append(f.uploads, filename+":"+string(b))
	if f.updateErr != nil {
		return f.fail(f.updateErr)
	}
	return nil
}

func (f *fakeProfile) UpdateAccountSettings(_ context.Context, s models.AccountSettings) error {
	f.accounts = append(f.accounts, s)
	if f.updateErr != nil {
		return f.fail(f.updateErr)
	}
	return nil
}

func (f *fakeProfile) DeleteAccount(context.Context) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.fail(f.deleteErr)
	}
	f.state.Profile = nil
	f.auth.Logout(context.Background())
	return nil
}

func (f *fakeProfile) ResetUser() {
	f.resets++
	f.state = services.ProfileState{}
}

func (f *fakeProfile) State() services.ProfileState { return f.state }

// testApp builds an App over fakes. The caller scripts input with
// stubInputs.
func testApp(t *testing.T) (*App, *fakeAuth, *fakeProfile, *bytes.Buffer) {
	t.Helper()
	auth := &fakeAuth{}
	prof := &fakeProfile{auth: auth}
	a := newApp(auth, prof, notify.NewSlot(time.Minute), nil)
	out := &bytes.Buffer{}
	a.out = out
	return a, auth, prof, out
}

func signedIn(auth *fakeAuth) {
	auth.state = services.AuthState{Identity: &models.Identity{ID: "1", Username: "alice", FullName: "Alice"}}
}

// stubInputs feeds texts to getSimpleText and passwords to getPassword in
// order. Running out of input is a test failure.
func stubInputs(t *testing.T, texts []string, passwords []string) {
	t.Helper()
	origST, origGP, origGL := getSimpleText, getPassword, getLines
	t.Cleanup(func() { getSimpleText, getPassword, getLines = origST, origGP, origGL })

	getSimpleText = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) {
		if len(texts) == 0 {
			t.Fatalf("unexpected prompt %q", prompt)
		}
		s := texts[0]
		texts = texts[1:]
		return s, nil
	}
	getPassword = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) {
		if len(passwords) == 0 {
			t.Fatalf("unexpected password prompt %q", prompt)
		}
		s := passwords[0]
		passwords = passwords[1:]
		return s, nil
	}
}

func stubLines(t *testing.T, lines ...string) {
	t.Helper()
	orig := getLines
	t.Cleanup(func() { getLines = orig })
	getLines = func(*bufio.Reader, string, io.Writer) ([]string, error) { return lines, nil }
}

// capturePrintln records everything printed through printlnFn.
func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	orig := printlnFn
	t.Cleanup(func() { printlnFn = orig })

	var lines []string
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprint(a...))
		return 0, nil
	}
	return &lines
}

func lastNotice(t *testing.T, a *App) notify.Notification {
	t.Helper()
	n, ok := a.notes.Current()
	if !ok {
		t.Fatalf("expected a notification")
	}
	return n
}
