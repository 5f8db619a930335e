package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mdrscore/client/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const meAlice = `{"status":"sukses","data":{"id":1,"email":"alice@example.com","username":"alice","full_name":"Alice"}}`

func TestLogin_PersistsTokenAndIdentity(t *testing.T) {
	h := newHarness(t)
	h.reply("POST /api/login", http.StatusOK, `{"token":"abc","user":{"id":1,"email":"alice@example.com"}}`)

	require.NoError(t, h.auth.Login(context.Background(), "alice@example.com", "secret1"))

	st := h.auth.State()
	require.NotNil(t, st.Identity)
	assert.Equal(t, models.ID("1"), st.Identity.ID)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Err)
	assert.True(t, h.auth.IsAuthenticated())
	assert.Equal(t, "abc", h.storedToken())
}

func TestLogin_FailureRecordsMessage(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		body    string
		wantErr string
	}{
		{"server message", http.StatusUnauthorized, `{"status":"gagal","message":"email atau password salah"}`, "email atau password salah"},
		{"fallback", http.StatusBadGateway, `<html>bad gateway</html>`, "login failed"},
		{"no token", http.StatusOK, `{"user":{"id":1}}`, "login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.reply("POST /api/login", tt.code, tt.body)

			err := h.auth.Login(context.Background(), "alice", "nope")
			require.Error(t, err)

			st := h.auth.State()
			assert.Nil(t, st.Identity)
			assert.False(t, st.Loading)
			assert.Equal(t, tt.wantErr, st.Err)
			assert.Empty(t, h.storedToken())
		})
	}
}

func TestLogout_NextRequestIsAnonymous(t *testing.T) {
	h := newHarness(t)
	h.reply("POST /api/login", http.StatusOK, `{"token":"abc","user":{"id":1}}`)

	var sawAuth bool
	h.handle("GET /api/ping", func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
	})

	ctx := context.Background()
	require.NoError(t, h.auth.Login(ctx, "alice", "secret1"))
	h.auth.Logout(ctx)

	assert.Equal(t, AuthState{}, h.auth.State())
	assert.Empty(t, h.storedToken())

	require.NoError(t, h.client.Do(ctx, http.MethodGet, "/api/ping", nil, nil))
	assert.False(t, sawAuth)
}

func TestRegister_Result(t *testing.T) {
	tests := []struct {
		name string
		body string
		want RegisterResult
	}{
		{"verification required", `{"status":"sukses","data":{"require_verify":true}}`, RegisterResult{RequireVerify: true}},
		{"activated", `{"status":"sukses","data":{"require_verify":false}}`, RegisterResult{Activated: true}},
		{"not stated", `{"status":"sukses","message":"ok"}`, RegisterResult{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			var got models.Registration
			h.handle("POST /api/register", func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&got)
				_, _ = io.WriteString(w, tt.body)
			})

			reg := models.Registration{FullName: "Alice", Username: "alice", Email: "alice@example.com", Password: "secret1"}
			res, err := h.auth.Register(context.Background(), reg)
			require.NoError(t, err)

			assert.Equal(t, tt.want, res)
			assert.Equal(t, reg, got)
			assert.False(t, h.auth.IsAuthenticated(), "register never signs in")
			assert.Empty(t, h.storedToken())
		})
	}
}

func TestRegister_Failure(t *testing.T) {
	h := newHarness(t)
	h.reply("POST /api/register", http.StatusConflict, `{"status":"gagal","message":"username sudah dipakai"}`)

	_, err := h.auth.Register(context.Background(), models.Registration{Username: "alice"})
	require.Error(t, err)
	assert.Equal(t, "username sudah dipakai", h.auth.State().Err)
}

func TestInit_RestoresIdentity(t *testing.T) {
	h := newHarness(t)
	h.seedToken("abc")
	h.reply("GET /api/me", http.StatusOK, meAlice)

	require.NoError(t, h.auth.Init(context.Background()))

	st := h.auth.State()
	require.NotNil(t, st.Identity)
	assert.Equal(t, "Alice", st.Identity.DisplayName())
	assert.False(t, st.Loading)
}

func TestInit_WithoutCredentialSkipsNetwork(t *testing.T) {
	h := newHarness(t)
	h.reply("GET /api/me", http.StatusOK, meAlice)

	require.NoError(t, h.auth.Init(context.Background()))
	assert.False(t, h.auth.IsAuthenticated())
	assert.Zero(t, h.hitCount("GET /api/me"))
}

func TestInit_UnauthorizedClearsCredential(t *testing.T) {
	h := newHarness(t)
	h.seedToken("stale")
	h.reply("GET /api/me", http.StatusUnauthorized, `{"status":"gagal","message":"token tidak valid"}`)

	require.NoError(t, h.auth.Init(context.Background()))
	assert.False(t, h.auth.IsAuthenticated())
	assert.Empty(t, h.storedToken())
}

func TestInit_ExpiredJWTSkipsNetwork(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	h := newHarness(t)
	h.seedToken(tok)
	h.reply("GET /api/me", http.StatusOK, meAlice)

	require.NoError(t, h.auth.Init(context.Background()))
	assert.False(t, h.auth.IsAuthenticated())
	assert.Empty(t, h.storedToken())
	assert.Zero(t, h.hitCount("GET /api/me"))
}

func TestInit_ServerDownKeepsCredential(t *testing.T) {
	h := newHarness(t)
	h.seedToken("abc")
	h.reply("GET /api/me", http.StatusInternalServerError, ``)

	err := h.auth.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, "abc", h.storedToken())
	assert.Equal(t, msgInitFailed, h.auth.State().Err)
}

func TestLogin_SupersededCallNeverWritesState(t *testing.T) {
	h := newHarness(t)

	arrived := make(chan struct{})
	h.handle("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var c models.Credentials
		_ = json.NewDecoder(r.Body).Decode(&c)
		if c.Identifier == "slow" {
			close(arrived)
			h.block(r)
			return
		}
		_, _ = io.WriteString(w, `{"token":"new","user":{"id":2,"username":"fast"}}`)
	})

	ctx := context.Background()
	first := make(chan error, 1)
	go func() { first <- h.auth.Login(ctx, "slow", "secret1") }()
	<-arrived

	require.NoError(t, h.auth.Login(ctx, "fast", "secret1"))
	assert.ErrorIs(t, <-first, ErrSuperseded)

	st := h.auth.State()
	require.NotNil(t, st.Identity)
	assert.Equal(t, "fast", st.Identity.Username)
	assert.Equal(t, "new", h.storedToken())
}

func TestLogin_CancelledByCaller(t *testing.T) {
	h := newHarness(t)
	h.handle("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		h.block(r)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := h.auth.Login(ctx, "alice", "secret1")
	require.True(t, errors.Is(err, context.DeadlineExceeded), err)

	st := h.auth.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Err)
}

func TestLogout_SupersedesPendingLogin(t *testing.T) {
	h := newHarness(t)
	arrived := make(chan struct{})
	h.handle("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		h.block(r)
	})

	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- h.auth.Login(ctx, "alice", "secret1") }()
	<-arrived

	h.auth.Logout(ctx)
	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, AuthState{}, h.auth.State())
}

func TestInvalidate_RecordsReason(t *testing.T) {
	h := newHarness(t)
	h.seedToken("abc")

	h.auth.Invalidate(context.Background())

	assert.Equal(t, AuthState{Err: msgSessionExpired}, h.auth.State())
	assert.Empty(t, h.storedToken())
}

func TestTokenExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		require.NoError(t, err)
		return s
	}

	assert.True(t, tokenExpired(sign(jwt.MapClaims{"exp": now.Add(-time.Second).Unix()}), now))
	assert.False(t, tokenExpired(sign(jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}), now))
	assert.False(t, tokenExpired(sign(jwt.MapClaims{"sub": "1"}), now))
	assert.False(t, tokenExpired("opaque-token", now))
}

func TestInit_AfterNewSignInDoesNotJoinPreviousSession(t *testing.T) {
	h := newHarness(t)
	arrived, release := h.switchAccounts()
	ctx := context.Background()

	stale := make(chan error, 1)
	go func() { stale <- h.auth.Init(ctx) }()
	<-arrived

	h.auth.Logout(ctx)
	require.NoError(t, h.auth.Login(ctx, "bob", "secret1"))
	require.NoError(t, h.auth.Init(ctx))

	release()
	assert.ErrorIs(t, <-stale, ErrSuperseded)

	st := h.auth.State()
	require.NotNil(t, st.Identity)
	assert.Equal(t, "bob", st.Identity.Username)
	assert.Equal(t, "bob-tok", h.storedToken())
}
