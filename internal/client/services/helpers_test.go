package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mdrscore/client/internal/client/api"
	"github.com/mdrscore/client/internal/client/transport"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemRepo() *memRepo { return &memRepo{m: map[string][]byte{}} }

func (r *memRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[key], nil
}

func (r *memRepo) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = value
	return nil
}

func (r *memRepo) Delete(_ context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.m, k)
	}
	return nil
}

// harness is a mock backend plus the real transport, api client and both
// stores wired the way the application wires them.
type harness struct {
	mux     *http.ServeMux
	srv     *httptest.Server
	repo    *memRepo
	release chan struct{}

	hitsMu sync.Mutex
	hits   map[string]*atomic.Int32

	tr      *transport.TokenTransport
	client  *api.Client
	auth    AuthService
	profile ProfileService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{mux: http.NewServeMux(), repo: newMemRepo(), hits: map[string]*atomic.Int32{}, release: make(chan struct{})}
	h.srv = httptest.NewServer(h.mux)
	t.Cleanup(h.srv.Close)
	// runs before srv.Close, so handlers parked in block never stall it
	t.Cleanup(func() { close(h.release) })

	h.tr = transport.NewTokenTransport(h.repo)
	c, err := api.New(h.srv.URL, h.tr)
	require.NoError(t, err)
	h.client = c

	h.auth = NewAuthService(h.tr, h.client, nil)
	h.profile = NewProfileService(h.client, h.tr, h.auth, nil)
	return h
}

func (h *harness) handle(pattern string, fn http.HandlerFunc) {
	h.hitsMu.Lock()
	n := &atomic.Int32{}
	h.hits[pattern] = n
	h.hitsMu.Unlock()

	h.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		n.Add(1)
		fn(w, r)
	})
}

// block parks a handler until the client gives up or the test ends. The
// body is drained first: the server only notices a vanished client once
// it owns the connection again.
func (h *harness) block(r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	select {
	case <-r.Context().Done():
	case <-h.release:
	}
}

func (h *harness) reply(pattern string, code int, body string) {
	h.handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = io.WriteString(w, body)
	})
}

func (h *harness) hitCount(pattern string) int {
	h.hitsMu.Lock()
	defer h.hitsMu.Unlock()
	if n := h.hits[pattern]; n != nil {
		return int(n.Load())
	}
	return 0
}

func (h *harness) storedToken() string {
	v, _ := h.repo.Get(context.Background(), transport.TokenKey)
	return string(v)
}

// seedToken must run before the transport first reads the repository.
func (h *harness) seedToken(tok string) {
	_ = h.repo.Set(context.Background(), transport.TokenKey, []byte(tok))
}

const meBob = `{"status":"sukses","data":{"id":2,"email":"bob@example.com","username":"bob","full_name":"Bob"}}`

// switchAccounts serves GET /api/me so that alice's request hangs until the
// returned release func is called, while bob's is answered at once. Login
// always yields bob's token.
func (h *harness) switchAccounts() (arrived <-chan struct{}, release func()) {
	in := make(chan struct{})
	out := make(chan struct{})
	h.handle("GET /api/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer alice-tok" {
			_, _ = io.WriteString(w, meBob)
			return
		}
		close(in)
		select {
		case <-out:
		case <-h.release:
		}
		_, _ = io.WriteString(w, meAlice)
	})
	h.reply("POST /api/login", http.StatusOK, `{"token":"bob-tok","user":{"id":2,"username":"bob"}}`)
	h.seedToken("alice-tok")
	return in, func() { close(out) }
}
