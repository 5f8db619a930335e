package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticToken(tok string) CredentialSource {
	return CredentialFunc(func(context.Context) (string, error) { return tok, nil })
}

func newTestClient(t *testing.T, h http.HandlerFunc, creds CredentialSource, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, creds, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New("ftp://example.com", nil)
	require.Error(t, err)

	_, err = New("://nope", nil)
	require.Error(t, err)
}

func TestDo_AttachesBearerAndDecodes(t *testing.T) {
	var gotAuth, gotCT, gotReqID, gotBody string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		gotReqID = r.Header.Get("X-Request-ID")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)

		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/me/profile", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"sukses","data":{"bio":"x"}}`)
	}, staticToken("abc"))

	var env Envelope
	err := c.Do(context.Background(), http.MethodPatch, "/api/me/profile", map[string]string{"bio": "x"}, &env)
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "application/json", gotCT)
	assert.NotEmpty(t, gotReqID)
	assert.JSONEq(t, `{"bio":"x"}`, gotBody)
	assert.Equal(t, "sukses", env.Status)
	assert.JSONEq(t, `{"bio":"x"}`, string(env.Data))
}

func TestDo_NoCredentialMeansNoHeader(t *testing.T) {
	var sawHeader atomic.Bool

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header["Authorization"]
		sawHeader.Store(ok)
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	require.NoError(t, c.Do(context.Background(), http.MethodDelete, "/api/me", nil, nil))
	assert.False(t, sawHeader.Load())
}

func TestDo_CredentialErrorStopsRequest(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}, CredentialFunc(func(context.Context) (string, error) { return "", errors.New("store down") }))

	err := c.Do(context.Background(), http.MethodGet, "/api/me", nil, nil)
	require.ErrorContains(t, err, "store down")
	assert.Zero(t, hits.Load())
}

func TestDo_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		body      string
		wantMsg   string
		wantUnath bool
	}{
		{"401 with message", 401, `{"status":"gagal","message":"token kadaluarsa"}`, "token kadaluarsa", true},
		{"400 with message", 400, `{"status":"gagal","message":"email sudah terdaftar"}`, "email sudah terdaftar", false},
		{"500 plain text", 500, "boom", "boom", false},
		{"502 html", 502, "<html>bad gateway</html>", "", false},
		{"404 empty", 404, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = io.WriteString(w, tt.body)
			}, nil)

			err := c.Do(context.Background(), http.MethodGet, "/api/me", nil, nil)
			require.Error(t, err)

			var he *HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.code, he.StatusCode)
			assert.Equal(t, tt.wantMsg, he.Message)
			assert.Equal(t, tt.wantUnath, errors.Is(err, ErrUnauthorized))
			assert.Equal(t, tt.wantUnath, IsUnauthorized(err))
		})
	}
}

func TestDo_NetworkFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url, nil)
	require.NoError(t, err)

	err = c.Do(context.Background(), http.MethodGet, "/api/me", nil, nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestDo_CancelledContextReturnsContextError(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, nil)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Do(ctx, http.MethodGet, "/api/me", nil, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestDo_EmptySuccessBodyIgnoresOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, nil)

	var env Envelope
	require.NoError(t, c.Do(context.Background(), http.MethodPatch, "/api/me/account", map[string]string{"email": "x@y.z"}, &env))
	assert.Empty(t, env.Status)
}

func TestDo_BadJSONOnSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	}, nil)

	var env Envelope
	err := c.Do(context.Background(), http.MethodGet, "/api/me", nil, &env)
	require.ErrorContains(t, err, "decode response")
}

func TestUpload_SendsMultipartField(t *testing.T) {
	var gotName, gotContent, gotAuth string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		f, hdr, err := r.FormFile("avatar")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		gotName, gotContent = hdr.Filename, string(b)

		_, _ = io.WriteString(w, `{"data":{"avatar_url":"http://cdn/a.png"}}`)
	}, staticToken("tok"))

	var env Envelope
	err := c.Upload(context.Background(), "/api/me/avatar", "avatar", "a.png", strings.NewReader("PNGDATA"), &env)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "a.png", gotName)
	assert.Equal(t, "PNGDATA", gotContent)
	assert.JSONEq(t, `{"avatar_url":"http://cdn/a.png"}`, string(env.Data))
}

func TestWithTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}, nil, WithTimeout(30*time.Millisecond))

	err := c.Do(context.Background(), http.MethodGet, "/api/me", nil, nil)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "email salah", Message(&HTTPError{StatusCode: 400, Message: "email salah"}, "fallback"))
	assert.Equal(t, "fallback", Message(&HTTPError{StatusCode: 400}, "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("x"), "fallback"))
	assert.Equal(t, "http 404: Not Found", (&HTTPError{StatusCode: 404}).Error())
}

func TestWithBearer_OverridesCredentialSource(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}, staticToken("stored"))

	require.NoError(t, c.Do(WithBearer(context.Background(), "fresh"), http.MethodGet, "/api/me", nil, nil))
	assert.Equal(t, "Bearer fresh", gotAuth)

	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/api/me", nil, nil))
	assert.Equal(t, "Bearer stored", gotAuth)
}
