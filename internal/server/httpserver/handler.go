package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mdrscore/client/internal/server/avatars"
	"github.com/mdrscore/client/internal/server/users"
	"github.com/mdrscore/client/internal/shared"
)

// identity is the account summary returned by /api/login.
type identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

func toIdentity(u *users.User) identity {
	return identity{ID: u.ID, Email: u.Email, Username: u.UserName, FullName: u.FullName}
}

func (s *HTTPServer) avatarURL(key string) string {
	if key == "" {
		return ""
	}
	return s.publicURL + "/avatars/" + key
}

// profile renders the full profile document of u.
func (s *HTTPServer) profile(u *users.User) map[string]any {
	out := make(map[string]any, len(u.Profile)+5)
	for k, v := range u.Profile {
		out[k] = v
	}
	out["id"] = u.ID
	out["email"] = u.Email
	out["username"] = u.UserName
	out["full_name"] = u.FullName
	if url := s.avatarURL(u.AvatarKey); url != "" {
		out["avatar_url"] = url
	}
	return out
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		return &users.InputError{Field: "body", Message: "must be a JSON object"}
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  identity `json:"user"`
}

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, user, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: toIdentity(user)})
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var req users.RegisterInput
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Register(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "username", user.UserName)
	if user.VerifyToken != "" {
		// there is no mailer; the link goes to the log
		s.logger.Info(r.Context(), "verification link", "email", user.Email,
			"url", s.publicURL+"/api/verify?token="+user.VerifyToken)
	}

	writeSuccess(w, http.StatusCreated, "registered", map[string]bool{"require_verify": s.users.RequireVerify()})
}

func (s *HTTPServer) verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeFailure(w, http.StatusBadRequest, "token is required")
		return
	}

	user, err := s.users.Verify(r.Context(), token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "invalid or used verification link")
			return
		}
		s.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "email verified", toIdentity(user))
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", s.profile(userFrom(r.Context())))
}

// updateProfile answers with the patched keys only; clients merge them into
// their cached copy.
func (s *HTTPServer) updateProfile(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := decode(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), userFrom(r.Context()).ID, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	full := s.profile(user)
	partial := make(map[string]any, len(patch))
	for k := range patch {
		partial[k] = full[k]
	}
	writeSuccess(w, http.StatusOK, "profile updated", partial)
}

func (s *HTTPServer) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFrom(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, MaxAvatarBytes+1<<10)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, MaxAvatarBytes+1))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "could not read avatar")
		return
	}
	if len(body) > MaxAvatarBytes {
		writeFailure(w, http.StatusRequestEntityTooLarge, "avatar is too large")
		return
	}

	contentType := http.DetectContentType(body)
	if !strings.HasPrefix(contentType, "image/") {
		writeFailure(w, http.StatusBadRequest, "avatar must be an image")
		return
	}

	key := avatars.NewKey(user.ID, strings.ToLower(path.Ext(header.Filename)))
	if err := s.avatars.Put(ctx, key, avatars.Object{ContentType: contentType, Body: body}); err != nil {
		s.writeError(w, r, err)
		return
	}

	previous, err := s.users.SetAvatar(ctx, user.ID, key)
	if err != nil {
		_ = s.avatars.Delete(ctx, key)
		s.writeError(w, r, err)
		return
	}
	if previous != "" {
		if err := s.avatars.Delete(ctx, previous); err != nil && !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn(ctx, "delete old avatar", "key", previous, "error", err)
		}
	}

	writeSuccess(w, http.StatusOK, "avatar updated", map[string]string{"avatar_url": s.avatarURL(key)})
}

type accountRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (s *HTTPServer) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.users.UpdateAccount(r.Context(), userFrom(r.Context()).ID, req.Email, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "account updated", nil)
}

func (s *HTTPServer) deleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := s.users.Delete(ctx, userFrom(ctx).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if user.AvatarKey != "" {
		if err := s.avatars.Delete(ctx, user.AvatarKey); err != nil && !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn(ctx, "delete avatar", "key", user.AvatarKey, "error", err)
		}
	}

	writeSuccess(w, http.StatusOK, "account deleted", nil)
}

func (s *HTTPServer) serveAvatar(w http.ResponseWriter, r *http.Request) {
	obj, err := s.avatars.Get(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(obj.Body)
}
