package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mdrscore/client/internal/common"
	"github.com/mdrscore/client/internal/shared"
)

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Status: common.StatusSuccess, Message: message, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Status: common.StatusFailed, Message: message})
}

// writeError maps a domain error to its HTTP status. Unknown errors are
// logged and reported as 500 without detail.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrEmailTaken), errors.Is(err, shared.ErrUsernameTaken):
		writeFailure(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrInvalidLoginPassword):
		writeFailure(w, http.StatusUnauthorized, "invalid email/username or password")
	case errors.Is(err, shared.ErrNotVerified):
		writeFailure(w, http.StatusForbidden, "please verify your email before logging in")
	case errors.Is(err, shared.ErrTokenExpired):
		writeFailure(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, shared.ErrInvalidToken):
		writeFailure(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, shared.ErrNotFound):
		writeFailure(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeFailure(w, http.StatusInternalServerError, "internal error")
	}
}
