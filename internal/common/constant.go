// Package common contains wire-level constants and small helpers shared by
// the client and the reference backend.
package common

const (
	// AuthorizationHeader carries the bearer credential.
	AuthorizationHeader = "Authorization"
	// BearerPrefix precedes the token in AuthorizationHeader.
	BearerPrefix = "Bearer "
	// RequestIDHeader correlates client and backend log lines.
	RequestIDHeader = "X-Request-ID"

	// StatusSuccess and StatusFailed are the values of the "status" field
	// in backend envelopes.
	StatusSuccess = "sukses"
	StatusFailed  = "gagal"
)
