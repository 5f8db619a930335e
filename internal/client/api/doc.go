// Package api is the HTTP adapter between the client stores and the MDRScore
// backend.
//
// # Overview
//
// Client sends JSON (Do) and multipart (Upload) requests relative to a base
// URL. Before each request it asks its CredentialSource for a bearer token
// and attaches "Authorization: Bearer <token>" when one is available;
// otherwise the request goes out anonymously. Every request is tagged with
// an X-Request-ID.
//
// Requests are fire-once: no retries, no backoff, no token refresh. A 401
// is reported to the caller, which decides how to invalidate its session.
//
// # Error Handling
//
// Non-2xx responses are returned as *HTTPError carrying the status code and
// the backend's "message" field. Callers match conditions with errors.Is:
// ErrUnauthorized (HTTP 401) and ErrUnavailable (the request never got a
// response).
package api
