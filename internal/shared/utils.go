// Package shared holds the domain errors of the reference backend. Handlers
// map them to HTTP status codes; services and repositories return them
// wrapped.
package shared
