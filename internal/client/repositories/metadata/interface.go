// Package metadata persists small pieces of client state (the session
// credential) between runs. Two backends share one contract: a local SQLite
// file and Redis.
package metadata

import (
	"context"
)

// Repository is a byte-valued key/value store.
//
// Get returns (nil, nil) for a missing key. Delete removes every given key
// in one step and is idempotent.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
