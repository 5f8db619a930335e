// Package avatars stores uploaded avatar images for the reference backend.
// Objects are addressed by an opaque key; the HTTP layer serves them under
// /avatars/{key}.
package avatars

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mdrscore/client/internal/server/config"
)

// Object is a stored avatar.
type Object struct {
	ContentType string
	Body        []byte
}

// Store persists avatars. Get and Delete return shared.ErrNotFound for an
// unknown key.
type Store interface {
	Put(ctx context.Context, key string, obj Object) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// NewKey returns a fresh storage key for userID, keeping the file extension.
func NewKey(userID, ext string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%02d/%s%s", userID, d.Year(), d.Month(), uuid.NewString(), ext)
}

// New builds the store selected by cfg.AvatarStore.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.AvatarStore {
	case config.AvatarStoreMemory, "":
		return NewMemoryStore(), nil
	case config.AvatarStoreS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown avatar store %q", cfg.AvatarStore)
	}
}
