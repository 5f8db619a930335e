package users

import (
	"context"
)

// Repository stores accounts. Lookups return shared.ErrNotFound for a
// missing account; Create and Update return shared.ErrEmailTaken or
// shared.ErrUsernameTaken on a uniqueness conflict.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetUserByLogin(ctx context.Context, login string) (*User, error)
	GetByVerifyToken(ctx context.Context, token string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
}
