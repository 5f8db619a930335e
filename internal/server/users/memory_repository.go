package users

import (
	"context"
	"strings"
	"sync"

	"github.com/mdrscore/client/internal/shared"
)

// MemoryRepository keeps accounts in process memory. Emails and usernames
// are unique case-insensitively. Returned users are copies.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*User)}
}

// conflict must be called with mu held.
func (r *MemoryRepository) conflict(u *User) error {
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) {
			return shared.ErrEmailTaken
		}
		if strings.EqualFold(other.UserName, u.UserName) {
			return shared.ErrUsernameTaken
		}
	}
	return nil
}

func (r *MemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conflict(user); err != nil {
		return nil, err
	}
	r.users[user.ID] = user.clone()
	return user.clone(), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u.clone(), nil
}

// GetUserByLogin matches login against the email or the username.
func (r *MemoryRepository) GetUserByLogin(ctx context.Context, login string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, login) || strings.EqualFold(u.UserName, login) {
			return u.clone(), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *MemoryRepository) GetByVerifyToken(ctx context.Context, token string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token == "" {
		return nil, shared.ErrNotFound
	}
	for _, u := range r.users {
		if u.VerifyToken == token {
			return u.clone(), nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *MemoryRepository) Update(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return shared.ErrNotFound
	}
	if err := r.conflict(user); err != nil {
		return err
	}
	r.users[user.ID] = user.clone()
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.users, id)
	return nil
}
