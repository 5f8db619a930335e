package avatars

import (
	"context"
	"sync"

	"github.com/mdrscore/client/internal/shared"
)

type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (s *MemoryStore) Put(ctx context.Context, key string, obj Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj.Body = append([]byte(nil), obj.Body...)
	s.objects[key] = obj
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	obj.Body = append([]byte(nil), obj.Body...)
	return &obj, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return shared.ErrNotFound
	}
	delete(s.objects, key)
	return nil
}
