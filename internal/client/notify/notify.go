// Package notify holds the single on-screen notification. A notification
// expires on its own after a TTL or is dismissed explicitly.
package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 4 * time.Second

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
	Info    Kind = "info"
)

type Notification struct {
	Kind      Kind
	Text      string
	ExpiresAt time.Time
}

// Slot keeps at most one notification; a new one replaces the old.
type Slot struct {
	ttl time.Duration
	now func() time.Time

	mu  sync.Mutex
	cur *Notification
}

type Option func(*Slot)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Slot) { s.now = now }
}

func NewSlot(ttl time.Duration, opts ...Option) *Slot {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Slot{ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Slot) Post(kind Kind, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = &Notification{Kind: kind, Text: text, ExpiresAt: s.now().Add(s.ttl)}
}

// Current returns the live notification, if any. Expired ones are dropped.
func (s *Slot) Current() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		return Notification{}, false
	}
	if !s.now().Before(s.cur.ExpiresAt) {
		s.cur = nil
		return Notification{}, false
	}
	return *s.cur, true
}

// Take returns the live notification and clears the slot.
func (s *Slot) Take() (Notification, bool) {
	n, ok := s.Current()
	if ok {
		s.Dismiss()
	}
	return n, ok
}

func (s *Slot) Dismiss() {
	s.mu.Lock()
	s.cur = nil
	s.mu.Unlock()
}
