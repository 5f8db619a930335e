package services

import (
	"context"
	"sync"
)

// flights tracks the newest in-flight call per operation name. reset
// invalidates everything started before it.
type flights struct {
	mu   sync.Mutex
	seq  uint64
	gen  uint64
	live map[string]*inflight
}

type inflight struct {
	id     uint64
	cancel context.CancelFunc
}

type ticket struct {
	op  string
	id  uint64
	gen uint64
}

func newFlights() *flights {
	return &flights{live: make(map[string]*inflight)}
}

// begin cancels the previous call of op and registers a new one. The
// returned func must be called when the call is done.
func (f *flights) begin(ctx context.Context, op string) (context.Context, ticket, func()) {
	ctx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	if prev := f.live[op]; prev != nil {
		prev.cancel()
	}
	f.seq++
	t := ticket{op: op, id: f.seq, gen: f.gen}
	f.live[op] = &inflight{id: t.id, cancel: cancel}
	f.mu.Unlock()

	return ctx, t, func() {
		f.mu.Lock()
		if cur := f.live[op]; cur != nil && cur.id == t.id {
			delete(f.live, op)
		}
		f.mu.Unlock()
		cancel()
	}
}

// current reports whether t is still the newest call of its op.
func (f *flights) current(t ticket) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur := f.live[t.op]
	return t.gen == f.gen && cur != nil && cur.id == t.id
}

func (f *flights) generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

func (f *flights) valid(gen uint64) bool {
	return f.generation() == gen
}

// reset cancels every in-flight call and invalidates their tickets.
func (f *flights) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for op, fl := range f.live {
		fl.cancel()
		delete(f.live, op)
	}
	f.gen++
}
