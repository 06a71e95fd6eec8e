// Package replay rejects evaluation requests whose id was already seen
// within a time window.
package replay

import (
	"context"
	"sync"
	"time"
)

const (
	defaultTTL     = 10 * time.Minute
	defaultMaxSize = 50000
)

// Guard records request ids.
type Guard interface {
	// SeenAndRecord atomically checks whether id was seen within the TTL and
	// records it if not. It returns true for a replay.
	SeenAndRecord(ctx context.Context, id string) bool

	// Forget removes id so the request can be retried.
	Forget(ctx context.Context, id string)

	Size() int64
}

type entry struct {
	id      string
	expires time.Time
}

// inMemoryGuard keeps ids in a map plus an insertion-ordered slice. With a
// single TTL, insertion order is also expiry order.
type inMemoryGuard struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	order   []entry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// NewInMemoryGuard creates a guard.
func NewInMemoryGuard(opts ...Option) Guard {
	g := &inMemoryGuard{
		seen:    make(map[string]time.Time),
		ttl:     defaultTTL,
		maxSize: defaultMaxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *inMemoryGuard) SeenAndRecord(_ context.Context, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.expire(now)
	if exp, ok := g.seen[id]; ok && now.Before(exp) {
		return true
	}
	if g.maxSize > 0 {
		for len(g.seen) >= g.maxSize && len(g.order) > 0 {
			g.pop()
		}
	}
	exp := now.Add(g.ttl)
	g.seen[id] = exp
	g.order = append(g.order, entry{id: id, expires: exp})
	return false
}

func (g *inMemoryGuard) Forget(_ context.Context, id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, id)
}

func (g *inMemoryGuard) Size() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int64(len(g.seen))
}

// expire drops entries past their deadline. Callers hold g.mu.
func (g *inMemoryGuard) expire(now time.Time) {
	for len(g.order) > 0 && !now.Before(g.order[0].expires) {
		g.pop()
	}
	// Reclaim the backing array once it is mostly consumed.
	if cap(g.order) > 1024 && len(g.order) < cap(g.order)/4 {
		g.order = append([]entry(nil), g.order...)
	}
}

// pop removes the oldest entry. An id that was forgotten and recorded again
// carries a newer deadline and is left alone.
func (g *inMemoryGuard) pop() {
	e := g.order[0]
	g.order = g.order[1:]
	if exp, ok := g.seen[e.id]; ok && exp.Equal(e.expires) {
		delete(g.seen, e.id)
	}
}
