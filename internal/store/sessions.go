package store

import (
	"sync"
	"time"
)

// Sessions keeps one Store per browser session.
type Sessions struct {
	mu    sync.Mutex
	loc   *time.Location
	clock func() time.Time
	ttl   time.Duration
	items map[string]*Store
}

// NewSessions creates an empty registry. Stores it creates select today in loc.
func NewSessions(loc *time.Location, clock func() time.Time) *Sessions {
	if clock == nil {
		clock = time.Now
	}
	return &Sessions{loc: loc, clock: clock, ttl: DefaultOverlayTTL, items: make(map[string]*Store)}
}

// Get returns the store for id, creating it on first use.
func (r *Sessions) Get(id string) *Store {
	r.mu.Lock()
	s, ok := r.items[id]
	if !ok {
		s = New(r.loc, r.clock)
		s.SetOverlayTTL(r.ttl)
		r.items[id] = s
	}
	r.mu.Unlock()
	s.touch()
	return s
}

// Len reports the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Sweep evicts stores not used within idle and returns their ids.
func (r *Sessions) Sweep(idle time.Duration) []string {
	cutoff := r.clock().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	var evicted []string
	for id, s := range r.items {
		if s.idleSince().Before(cutoff) {
			delete(r.items, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}
