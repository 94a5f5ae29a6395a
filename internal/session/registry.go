package session

import (
	"sync"
	"time"
)

// Closer is state that must be released when its session goes away.
type Closer interface {
	Close()
}

// Registry holds one value per session id, created on first use.
type Registry[T Closer] struct {
	mu     sync.RWMutex
	items  map[string]*slot[T]
	create func() T
	now    func() time.Time
}

type slot[T Closer] struct {
	value    T
	lastSeen time.Time
}

func NewRegistry[T Closer](create func() T) *Registry[T] {
	return &Registry[T]{
		items:  make(map[string]*slot[T]),
		create: create,
		now:    time.Now,
	}
}

// Get returns the value for sessionID, creating it if needed.
func (r *Registry[T]) Get(sessionID string) T {
	now := r.now()

	r.mu.RLock()
	s, ok := r.items[sessionID]
	r.mu.RUnlock()
	if ok {
		r.mu.Lock()
		s.lastSeen = now
		r.mu.Unlock()
		return s.value
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock.
	if s, ok := r.items[sessionID]; ok {
		s.lastSeen = now
		return s.value
	}
	s = &slot[T]{value: r.create(), lastSeen: now}
	r.items[sessionID] = s
	return s.value
}

// Drop closes and forgets the value of sessionID, if any.
func (r *Registry[T]) Drop(sessionID string) {
	r.mu.Lock()
	s, ok := r.items[sessionID]
	delete(r.items, sessionID)
	r.mu.Unlock()
	if ok {
		s.value.Close()
	}
}

// Sweep drops values unused for longer than idle and returns how many
// were dropped.
func (r *Registry[T]) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []T
	for id, s := range r.items {
		if s.lastSeen.Before(cutoff) {
			stale = append(stale, s.value)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	for _, v := range stale {
		v.Close()
	}
	return len(stale)
}

func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Close drops every value.
func (r *Registry[T]) Close() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*slot[T])
	r.mu.Unlock()

	for _, s := range items {
		s.value.Close()
	}
}
