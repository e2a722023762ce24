// Package apisession provides a generic, thread-safe session store for API
// handlers that keep per-client state between requests. Clients identify
// themselves with an opaque session ID issued by the server.
package apisession

import (
	"sync"
	"time"
)

// cleanupInterval is how often Lookup() triggers lazy eviction of expired entries.
const cleanupInterval = 100

type entry[T any] struct {
	value      *T
	lastAccess time.Time
}

// Store is a typed, thread-safe session store.
type Store[T any] struct {
	mu          sync.Mutex
	entries     map[string]*entry[T]
	ttl         time.Duration
	onEvict     func(id string, v *T)
	lookupCalls int
	now         func() time.Time
}

// New creates a Store that evicts sessions inactive longer than ttl.
// onEvict, if set, is called for every removed session outside the store lock.
func New[T any](ttl time.Duration, onEvict func(id string, v *T)) *Store[T] {
	return &Store[T]{
		entries: make(map[string]*entry[T]),
		ttl:     ttl,
		onEvict: onEvict,
		now:     time.Now,
	}
}

// Put stores v under id, replacing and evicting any previous value.
func (s *Store[T]) Put(id string, v *T) {
	s.mu.Lock()
	prev, had := s.entries[id]
	s.entries[id] = &entry[T]{value: v, lastAccess: s.now()}
	s.mu.Unlock()

	if had && prev.value != v {
		s.evicted(id, prev.value)
	}
}

// Lookup returns the state for id and refreshes its last-access timestamp.
func (s *Store[T]) Lookup(id string) (*T, bool) {
	s.mu.Lock()
	s.lookupCalls++
	var expired map[string]*T
	if s.lookupCalls%cleanupInterval == 0 {
		expired = s.cleanupLocked()
	}

	e, ok := s.entries[id]
	if ok {
		e.lastAccess = s.now()
	}
	s.mu.Unlock()

	for eid, v := range expired {
		s.evicted(eid, v)
	}
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Delete removes id. It reports whether the session existed.
func (s *Store[T]) Delete(id string) bool {
	s.mu.Lock()
	e, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()

	if ok {
		s.evicted(id, e.value)
	}
	return ok
}

// Clear evicts every session regardless of age.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	all := make(map[string]*T, len(s.entries))
	for id, e := range s.entries {
		all[id] = e.value
	}
	clear(s.entries)
	s.mu.Unlock()

	for id, v := range all {
		s.evicted(id, v)
	}
}

// Cleanup evicts all sessions that have been inactive longer than the TTL.
func (s *Store[T]) Cleanup() {
	s.mu.Lock()
	expired := s.cleanupLocked()
	s.mu.Unlock()

	for id, v := range expired {
		s.evicted(id, v)
	}
}

func (s *Store[T]) cleanupLocked() map[string]*T {
	cutoff := s.now().Add(-s.ttl)
	var expired map[string]*T
	for id, e := range s.entries {
		if e.lastAccess.Before(cutoff) {
			if expired == nil {
				expired = make(map[string]*T)
			}
			expired[id] = e.value
			delete(s.entries, id)
		}
	}
	return expired
}

func (s *Store[T]) evicted(id string, v *T) {
	if s.onEvict != nil {
		s.onEvict(id, v)
	}
}

// Len returns the number of active sessions.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
