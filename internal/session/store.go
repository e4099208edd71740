package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdle is how long an untouched entry survives.
const DefaultIdle = 2 * time.Hour

// ErrNotFound is returned for unknown or expired ids.
var ErrNotFound = errors.New("session not found")

type entry[T any] struct {
	mu    sync.Mutex // serializes handlers working on this entry
	value T
	seen  time.Time
}

// Store keeps per-browser values in memory, keyed by random ids, and forgets
// entries that have been idle for longer than the configured duration.
type Store[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	idle    time.Duration
	factory func(id string) (T, error)
	now     func() time.Time
}

// NewStore creates a store. factory builds the value for a new id.
func NewStore[T any](idle time.Duration, factory func(id string) (T, error)) *Store[T] {
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Store[T]{
		entries: make(map[string]*entry[T]),
		idle:    idle,
		factory: factory,
		now:     time.Now,
	}
}

// Create allocates a new entry and returns its id.
func (s *Store[T]) Create() (string, error) {
	id := uuid.NewString()
	value, err := s.factory(id)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.entries[id] = &entry[T]{value: value, seen: s.now()}
	s.mu.Unlock()
	return id, nil
}

// With runs fn with exclusive access to the entry for id.
func (s *Store[T]) With(id string, fn func(T) error) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok && s.expired(e) {
		delete(s.entries, id)
		ok = false
	}
	if ok {
		e.seen = s.now()
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.value)
}

// Delete forgets id.
func (s *Store[T]) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store[T]) expired(e *entry[T]) bool {
	return s.now().Sub(e.seen) > s.idle
}

// Sweep removes expired entries and returns how many were removed.
func (s *Store[T]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store[T]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("[session] swept %d idle sessions", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
