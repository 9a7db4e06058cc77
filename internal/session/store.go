// Package session holds live simulation engines for a long-running host.
// The store is size-bounded with LRU eviction and TTL expiration so an
// unattended server cannot accumulate abandoned simulations; expiry discards
// in-memory state only.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/adaptive-routing/banditsim/internal/engine"
)

// Session wraps one engine behind a mutex. The engine itself is
// single-threaded; the mutex provides the external mutual exclusion required
// when HTTP handlers may run concurrently.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	engine *engine.Engine
}

// Do runs fn with exclusive access to the session's engine.
func (s *Session) Do(fn func(*engine.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

type entry struct {
	session   *Session
	expiresAt time.Time
}

// Store is a thread-safe, size-bounded session store with TTL expiration.
type Store struct {
	cache *lru.Cache[string, *entry]
	ttl   time.Duration

	mu      sync.Mutex
	hits    uint64
	misses  uint64
	evicted uint64
}

// NewStore creates a store holding at most size sessions. A ttl of 0 means
// sessions never expire (they can still be evicted by the LRU bound).
func NewStore(size int, ttl time.Duration) (*Store, error) {
	cache, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, err
	}
	return &Store{cache: cache, ttl: ttl}, nil
}

// Create registers a new session for eng and returns it with a fresh id.
func (s *Store) Create(eng *engine.Engine) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		engine:    eng,
	}

	expiresAt := time.Time{}
	if s.ttl > 0 {
		expiresAt = time.Now().Add(s.ttl)
	}
	if s.cache.Add(sess.ID, &entry{session: sess, expiresAt: expiresAt}) {
		s.evicted++
	}
	return sess
}

// Get returns the session for id, or false if it is unknown or expired.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.cache.Get(id)
	if !ok {
		s.misses++
		return nil, false
	}
	if s.ttl > 0 && time.Now().After(e.expiresAt) {
		s.cache.Remove(id)
		s.misses++
		return nil, false
	}

	s.hits++
	return e.session, true
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(id)
}

// Len returns the number of stored sessions, including any not yet reaped
// after TTL expiry.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// Stats returns hit, miss, and eviction counters.
func (s *Store) Stats() (hits, misses, evicted uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses, s.evicted
}
