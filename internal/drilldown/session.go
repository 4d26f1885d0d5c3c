package drilldown

import (
	"log/slog"
	"sync"
	"time"

	"painel/internal/cache"
)

// Session pairs a controller with the range cell it drives.
type Session struct {
	ID         string
	Controller *Controller
	Range      *RangeCell
}

// Sessions keeps one Session per id, evicting idle sessions after ttl and
// the least recently used ones beyond maxSize.
type Sessions struct {
	mu     sync.Mutex
	env    Env
	store  *cache.LRUCache[*Session]
	logger *slog.Logger
}

func NewSessions(env Env, maxSize int, ttl time.Duration, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{
		env:    env,
		store:  cache.NewLRUCache[*Session](maxSize, ttl),
		logger: logger,
	}
}

// Get returns the session for id, creating it when absent or expired. Each
// access refreshes the session's expiry.
func (s *Sessions) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.store.Get(id); ok {
		s.store.Set(id, sess)
		return sess
	}
	cell := NewRangeCell(nil)
	sess := &Session{
		ID:         id,
		Controller: NewController(s.env, cell, s.logger.With("session_id", id)),
		Range:      cell,
	}
	s.store.Set(id, sess)
	return sess
}

// Lookup returns the live session for id without creating one.
func (s *Sessions) Lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.store.Get(id)
	if ok {
		s.store.Set(id, sess)
	}
	return sess, ok
}

// Store exposes the backing cache so it can be registered for cleanup.
func (s *Sessions) Store() *cache.LRUCache[*Session] {
	return s.store
}
