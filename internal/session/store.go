// Package session tracks short-lived authorization sessions keyed by
// opaque identifiers.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// defaultSweepInterval bounds how often Run scans for expired sessions.
const defaultSweepInterval = time.Minute

// Session is an authorization context created once and referenced by id on
// subsequent dispatches. Only LastActivity changes after creation.
type Session struct {
	ID           string
	AuthToken    string
	CreatedAt    time.Time
	LastActivity time.Time
}

// Store holds sessions in memory from creation until process teardown or
// TTL expiry. All methods are safe for concurrent use by multiple
// connection loops.
type Store struct {
	log *slog.Logger
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates a session store.
//
// ttl is the sliding idle expiry measured against LastActivity; zero
// disables expiry and sessions live until process stop.
func NewStore(log *slog.Logger, ttl time.Duration) *Store {
	return &Store{
		log:      log.With("component", "session_store"),
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session, 4),
	}
}

// Create generates a fresh session id for authToken and stores the session.
func (s *Store) Create(authToken string) string {
	now := s.now().UTC()
	sess := &Session{
		ID:           ulid.Make().String(),
		AuthToken:    authToken,
		CreatedAt:    now,
		LastActivity: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.log.Debug("Session created", "session_id", sess.ID)

	return sess.ID
}

// Validate reports whether id names a live session. A session whose idle
// time exceeds the store TTL is no longer valid even if it has not been
// swept yet.
func (s *Store) Validate(id string) bool {
	if id == "" {
		return false
	}

	s.mu.RLock()
	sess, exists := s.sessions[id]
	s.mu.RUnlock()

	if !exists {
		return false
	}

	return !s.expired(sess, s.now().UTC())
}

// Touch records activity on a session, extending its sliding expiry.
func (s *Store) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, exists := s.sessions[id]; exists {
		sess.LastActivity = s.now().UTC()
	}
}

// Len returns the number of stored sessions, including any expired ones
// not yet swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Store) Sweep() int {
	if s.ttl == 0 {
		return 0
	}

	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0

	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			dropped++
		}
	}

	if dropped > 0 {
		s.log.Debug("Swept expired sessions", "count", dropped)
	}

	return dropped
}

// Run sweeps expired sessions periodically until ctx is done. It is a
// no-op when expiry is disabled.
func (s *Store) Run(ctx context.Context) {
	if s.ttl == 0 {
		return
	}

	interval := s.ttl / 2
	if interval > defaultSweepInterval {
		interval = defaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return s.ttl != 0 && now.Sub(sess.LastActivity) > s.ttl
}
