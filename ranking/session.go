// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/reelrank/models"
)

// Kind tells which controller owns a session.
type Kind string

const (
	KindInsert Kind = "insert"
	KindRerank Kind = "rerank"
)

// Session carries binary-search state between otherwise stateless requests.
// Low and High are 0-based inclusive bounds over the candidate list; Pivot is
// the movie currently presented for comparison. Token changes on every
// write so a client holding an older token can be told it is behind.
type Session struct {
	UserID    string
	Kind      Kind
	Subject   models.Movie
	Low       int
	High      int
	Pivot     string
	Token     string
	StartedAt time.Time
	UpdatedAt time.Time
}

// Middle is the index of the next entry to compare against.
func (s Session) Middle() int {
	return (s.Low + s.High) / 2
}

// SessionManager keeps one in-memory session per user. Sessions are never
// persisted and vanish on restart or after ttl without activity.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time

	lockMu sync.Mutex
	locks  map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessionManager creates a manager. A ttl of zero disables expiry.
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*userLock),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Start creates the user's session with bounds [0, high], replacing any
// session already in progress.
func (m *SessionManager) Start(userID string, kind Kind, subject models.Movie, high int) Session {
	now := m.now()
	s := &Session{
		UserID:    userID,
		Kind:      kind,
		Subject:   subject,
		Low:       0,
		High:      high,
		Token:     uuid.NewString(),
		StartedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	if old, ok := m.sessions[userID]; ok {
		slog.Debug("replacing comparison session", "user_id", userID, "old_movie_id", old.Subject.MovieID, "new_movie_id", subject.MovieID)
	}
	m.sessions[userID] = s
	m.mu.Unlock()

	return *s
}

// Get returns a copy of the user's session
func (m *SessionManager) Get(userID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return Session{}, false
	}
	if m.expired(s) {
		delete(m.sessions, userID)
		return Session{}, false
	}
	return *s, true
}

// Update narrows the bounds and records the next pivot. It does nothing
// when the user has no session.
func (m *SessionManager) Update(userID string, low, high int, pivot string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok || m.expired(s) {
		return Session{}, false
	}
	s.Low = low
	s.High = high
	s.Pivot = pivot
	s.Token = uuid.NewString()
	s.UpdatedAt = m.now()
	return *s, true
}

// End removes the user's session, if any
func (m *SessionManager) End(userID string) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) expired(s *Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}

// Sweep drops expired sessions and reports how many were removed
func (m *SessionManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Info("expired comparison sessions", "count", n)
			}
		}
	}
}

// Lock serializes work for one user and returns the matching unlock.
// Requests for different users never wait on each other.
func (m *SessionManager) Lock(userID string) func() {
	m.lockMu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &userLock{}
		m.locks[userID] = l
	}
	l.refs++
	m.lockMu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		m.lockMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, userID)
		}
		m.lockMu.Unlock()
	}
}
