package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// State is what a session displays between requests. It never holds the credential.
type State struct {
	Transcript Transcript
	KeyStatus  string // Most recent credential check report
	Analysis   string // Most recent image analysis report
}

// Session is the in-memory state of one browser session. Actions on a session are serialized.
type Session struct {
	ID string

	mu      sync.Mutex
	state   State
	limiter *rate.Limiter
}

// Do runs fn with exclusive access to the session's state
func (s *Session) Do(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Snapshot returns a copy of the session's state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Allow reports whether the session may make another provider request now
func (s *Session) Allow() bool {
	return s.limiter.Allow()
}

type sessionEntry struct {
	session  *Session
	lastSeen time.Time
}

// SessionStore tracks live sessions. Sessions that have been idle for longer than the TTL end and are forgotten.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry

	ttl         time.Duration
	limit       rate.Limit
	burst       int
	maxSessions int

	now     func() time.Time
	onCount func(int)
}

// NewSessionStore creates a store. perMinute <= 0 disables rate limiting.
func NewSessionStore(ttl time.Duration, perMinute int, burst int) *SessionStore {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	if burst <= 0 {
		burst = 1
	}
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		limit:    limit,
		burst:    burst,
		now:      time.Now,
		onCount:  func(int) {},
	}
}

// OnCountChange registers a callback invoked with the number of live sessions whenever it changes
func (ss *SessionStore) OnCountChange(fn func(int)) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.onCount = fn
}

// SetMaxSessions bounds the number of live sessions. When the store is full, starting a session evicts the one
// that has been idle longest. n <= 0 removes the bound.
func (ss *SessionStore) SetMaxSessions(n int) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.maxSessions = n
}

// Lookup returns the live session with the given ID without starting a new one
func (ss *SessionStore) Lookup(id string) (*Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	now := ss.now()
	entry, ok := ss.sessions[id]
	if !ok || ss.expired(entry, now) {
		return nil, false
	}
	entry.lastSeen = now
	return entry.session, true
}

// Get returns the live session with the given ID, creating a new session if there is none. The boolean is true if
// a new session was created, in which case its ID differs from the one requested.
func (ss *SessionStore) Get(id string) (*Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	now := ss.now()
	if entry, ok := ss.sessions[id]; ok {
		if !ss.expired(entry, now) {
			entry.lastSeen = now
			return entry.session, false
		}
		delete(ss.sessions, id)
	}

	if ss.maxSessions > 0 && len(ss.sessions) >= ss.maxSessions {
		ss.evictOldest()
	}

	session := &Session{
		ID:      uuid.NewString(),
		limiter: rate.NewLimiter(ss.limit, ss.burst),
	}
	ss.sessions[session.ID] = &sessionEntry{session: session, lastSeen: now}
	ss.onCount(len(ss.sessions))
	return session, true
}

// Len returns the number of sessions currently held
func (ss *SessionStore) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}

// Evict forgets every session that has been idle for longer than the TTL and returns how many were removed
func (ss *SessionStore) Evict() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	now := ss.now()
	removed := 0
	for id, entry := range ss.sessions {
		if ss.expired(entry, now) {
			delete(ss.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		ss.onCount(len(ss.sessions))
	}
	return removed
}

// Run evicts idle sessions every interval until ctx is done
func (ss *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ss.Evict()
		}
	}
}

// evictOldest removes the least recently seen session. The caller holds ss.mu.
func (ss *SessionStore) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, entry := range ss.sessions {
		if oldestID == "" || entry.lastSeen.Before(oldest) {
			oldestID, oldest = id, entry.lastSeen
		}
	}
	delete(ss.sessions, oldestID)
}

func (ss *SessionStore) expired(entry *sessionEntry, now time.Time) bool {
	return ss.ttl > 0 && now.Sub(entry.lastSeen) > ss.ttl
}
