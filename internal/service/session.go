package service

import (
	"sync"
	"time"
)

// SessionTTL is how long a session survives without activity before
// Sweep reclaims it.
const SessionTTL = 10 * time.Minute

// Session is the ephemeral per-connection record a streamed Courier
// call may stash bulk-data descriptors and authenticator state in
// between calls on the same SPP connection. Expedited (PEX) calls
// invoke with a nil session.
type Session struct {
	mu       sync.Mutex
	lastUsed time.Time
	values   map[string]any
}

func newSession() *Session {
	return &Session{lastUsed: time.Now(), values: make(map[string]any)}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// Get returns a value previously stored under key.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, overwriting any prior value.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed) > SessionTTL
}
