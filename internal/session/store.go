package session

import "sync"

// Store holds the process-wide bearer credential. Every transport call
// reads it per call; only the login flow and the 401 handler write it.
// The zero value is a usable, empty store.
type Store struct {
	mu        sync.Mutex
	token     string
	expired   bool
	onExpired func()
}

// NewStore returns a store that invokes onExpired the first time the
// session is expired. The callback carries the navigation side effect
// (redirect to login); detection stays in here, where it can be tested.
func NewStore(onExpired func()) *Store {
	return &Store{onExpired: onExpired}
}

func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken stores a fresh credential and re-arms the expiry latch.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expired = false
}

// Clear drops the credential without treating the session as expired.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// Expire clears the credential and fires the expiry callback. Concurrent
// 401s collapse into a single clear and a single callback invocation; the
// latch re-arms on the next SetToken.
func (s *Store) Expire() {
	s.mu.Lock()
	if s.expired {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.expired = true
	cb := s.onExpired
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
}
