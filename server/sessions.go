package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/intcode/pkg/intcode"
)

// ErrSessionLimit is returned by CreateLimited when the store is full.
var ErrSessionLimit = errors.New("server: session limit reached")

// Session is one hosted machine.
type Session struct {
	ID      string
	Created time.Time

	worker   *VMWorker
	lastUsed atomic.Int64 // UnixNano
}

// Worker returns the worker that owns the session's VM.
func (s *Session) Worker() *VMWorker {
	return s.worker
}

// LastUsed returns when the session was last looked up.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

// SessionStore manages hosted machine sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates a new session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
	}
}

// Create starts a worker for vm and registers it under a fresh ID.
func (s *SessionStore) Create(vm *intcode.VM) *Session {
	session, _ := s.CreateLimited(vm, 0)
	return session
}

// CreateLimited is Create that fails with ErrSessionLimit when limit sessions
// are already live. A limit of zero means none.
func (s *SessionStore) CreateLimited(vm *intcode.VM, limit int) (*Session, error) {
	s.mu.Lock()
	if limit > 0 && len(s.sessions) >= limit {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w (%d)", ErrSessionLimit, limit)
	}
	session := &Session{
		ID:      uuid.New().String(),
		Created: time.Now(),
		worker:  NewVMWorker(vm),
	}
	session.touch()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	log.Debugf("session %s created", session.ID)
	return session, nil
}

// Get retrieves a session by ID and marks it as used.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	if ok {
		session.touch()
	}
	return session, ok
}

// Destroy removes a session and stops its worker. Reports whether the
// session existed.
func (s *SessionStore) Destroy(id string) bool {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		session.worker.Stop()
		log.Debugf("session %s destroyed", id)
	}
	return ok
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions that haven't been accessed within the TTL.
func (s *SessionStore) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl).UnixNano()

	s.mu.Lock()
	var expired []*Session
	for id, session := range s.sessions {
		if session.lastUsed.Load() < cutoff {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.worker.Stop()
	}
	if len(expired) > 0 {
		log.Infof("swept %d idle sessions", len(expired))
	}
	return len(expired)
}

// StartSweeper runs periodic TTL sweeps in the background.
// Returns a stop function.
func (s *SessionStore) StartSweeper(interval, ttl time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.Sweep(ttl)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Close destroys every session.
func (s *SessionStore) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.worker.Stop()
	}
}
