package memory

import (
	"sync"

	"akhlak-learning-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(userID string, session *app.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, replaced := s.sessions[userID]
	s.sessions[userID] = session
	return replaced
}

func (s *SessionStore) Get(userID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	return session, ok
}

func (s *SessionStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

func (s *SessionStore) CompareAndDelete(userID string, session *app.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[userID]; !ok || cur != session {
		return false
	}
	delete(s.sessions, userID)
	return true
}

func (s *SessionStore) Sweep(idle func(*app.Session) bool) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var dropped []string
	for userID, session := range s.sessions {
		if idle(session) {
			delete(s.sessions, userID)
			dropped = append(dropped, userID)
		}
	}
	return dropped
}

// Len is the number of active sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
