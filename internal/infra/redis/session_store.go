package redis

import (
	"context"
	"sync"
	"time"

	"akhlak-learning-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions live in a local map; they hold a mutex and a clock and are not
//     serialized.
//   - Redis carries a liveness marker per user (value: session id) so other
//     instances and operators can see who has an attempt in progress.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(userID string, session *app.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, replaced := s.sessions[userID]
	s.sessions[userID] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(userID), session.ID(), s.ttl).Err()
	return replaced
}

func (s *SessionStore) Get(userID string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok && s.ttl > 0 {
		_ = s.client.Expire(context.Background(), s.key(userID), s.ttl).Err()
	}
	return session, ok
}

func (s *SessionStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	_ = s.client.Del(context.Background(), s.key(userID)).Err()
}

func (s *SessionStore) CompareAndDelete(userID string, session *app.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.sessions[userID]; !ok || cur != session {
		return false
	}
	delete(s.sessions, userID)
	_ = s.client.Del(context.Background(), s.key(userID)).Err()
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
	if len(dropped) > 0 {
		keys := make([]string, len(dropped))
		for i, userID := range dropped {
			keys[i] = s.key(userID)
		}
		_ = s.client.Del(context.Background(), keys...).Err()
	}
	return dropped
}

// ActiveSessionID reads the liveness marker, which may come from another instance.
func (s *SessionStore) ActiveSessionID(ctx context.Context, userID string) (string, bool, error) {
	id, err := s.client.Get(ctx, s.key(userID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *SessionStore) key(userID string) string {
	return "assessment:session:" + userID
}
