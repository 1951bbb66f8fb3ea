package cache

import (
	"time"
)

// Session is the ephemeral per-user working state. It is an
// optimization cache, not the source of truth for conversation
// boundaries: on expiry a fresh session is rebuilt from the User and
// Conversation records.
type Session struct {
	PhoneNumber    string                 `json:"phone_number"`
	ConversationID string                 `json:"conversation_id"`
	Language       string                 `json:"language"`
	Context        map[string]interface{} `json:"context"`
	LastActivity   time.Time              `json:"last_activity"`
}

// SessionStore persists sessions in the shared cache under a TTL.
// Writes are last-write-wins on the session key; near-simultaneous
// messages from the same user may race (accepted, not guarded).
type SessionStore struct {
	cache *Cache
	ttl   time.Duration
}

func NewSessionStore(cache *Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: cache, ttl: ttl}
}

func sessionKey(phone string) string {
	return "session:" + phone
}

// Get returns the cached session for phone, or false when absent.
func (s *SessionStore) Get(phone string) (*Session, bool) {
	value, ok := s.cache.Get(sessionKey(phone))
	if !ok {
		return nil, false
	}
	session, ok := value.(*Session)
	return session, ok
}

// Save writes the session back, refreshing its TTL.
func (s *SessionStore) Save(session *Session) {
	if session.Context == nil {
		session.Context = make(map[string]interface{})
	}
	s.cache.Set(sessionKey(session.PhoneNumber), session, s.ttl)
}

// Delete drops the session for phone.
func (s *SessionStore) Delete(phone string) {
	s.cache.Delete(sessionKey(phone))
}
