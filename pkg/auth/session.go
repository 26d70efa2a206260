package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type session struct {
	token    *oauth2.Token
	lastUsed time.Time
}

// SessionStore keeps the delegated tokens of signed-in users in memory,
// keyed by the id stored in the session cookie.
type SessionStore struct {
	lock     sync.RWMutex
	sessions map[string]*session
	idle     time.Duration
	now      func() time.Time
}

// NewSessionStore drops sessions unused for longer than idle (0 keeps them forever).
func NewSessionStore(idle time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		idle:     idle,
		now:      time.Now,
	}
}

// Create stores tok under a fresh random id.
func (s *SessionStore) Create(tok *oauth2.Token) string {
	id := uuid.NewString()
	s.Put(id, tok)
	return id
}

// Put stores tok under id and drops every idle session on the way.
func (s *SessionStore) Put(id string, tok *oauth2.Token) {
	s.lock.Lock()
	defer s.lock.Unlock()
	now := s.now()
	for other, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, other)
		}
	}
	s.sessions[id] = &session{token: tok, lastUsed: now}
}

func (s *SessionStore) Get(id string) (*oauth2.Token, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(sess, s.now()) {
		delete(s.sessions, id)
		return nil, false
	}
	sess.lastUsed = s.now()
	return sess.token, true
}

func (s *SessionStore) expired(sess *session, now time.Time) bool {
	return s.idle > 0 && now.Sub(sess.lastUsed) > s.idle
}

func (s *SessionStore) Delete(id string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.sessions, id)
}

func (s *SessionStore) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.sessions)
}
