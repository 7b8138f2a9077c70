package memory

import (
	"sync"

	"github.com/PabloGalante/idefend/internal/domain"
)

// SessionStore keeps live sessions in a map. Sessions are discarded on
// delete or process exit.
type SessionStore[S domain.SessionHandle] struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]S
}

func NewSessionStore[S domain.SessionHandle]() *SessionStore[S] {
	return &SessionStore[S]{
		sessions: make(map[domain.SessionID]S),
	}
}

func (s *SessionStore[S]) CreateSession(session S) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID()]; exists {
		return domain.ErrSessionExists
	}

	s.sessions[session.ID()] = session
	return nil
}

func (s *SessionStore[S]) GetSession(id domain.SessionID) (S, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		var zero S
		return zero, domain.ErrSessionNotFound
	}

	return sess, nil
}

func (s *SessionStore[S]) DeleteSession(id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *SessionStore[S]) CountSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
