package assistant

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fernandokurniawan23/finassist/internal/models"
)

// session holds one conversation's state. The mutex serializes message
// handling so concurrent sends on the same session cannot interleave turns.
type session struct {
	id        string
	username  string
	createdAt time.Time

	mu        sync.Mutex
	turns     []models.Turn
	lastChart *models.ChartSpec
}

func (s *session) appendTurn(t models.Turn) {
	t.Timestamp = time.Now().UTC()
	s.turns = append(s.turns, t)
}

// historyCopy returns a snapshot of the turns so callers cannot mutate
// session state.
func (s *session) historyCopy() []models.Turn {
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// NewSession creates a conversation session and returns its id
func (s *Service) NewSession(username string) string {
	sess := &session{
		id:        uuid.NewString(),
		username:  username,
		createdAt: time.Now().UTC(),
	}

	s.sessionsMu.Lock()
	s.sessions[sess.id] = sess
	s.sessionsMu.Unlock()

	s.logger.Debug().Str("session", sess.id).Str("username", username).Msg("Session created")
	return sess.id
}

// EndSession tears down a session and its history
func (s *Service) EndSession(sessionID string) {
	s.sessionsMu.Lock()
	delete(s.sessions, sessionID)
	s.sessionsMu.Unlock()
}

// SessionOwner returns the username a session belongs to
func (s *Service) SessionOwner(sessionID string) (string, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return "", err
	}
	return sess.username, nil
}

// History returns a copy of the session's turns
func (s *Service) History(sessionID string) ([]models.Turn, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.historyCopy(), nil
}

// LastChart returns the most recent chart spec produced in the session,
// or nil when none exists.
func (s *Service) LastChart(sessionID string) *models.ChartSpec {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.lastChart
}

func (s *Service) getSession(sessionID string) (*session, error) {
	s.sessionsMu.RLock()
	sess, ok := s.sessions[sessionID]
	s.sessionsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %q not found", sessionID)
	}
	return sess, nil
}
