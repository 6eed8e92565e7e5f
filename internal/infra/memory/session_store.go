package memory

import (
	"context"
	"sync"

	"quizgate/internal/session"
)

// SessionStore is an in-memory implementation of session.Store, one
// attempt record per quiz id.
type SessionStore struct {
	mu      sync.RWMutex
	records map[string]session.Record
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		records: make(map[string]session.Record),
	}
}

func (s *SessionStore) Save(_ context.Context, quizID string, rec session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// copy the answer buffer so later mutations don't leak into the store
	answers := make([]string, len(rec.Answers))
	copy(answers, rec.Answers)
	rec.Answers = answers
	s.records[quizID] = rec
	return nil
}

func (s *SessionStore) Load(_ context.Context, quizID string) (session.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[quizID]
	if !ok {
		return session.Record{}, false, nil
	}
	answers := make([]string, len(rec.Answers))
	copy(answers, rec.Answers)
	rec.Answers = answers
	return rec, true, nil
}

func (s *SessionStore) Clear(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, quizID)
	return nil
}
