package memory

import (
	"context"
	"sort"
	"sync"

	"quizgate/internal/domain"
)

// ResultStore keeps submissions and leaderboard entries in memory.
// Used by unit tests and the no-database dev mode.
type ResultStore struct {
	mu          sync.RWMutex
	submissions map[string]domain.Submission
	entries     []domain.LeaderboardEntry
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		submissions: make(map[string]domain.Submission),
	}
}

func (s *ResultStore) SaveSubmission(_ context.Context, sub domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[sub.ID] = sub
	return nil
}

func (s *ResultStore) GetSubmission(_ context.Context, id string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return sub, nil
}

// DeleteSubmission exists so tests can break a leaderboard entry's
// submission reference after the fact.
func (s *ResultStore) DeleteSubmission(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submissions, id)
}

func (s *ResultStore) SaveEntry(_ context.Context, entry domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *ResultStore) ListEntries(_ context.Context) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedNewestFirst(s.entries), nil
}

func (s *ResultStore) ListEntriesByUser(_ context.Context, userName string) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]domain.LeaderboardEntry, 0)
	for _, entry := range s.entries {
		if entry.UserName == userName {
			matched = append(matched, entry)
		}
	}
	return sortedNewestFirst(matched), nil
}

func sortedNewestFirst(entries []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
