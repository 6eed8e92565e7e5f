package postgres

import (
	"context"
	"errors"
	"fmt"

	"quizgate/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultStore is the authoritative store for submissions and
// leaderboard entries. Each write is a self-contained insert; there is
// no read-modify-write on shared rows.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveSubmission(ctx context.Context, sub domain.Submission) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO submissions (id, quiz_id, user_name, answers, score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.QuizID, sub.UserName, sub.Answers, sub.Score, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *ResultStore) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	var sub domain.Submission
	err := s.pool.QueryRow(ctx,
		`SELECT id, quiz_id, user_name, answers, score, created_at FROM submissions WHERE id=$1`, id).
		Scan(&sub.ID, &sub.QuizID, &sub.UserName, &sub.Answers, &sub.Score, &sub.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

func (s *ResultStore) SaveEntry(ctx context.Context, entry domain.LeaderboardEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO leaderboard_entries (id, quiz_id, user_name, score, submission_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.QuizID, entry.UserName, entry.Score, entry.SubmissionID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert leaderboard entry: %w", err)
	}
	return nil
}

func (s *ResultStore) ListEntries(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.listEntries(ctx,
		`SELECT id, quiz_id, user_name, score, submission_id, created_at
		 FROM leaderboard_entries ORDER BY created_at DESC`)
}

func (s *ResultStore) ListEntriesByUser(ctx context.Context, userName string) ([]domain.LeaderboardEntry, error) {
	return s.listEntries(ctx,
		`SELECT id, quiz_id, user_name, score, submission_id, created_at
		 FROM leaderboard_entries WHERE user_name=$1 ORDER BY created_at DESC`, userName)
}

func (s *ResultStore) listEntries(ctx context.Context, query string, args ...interface{}) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0)
	for rows.Next() {
		var entry domain.LeaderboardEntry
		if err := rows.Scan(&entry.ID, &entry.QuizID, &entry.UserName, &entry.Score, &entry.SubmissionID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
