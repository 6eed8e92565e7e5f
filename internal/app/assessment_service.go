package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quizgate/internal/domain"

	"github.com/google/uuid"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizLister enumerates all quizzes, newest first. Implemented by the
// backing loaders; caches stay out of the listing path.
type QuizLister interface {
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// ResultStore persists submissions and leaderboard entries and serves
// the leaderboard read side.
type ResultStore interface {
	SaveSubmission(ctx context.Context, sub domain.Submission) error
	GetSubmission(ctx context.Context, id string) (domain.Submission, error)
	SaveEntry(ctx context.Context, entry domain.LeaderboardEntry) error
	ListEntries(ctx context.Context) ([]domain.LeaderboardEntry, error)
	ListEntriesByUser(ctx context.Context, userName string) ([]domain.LeaderboardEntry, error)
}

// AssessmentService contains the server-side quiz use cases: access
// gating, content retrieval, authoritative scoring, and leaderboard
// queries.
type AssessmentService struct {
	quizzes QuizRepository
	lister  QuizLister
	results ResultStore
	now     func() time.Time
	newID   func() string
}

func NewAssessmentService(quizzes QuizRepository, lister QuizLister, results ResultStore) *AssessmentService {
	return &AssessmentService{
		quizzes: quizzes,
		lister:  lister,
		results: results,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// NewAssessmentServiceWithClock is test-only for deterministic timestamps and ids.
func NewAssessmentServiceWithClock(quizzes QuizRepository, lister QuizLister, results ResultStore, now func() time.Time, newID func() string) *AssessmentService {
	s := NewAssessmentService(quizzes, lister, results)
	if now != nil {
		s.now = now
	}
	if newID != nil {
		s.newID = newID
	}
	return s
}

// ValidateAccess checks the supplied quiz password. The comparison is
// case-sensitive after trimming surrounding whitespace on both sides.
// Read-only; granting access issues no token.
func (s *AssessmentService) ValidateAccess(ctx context.Context, quizID, password string) error {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(quiz.Password) != strings.TrimSpace(password) {
		return domain.ErrAccessDenied
	}
	return nil
}

// GetQuiz returns the full quiz content, including correct answers.
// A quiz without questions is not attemptable.
func (s *AssessmentService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if len(quiz.Questions) == 0 {
		return domain.Quiz{}, domain.ErrNoQuestions
	}
	return quiz, nil
}

// ListQuizzes returns every quiz, newest first.
func (s *AssessmentService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	if s.lister == nil {
		return []domain.Quiz{}, nil
	}
	return s.lister.ListQuizzes(ctx)
}

// Submit scores the answer set against the stored quiz and records the
// submission plus its leaderboard entry. The answer set must have one
// slot per question; empty slots score zero. If the entry write fails
// after the submission write succeeded, the error is still surfaced:
// the submission exists and a retry may duplicate it.
func (s *AssessmentService) Submit(ctx context.Context, quizID, userName string, answers []string) (domain.Submission, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Submission{}, err
	}
	if answers == nil || len(answers) != len(quiz.Questions) {
		return domain.Submission{}, domain.ErrInvalidAnswerSet
	}

	name := strings.TrimSpace(userName)
	if name == "" {
		name = domain.AnonymousName
	}

	now := s.now()
	sub := domain.Submission{
		ID:        s.newID(),
		QuizID:    quizID,
		UserName:  name,
		Answers:   answers,
		Score:     scoreAnswers(quiz, answers),
		CreatedAt: now,
	}
	if err := s.results.SaveSubmission(ctx, sub); err != nil {
		return domain.Submission{}, fmt.Errorf("save submission: %w", err)
	}

	entry := domain.LeaderboardEntry{
		ID:           s.newID(),
		QuizID:       quizID,
		UserName:     name,
		Score:        sub.Score,
		SubmissionID: sub.ID,
		CreatedAt:    now,
	}
	if err := s.results.SaveEntry(ctx, entry); err != nil {
		return domain.Submission{}, fmt.Errorf("save leaderboard entry: %w", err)
	}
	return sub, nil
}

// Leaderboard returns all recorded entries newest first, joined with
// quiz titles. Entries whose quiz or submission no longer resolves are
// filtered out.
func (s *AssessmentService) Leaderboard(ctx context.Context) ([]domain.LeaderboardRow, error) {
	entries, err := s.results.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolveRows(ctx, entries)
}

// LeaderboardByUser is Leaderboard scoped to an exact holder name.
func (s *AssessmentService) LeaderboardByUser(ctx context.Context, userName string) ([]domain.LeaderboardRow, error) {
	entries, err := s.results.ListEntriesByUser(ctx, userName)
	if err != nil {
		return nil, err
	}
	return s.resolveRows(ctx, entries)
}

func (s *AssessmentService) resolveRows(ctx context.Context, entries []domain.LeaderboardEntry) ([]domain.LeaderboardRow, error) {
	rows := make([]domain.LeaderboardRow, 0, len(entries))
	for _, entry := range entries {
		quiz, err := s.quizzes.GetQuiz(ctx, entry.QuizID)
		if err != nil {
			// deleted quiz: skip the entry rather than failing the listing
			continue
		}
		if _, err := s.results.GetSubmission(ctx, entry.SubmissionID); err != nil {
			continue
		}
		rows = append(rows, domain.LeaderboardRow{
			UserName:     entry.UserName,
			Score:        entry.Score,
			QuizTitle:    quiz.Title,
			SubmissionID: entry.SubmissionID,
			CreatedAt:    entry.CreatedAt,
		})
	}
	return rows, nil
}

// scoreAnswers counts exact matches against each question's designated
// correct answer. Empty slots and non-matching strings contribute zero;
// there is no negative marking.
func scoreAnswers(quiz domain.Quiz, answers []string) int {
	score := 0
	for i, question := range quiz.Questions {
		if answers[i] != "" && answers[i] == question.CorrectAnswer {
			score++
		}
	}
	return score
}
