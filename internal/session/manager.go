package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"quizgate/internal/domain"
)

// Phase is the lifecycle state of an attempt.
type Phase string

const (
	PhaseLocked     Phase = "locked"
	PhaseVerifying  Phase = "verifying"
	PhaseInProgress Phase = "in_progress"
	PhaseSubmitting Phase = "submitting"
	PhaseClosed     Phase = "closed"
)

// Backend is the server surface the session calls into. The in-process
// AssessmentService satisfies it directly; a remote client would wrap
// the HTTP endpoints.
type Backend interface {
	ValidateAccess(ctx context.Context, quizID, password string) error
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Submit(ctx context.Context, quizID, userName string, answers []string) (domain.Submission, error)
}

// Snapshot is an immutable view of the attempt for subscribers.
type Snapshot struct {
	QuizID           string   `json:"quizId"`
	Phase            Phase    `json:"phase"`
	UserName         string   `json:"userName"`
	Cursor           int      `json:"cursor"`
	Answers          []string `json:"answers"`
	RemainingSeconds int      `json:"remainingSeconds"`
	Score            int      `json:"score"`
}

// Manager owns the lifecycle of a single attempt: access verification,
// the answer buffer and cursor, the countdown, and the one-shot submit.
// Every mutation persists the attempt record so a process restart
// resumes the exact same state. Timer ticks and user events are
// serialized behind one mutex; the submit guard is a single atomic
// check-and-set so at most one of a user submit and a deadline submit
// reaches the backend.
type Manager struct {
	quizID  string
	backend Backend
	store   Store

	mu          sync.Mutex
	phase       Phase
	quiz        domain.Quiz
	rec         Record
	score       int
	subscribers map[chan Snapshot]struct{}

	submitGuard atomic.Bool
}

// NewManager creates the session for one quiz attempt, rehydrating any
// record a previous run persisted for this quiz id.
func NewManager(ctx context.Context, quizID string, backend Backend, store Store) (*Manager, error) {
	m := &Manager{
		quizID:      quizID,
		backend:     backend,
		store:       store,
		phase:       PhaseLocked,
		subscribers: make(map[chan Snapshot]struct{}),
	}
	rec, ok, err := store.Load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if ok {
		m.rec = rec
	}
	return m, nil
}

// Unlock verifies the quiz password and, on grant, loads the quiz
// content and enters InProgress. On denial the session returns to
// Locked untouched.
func (m *Manager) Unlock(ctx context.Context, userName, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseLocked {
		return domain.ErrSessionClosed
	}

	m.phase = PhaseVerifying
	if err := m.backend.ValidateAccess(ctx, m.quizID, password); err != nil {
		m.phase = PhaseLocked
		return err
	}
	m.rec.UserName = userName
	m.rec.Verified = true
	return m.startLocked(ctx)
}

// Resume re-enters InProgress from a persisted record without
// re-checking the password; the stored verified flag stands in for the
// original grant, as on a page reload.
func (m *Manager) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseLocked {
		return domain.ErrSessionClosed
	}
	if !m.rec.Verified {
		return domain.ErrNotVerified
	}
	return m.startLocked(ctx)
}

// startLocked fetches content and reconciles the record with it.
// Restored answers and remaining time win over the quiz defaults.
func (m *Manager) startLocked(ctx context.Context) error {
	quiz, err := m.backend.GetQuiz(ctx, m.quizID)
	if err != nil {
		m.phase = PhaseLocked
		return err
	}
	m.quiz = quiz

	if len(m.rec.Answers) != len(quiz.Questions) {
		m.rec.Answers = make([]string, len(quiz.Questions))
	}
	if m.rec.RemainingSeconds <= 0 {
		m.rec.RemainingSeconds = int(quiz.TimeBudget().Seconds())
	}
	if m.rec.Cursor < 0 {
		m.rec.Cursor = 0
	}
	if m.rec.Cursor > len(quiz.Questions)-1 {
		m.rec.Cursor = len(quiz.Questions) - 1
	}

	m.phase = PhaseInProgress
	m.persistLocked(ctx)
	m.broadcastLocked()
	return nil
}

// Answer sets the buffer slot at index to one of that question's
// options. Mutations are rejected once the session is submitting or
// closed.
func (m *Manager) Answer(ctx context.Context, index int, choice string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseInProgress {
		return domain.ErrSessionClosed
	}
	if index < 0 || index >= len(m.rec.Answers) {
		return domain.ErrInvalidChoice
	}
	question := m.quiz.Questions[index]
	valid := false
	for _, opt := range question.Options {
		if opt == choice {
			valid = true
			break
		}
	}
	if !valid {
		return domain.ErrInvalidChoice
	}
	m.rec.Answers[index] = choice
	m.persistLocked(ctx)
	m.broadcastLocked()
	return nil
}

// AnswerCurrent answers the question under the cursor.
func (m *Manager) AnswerCurrent(ctx context.Context, choice string) error {
	m.mu.Lock()
	cursor := m.rec.Cursor
	m.mu.Unlock()
	return m.Answer(ctx, cursor, choice)
}

// SetCursor moves to an explicit question index. Out-of-range targets
// and moves after submission are no-ops.
func (m *Manager) SetCursor(ctx context.Context, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseInProgress {
		return
	}
	if index < 0 || index >= len(m.rec.Answers) || index == m.rec.Cursor {
		return
	}
	m.rec.Cursor = index
	m.persistLocked(ctx)
	m.broadcastLocked()
}

// Move shifts the cursor by delta. The cursor never wraps; moving past
// either end is a no-op.
func (m *Manager) Move(ctx context.Context, delta int) {
	m.mu.Lock()
	target := m.rec.Cursor + delta
	m.mu.Unlock()
	m.SetCursor(ctx, target)
}

// Submit sends the buffered answers to the backend. Manual submission
// requires explicit confirmation; the deadline path bypasses it but
// shares the same one-shot guard, so only one submission ever reaches
// the backend. On backend failure the guard is released and the
// session stays InProgress so the user can retry.
func (m *Manager) Submit(ctx context.Context, confirmed bool) (int, error) {
	if !confirmed {
		return 0, domain.ErrConfirmationRequired
	}
	return m.submit(ctx)
}

func (m *Manager) submit(ctx context.Context) (int, error) {
	if !m.submitGuard.CompareAndSwap(false, true) {
		return 0, domain.ErrSubmitInFlight
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseInProgress {
		m.submitGuard.Store(false)
		return 0, domain.ErrSessionClosed
	}
	m.phase = PhaseSubmitting
	m.broadcastLocked()

	sub, err := m.backend.Submit(ctx, m.quizID, m.rec.UserName, m.rec.Answers)
	if err != nil {
		m.phase = PhaseInProgress
		m.submitGuard.Store(false)
		m.broadcastLocked()
		return 0, err
	}

	m.score = sub.Score
	m.phase = PhaseClosed
	// the attempt is over; best-effort removal of the resumable record
	_ = m.store.Clear(ctx, m.quizID)
	m.broadcastLocked()
	return sub.Score, nil
}

// Tick advances the countdown by one second. When the remaining time
// reaches zero the deadline submit fires, without the confirmation
// step. Ticks after submission started are no-ops.
func (m *Manager) Tick(ctx context.Context) {
	m.mu.Lock()
	if m.phase != PhaseInProgress {
		m.mu.Unlock()
		return
	}
	if m.rec.RemainingSeconds > 0 {
		m.rec.RemainingSeconds--
	}
	remaining := m.rec.RemainingSeconds
	m.persistLocked(ctx)
	m.broadcastLocked()
	m.mu.Unlock()

	if remaining <= 0 {
		_, _ = m.submit(ctx)
	}
}

// RunCountdown drives Tick from a one-second ticker until the deadline
// fires, the session leaves InProgress, or ctx is canceled.
func (m *Manager) RunCountdown(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick(ctx)
			if m.Phase() != PhaseInProgress || m.Remaining() <= 0 {
				return
			}
		}
	}
}

// Phase returns the current lifecycle state.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Remaining returns the countdown value in seconds.
func (m *Manager) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.RemainingSeconds
}

// Cursor returns the current question index.
func (m *Manager) Cursor() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.Cursor
}

// Quiz returns the loaded quiz content. Zero value until unlocked.
func (m *Manager) Quiz() domain.Quiz {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quiz
}

// Score returns the server-confirmed score; valid once Closed.
func (m *Manager) Score() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

// Snapshot returns a copy of the full attempt state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every state
// change. The caller must invoke the returned cancel function to avoid leaks.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	initial := m.snapshotLocked()
	m.mu.Unlock()

	ch <- initial

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

func (m *Manager) broadcastLocked() {
	snap := m.snapshotLocked()
	for ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot so a slow reader never blocks a transition
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	answers := make([]string, len(m.rec.Answers))
	copy(answers, m.rec.Answers)
	return Snapshot{
		QuizID:           m.quizID,
		Phase:            m.phase,
		UserName:         m.rec.UserName,
		Cursor:           m.rec.Cursor,
		Answers:          answers,
		RemainingSeconds: m.rec.RemainingSeconds,
		Score:            m.score,
	}
}

// persistLocked saves the record best-effort; a failed save costs at
// most the progress since the previous save, it never blocks the attempt.
func (m *Manager) persistLocked(ctx context.Context) {
	_ = m.store.Save(ctx, m.quizID, m.rec)
}
