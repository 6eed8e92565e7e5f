package domain

import "time"

// AnonymousName is recorded when a submission carries no holder name.
const AnonymousName = "Anonymous"

// DefaultTimerMinutes applies when a quiz has no time budget set.
const DefaultTimerMinutes = 1

// Question models an MCQ question with one designated correct answer.
type Question struct {
	Text          string   `json:"questionText" bson:"questionText"`
	Options       []string `json:"options" bson:"options"`
	CorrectAnswer string   `json:"correctAnswer" bson:"correctAnswer"`
}

// Quiz is a password-gated, timed set of questions. Content is
// immutable while attempts are in flight.
type Quiz struct {
	ID           string     `json:"id" bson:"_id,omitempty"`
	Title        string     `json:"title" bson:"title"`
	Password     string     `json:"password" bson:"password"`
	TimerMinutes int        `json:"timer" bson:"timer"`
	Questions    []Question `json:"questions" bson:"questions"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
}

// TimeBudget returns the per-attempt allowance. Quizzes without an
// explicit timer get one minute.
func (q Quiz) TimeBudget() time.Duration {
	minutes := q.TimerMinutes
	if minutes <= 0 {
		minutes = DefaultTimerMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// Submission is the immutable record of one accepted attempt. Answers
// keep their submitted order; an empty string marks an unanswered slot.
type Submission struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	QuizID    string    `json:"quizId" bson:"quizId"`
	UserName  string    `json:"userName" bson:"userName"`
	Answers   []string  `json:"answers" bson:"answers"`
	Score     int       `json:"score" bson:"score"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// LeaderboardEntry denormalizes a submission's score for fast reads.
// Quiz and submission references are non-owning; read paths filter
// entries whose references no longer resolve.
type LeaderboardEntry struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	QuizID       string    `json:"quizId" bson:"quizId"`
	UserName     string    `json:"userName" bson:"userName"`
	Score        int       `json:"score" bson:"score"`
	SubmissionID string    `json:"submissionId" bson:"submissionId"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// LeaderboardRow is the display view of an entry, joined with the quiz
// title it was scored against.
type LeaderboardRow struct {
	UserName     string    `json:"userName"`
	Score        int       `json:"score"`
	QuizTitle    string    `json:"quizTitle"`
	SubmissionID string    `json:"submissionId"`
	CreatedAt    time.Time `json:"createdAt"`
}
