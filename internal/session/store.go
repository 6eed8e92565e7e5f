package session

import "context"

// Record is the durable form of one in-progress attempt, keyed by quiz
// id. Its presence and shape is the whole resumability contract: a
// restart restores the exact answers, cursor and remaining time that
// were last saved. RemainingSeconds is the persisted quantity itself,
// not a start timestamp, so the countdown neither rewinds nor
// fast-forwards across a reload.
type Record struct {
	UserName         string   `json:"userName"`
	Verified         bool     `json:"verified"`
	Answers          []string `json:"answers"`
	Cursor           int      `json:"cursor"`
	RemainingSeconds int      `json:"remainingSeconds"`
}

// Store is durable local storage for attempt records. One record per
// quiz id; concurrent attempts on the same id overwrite each other
// (last write wins).
type Store interface {
	Save(ctx context.Context, quizID string, rec Record) error
	Load(ctx context.Context, quizID string) (Record, bool, error)
	Clear(ctx context.Context, quizID string) error
}
