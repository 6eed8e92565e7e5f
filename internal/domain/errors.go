package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz id does not resolve.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSubmissionNotFound indicates a submission id does not resolve.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrAccessDenied is returned when the supplied quiz password does not match.
	ErrAccessDenied = errors.New("invalid password")
	// ErrNoQuestions is returned for a quiz that cannot be attempted because it has no questions.
	ErrNoQuestions = errors.New("quiz has no questions")
	// ErrInvalidAnswerSet is returned when the submitted answers are missing
	// or their count does not match the quiz's question count.
	ErrInvalidAnswerSet = errors.New("answers are incomplete or invalid")
	// ErrInvalidChoice is returned when an answer is not one of the question's options.
	ErrInvalidChoice = errors.New("answer is not a valid choice")
	// ErrSessionClosed is returned on any mutation of a session that is
	// submitting or already closed.
	ErrSessionClosed = errors.New("session is closed")
	// ErrNotVerified is returned when an action requires a granted access check first.
	ErrNotVerified = errors.New("quiz access not verified")
	// ErrSubmitInFlight is returned when a submission is already outstanding
	// for the session; the duplicate attempt is a no-op.
	ErrSubmitInFlight = errors.New("submission already in flight")
	// ErrConfirmationRequired is returned when a manual submit was not
	// explicitly confirmed.
	ErrConfirmationRequired = errors.New("submission requires confirmation")
)
