package service

import "errors"

// Failure conditions surfaced to callers. Handlers distinguish them with
// errors.Is to pick response codes; none are retried internally.
var (
	// ErrSessionNotFound means the session id is unknown
	ErrSessionNotFound = errors.New("session not found")

	// ErrVitalPointNotFound means the vital point id is unknown
	ErrVitalPointNotFound = errors.New("vital point not found")

	// ErrInvalidMode means the requested session mode is not supported
	ErrInvalidMode = errors.New("invalid session mode")

	// ErrSessionNotActive means the operation requires an active session
	ErrSessionNotActive = errors.New("session is not active")

	// ErrSessionNotPaused means resume was called on a session that is not paused
	ErrSessionNotPaused = errors.New("session is not paused")

	// ErrSessionCompleted means the session has already been completed
	ErrSessionCompleted = errors.New("session already completed")

	// ErrQuestionMismatch means the submitted question is not the current one
	ErrQuestionMismatch = errors.New("submitted question does not match the current question")

	// ErrStaleSubmission means a concurrent submission advanced the session first
	ErrStaleSubmission = errors.New("answer submission is stale")

	// ErrNothingToReview means no vital point has an incorrect answer on record
	ErrNothingToReview = errors.New("nothing to review")

	// ErrEmptyCatalog means the vital point catalog has not been loaded
	ErrEmptyCatalog = errors.New("vital point catalog is empty")
)
