package models

import (
	"math"
	"time"
)

// Session modes
const (
	ModeTest   = "test"
	ModeReview = "review"
)

// Session statuses
const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
)

// QuizSession is one run through an ordered set of vital points.
// CurrentIndex is the offset of the next unanswered question and always
// equals the number of answered question rows.
type QuizSession struct {
	ID           string
	Mode         string
	Status       string
	CurrentIndex int
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// SessionQuestion is one slot in a session's fixed question order.
// Answered rows double as the session's append-only answer log.
type SessionQuestion struct {
	ID            int64
	SessionID     string
	VitalPointID  int64
	QuestionOrder int
	IsAnswered    bool
	IsCorrect     bool
	SelectedName  string
	AnsweredAt    *time.Time
}

// TestResult is the final outcome of a completed session, stored once
// at completion time and never recomputed
type TestResult struct {
	ID             int64
	SessionID      string
	Mode           string
	TotalQuestions int
	CorrectCount   int
	IncorrectCount int
	Score          int
	CompletedAt    time.Time
}

// Score converts a correct/total pair into a 0-100 score.
// Ending a session before answering anything scores 0.
func Score(correctCount, totalQuestions int) int {
	if totalQuestions == 0 {
		return 0
	}
	return int(math.Round(float64(correctCount) / float64(totalQuestions) * 100))
}

// Score tiers, derived from fixed inclusive lower bounds
const (
	TierPerfect     = "perfect"
	TierExcellent   = "excellent"
	TierGreat       = "great"
	TierPass        = "pass"
	TierClose       = "close"
	TierNeedsReview = "needs-review"
)

// ScoreTier maps a score to its presentation tier
func ScoreTier(score int) string {
	switch {
	case score >= 100:
		return TierPerfect
	case score >= 90:
		return TierExcellent
	case score >= 80:
		return TierGreat
	case score >= 70:
		return TierPass
	case score >= 60:
		return TierClose
	default:
		return TierNeedsReview
	}
}
