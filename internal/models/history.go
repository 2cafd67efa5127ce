package models

import "time"

// LearningHistory tracks cumulative answer counts for one vital point
type LearningHistory struct {
	VitalPointID   int64
	CorrectCount   int
	IncorrectCount int
	LastLearnedAt  *time.Time
}

// TotalAttempts returns the number of recorded answers
func (h *LearningHistory) TotalAttempts() int {
	return h.CorrectCount + h.IncorrectCount
}

// AccuracyRate returns the percentage of correct answers (0-100),
// or 0 when nothing has been attempted yet
func (h *LearningHistory) AccuracyRate() float64 {
	total := h.TotalAttempts()
	if total == 0 {
		return 0
	}
	return float64(h.CorrectCount) / float64(total) * 100
}

// HistoryEntry joins a vital point with its learning history.
// Entries for never-attempted points carry zero counts.
type HistoryEntry struct {
	VitalPoint VitalPoint
	History    LearningHistory
}

// GlobalStats aggregates learning history across the whole catalog
type GlobalStats struct {
	TotalAttempts  int
	TotalCorrect   int
	TotalIncorrect int
	AccuracyRate   float64
}
