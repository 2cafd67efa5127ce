package handlers

import (
	"time"

	"vitalquiz/internal/models"
)

// vitalPointJSON is the wire form of a catalog entry
type vitalPointJSON struct {
	ID        int64  `json:"id"`
	Number    string `json:"number"`
	Name      string `json:"name"`
	Reading   string `json:"reading"`
	Category  string `json:"category"`
	ImageFile string `json:"image_file"`
}

func toVitalPointJSON(vp models.VitalPoint) vitalPointJSON {
	return vitalPointJSON{
		ID:        vp.ID,
		Number:    vp.Number,
		Name:      vp.Name,
		Reading:   vp.Reading,
		Category:  vp.Category,
		ImageFile: vp.ImageFile,
	}
}

// historyEntryJSON is the wire form of a catalog entry joined with its history
type historyEntryJSON struct {
	VitalPoint     vitalPointJSON `json:"vital_point"`
	CorrectCount   int            `json:"correct_count"`
	IncorrectCount int            `json:"incorrect_count"`
	AccuracyRate   float64        `json:"accuracy_rate"`
	LastLearnedAt  *time.Time     `json:"last_learned_at"`
}

func toHistoryEntryJSON(entry models.HistoryEntry) historyEntryJSON {
	return historyEntryJSON{
		VitalPoint:     toVitalPointJSON(entry.VitalPoint),
		CorrectCount:   entry.History.CorrectCount,
		IncorrectCount: entry.History.IncorrectCount,
		AccuracyRate:   entry.History.AccuracyRate(),
		LastLearnedAt:  entry.History.LastLearnedAt,
	}
}

func toHistoryEntryListJSON(entries []models.HistoryEntry) []historyEntryJSON {
	list := make([]historyEntryJSON, len(entries))
	for i, entry := range entries {
		list[i] = toHistoryEntryJSON(entry)
	}
	return list
}

// resultJSON is the wire form of a stored session result. Tier is derived
// at response time; it is presentation metadata, never stored.
type resultJSON struct {
	SessionID      string    `json:"session_id"`
	Mode           string    `json:"mode"`
	TotalQuestions int       `json:"total_questions"`
	CorrectCount   int       `json:"correct_count"`
	IncorrectCount int       `json:"incorrect_count"`
	Score          int       `json:"score"`
	Tier           string    `json:"tier"`
	CompletedAt    time.Time `json:"completed_at"`
}

func toResultJSON(result models.TestResult) resultJSON {
	return resultJSON{
		SessionID:      result.SessionID,
		Mode:           result.Mode,
		TotalQuestions: result.TotalQuestions,
		CorrectCount:   result.CorrectCount,
		IncorrectCount: result.IncorrectCount,
		Score:          result.Score,
		Tier:           models.ScoreTier(result.Score),
		CompletedAt:    result.CompletedAt,
	}
}
