package handlers

import (
	"net/http"

	"vitalquiz/internal/service"
)

// HistoryHandler handles learning history and statistics HTTP requests
type HistoryHandler struct {
	statsService *service.StatsService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(statsService *service.StatsService) *HistoryHandler {
	return &HistoryHandler{statsService: statsService}
}

// GetAllHistory returns the full catalog joined with learning history
func (h *HistoryHandler) GetAllHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.statsService.AllHistory()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "failed to load learning history", err)
		return
	}

	respondJSON(w, http.StatusOK, toHistoryEntryListJSON(entries))
}

type globalStatsJSON struct {
	TotalAttempts  int     `json:"total_attempts"`
	TotalCorrect   int     `json:"total_correct"`
	TotalIncorrect int     `json:"total_incorrect"`
	AccuracyRate   float64 `json:"accuracy_rate"`
}

// GetStatistics returns global answer totals and accuracy
func (h *HistoryHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GlobalStats()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "failed to load statistics", err)
		return
	}

	respondJSON(w, http.StatusOK, globalStatsJSON{
		TotalAttempts:  stats.TotalAttempts,
		TotalCorrect:   stats.TotalCorrect,
		TotalIncorrect: stats.TotalIncorrect,
		AccuracyRate:   stats.AccuracyRate,
	})
}

// GetWeakPoints returns vital points with incorrect answers, weakest first
func (h *HistoryHandler) GetWeakPoints(w http.ResponseWriter, r *http.Request) {
	entries, err := h.statsService.WeakPoints()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "failed to load weak points", err)
		return
	}

	respondJSON(w, http.StatusOK, toHistoryEntryListJSON(entries))
}

// GetTestResults returns recent completed test-mode results, newest first
func (h *HistoryHandler) GetTestResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.statsService.TestResults()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "failed to load test results", err)
		return
	}

	list := make([]resultJSON, len(results))
	for i, result := range results {
		list[i] = toResultJSON(result)
	}
	respondJSON(w, http.StatusOK, list)
}
