package service

import (
	"vitalquiz/internal/models"
	"vitalquiz/internal/repository"
)

// StatsService serves read-only projections over the learning history
// and stored session results
type StatsService struct {
	history     *repository.HistoryRepository
	results     *repository.ResultRepository
	resultLimit int
}

// NewStatsService creates a new statistics service. resultLimit caps how
// many recent test results are returned.
func NewStatsService(history *repository.HistoryRepository, results *repository.ResultRepository, resultLimit int) *StatsService {
	return &StatsService{
		history:     history,
		results:     results,
		resultLimit: resultLimit,
	}
}

// GlobalStats returns answer totals and the overall accuracy percentage
func (s *StatsService) GlobalStats() (*models.GlobalStats, error) {
	return s.history.GetGlobalStats()
}

// WeakPoints returns every vital point with at least one incorrect answer,
// weakest first. The ordering is shared with review-mode sequencing.
func (s *StatsService) WeakPoints() ([]models.HistoryEntry, error) {
	return s.history.GetWeakPoints()
}

// AllHistory returns the full catalog joined with learning history in
// catalog order, zero counts for never-attempted points
func (s *StatsService) AllHistory() ([]models.HistoryEntry, error) {
	return s.history.GetAllJoined()
}

// TestResults returns the most recent completed test-mode results, newest first
func (s *StatsService) TestResults() ([]models.TestResult, error) {
	return s.results.GetRecent(models.ModeTest, s.resultLimit)
}
