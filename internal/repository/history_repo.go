package repository

import (
	"database/sql"
	"time"

	"vitalquiz/internal/database"
	"vitalquiz/internal/models"
)

// HistoryRepository handles learning history database operations
type HistoryRepository struct {
	db database.DBTX
}

// NewHistoryRepository creates a new learning history repository
func NewHistoryRepository(db database.DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *HistoryRepository) WithTx(tx *database.Tx) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

// Increment records one answer for a vital point, creating the history row
// on first touch. The relative update keeps concurrent sessions from losing
// increments: the store serializes writes per row.
func (r *HistoryRepository) Increment(vitalPointID int64, correct bool, now time.Time) error {
	column := "incorrect_count"
	if correct {
		column = "correct_count"
	}

	update := `
		UPDATE learning_history
		SET ` + column + ` = ` + column + ` + 1, last_learned_at = ?
		WHERE vital_point_id = ?
	`

	result, err := r.db.Exec(update, now, vitalPointID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// First answer for this vital point
	correctCount, incorrectCount := 0, 1
	if correct {
		correctCount, incorrectCount = 1, 0
	}

	insert := `
		INSERT INTO learning_history (vital_point_id, correct_count, incorrect_count, last_learned_at)
		VALUES (?, ?, ?, ?)
	`
	_, err = r.db.Exec(insert, vitalPointID, correctCount, incorrectCount, now)
	return err
}

// Get retrieves the history row for a vital point, zero-valued when absent
func (r *HistoryRepository) Get(vitalPointID int64) (*models.LearningHistory, error) {
	query := `
		SELECT vital_point_id, correct_count, incorrect_count, last_learned_at
		FROM learning_history
		WHERE vital_point_id = ?
	`

	history := &models.LearningHistory{}
	var lastLearnedAt sql.NullTime

	err := r.db.QueryRow(query, vitalPointID).Scan(
		&history.VitalPointID,
		&history.CorrectCount,
		&history.IncorrectCount,
		&lastLearnedAt,
	)
	if isNoRows(err) {
		return &models.LearningHistory{VitalPointID: vitalPointID}, nil
	}
	if err != nil {
		return nil, err
	}

	if lastLearnedAt.Valid {
		history.LastLearnedAt = &lastLearnedAt.Time
	}

	return history, nil
}

// GetWeakPoints retrieves entries with at least one incorrect answer,
// weakest first: ascending accuracy rate, then descending incorrect count,
// then catalog order. Review-mode sequencing uses the same ordering.
func (r *HistoryRepository) GetWeakPoints() ([]models.HistoryEntry, error) {
	query := `
		SELECT v.id, v.number, v.name, v.reading, v.category, v.image_file,
		       h.correct_count, h.incorrect_count, h.last_learned_at
		FROM learning_history h
		JOIN vital_points v ON v.id = h.vital_point_id
		WHERE h.incorrect_count > 0
		ORDER BY (h.correct_count * 1.0) / (h.correct_count + h.incorrect_count) ASC,
		         h.incorrect_count DESC,
		         v.id ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistoryEntries(rows)
}

// GetAllJoined retrieves every catalog item with its history in catalog
// order. Items never attempted carry zero counts.
func (r *HistoryRepository) GetAllJoined() ([]models.HistoryEntry, error) {
	query := `
		SELECT v.id, v.number, v.name, v.reading, v.category, v.image_file,
		       COALESCE(h.correct_count, 0), COALESCE(h.incorrect_count, 0), h.last_learned_at
		FROM vital_points v
		LEFT JOIN learning_history h ON h.vital_point_id = v.id
		ORDER BY v.id ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistoryEntries(rows)
}

// GetGlobalStats aggregates totals over all history rows
func (r *HistoryRepository) GetGlobalStats() (*models.GlobalStats, error) {
	query := `
		SELECT COALESCE(SUM(correct_count), 0), COALESCE(SUM(incorrect_count), 0)
		FROM learning_history
	`

	stats := &models.GlobalStats{}
	err := r.db.QueryRow(query).Scan(&stats.TotalCorrect, &stats.TotalIncorrect)
	if err != nil {
		return nil, err
	}

	stats.TotalAttempts = stats.TotalCorrect + stats.TotalIncorrect
	if stats.TotalAttempts > 0 {
		stats.AccuracyRate = float64(stats.TotalCorrect) / float64(stats.TotalAttempts) * 100
	}

	return stats, nil
}

func scanHistoryEntries(rows *sql.Rows) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		var lastLearnedAt sql.NullTime

		err := rows.Scan(
			&entry.VitalPoint.ID,
			&entry.VitalPoint.Number,
			&entry.VitalPoint.Name,
			&entry.VitalPoint.Reading,
			&entry.VitalPoint.Category,
			&entry.VitalPoint.ImageFile,
			&entry.History.CorrectCount,
			&entry.History.IncorrectCount,
			&lastLearnedAt,
		)
		if err != nil {
			return nil, err
		}

		entry.History.VitalPointID = entry.VitalPoint.ID
		if lastLearnedAt.Valid {
			entry.History.LastLearnedAt = &lastLearnedAt.Time
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
