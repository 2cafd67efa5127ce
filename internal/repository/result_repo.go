package repository

import (
	"vitalquiz/internal/database"
	"vitalquiz/internal/models"
)

// ResultRepository handles stored session result database operations
type ResultRepository struct {
	db database.DBTX
}

// NewResultRepository creates a new result repository
func NewResultRepository(db database.DBTX) *ResultRepository {
	return &ResultRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *ResultRepository) WithTx(tx *database.Tx) *ResultRepository {
	return &ResultRepository{db: tx}
}

// Create stores a session's final result
func (r *ResultRepository) Create(result *models.TestResult) error {
	query := `
		INSERT INTO test_results (session_id, mode, total_questions, correct_count,
		                          incorrect_count, score, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	id, err := r.db.ExecReturningID(query,
		result.SessionID,
		result.Mode,
		result.TotalQuestions,
		result.CorrectCount,
		result.IncorrectCount,
		result.Score,
		result.CompletedAt,
	)
	if err != nil {
		return err
	}

	result.ID = id
	return nil
}

// GetBySessionID retrieves the stored result for a session, or nil if the
// session has not been completed
func (r *ResultRepository) GetBySessionID(sessionID string) (*models.TestResult, error) {
	query := `
		SELECT id, session_id, mode, total_questions, correct_count,
		       incorrect_count, score, completed_at
		FROM test_results
		WHERE session_id = ?
	`

	result := &models.TestResult{}
	err := r.db.QueryRow(query, sessionID).Scan(
		&result.ID,
		&result.SessionID,
		&result.Mode,
		&result.TotalQuestions,
		&result.CorrectCount,
		&result.IncorrectCount,
		&result.Score,
		&result.CompletedAt,
	)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetRecent retrieves the most recent stored results for a mode, newest first
func (r *ResultRepository) GetRecent(mode string, limit int) ([]models.TestResult, error) {
	query := `
		SELECT id, session_id, mode, total_questions, correct_count,
		       incorrect_count, score, completed_at
		FROM test_results
		WHERE mode = ?
		ORDER BY completed_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, mode, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.TestResult
	for rows.Next() {
		var result models.TestResult
		err := rows.Scan(
			&result.ID,
			&result.SessionID,
			&result.Mode,
			&result.TotalQuestions,
			&result.CorrectCount,
			&result.IncorrectCount,
			&result.Score,
			&result.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, rows.Err()
}
