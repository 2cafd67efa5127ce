package repository

import (
	"database/sql"
	"time"

	"vitalquiz/internal/database"
	"vitalquiz/internal/models"
)

// SessionRepository handles quiz session database operations
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *SessionRepository) WithTx(tx *database.Tx) *SessionRepository {
	return &SessionRepository{db: tx}
}

// Create inserts a session row together with its fixed question order
func (r *SessionRepository) Create(session *models.QuizSession, vitalPointIDs []int64) error {
	insertSession := `
		INSERT INTO quiz_sessions (id, mode, status, current_index, started_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(insertSession, session.ID, session.Mode, session.Status, session.CurrentIndex, session.StartedAt)
	if err != nil {
		return err
	}

	insertQuestion := `
		INSERT INTO session_questions (session_id, vital_point_id, question_order)
		VALUES (?, ?, ?)
	`
	for order, vitalPointID := range vitalPointIDs {
		if _, err := r.db.Exec(insertQuestion, session.ID, vitalPointID, order); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves a session, or nil if it does not exist
func (r *SessionRepository) GetByID(sessionID string) (*models.QuizSession, error) {
	query := `
		SELECT id, mode, status, current_index, started_at, completed_at
		FROM quiz_sessions
		WHERE id = ?
	`

	session := &models.QuizSession{}
	var completedAt sql.NullTime

	err := r.db.QueryRow(query, sessionID).Scan(
		&session.ID,
		&session.Mode,
		&session.Status,
		&session.CurrentIndex,
		&session.StartedAt,
		&completedAt,
	)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}

	return session, nil
}

// GetQuestions retrieves all question rows for a session in question order
func (r *SessionRepository) GetQuestions(sessionID string) ([]models.SessionQuestion, error) {
	query := `
		SELECT id, session_id, vital_point_id, question_order, is_answered,
		       is_correct, selected_name, answered_at
		FROM session_questions
		WHERE session_id = ?
		ORDER BY question_order ASC
	`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.SessionQuestion
	for rows.Next() {
		question, err := scanSessionQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *question)
	}

	return questions, rows.Err()
}

// GetQuestionAt retrieves the question row at the given order position,
// or nil when the position is past the end of the session
func (r *SessionRepository) GetQuestionAt(sessionID string, order int) (*models.SessionQuestion, error) {
	query := `
		SELECT id, session_id, vital_point_id, question_order, is_answered,
		       is_correct, selected_name, answered_at
		FROM session_questions
		WHERE session_id = ? AND question_order = ?
	`

	row := r.db.QueryRow(query, sessionID, order)

	question := &models.SessionQuestion{}
	var answeredAt sql.NullTime
	err := row.Scan(
		&question.ID,
		&question.SessionID,
		&question.VitalPointID,
		&question.QuestionOrder,
		&question.IsAnswered,
		&question.IsCorrect,
		&question.SelectedName,
		&answeredAt,
	)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if answeredAt.Valid {
		question.AnsweredAt = &answeredAt.Time
	}

	return question, nil
}

// CountQuestions returns the length of a session's question order
func (r *SessionRepository) CountQuestions(sessionID string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM session_questions WHERE session_id = ?"
	err := r.db.QueryRow(query, sessionID).Scan(&count)
	return count, err
}

// CountAnswered returns the number of answered questions in a session
func (r *SessionRepository) CountAnswered(sessionID string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM session_questions WHERE session_id = ? AND is_answered = ?"
	err := r.db.QueryRow(query, sessionID, true).Scan(&count)
	return count, err
}

// MarkAnswered records the answer on an unanswered question row.
// Returns false when the row was already answered, so a racing duplicate
// submission cannot overwrite the log.
func (r *SessionRepository) MarkAnswered(sessionID string, order int, isCorrect bool, selectedName string, now time.Time) (bool, error) {
	query := `
		UPDATE session_questions
		SET is_answered = ?, is_correct = ?, selected_name = ?, answered_at = ?
		WHERE session_id = ? AND question_order = ? AND is_answered = ?
	`

	result, err := r.db.Exec(query, true, isCorrect, selectedName, now, sessionID, order, false)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// AdvanceCursor moves the session cursor forward by one, guarded on the
// expected current value and on the session still being active. Returns
// false when another submission got there first or the session left the
// active state; either way the caller's transaction must not commit.
func (r *SessionRepository) AdvanceCursor(sessionID string, fromIndex int) (bool, error) {
	query := `
		UPDATE quiz_sessions
		SET current_index = current_index + 1
		WHERE id = ? AND current_index = ? AND status = ?
	`

	result, err := r.db.Exec(query, sessionID, fromIndex, models.StatusActive)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpdateStatus transitions a session between statuses, guarded on the
// expected current status. Returns false when the session was not in it.
func (r *SessionRepository) UpdateStatus(sessionID, fromStatus, toStatus string) (bool, error) {
	query := `
		UPDATE quiz_sessions
		SET status = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Exec(query, toStatus, sessionID, fromStatus)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Complete transitions any non-completed session to completed and stamps
// the completion time. Returns false when the session was already completed.
func (r *SessionRepository) Complete(sessionID string, now time.Time) (bool, error) {
	query := `
		UPDATE quiz_sessions
		SET status = ?, completed_at = ?
		WHERE id = ? AND status <> ?
	`

	result, err := r.db.Exec(query, models.StatusCompleted, now, sessionID, models.StatusCompleted)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanSessionQuestion(rows *sql.Rows) (*models.SessionQuestion, error) {
	question := &models.SessionQuestion{}
	var answeredAt sql.NullTime

	err := rows.Scan(
		&question.ID,
		&question.SessionID,
		&question.VitalPointID,
		&question.QuestionOrder,
		&question.IsAnswered,
		&question.IsCorrect,
		&question.SelectedName,
		&answeredAt,
	)
	if err != nil {
		return nil, err
	}

	if answeredAt.Valid {
		question.AnsweredAt = &answeredAt.Time
	}

	return question, nil
}
