package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"vitalquiz/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string            `json:"version"`
	ExportedAt   time.Time         `json:"exported_at"`
	DatabaseType string            `json:"database_type"`
	VitalPoints  []VitalPointBackup `json:"vital_points"`
	History      []HistoryBackup   `json:"learning_history"`
	Sessions     []SessionBackup   `json:"sessions"`
	TestResults  []ResultBackup    `json:"test_results"`
}

// VitalPointBackup represents a catalog entry for backup
type VitalPointBackup struct {
	ID        int64  `json:"id"`
	Number    string `json:"number"`
	Name      string `json:"name"`
	Reading   string `json:"reading"`
	Category  string `json:"category"`
	ImageFile string `json:"image_file"`
}

// HistoryBackup represents a learning history row for backup
type HistoryBackup struct {
	VitalPointID   int64      `json:"vital_point_id"`
	CorrectCount   int        `json:"correct_count"`
	IncorrectCount int        `json:"incorrect_count"`
	LastLearnedAt  *time.Time `json:"last_learned_at"`
}

// SessionBackup represents a quiz session with its question rows
type SessionBackup struct {
	ID           string           `json:"id"`
	Mode         string           `json:"mode"`
	Status       string           `json:"status"`
	CurrentIndex int              `json:"current_index"`
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  *time.Time       `json:"completed_at"`
	Questions    []QuestionBackup `json:"questions"`
}

// QuestionBackup represents one session question row
type QuestionBackup struct {
	VitalPointID  int64      `json:"vital_point_id"`
	QuestionOrder int        `json:"question_order"`
	IsAnswered    bool       `json:"is_answered"`
	IsCorrect     bool       `json:"is_correct"`
	SelectedName  string     `json:"selected_name"`
	AnsweredAt    *time.Time `json:"answered_at"`
}

// ResultBackup represents a stored session result
type ResultBackup struct {
	SessionID      string    `json:"session_id"`
	Mode           string    `json:"mode"`
	TotalQuestions int       `json:"total_questions"`
	CorrectCount   int       `json:"correct_count"`
	IncorrectCount int       `json:"incorrect_count"`
	Score          int       `json:"score"`
	CompletedAt    time.Time `json:"completed_at"`
}

// BackupService exports and imports the full database as JSON
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a complete backup to w
func (s *BackupService) Export(w io.Writer) error {
	data := &BackupData{
		Version:      "1",
		ExportedAt:   time.Now(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	var err error
	if data.VitalPoints, err = s.exportVitalPoints(); err != nil {
		return fmt.Errorf("failed to export vital points: %w", err)
	}
	if data.History, err = s.exportHistory(); err != nil {
		return fmt.Errorf("failed to export learning history: %w", err)
	}
	if data.Sessions, err = s.exportSessions(); err != nil {
		return fmt.Errorf("failed to export sessions: %w", err)
	}
	if data.TestResults, err = s.exportResults(); err != nil {
		return fmt.Errorf("failed to export test results: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportToFile writes a complete backup to the given path
func (s *BackupService) ExportToFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	return s.Export(file)
}

// ImportFromFile restores a backup from the given path. With clear set,
// existing data is removed first; otherwise rows are inserted as-is and
// conflicts abort the import.
func (s *BackupService) ImportFromFile(path string, clear bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	var data BackupData
	if err := json.NewDecoder(file).Decode(&data); err != nil {
		return fmt.Errorf("failed to parse backup file: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if clear {
		// Children before parents
		tables := []string{"test_results", "session_questions", "quiz_sessions", "learning_history", "vital_points"}
		for _, table := range tables {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
		}
	}

	for _, vp := range data.VitalPoints {
		_, err := tx.Exec(`
			INSERT INTO vital_points (id, number, name, reading, category, image_file)
			VALUES (?, ?, ?, ?, ?, ?)
		`, vp.ID, vp.Number, vp.Name, vp.Reading, vp.Category, vp.ImageFile)
		if err != nil {
			return fmt.Errorf("failed to import vital point %d: %w", vp.ID, err)
		}
	}

	for _, h := range data.History {
		_, err := tx.Exec(`
			INSERT INTO learning_history (vital_point_id, correct_count, incorrect_count, last_learned_at)
			VALUES (?, ?, ?, ?)
		`, h.VitalPointID, h.CorrectCount, h.IncorrectCount, h.LastLearnedAt)
		if err != nil {
			return fmt.Errorf("failed to import history for vital point %d: %w", h.VitalPointID, err)
		}
	}

	for _, session := range data.Sessions {
		_, err := tx.Exec(`
			INSERT INTO quiz_sessions (id, mode, status, current_index, started_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, session.ID, session.Mode, session.Status, session.CurrentIndex, session.StartedAt, session.CompletedAt)
		if err != nil {
			return fmt.Errorf("failed to import session %s: %w", session.ID, err)
		}

		for _, q := range session.Questions {
			_, err := tx.Exec(`
				INSERT INTO session_questions (session_id, vital_point_id, question_order,
				                               is_answered, is_correct, selected_name, answered_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, session.ID, q.VitalPointID, q.QuestionOrder, q.IsAnswered, q.IsCorrect, q.SelectedName, q.AnsweredAt)
			if err != nil {
				return fmt.Errorf("failed to import question %d of session %s: %w", q.QuestionOrder, session.ID, err)
			}
		}
	}

	for _, result := range data.TestResults {
		_, err := tx.Exec(`
			INSERT INTO test_results (session_id, mode, total_questions, correct_count,
			                          incorrect_count, score, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, result.SessionID, result.Mode, result.TotalQuestions, result.CorrectCount,
			result.IncorrectCount, result.Score, result.CompletedAt)
		if err != nil {
			return fmt.Errorf("failed to import result for session %s: %w", result.SessionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Printf("Import completed: %d vital points, %d history rows, %d sessions, %d results",
		len(data.VitalPoints), len(data.History), len(data.Sessions), len(data.TestResults))
	return nil
}

func (s *BackupService) exportVitalPoints() ([]VitalPointBackup, error) {
	rows, err := s.db.Query(`
		SELECT id, number, name, reading, category, image_file
		FROM vital_points ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []VitalPointBackup{}
	for rows.Next() {
		var vp VitalPointBackup
		if err := rows.Scan(&vp.ID, &vp.Number, &vp.Name, &vp.Reading, &vp.Category, &vp.ImageFile); err != nil {
			return nil, err
		}
		points = append(points, vp)
	}
	return points, rows.Err()
}

func (s *BackupService) exportHistory() ([]HistoryBackup, error) {
	rows, err := s.db.Query(`
		SELECT vital_point_id, correct_count, incorrect_count, last_learned_at
		FROM learning_history ORDER BY vital_point_id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []HistoryBackup{}
	for rows.Next() {
		var h HistoryBackup
		var lastLearnedAt sql.NullTime
		if err := rows.Scan(&h.VitalPointID, &h.CorrectCount, &h.IncorrectCount, &lastLearnedAt); err != nil {
			return nil, err
		}
		if lastLearnedAt.Valid {
			h.LastLearnedAt = &lastLearnedAt.Time
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (s *BackupService) exportSessions() ([]SessionBackup, error) {
	rows, err := s.db.Query(`
		SELECT id, mode, status, current_index, started_at, completed_at
		FROM quiz_sessions ORDER BY started_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []SessionBackup{}
	for rows.Next() {
		var session SessionBackup
		var completedAt sql.NullTime
		err := rows.Scan(&session.ID, &session.Mode, &session.Status, &session.CurrentIndex,
			&session.StartedAt, &completedAt)
		if err != nil {
			return nil, err
		}
		if completedAt.Valid {
			session.CompletedAt = &completedAt.Time
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sessions {
		questions, err := s.exportQuestions(sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Questions = questions
	}

	return sessions, nil
}

func (s *BackupService) exportQuestions(sessionID string) ([]QuestionBackup, error) {
	rows, err := s.db.Query(`
		SELECT vital_point_id, question_order, is_answered, is_correct, selected_name, answered_at
		FROM session_questions
		WHERE session_id = ?
		ORDER BY question_order ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []QuestionBackup{}
	for rows.Next() {
		var q QuestionBackup
		var answeredAt sql.NullTime
		err := rows.Scan(&q.VitalPointID, &q.QuestionOrder, &q.IsAnswered, &q.IsCorrect,
			&q.SelectedName, &answeredAt)
		if err != nil {
			return nil, err
		}
		if answeredAt.Valid {
			q.AnsweredAt = &answeredAt.Time
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *BackupService) exportResults() ([]ResultBackup, error) {
	rows, err := s.db.Query(`
		SELECT session_id, mode, total_questions, correct_count, incorrect_count, score, completed_at
		FROM test_results ORDER BY completed_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []ResultBackup{}
	for rows.Next() {
		var result ResultBackup
		err := rows.Scan(&result.SessionID, &result.Mode, &result.TotalQuestions,
			&result.CorrectCount, &result.IncorrectCount, &result.Score, &result.CompletedAt)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
