package service

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"vitalquiz/internal/database"
	"vitalquiz/internal/models"
	"vitalquiz/internal/repository"
)

// Feedback messages, keyed only on correctness
const (
	FeedbackCorrectMessage   = "Correct!"
	FeedbackIncorrectMessage = "Incorrect. Check the right answer before moving on."
)

// Choice is one candidate answer shown for a question
type Choice struct {
	VitalPointID int64
	Name         string
	Reading      string
}

// Question is the current question of an active session
type Question struct {
	QuestionOrder int
	VitalPoint    models.VitalPoint
	Choices       []Choice
}

// QuestionResult is the outcome of asking for the current question.
// Exhausted marks the normal end-of-session signal: every question has
// been answered and the caller should complete the session.
type QuestionResult struct {
	Exhausted bool
	Question  *Question
	Answered  int
	Total     int
}

// Feedback is returned after adjudicating a submitted answer
type Feedback struct {
	IsCorrect     bool
	CorrectAnswer string
	Message       string
}

// QuizService runs quiz sessions: question sequencing, answer
// adjudication, scoring and lifecycle transitions
type QuizService struct {
	db          *database.DB
	sessions    *repository.SessionRepository
	history     *repository.HistoryRepository
	vitalPoints *repository.VitalPointRepository
	results     *repository.ResultRepository

	choiceCount int

	// rand.Rand is not safe for concurrent use
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewQuizService creates a new quiz service. The RNG is injected so tests
// can pin shuffling to a fixed seed.
func NewQuizService(
	db *database.DB,
	sessions *repository.SessionRepository,
	history *repository.HistoryRepository,
	vitalPoints *repository.VitalPointRepository,
	results *repository.ResultRepository,
	rng *rand.Rand,
	choiceCount int,
) *QuizService {
	return &QuizService{
		db:          db,
		sessions:    sessions,
		history:     history,
		vitalPoints: vitalPoints,
		results:     results,
		rng:         rng,
		choiceCount: choiceCount,
	}
}

// StartSession creates a new session for the given mode and returns it
// together with the number of questions it will ask
func (s *QuizService) StartSession(mode string) (*models.QuizSession, int, error) {
	if mode != models.ModeTest && mode != models.ModeReview {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	order, err := s.buildQuestionOrder(mode)
	if err != nil {
		return nil, 0, err
	}

	session := &models.QuizSession{
		ID:        uuid.New().String(),
		Mode:      mode,
		Status:    models.StatusActive,
		StartedAt: time.Now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	if err := s.sessions.WithTx(tx).Create(session, order); err != nil {
		return nil, 0, fmt.Errorf("failed to create session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}

	return session, len(order), nil
}

// Session retrieves a session snapshot with its question rows
func (s *QuizService) Session(sessionID string) (*models.QuizSession, []models.SessionQuestion, error) {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}

	questions, err := s.sessions.GetQuestions(sessionID)
	if err != nil {
		return nil, nil, err
	}

	return session, questions, nil
}

// CurrentQuestion returns the question at the session cursor with a fresh
// choice set, or an exhausted result when every question has been answered
func (s *QuizService) CurrentQuestion(sessionID string) (*QuestionResult, error) {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != models.StatusActive {
		return nil, ErrSessionNotActive
	}

	total, err := s.sessions.CountQuestions(sessionID)
	if err != nil {
		return nil, err
	}

	if session.CurrentIndex >= total {
		return &QuestionResult{Exhausted: true, Answered: session.CurrentIndex, Total: total}, nil
	}

	question, err := s.sessions.GetQuestionAt(sessionID, session.CurrentIndex)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, fmt.Errorf("session %s has no question at position %d", sessionID, session.CurrentIndex)
	}

	vitalPoint, err := s.vitalPoints.GetByID(question.VitalPointID)
	if err != nil {
		return nil, err
	}
	if vitalPoint == nil {
		return nil, ErrVitalPointNotFound
	}

	choices, err := s.buildChoices(vitalPoint)
	if err != nil {
		return nil, err
	}

	return &QuestionResult{
		Question: &Question{
			QuestionOrder: question.QuestionOrder,
			VitalPoint:    *vitalPoint,
			Choices:       choices,
		},
		Answered: session.CurrentIndex,
		Total:    total,
	}, nil
}

// SubmitAnswer adjudicates a choice against the current question. The
// question row, session cursor and learning history move as one atomic
// unit: a failed submission leaves everything unchanged.
func (s *QuizService) SubmitAnswer(sessionID string, vitalPointID int64, selectedName string) (*Feedback, error) {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != models.StatusActive {
		return nil, ErrSessionNotActive
	}

	question, err := s.sessions.GetQuestionAt(sessionID, session.CurrentIndex)
	if err != nil {
		return nil, err
	}
	if question == nil || question.VitalPointID != vitalPointID {
		return nil, ErrQuestionMismatch
	}

	vitalPoint, err := s.vitalPoints.GetByID(vitalPointID)
	if err != nil {
		return nil, err
	}
	if vitalPoint == nil {
		return nil, ErrVitalPointNotFound
	}

	isCorrect := selectedName == vitalPoint.Name
	now := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	sessions := s.sessions.WithTx(tx)

	marked, err := sessions.MarkAnswered(sessionID, session.CurrentIndex, isCorrect, selectedName, now)
	if err != nil {
		return nil, err
	}
	if !marked {
		return nil, ErrStaleSubmission
	}

	advanced, err := sessions.AdvanceCursor(sessionID, session.CurrentIndex)
	if err != nil {
		return nil, err
	}
	if !advanced {
		return nil, ErrStaleSubmission
	}

	if err := s.history.WithTx(tx).Increment(vitalPointID, isCorrect, now); err != nil {
		return nil, fmt.Errorf("failed to update learning history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	message := FeedbackIncorrectMessage
	if isCorrect {
		message = FeedbackCorrectMessage
	}

	return &Feedback{
		IsCorrect:     isCorrect,
		CorrectAnswer: vitalPoint.Name,
		Message:       message,
	}, nil
}

// Pause transitions an active session to paused
func (s *QuizService) Pause(sessionID string) error {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Status != models.StatusActive {
		return ErrSessionNotActive
	}

	ok, err := s.sessions.UpdateStatus(sessionID, models.StatusActive, models.StatusPaused)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotActive
	}
	return nil
}

// Resume transitions a paused session back to active
func (s *QuizService) Resume(sessionID string) error {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Status != models.StatusPaused {
		return ErrSessionNotPaused
	}

	ok, err := s.sessions.UpdateStatus(sessionID, models.StatusPaused, models.StatusActive)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotPaused
	}
	return nil
}

// Complete finalizes a session and stores its result. The stored result is
// computed exactly once; a second call fails rather than recomputing, so a
// result can never drift if history changes afterwards.
func (s *QuizService) Complete(sessionID string) (*models.TestResult, error) {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Status == models.StatusCompleted {
		return nil, ErrSessionCompleted
	}

	questions, err := s.sessions.GetQuestions(sessionID)
	if err != nil {
		return nil, err
	}

	answered, correct := 0, 0
	for _, q := range questions {
		if !q.IsAnswered {
			continue
		}
		answered++
		if q.IsCorrect {
			correct++
		}
	}

	now := time.Now()
	result := &models.TestResult{
		SessionID:      sessionID,
		Mode:           session.Mode,
		TotalQuestions: len(questions),
		CorrectCount:   correct,
		IncorrectCount: answered - correct,
		Score:          models.Score(correct, len(questions)),
		CompletedAt:    now,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	completed, err := s.sessions.WithTx(tx).Complete(sessionID, now)
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, ErrSessionCompleted
	}

	if err := s.results.WithTx(tx).Create(result); err != nil {
		return nil, fmt.Errorf("failed to store session result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return result, nil
}

// buildQuestionOrder produces the vital point ids a session will ask, in order
func (s *QuizService) buildQuestionOrder(mode string) ([]int64, error) {
	if mode == models.ModeReview {
		weak, err := s.history.GetWeakPoints()
		if err != nil {
			return nil, err
		}
		if len(weak) == 0 {
			return nil, ErrNothingToReview
		}

		ids := make([]int64, len(weak))
		for i, entry := range weak {
			ids[i] = entry.VitalPoint.ID
		}
		return ids, nil
	}

	points, err := s.vitalPoints.GetAll()
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrEmptyCatalog
	}

	ids := make([]int64, len(points))
	for i, vp := range points {
		ids[i] = vp.ID
	}

	s.rngMu.Lock()
	s.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	s.rngMu.Unlock()

	return ids, nil
}

// buildChoices assembles the candidate names for one question: the correct
// vital point plus distractors with pairwise-distinct names, shuffled
func (s *QuizService) buildChoices(correct *models.VitalPoint) ([]Choice, error) {
	points, err := s.vitalPoints.GetAll()
	if err != nil {
		return nil, err
	}

	var candidates []models.VitalPoint
	for _, vp := range points {
		// Some vital points share a name across images; those can never
		// serve as distractors for each other
		if vp.ID == correct.ID || vp.Name == correct.Name {
			continue
		}
		candidates = append(candidates, vp)
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	choices := []Choice{{VitalPointID: correct.ID, Name: correct.Name, Reading: correct.Reading}}
	seen := map[string]bool{correct.Name: true}
	for _, vp := range candidates {
		if len(choices) == s.choiceCount {
			break
		}
		if seen[vp.Name] {
			continue
		}
		seen[vp.Name] = true
		choices = append(choices, Choice{VitalPointID: vp.ID, Name: vp.Name, Reading: vp.Reading})
	}

	s.rng.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	return choices, nil
}
