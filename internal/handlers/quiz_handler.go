package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"vitalquiz/internal/models"
	"vitalquiz/internal/service"
)

// QuizHandler handles quiz session HTTP requests
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

type startSessionRequest struct {
	Mode string `json:"mode"`
}

type sessionJSON struct {
	ID             string     `json:"id"`
	Mode           string     `json:"mode"`
	Status         string     `json:"status"`
	AnsweredCount  int        `json:"answered_count"`
	TotalQuestions int        `json:"total_questions"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// StartSession creates a new quiz session
func (h *QuizHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}
	if req.Mode == "" {
		req.Mode = models.ModeTest
	}

	session, totalQuestions, err := h.quizService.StartSession(req.Mode)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, sessionJSON{
		ID:             session.ID,
		Mode:           session.Mode,
		Status:         session.Status,
		AnsweredCount:  session.CurrentIndex,
		TotalQuestions: totalQuestions,
		StartedAt:      session.StartedAt,
	})
}

// GetSession returns a session snapshot
func (h *QuizHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, questions, err := h.quizService.Session(r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sessionJSON{
		ID:             session.ID,
		Mode:           session.Mode,
		Status:         session.Status,
		AnsweredCount:  session.CurrentIndex,
		TotalQuestions: len(questions),
		StartedAt:      session.StartedAt,
		CompletedAt:    session.CompletedAt,
	})
}

type choiceJSON struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Reading string `json:"reading"`
}

type currentQuestionResponse struct {
	Exhausted      bool         `json:"exhausted"`
	QuestionOrder  int          `json:"question_order,omitempty"`
	VitalPointID   int64        `json:"vital_point_id,omitempty"`
	Number         string       `json:"number,omitempty"`
	ImageFile      string       `json:"image_file,omitempty"`
	Choices        []choiceJSON `json:"choices,omitempty"`
	AnsweredCount  int          `json:"answered_count"`
	TotalQuestions int          `json:"total_questions"`
}

// CurrentQuestion returns the question at the session cursor, or an
// exhausted marker once every question has been answered
func (h *QuizHandler) CurrentQuestion(w http.ResponseWriter, r *http.Request) {
	result, err := h.quizService.CurrentQuestion(r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := currentQuestionResponse{
		Exhausted:      result.Exhausted,
		AnsweredCount:  result.Answered,
		TotalQuestions: result.Total,
	}

	if !result.Exhausted {
		question := result.Question
		resp.QuestionOrder = question.QuestionOrder
		resp.VitalPointID = question.VitalPoint.ID
		resp.Number = question.VitalPoint.Number
		resp.ImageFile = question.VitalPoint.ImageFile
		resp.Choices = make([]choiceJSON, len(question.Choices))
		for i, choice := range question.Choices {
			resp.Choices[i] = choiceJSON{ID: choice.VitalPointID, Name: choice.Name, Reading: choice.Reading}
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

type submitAnswerRequest struct {
	VitalPointID int64  `json:"vital_point_id"`
	SelectedName string `json:"selected_name"`
}

type feedbackJSON struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
	Message       string `json:"message"`
}

// SubmitAnswer adjudicates a submitted choice for the current question
func (h *QuizHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", "", nil)
		return
	}
	if req.VitalPointID == 0 || req.SelectedName == "" {
		respondWithError(w, http.StatusBadRequest, "vital_point_id and selected_name are required", "", nil)
		return
	}

	feedback, err := h.quizService.SubmitAnswer(r.PathValue("id"), req.VitalPointID, req.SelectedName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, feedbackJSON{
		IsCorrect:     feedback.IsCorrect,
		CorrectAnswer: feedback.CorrectAnswer,
		Message:       feedback.Message,
	})
}

// Pause suspends an active session
func (h *QuizHandler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.quizService.Pause(r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": models.StatusPaused})
}

// Resume reactivates a paused session
func (h *QuizHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.quizService.Resume(r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": models.StatusActive})
}

// Complete finalizes a session and returns its scored result
func (h *QuizHandler) Complete(w http.ResponseWriter, r *http.Request) {
	result, err := h.quizService.Complete(r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toResultJSON(*result))
}
