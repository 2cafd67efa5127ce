package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"vitalquiz/internal/database"
	"vitalquiz/internal/models"
	"vitalquiz/internal/repository"
	"vitalquiz/internal/service"
)

// newTestServer wires the full handler stack over a SQLite database with
// a small seeded catalog
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database-backed test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "handler_test.db")
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	vitalPoints := repository.NewVitalPointRepository(db)
	history := repository.NewHistoryRepository(db)
	sessions := repository.NewSessionRepository(db)
	results := repository.NewResultRepository(db)

	seed := []models.VitalPoint{
		{Number: "①", Name: "百会", Reading: "ひゃくえ", Category: "頭部", ImageFile: "head.png"},
		{Number: "②", Name: "人迎", Reading: "じんげい", Category: "頭部", ImageFile: "head.png"},
		{Number: "③", Name: "天柱", Reading: "てんちゅう", Category: "頭部", ImageFile: "head.png"},
		{Number: "①", Name: "天突", Reading: "てんとつ", Category: "胴部", ImageFile: "trunk.png"},
		{Number: "②", Name: "水月", Reading: "すいげつ", Category: "胴部", ImageFile: "trunk.png"},
	}
	for i := range seed {
		if _, err := vitalPoints.Upsert(&seed[i]); err != nil {
			t.Fatalf("Failed to seed vital point: %v", err)
		}
	}

	rng := rand.New(rand.NewSource(1))
	quizService := service.NewQuizService(db, sessions, history, vitalPoints, results, rng, 4)
	statsService := service.NewStatsService(history, results, 10)

	quizHandler := NewQuizHandler(quizService)
	historyHandler := NewHistoryHandler(statsService)
	vitalPointHandler := NewVitalPointHandler(vitalPoints)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/vital-points", vitalPointHandler.List)
	mux.HandleFunc("GET /api/vital-points/{id}", vitalPointHandler.Get)
	mux.HandleFunc("GET /api/learning-history", historyHandler.GetAllHistory)
	mux.HandleFunc("GET /api/learning-history/statistics", historyHandler.GetStatistics)
	mux.HandleFunc("GET /api/learning-history/weak-points", historyHandler.GetWeakPoints)
	mux.HandleFunc("GET /api/learning-history/test-results", historyHandler.GetTestResults)
	mux.HandleFunc("POST /api/quiz-sessions", quizHandler.StartSession)
	mux.HandleFunc("GET /api/quiz-sessions/{id}", quizHandler.GetSession)
	mux.HandleFunc("GET /api/quiz-sessions/{id}/current-question", quizHandler.CurrentQuestion)
	mux.HandleFunc("POST /api/quiz-sessions/{id}/answers", quizHandler.SubmitAnswer)
	mux.HandleFunc("POST /api/quiz-sessions/{id}/pause", quizHandler.Pause)
	mux.HandleFunc("POST /api/quiz-sessions/{id}/resume", quizHandler.Resume)
	mux.HandleFunc("POST /api/quiz-sessions/{id}/complete", quizHandler.Complete)

	server := httptest.NewServer(Logging(CORS("*", mux)))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return resp, buf.Bytes()
}

func decodeInto(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to decode response %s: %v", data, err)
	}
}

func TestQuizSessionFullFlow(t *testing.T) {
	server := newTestServer(t)

	// Start a test session
	resp, body := doJSON(t, "POST", server.URL+"/api/quiz-sessions", map[string]string{"mode": "test"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("StartSession: expected 201, got %d: %s", resp.StatusCode, body)
	}

	var session struct {
		ID             string `json:"id"`
		Mode           string `json:"mode"`
		Status         string `json:"status"`
		TotalQuestions int    `json:"total_questions"`
	}
	decodeInto(t, body, &session)
	if session.ID == "" {
		t.Fatal("StartSession returned empty session id")
	}
	if session.Mode != "test" || session.Status != "active" {
		t.Errorf("Unexpected session %+v", session)
	}
	if session.TotalQuestions != 5 {
		t.Errorf("Expected 5 questions, got %d", session.TotalQuestions)
	}

	base := server.URL + "/api/quiz-sessions/" + session.ID

	// Answer every question correctly
	for i := 0; i < session.TotalQuestions; i++ {
		resp, body = doJSON(t, "GET", base+"/current-question", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("CurrentQuestion: expected 200, got %d: %s", resp.StatusCode, body)
		}

		var question struct {
			Exhausted    bool  `json:"exhausted"`
			VitalPointID int64 `json:"vital_point_id"`
			Choices      []struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
			} `json:"choices"`
			AnsweredCount  int `json:"answered_count"`
			TotalQuestions int `json:"total_questions"`
		}
		decodeInto(t, body, &question)
		if question.Exhausted {
			t.Fatalf("Question %d reported exhausted", i)
		}
		if question.AnsweredCount != i {
			t.Errorf("Question %d: expected answered count %d, got %d", i, i, question.AnsweredCount)
		}
		if len(question.Choices) != 4 {
			t.Fatalf("Question %d: expected 4 choices, got %d", i, len(question.Choices))
		}

		var correctName string
		for _, c := range question.Choices {
			if c.ID == question.VitalPointID {
				correctName = c.Name
			}
		}
		if correctName == "" {
			t.Fatal("Correct answer missing from choices")
		}

		resp, body = doJSON(t, "POST", base+"/answers", map[string]interface{}{
			"vital_point_id": question.VitalPointID,
			"selected_name":  correctName,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("SubmitAnswer: expected 200, got %d: %s", resp.StatusCode, body)
		}

		var feedback struct {
			IsCorrect bool   `json:"is_correct"`
			Message   string `json:"message"`
		}
		decodeInto(t, body, &feedback)
		if !feedback.IsCorrect {
			t.Errorf("Question %d: expected correct feedback, got %s", i, body)
		}
	}

	// Cursor exhausted
	resp, body = doJSON(t, "GET", base+"/current-question", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("CurrentQuestion: expected 200, got %d", resp.StatusCode)
	}
	var exhausted struct {
		Exhausted bool `json:"exhausted"`
	}
	decodeInto(t, body, &exhausted)
	if !exhausted.Exhausted {
		t.Errorf("Expected exhausted marker, got %s", body)
	}

	// Complete scores a perfect run
	resp, body = doJSON(t, "POST", base+"/complete", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Complete: expected 200, got %d: %s", resp.StatusCode, body)
	}
	var result struct {
		Score int    `json:"score"`
		Tier  string `json:"tier"`
	}
	decodeInto(t, body, &result)
	if result.Score != 100 {
		t.Errorf("Expected score 100, got %d", result.Score)
	}
	if result.Tier != models.TierPerfect {
		t.Errorf("Expected tier %q, got %q", models.TierPerfect, result.Tier)
	}

	// Completing twice conflicts
	resp, _ = doJSON(t, "POST", base+"/complete", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Second complete: expected 409, got %d", resp.StatusCode)
	}

	// The result shows up in recent test results
	resp, body = doJSON(t, "GET", server.URL+"/api/learning-history/test-results", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("TestResults: expected 200, got %d", resp.StatusCode)
	}
	var results []struct {
		SessionID string `json:"session_id"`
		Score     int    `json:"score"`
	}
	decodeInto(t, body, &results)
	if len(results) != 1 || results[0].SessionID != session.ID {
		t.Errorf("Expected one result for session %s, got %s", session.ID, body)
	}

	// And the history reflects five correct answers
	resp, body = doJSON(t, "GET", server.URL+"/api/learning-history/statistics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Statistics: expected 200, got %d", resp.StatusCode)
	}
	var stats struct {
		TotalAttempts int     `json:"total_attempts"`
		AccuracyRate  float64 `json:"accuracy_rate"`
	}
	decodeInto(t, body, &stats)
	if stats.TotalAttempts != 5 || stats.AccuracyRate != 100 {
		t.Errorf("Expected 5 attempts at 100%%, got %s", body)
	}
}

func TestStartSessionDefaultsToTestMode(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, "POST", server.URL+"/api/quiz-sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.StatusCode, body)
	}

	var session struct {
		Mode string `json:"mode"`
	}
	decodeInto(t, body, &session)
	if session.Mode != "test" {
		t.Errorf("Expected default mode test, got %q", session.Mode)
	}
}

func TestStartSessionRejectsUnknownMode(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, "POST", server.URL+"/api/quiz-sessions", map[string]string{"mode": "practice"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown mode, got %d", resp.StatusCode)
	}
}

func TestStartReviewSessionWithoutMistakes(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, "POST", server.URL+"/api/quiz-sessions", map[string]string{"mode": "review"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 with nothing to review, got %d", resp.StatusCode)
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, "POST", server.URL+"/api/quiz-sessions", map[string]string{"mode": "test"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("StartSession failed: %d", resp.StatusCode)
	}
	var session struct {
		ID string `json:"id"`
	}
	decodeInto(t, body, &session)
	base := server.URL + "/api/quiz-sessions/" + session.ID

	// Missing fields
	resp, _ = doJSON(t, "POST", base+"/answers", map[string]interface{}{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty submission, got %d", resp.StatusCode)
	}

	// Wrong vital point for the current question
	resp, body = doJSON(t, "GET", base+"/current-question", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("CurrentQuestion failed: %d", resp.StatusCode)
	}
	var question struct {
		VitalPointID int64 `json:"vital_point_id"`
	}
	decodeInto(t, body, &question)

	wrongID := question.VitalPointID + 1
	if wrongID > 5 {
		wrongID = 1
	}
	resp, _ = doJSON(t, "POST", base+"/answers", map[string]interface{}{
		"vital_point_id": wrongID,
		"selected_name":  "百会",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for mismatched question, got %d", resp.StatusCode)
	}
}

func TestPauseResumeEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, "POST", server.URL+"/api/quiz-sessions", map[string]string{"mode": "test"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("StartSession failed: %d", resp.StatusCode)
	}
	var session struct {
		ID string `json:"id"`
	}
	decodeInto(t, body, &session)
	base := server.URL + "/api/quiz-sessions/" + session.ID

	resp, body = doJSON(t, "POST", base+"/pause", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Pause: expected 200, got %d: %s", resp.StatusCode, body)
	}

	// Paused sessions serve no questions
	resp, _ = doJSON(t, "GET", base+"/current-question", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 for paused session, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "POST", base+"/resume", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Resume: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, "POST", base+"/resume", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Double resume: expected 409, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "GET", base+"/current-question", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 after resume, got %d", resp.StatusCode)
	}
}

func TestSessionNotFoundEndpoints(t *testing.T) {
	server := newTestServer(t)

	const missing = "/api/quiz-sessions/00000000-0000-0000-0000-000000000000"

	paths := []struct {
		method string
		path   string
		body   interface{}
	}{
		{"GET", missing, nil},
		{"GET", missing + "/current-question", nil},
		{"POST", missing + "/answers", map[string]interface{}{"vital_point_id": 1, "selected_name": "百会"}},
		{"POST", missing + "/pause", nil},
		{"POST", missing + "/resume", nil},
		{"POST", missing + "/complete", nil},
	}

	for _, tt := range paths {
		resp, _ := doJSON(t, tt.method, server.URL+tt.path, tt.body)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", tt.method, tt.path, resp.StatusCode)
		}
	}
}

func TestVitalPointEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp, body := doJSON(t, "GET", server.URL+"/api/vital-points", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("List: expected 200, got %d", resp.StatusCode)
	}
	var points []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	decodeInto(t, body, &points)
	if len(points) != 5 {
		t.Fatalf("Expected 5 vital points, got %d", len(points))
	}

	resp, body = doJSON(t, "GET", fmt.Sprintf("%s/api/vital-points/%d", server.URL, points[0].ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Get: expected 200, got %d", resp.StatusCode)
	}
	var point struct {
		Name string `json:"name"`
	}
	decodeInto(t, body, &point)
	if point.Name != points[0].Name {
		t.Errorf("Expected %q, got %q", points[0].Name, point.Name)
	}

	resp, _ = doJSON(t, "GET", server.URL+"/api/vital-points/9999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown vital point, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "GET", server.URL+"/api/vital-points/abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed id, got %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest("OPTIONS", server.URL+"/api/vital-points", nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Preflight request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin header, got %q", got)
	}
}
