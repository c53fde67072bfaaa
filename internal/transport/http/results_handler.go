package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// ResultsHandler serves persisted attempt data as JSON: the single-attempt
// result view and the per-quiz summary feed used by dashboards.
type ResultsHandler struct {
	service *app.AttemptService
}

func NewResultsHandler(service *app.AttemptService) *ResultsHandler {
	return &ResultsHandler{service: service}
}

// AttemptResult handles GET /attempts?quizId=...&studentId=...
func (h *ResultsHandler) AttemptResult(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	studentID := r.URL.Query().Get("studentId")
	if quizID == "" || studentID == "" {
		http.Error(w, "missing quizId or studentId", http.StatusBadRequest)
		return
	}

	record, err := h.service.AttemptResult(r.Context(), studentID, quizID)
	if errors.Is(err, domain.ErrAttemptNotFound) {
		http.Error(w, "attempt not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("attempt result lookup failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, record)
}

type quizAttemptsResponse struct {
	QuizID   string                  `json:"quizId"`
	Attempts []domain.AttemptSummary `json:"attempts"`
}

// QuizAttempts handles GET /quizzes/{id}/attempts
func (h *ResultsHandler) QuizAttempts(w http.ResponseWriter, r *http.Request) {
	quizID := r.PathValue("id")

	summaries, err := h.service.QuizSummaries(r.Context(), quizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		http.Error(w, "quiz not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("quiz attempts lookup failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []domain.AttemptSummary{}
	}
	writeJSON(w, quizAttemptsResponse{QuizID: quizID, Attempts: summaries})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
