package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// WSHandler upgrades connections and hosts one attempt session per socket.
// The handler owns the one-second ticker the session itself does not have;
// tearing the connection down mid-attempt simply drops the session, which
// persists nothing.
type WSHandler struct {
	service      *app.AttemptService
	upgrader     websocket.Upgrader
	tickInterval time.Duration
}

func NewWSHandler(service *app.AttemptService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		tickInterval: time.Second,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionIndex int `json:"questionIndex"`
	OptionIndex   int `json:"optionIndex"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// sessionQuestion is a question stripped of its answer key; the key never
// leaves the server while an attempt is live.
type sessionQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Points  int      `json:"points"`
}

type startedPayload struct {
	QuizID           string            `json:"quizId"`
	Title            string            `json:"title"`
	TimeLimitMinutes int               `json:"timeLimitMinutes"`
	TotalPoints      int               `json:"totalPoints"`
	RemainingSeconds int               `json:"remainingSeconds"`
	Questions        []sessionQuestion `json:"questions"`
}

type tickPayload struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

type answersPayload struct {
	Answers map[int]int `json:"answers"`
}

// ServeWS runs one attempt from initialization to a terminal state.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	studentID := r.URL.Query().Get("studentId")
	if quizID == "" || studentID == "" {
		http.Error(w, "missing quizId or studentId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := h.service.NewSession(studentID, quizID)
	state, err := session.Initialize(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: initErrorMessage(err)}})
		return
	}
	if state == app.StateBlocked {
		// Prior attempt found; the client redirects to its results view.
		record, _ := session.Result()
		_ = conn.WriteJSON(outboundMessage[domain.AttemptRecord]{Type: "blocked", Payload: record})
		return
	}

	quiz := session.Quiz()
	questions := make([]sessionQuestion, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, sessionQuestion{Text: q.Text, Options: q.Options, Points: q.Points})
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	emit := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-closeSignals:
			return false
		}
	}

	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(h.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tick := session.Tick(r.Context())
				if !emit(outboundMessage[any]{Type: "tick", Payload: tickPayload{RemainingSeconds: tick.RemainingSeconds}}) {
					return
				}
				if tick.Expired {
					h.emitSubmitOutcome(emit, tick.Submit, tick.SubmitErr)
				}
				switch session.State() {
				case app.StateCompleted, app.StateFailed, app.StateBlocked:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{
		QuizID:           quiz.ID,
		Title:            quiz.Title,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		TotalPoints:      quiz.TotalPoints,
		RemainingSeconds: session.RemainingSeconds(),
		Questions:        questions,
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			answers := session.SelectAnswer(payload.QuestionIndex, payload.OptionIndex)
			emit(outboundMessage[any]{Type: "answers", Payload: answersPayload{Answers: answers}})
		case "submit":
			emit(outboundMessage[any]{Type: "scoring", Payload: struct{}{}})
			result, err := session.Submit(r.Context(), false)
			h.emitSubmitOutcome(emit, &result, err)
		default:
			emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	<-tickerDone
	close(send)
	<-writerDone
}

// emitSubmitOutcome reports where a submission landed. A write failure keeps
// the session in scoring; the client decides whether to offer a retry.
func (h *WSHandler) emitSubmitOutcome(emit func(outboundMessage[any]) bool, result *app.SubmitResult, err error) {
	if err != nil {
		emit(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "saving your attempt failed; it was not discarded"}})
		return
	}
	if result != nil && result.State == app.StateCompleted && result.Record != nil {
		emit(outboundMessage[any]{Type: "completed", Payload: *result.Record})
	}
}

func initErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		return "quiz not found"
	case errors.Is(err, domain.ErrEmptyQuiz):
		return "this quiz has no questions yet"
	default:
		return "could not start the quiz"
	}
}
