package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"ilm-quiz-service/internal/app"
	"ilm-quiz-service/internal/domain"
	"ilm-quiz-service/internal/session"
)

// WSHandler hosts one quiz attempt per websocket connection. The client
// drives select/confirm/advance; a server ticker burns the per-question
// budget and auto-advances on expiry. Dropping the connection before
// completion discards the attempt with nothing persisted.
type WSHandler struct {
	accounts  *app.AccountService
	questions app.QuestionRepository
	upgrader  websocket.Upgrader
}

func NewWSHandler(accounts *app.AccountService, questions app.QuestionRepository) *WSHandler {
	return &WSHandler{
		accounts:  accounts,
		questions: questions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type questionPayload struct {
	Index    int      `json:"index"`
	Total    int      `json:"total"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	TimeLeft int      `json:"timeLeft"`
}

type answerResultPayload struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
	CorrectCount  int    `json:"correctCount"`
}

type timeoutPayload struct {
	Index int `json:"index"`
}

type completedPayload struct {
	Percentage int  `json:"percentage"`
	Correct    int  `json:"correct"`
	Total      int  `json:"total"`
	Saved      bool `json:"saved"`
}

// ServeQuiz upgrades the request and plays one attempt to completion.
func (h *WSHandler) ServeQuiz(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	category := r.URL.Query().Get("category")
	level := r.URL.Query().Get("level")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	if level != "" && !domain.ValidLevel(level) {
		http.Error(w, "unknown level", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	pool, err := h.questions.GetQuestions(r.Context())
	if err != nil {
		log.Printf("load questions: %v", err)
		writeMessage(conn, "error", errorPayload{Message: "questions unavailable"})
		return
	}

	attempt, err := session.New(pool, category, level)
	if err != nil {
		writeMessage(conn, "error", errorPayload{Message: err.Error()})
		return
	}

	done := make(chan struct{})
	defer close(done)

	inbound := make(chan inboundMessage)
	go func() {
		defer close(inbound)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	h.sendQuestion(conn, attempt)

	for !attempt.Completed() {
		select {
		case msg, ok := <-inbound:
			if !ok {
				// Client went away mid-attempt; nothing is persisted.
				return
			}
			h.handleMessage(conn, attempt, msg)
		case <-ticker.C:
			if !attempt.Tick() {
				continue
			}
			writeMessage(conn, "timeout", timeoutPayload{Index: attempt.Index()})
			if !attempt.Advance() {
				h.sendQuestion(conn, attempt)
			}
		}
	}

	h.finish(conn, r, userID, attempt)
}

func (h *WSHandler) handleMessage(conn *websocket.Conn, attempt *session.Attempt, msg inboundMessage) {
	switch msg.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Answer == "" {
			writeMessage(conn, "error", errorPayload{Message: "invalid select payload"})
			return
		}
		if err := attempt.SelectAnswer(payload.Answer); err != nil {
			writeMessage(conn, "error", errorPayload{Message: err.Error()})
		}
	case "confirm":
		correct, question, err := attempt.ConfirmAnswer()
		if err != nil {
			writeMessage(conn, "error", errorPayload{Message: err.Error()})
			return
		}
		writeMessage(conn, "answerResult", answerResultPayload{
			Correct:       correct,
			CorrectAnswer: question.CorrectAnswer,
			Explanation:   question.Explanation,
			CorrectCount:  attempt.CorrectCount(),
		})
	case "advance":
		if !attempt.Advance() {
			h.sendQuestion(conn, attempt)
		}
	default:
		writeMessage(conn, "error", errorPayload{Message: "unsupported message type"})
	}
}

func (h *WSHandler) sendQuestion(conn *websocket.Conn, attempt *session.Attempt) {
	question, ok := attempt.Current()
	if !ok {
		return
	}
	writeMessage(conn, "question", questionPayload{
		Index:    attempt.Index(),
		Total:    attempt.Total(),
		Prompt:   question.Prompt,
		Options:  question.Options,
		TimeLeft: attempt.TimeLeft(),
	})
}

func (h *WSHandler) finish(conn *websocket.Conn, r *http.Request, userID string, attempt *session.Attempt) {
	rec, err := attempt.Record()
	if err != nil {
		writeMessage(conn, "error", errorPayload{Message: err.Error()})
		return
	}

	saved := true
	if _, err := h.accounts.AppendScore(r.Context(), userID, rec); err != nil {
		log.Printf("append score for %s: %v", userID, err)
		saved = false
	}
	writeMessage(conn, "completed", completedPayload{
		Percentage: rec.Percentage,
		Correct:    attempt.CorrectCount(),
		Total:      attempt.Total(),
		Saved:      saved,
	})
}

func writeMessage[T any](conn *websocket.Conn, msgType string, payload T) {
	if err := conn.WriteJSON(outboundMessage[T]{Type: msgType, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}
