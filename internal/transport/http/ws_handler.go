package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	auth     *Authenticator
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, auth *Authenticator) *WSHandler {
	return &WSHandler{
		service: service,
		auth:    auth,
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

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type sessionPayload struct {
	SessionID string             `json:"sessionId"`
	Quiz      domain.QuizPreview `json:"quiz"`
}

type errorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func newErrorPayload(err error) errorPayload {
	var (
		loadErr    *domain.LoadError
		persistErr *domain.PersistenceError
	)
	switch {
	case errors.As(err, &loadErr):
		return errorPayload{Code: "load_failed", Message: err.Error()}
	case errors.As(err, &persistErr):
		return errorPayload{Code: "persistence_failed", Message: err.Error(), Retryable: persistErr.Retryable()}
	case errors.Is(err, domain.ErrSubmitInProgress):
		return errorPayload{Code: "submit_in_progress", Message: err.Error(), Retryable: true}
	default:
		return errorPayload{Code: "invalid_action", Message: err.Error()}
	}
}

// ServeWS upgrades the request and drives one quiz session over the socket.
// The session is created on connect and ended when the socket closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	userID, err := h.auth.UserID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.Begin(r.Context(), quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: newErrorPayload(err)})
		return
	}
	defer h.service.End(session.ID())

	preview, _ := h.service.Preview(r.Context(), quizID)
	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	push(outboundMessage[any]{Type: "session", Payload: sessionPayload{SessionID: session.ID(), Quiz: preview}})

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(ev.Type), Payload: ev.Snapshot}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r, session, inbound); err != nil {
			push(outboundMessage[any]{Type: "error", Payload: newErrorPayload(err)})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, session *app.SessionController, msg inboundMessage) error {
	switch msg.Type {
	case "start":
		return session.Start()
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return errors.New("invalid answer payload")
		}
		return session.Answer(payload.QuestionID, payload.Value)
	case "next":
		return session.Next()
	case "prev":
		return session.Prev()
	case "cancel":
		return session.RequestCancel()
	case "confirmCancel":
		return session.ConfirmCancel()
	case "declineCancel":
		return session.DeclineCancel()
	case "submit":
		_, err := session.Submit(r.Context())
		return err
	default:
		return errors.New("unsupported message type")
	}
}
