package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"akhlak-learning-service/internal/app"
	"akhlak-learning-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler drives one assessment session per connection.
type WSHandler struct {
	service  *app.AssessmentService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log,
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

type startPayload struct {
	Type       string `json:"type"`
	CategoryID string `json:"categoryId"`
}

type answerPayload struct {
	OptionIndex *int `json:"optionIndex"`
}

type feedbackPayload struct {
	Feedback domain.AnswerFeedback `json:"feedback"`
	State    app.SessionState      `json:"state"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS upgrades the request and serves assessment commands:
// start, answer, next, previous, state and finish. Closing the socket abandons
// the last session it started, unless another socket has since replaced it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var sessionID string
	defer func() {
		if sessionID != "" {
			h.service.AbandonSession(context.Background(), userID, sessionID)
		}
	}()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.String("user_id", userID), zap.Error(err))
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		msg := h.dispatch(ctx, userID, displayName, inbound)
		if st, ok := msg.Payload.(app.SessionState); ok && inbound.Type == "start" {
			sessionID = st.ID
		}
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, userID, displayName string, in inboundMessage) outboundMessage[any] {
	switch in.Type {
	case "start":
		var p startPayload
		if err := decodePayload(in.Payload, &p); err != nil {
			return errorMessage(err)
		}
		kind, err := domain.ParseSessionType(p.Type)
		if err != nil {
			return errorMessage(err)
		}
		st, err := h.service.Start(ctx, app.StartRequest{
			Type:       kind,
			CategoryID: p.CategoryID,
			UserID:     userID,
			UserName:   displayName,
		})
		if err != nil {
			return h.failure(userID, err)
		}
		return outboundMessage[any]{Type: "state", Payload: st}

	case "answer":
		var p answerPayload
		if err := decodePayload(in.Payload, &p); err != nil || p.OptionIndex == nil {
			return errorMessage(domain.ErrInvalidInput)
		}
		fb, st, err := h.service.Answer(ctx, userID, *p.OptionIndex)
		if err != nil {
			return h.failure(userID, err)
		}
		return outboundMessage[any]{Type: "feedback", Payload: feedbackPayload{Feedback: fb, State: st}}

	case "next", "previous", "state":
		var (
			st  app.SessionState
			err error
		)
		switch in.Type {
		case "next":
			st, err = h.service.Next(ctx, userID)
		case "previous":
			st, err = h.service.Previous(ctx, userID)
		default:
			st, err = h.service.State(ctx, userID)
		}
		if err != nil {
			return h.failure(userID, err)
		}
		return outboundMessage[any]{Type: "state", Payload: st}

	case "finish":
		res, err := h.service.Finish(ctx, userID)
		if err != nil {
			return h.failure(userID, err)
		}
		return outboundMessage[any]{Type: "results", Payload: res}
	}
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "unsupported", Message: "unsupported message type"}}
}

func (h *WSHandler) failure(userID string, err error) outboundMessage[any] {
	if !app.IsRecoverable(err) {
		h.log.Error("assessment command failed", zap.String("user_id", userID), zap.Error(err))
	}
	return errorMessage(err)
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return domain.ErrInvalidInput
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return nil
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: errorCode(err), Message: err.Error()}}
}

// errorCode maps domain errors to stable client-facing codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrIncompleteAssessment):
		return "incomplete"
	case errors.Is(err, domain.ErrNoActiveSession):
		return "no_session"
	case errors.Is(err, domain.ErrSessionFinished):
		return "finished"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	}
	return "internal"
}

func statusFor(err error) int {
	switch errorCode(err) {
	case "invalid_input":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "incomplete", "no_session", "finished":
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
