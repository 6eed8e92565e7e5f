package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quizgate/internal/domain"
	"quizgate/internal/session"

	"github.com/gorilla/websocket"
)

// WSHandler hosts one quiz attempt per connection: the session state
// machine and its countdown run server-side against the shared session
// store, so a dropped connection resumes exactly where it left off.
type WSHandler struct {
	backend  session.Backend
	sessions session.Store
	upgrader websocket.Upgrader
}

func NewWSHandler(backend session.Backend, sessions session.Store) *WSHandler {
	return &WSHandler{
		backend:  backend,
		sessions: sessions,
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

type unlockPayload struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type answerPayload struct {
	Index  int    `json:"index"`
	Choice string `json:"choice"`
}

type gotoPayload struct {
	Index int `json:"index"`
}

type movePayload struct {
	Delta int `json:"delta"`
}

type submitPayload struct {
	Confirm bool `json:"confirm"`
}

type submittedPayload struct {
	Score int `json:"score"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and multiplexes one attempt's messages
// over the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancelCtx := context.WithCancel(r.Context())
	defer cancelCtx()

	mgr, err := session.NewManager(ctx, quizID, h.backend, h.sessions)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel := mgr.Subscribe()
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

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	countdownStarted := false
	startCountdown := func() {
		if !countdownStarted {
			countdownStarted = true
			go mgr.RunCountdown(ctx)
		}
	}

	// A reconnect with a verified record picks the attempt back up
	// without re-entering the password.
	if err := mgr.Resume(ctx); err == nil {
		send <- outboundMessage[any]{Type: "quiz", Payload: mgr.Quiz()}
		startCountdown()
	} else if !errors.Is(err, domain.ErrNotVerified) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "unlock":
			var payload unlockPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid unlock payload"}}
				continue
			}
			if err := mgr.Unlock(ctx, payload.Name, payload.Password); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "quiz", Payload: mgr.Quiz()}
			startCountdown()
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			if err := mgr.Answer(ctx, payload.Index, payload.Choice); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "goto":
			var payload gotoPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid goto payload"}}
				continue
			}
			mgr.SetCursor(ctx, payload.Index)
		case "move":
			var payload movePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid move payload"}}
				continue
			}
			mgr.Move(ctx, payload.Delta)
		case "submit":
			var payload submitPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid submit payload"}}
				continue
			}
			score, err := mgr.Submit(ctx, payload.Confirm)
			if err != nil {
				if errors.Is(err, domain.ErrSubmitInFlight) || errors.Is(err, domain.ErrSessionClosed) {
					// the deadline or an earlier submit already won; nothing to redo
					continue
				}
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "submitted", Payload: submittedPayload{Score: score}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
