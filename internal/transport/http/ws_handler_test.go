package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizgate/internal/app"
	"quizgate/internal/infra/memory"

	"github.com/gorilla/websocket"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	sessions := memory.NewSessionStore()
	server, _ := newWSServer(t, sessions)
	defer server.Close()

	conn := dialWS(t, server, "quiz-1")
	defer conn.Close()

	// initial snapshot arrives locked
	typ, payload := readNext(conn, t, "state")
	if payload["phase"] != "locked" {
		t.Fatalf("expected locked snapshot, got %v", payload["phase"])
	}

	// a wrong password is rejected and the session stays usable
	writeMsg(t, conn, "unlock", map[string]any{"name": "Alice", "password": "wrong"})
	typ, _ = readNext(conn, t, "error")
	if typ != "error" {
		t.Fatalf("expected error, got %s", typ)
	}

	writeMsg(t, conn, "unlock", map[string]any{"name": "Alice", "password": "secret"})
	seen := map[string]bool{}
	for i := 0; i < 4 && (!seen["quiz"] || !seen["in_progress"]); i++ {
		typ, payload = readNext(conn, t, "")
		switch typ {
		case "quiz":
			seen["quiz"] = true
			if payload["title"] != "First" {
				t.Fatalf("unexpected quiz payload: %v", payload)
			}
		case "state":
			if payload["phase"] == "in_progress" {
				seen["in_progress"] = true
			}
		}
	}
	if !seen["quiz"] || !seen["in_progress"] {
		t.Fatalf("expected quiz content and in-progress state, got %v", seen)
	}

	writeMsg(t, conn, "answer", map[string]any{"index": 0, "choice": "B"})
	waitForAnswer(conn, t, 0, "B")

	writeMsg(t, conn, "submit", map[string]any{"confirm": true})
	for i := 0; i < 8; i++ {
		typ, payload = readNext(conn, t, "")
		if typ == "submitted" {
			break
		}
	}
	if typ != "submitted" {
		t.Fatalf("expected submitted message, got %s", typ)
	}
	if score, ok := payload["score"].(float64); !ok || int(score) != 1 {
		t.Fatalf("expected score 1, got %v", payload["score"])
	}
}

func TestWebSocketResumesVerifiedAttempt(t *testing.T) {
	sessions := memory.NewSessionStore()
	server, _ := newWSServer(t, sessions)
	defer server.Close()

	conn := dialWS(t, server, "quiz-1")
	_, _ = readNext(conn, t, "state")
	writeMsg(t, conn, "unlock", map[string]any{"name": "Alice", "password": "secret"})
	// let the unlock land before dropping the connection
	waitForPhase(conn, t, "in_progress")
	writeMsg(t, conn, "answer", map[string]any{"index": 1, "choice": "D"})
	waitForAnswer(conn, t, 1, "D")
	conn.Close()

	// reconnect: the persisted record resumes without a password
	conn2 := dialWS(t, server, "quiz-1")
	defer conn2.Close()
	seenQuiz, seenState := false, false
	for i := 0; i < 8 && !(seenQuiz && seenState); i++ {
		typ, payload := readNext(conn2, t, "")
		if typ == "quiz" {
			seenQuiz = true
		}
		if typ == "state" && payload["phase"] == "in_progress" {
			if answers, ok := payload["answers"].([]any); ok && len(answers) == 2 && answers[1] == "D" {
				seenState = true
			}
		}
	}
	if !seenQuiz || !seenState {
		t.Fatalf("expected resumed attempt with quiz content and saved answer, got quiz=%v state=%v", seenQuiz, seenState)
	}
}

func newWSServer(t *testing.T, sessions *memory.SessionStore) (*httptest.Server, *app.AssessmentService) {
	t.Helper()
	loader := memory.NewStaticQuizLoader(testQuizzes())
	repo := memory.NewQuizRepository(loader, time.Minute)
	service := app.NewAssessmentService(repo, loader, memory.NewResultStore())
	wsHandler := NewWSHandler(service, sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	return httptest.NewServer(mux), service
}

func dialWS(t *testing.T, server *httptest.Server, quizID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?quizId=" + quizID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func writeMsg(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func waitForPhase(conn *websocket.Conn, t *testing.T, phase string) {
	t.Helper()
	for i := 0; i < 6; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == "state" && payload["phase"] == phase {
			return
		}
	}
	t.Fatalf("never observed phase %s", phase)
}

func waitForAnswer(conn *websocket.Conn, t *testing.T, index int, choice string) {
	t.Helper()
	for i := 0; i < 6; i++ {
		typ, payload := readNext(conn, t, "")
		if typ != "state" {
			continue
		}
		if answers, ok := payload["answers"].([]any); ok && len(answers) > index && answers[index] == choice {
			return
		}
	}
	t.Fatalf("never observed answer %q at %d", choice, index)
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
