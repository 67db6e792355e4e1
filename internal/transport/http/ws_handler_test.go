package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gamified-lms/internal/domain"
)

func TestWebSocketLeaderboardFlow(t *testing.T) {
	e := newTestEnv(t)
	teacher := e.signup(t, "Tess", "tess@example.com", domain.RoleTeacher)
	student := e.signup(t, "Sam", "sam@example.com", domain.RoleStudent)
	topicID := createArithmetic(t, e, teacher)

	u := "ws" + e.server.URL[len("http"):] + "/ws/leaderboard?token=" + student
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the initial snapshot first.
	if entries := readLeaderboard(t, conn); len(entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %v", entries)
	}

	status, out := e.do(t, http.MethodPost, topicPath(topicID, "/respond"), student, map[string]any{"responses": []string{"option_b", "option_a"}})
	if status != http.StatusOK {
		t.Fatalf("submit: %d %v", status, out)
	}

	entries := readLeaderboard(t, conn)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %v", entries)
	}
	entry := entries[0].(map[string]any)
	if entry["display_name"] != "Sam" || entry["points"] != 20.0 {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	e := newTestEnv(t)
	u := "ws" + e.server.URL[len("http"):] + "/ws/leaderboard"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func readLeaderboard(t *testing.T, conn *websocket.Conn) []any {
	t.Helper()
	var msg struct {
		Type    string `json:"type"`
		Payload struct {
			Entries []any `json:"entries"`
		} `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "leaderboard" {
		t.Fatalf("expected leaderboard message, got %s", msg.Type)
	}
	return msg.Payload.Entries
}
