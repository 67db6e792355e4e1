package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gamified-lms/internal/app"
	"gamified-lms/internal/auth"
	"gamified-lms/internal/domain"
	"gamified-lms/internal/infra/memory"
	"gamified-lms/internal/logger"
)

type testEnv struct {
	server      *httptest.Server
	store       *memory.Store
	tokens      *auth.TokenService
	leaderboard *app.LeaderboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Nop()
	store := memory.NewStore()
	tokens, err := auth.NewTokenService("test-secret", "gamified-lms", time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	leaderboard := app.NewLeaderboardService(memory.NewLeaderboard(), 10)
	svc := Services{
		Identity:        app.NewIdentityService(store, tokens, bcrypt.MinCost),
		Topics:          app.NewTopicService(store, log),
		Scoring:         app.NewScoringService(memory.NewAnswerKeyCache(store, time.Minute), store, leaderboard, 10, log),
		Inbox:           app.NewInboxService(store),
		Leaderboard:     leaderboard,
		Recommendations: app.NewRecommendationService(app.NoopRecommender{}, 50*time.Millisecond, log),
	}
	router := NewRouter(NewHandler(svc, log), NewWSHandler(leaderboard, tokens, log), tokens, log, RouterOptions{RequestTimeout: 5 * time.Second})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, store: store, tokens: tokens, leaderboard: leaderboard}
}

// signup registers a user through the API and returns its bearer token.
func (e *testEnv) signup(t *testing.T, name, email string, role domain.Role) string {
	t.Helper()
	if role == domain.RoleAdmin {
		u, err := e.store.CreateUser(context.Background(), domain.User{FullName: name, Email: email, Role: role})
		if err != nil {
			t.Fatalf("create admin: %v", err)
		}
		token, err := e.tokens.Issue(u)
		if err != nil {
			t.Fatalf("issue admin token: %v", err)
		}
		return token
	}
	body := map[string]any{"full_name": name, "email": email, "password": "secret123", "role": role}
	if status, out := e.do(t, http.MethodPost, "/auth/register", "", body); status != http.StatusCreated {
		t.Fatalf("register %s: %d %v", email, status, out)
	}
	status, out := e.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": email, "password": "secret123"})
	if status != http.StatusOK {
		t.Fatalf("login %s: %d %v", email, status, out)
	}
	return out["token"].(string)
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	status, raw := e.doRaw(t, method, path, token, body)
	var out map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, raw, err)
		}
	}
	return status, out
}

func (e *testEnv) doRaw(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp.StatusCode, buf.Bytes()
}

func arithmeticPayload() map[string]any {
	return map[string]any{
		"title":       "Arithmetic",
		"description": "Numbers",
		"difficulty":  "easy",
		"questions": []map[string]any{
			{"question": "2+2?", "option_a": "3", "option_b": "4", "option_c": "5", "option_d": "6", "correct_answer": "option_b"},
			{"question": "3*3?", "option_a": "9", "option_b": "6", "option_c": "12", "option_d": "0", "correct_answer": "option_a"},
		},
	}
}

func createArithmetic(t *testing.T, e *testEnv, teacher string) int64 {
	t.Helper()
	status, out := e.do(t, http.MethodPost, "/topics", teacher, arithmeticPayload())
	if status != http.StatusCreated {
		t.Fatalf("create topic: %d %v", status, out)
	}
	return int64(out["topic"].(map[string]any)["id"].(float64))
}

func topicPath(id int64, suffix string) string {
	return "/topics/" + strconv.FormatInt(id, 10) + suffix
}

func TestQuizFlowScoresSubmissions(t *testing.T) {
	e := newTestEnv(t)
	teacher := e.signup(t, "Tess", "tess@example.com", domain.RoleTeacher)
	first := e.signup(t, "Sam", "sam@example.com", domain.RoleStudent)
	second := e.signup(t, "Kim", "kim@example.com", domain.RoleStudent)
	topicID := createArithmetic(t, e, teacher)

	status, out := e.do(t, http.MethodPost, topicPath(topicID, "/respond"), first, map[string]any{"responses": []string{"option_b", "option_c"}})
	if status != http.StatusOK {
		t.Fatalf("submit: %d %v", status, out)
	}
	if out["score"] != 50.0 || out["correct"] != 1.0 || out["total"] != 2.0 {
		t.Fatalf("expected 50/1/2, got %v", out)
	}

	status, out = e.do(t, http.MethodPost, topicPath(topicID, "/respond"), second, map[string]any{"responses": []string{"option_b", "option_a"}})
	if status != http.StatusOK {
		t.Fatalf("submit: %d %v", status, out)
	}
	if out["score"] != 100.0 || out["correct"] != 2.0 || out["total"] != 2.0 {
		t.Fatalf("expected 100/2/2, got %v", out)
	}

	status, out = e.do(t, http.MethodPost, topicPath(topicID, "/respond"), first, map[string]any{"responses": []string{"option_b", "option_a"}})
	if status != http.StatusConflict || out["error"] != "conflict" {
		t.Fatalf("expected 409 on retake, got %d %v", status, out)
	}

	status, out = e.do(t, http.MethodGet, "/me/stats", second, nil)
	if status != http.StatusOK || out["total_points"] != 20.0 {
		t.Fatalf("expected 20 points, got %d %v", status, out)
	}
}

func TestTopicListingNeverExposesAnswers(t *testing.T) {
	e := newTestEnv(t)
	teacher := e.signup(t, "Tess", "tess@example.com", domain.RoleTeacher)
	student := e.signup(t, "Sam", "sam@example.com", domain.RoleStudent)
	createArithmetic(t, e, teacher)

	for _, token := range []string{student, teacher} {
		status, raw := e.doRaw(t, http.MethodGet, "/topics", token, nil)
		if status != http.StatusOK {
			t.Fatalf("list topics: %d %s", status, raw)
		}
		if !bytes.Contains(raw, []byte(`"teacher_name":"Tess"`)) {
			t.Fatalf("expected teacher name in listing: %s", raw)
		}
		if bytes.Contains(raw, []byte("correct_answer")) {
			t.Fatalf("listing leaks answer key: %s", raw)
		}
	}

	status, raw := e.doRaw(t, http.MethodGet, "/my-topics", teacher, nil)
	if status != http.StatusOK || !bytes.Contains(raw, []byte(`"correct_answer":"option_b"`)) {
		t.Fatalf("authors should see their answer keys: %d %s", status, raw)
	}
}

func TestQAInboxFlow(t *testing.T) {
	e := newTestEnv(t)
	teacher := e.signup(t, "Tess", "tess@example.com", domain.RoleTeacher)
	student := e.signup(t, "Sam", "sam@example.com", domain.RoleStudent)

	status, out := e.do(t, http.MethodPost, "/questions", student, map[string]any{"question": "What is a closure?"})
	if status != http.StatusCreated {
		t.Fatalf("ask: %d %v", status, out)
	}
	q := out["question"].(map[string]any)
	if q["status"] != "pending" {
		t.Fatalf("expected pending, got %v", q)
	}
	id := int64(q["id"].(float64))

	status, out = e.do(t, http.MethodGet, "/pending-questions", teacher, nil)
	pending := out["questions"].([]any)
	if status != http.StatusOK || len(pending) != 1 || pending[0].(map[string]any)["student_name"] != "Sam" {
		t.Fatalf("pending: %d %v", status, out)
	}

	path := "/questions/" + strconv.FormatInt(id, 10) + "/respond"
	status, out = e.do(t, http.MethodPost, path, teacher, map[string]any{"response": "A function bound to its lexical scope"})
	if status != http.StatusOK || out["message"] == nil {
		t.Fatalf("respond: %d %v", status, out)
	}

	status, out = e.do(t, http.MethodGet, "/my-questions", student, nil)
	mine := out["questions"].([]any)
	if status != http.StatusOK || len(mine) != 1 {
		t.Fatalf("my questions: %d %v", status, out)
	}
	got := mine[0].(map[string]any)
	if got["status"] != "answered" || got["teacher_response"] != "A function bound to its lexical scope" {
		t.Fatalf("expected answered question, got %v", got)
	}

	status, out = e.do(t, http.MethodPost, path, teacher, map[string]any{"response": "again"})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on second response, got %d %v", status, out)
	}
}

func TestErrorMapping(t *testing.T) {
	e := newTestEnv(t)
	teacher := e.signup(t, "Tess", "tess@example.com", domain.RoleTeacher)
	student := e.signup(t, "Sam", "sam@example.com", domain.RoleStudent)
	topicID := createArithmetic(t, e, teacher)

	bad := arithmeticPayload()
	bad["questions"].([]map[string]any)[1]["correct_answer"] = "option_e"

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		kind   string
	}{
		{"no token", http.MethodGet, "/topics", "", nil, http.StatusUnauthorized, "authentication_error"},
		{"bad token", http.MethodGet, "/topics", "garbage", nil, http.StatusUnauthorized, "authentication_error"},
		{"student creates topic", http.MethodPost, "/topics", student, arithmeticPayload(), http.StatusForbidden, "authorization_error"},
		{"invalid question", http.MethodPost, "/topics", teacher, bad, http.StatusBadRequest, "validation_error"},
		{"teacher submits", http.MethodPost, topicPath(topicID, "/respond"), teacher, map[string]any{"responses": []string{"option_b", "option_a"}}, http.StatusForbidden, "authorization_error"},
		{"length mismatch", http.MethodPost, topicPath(topicID, "/respond"), student, map[string]any{"responses": []string{"option_b"}}, http.StatusBadRequest, "validation_error"},
		{"unknown topic", http.MethodPost, "/topics/999/respond", student, map[string]any{"responses": []string{"option_b"}}, http.StatusNotFound, "not_found"},
		{"bad topic id", http.MethodPost, "/topics/abc/respond", student, map[string]any{"responses": []string{}}, http.StatusBadRequest, "validation_error"},
		{"empty response", http.MethodPost, "/questions/1/respond", teacher, map[string]any{"response": " "}, http.StatusBadRequest, "validation_error"},
		{"student lists users", http.MethodGet, "/users", student, nil, http.StatusForbidden, "authorization_error"},
		{"wrong password", http.MethodPost, "/auth/login", "", map[string]any{"email": "sam@example.com", "password": "nope"}, http.StatusUnauthorized, "authentication_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, out := e.do(t, tc.method, tc.path, tc.token, tc.body)
			if status != tc.status || out["error"] != tc.kind {
				t.Fatalf("expected %d %s, got %d %v", tc.status, tc.kind, status, out)
			}
			if msg, _ := out["message"].(string); msg == "" {
				t.Fatalf("expected a message, got %v", out)
			}
		})
	}
}

func TestAdminRoleManagement(t *testing.T) {
	e := newTestEnv(t)
	admin := e.signup(t, "Ada", "ada@example.com", domain.RoleAdmin)
	e.signup(t, "Sam", "sam@example.com", domain.RoleStudent)

	status, out := e.do(t, http.MethodGet, "/users", admin, nil)
	users := out["users"].([]any)
	if status != http.StatusOK || len(users) != 2 {
		t.Fatalf("list users: %d %v", status, out)
	}
	if bytes.Contains(mustJSON(t, users), []byte("password")) {
		t.Fatalf("password hash must never be serialised")
	}

	status, out = e.do(t, http.MethodPut, "/users/2/role", admin, map[string]any{"role": "teacher"})
	if status != http.StatusOK || out["user"].(map[string]any)["role"] != "teacher" {
		t.Fatalf("set role: %d %v", status, out)
	}
}

func TestRecommendationsFallBackOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	student := e.signup(t, "Sam", "sam@example.com", domain.RoleStudent)

	status, out := e.do(t, http.MethodPost, "/recommendations", student, nil)
	if status != http.StatusOK || out["fallback"] != true {
		t.Fatalf("expected fallback recommendations, got %d %v", status, out)
	}
	status, out = e.do(t, http.MethodPost, "/recommendations/predict/quiz-1", student, map[string]any{"userStats": map[string]any{"avg": 0.5}})
	if status != http.StatusOK || out["fallback"] != true || out["predicted_score"] != 0.7 {
		t.Fatalf("expected fallback prediction, got %d %v", status, out)
	}
	status, out = e.do(t, http.MethodPost, "/recommendations/profile", student, map[string]any{})
	if status != http.StatusOK || out["fallback"] != true {
		t.Fatalf("expected fallback profile, got %d %v", status, out)
	}
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	status, raw := e.doRaw(t, http.MethodGet, "/healthz", "", nil)
	if status != http.StatusOK || string(raw) != "ok" {
		t.Fatalf("healthz: %d %s", status, raw)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestLeaderboardLimitIsCapped(t *testing.T) {
	e := newTestEnv(t)
	student := e.signup(t, "Sam", "sam@example.com", domain.RoleStudent)
	ctx := context.Background()
	for i := 0; i < 105; i++ {
		u, err := e.store.CreateUser(ctx, domain.User{FullName: "Learner", Email: "learner" + strconv.Itoa(i) + "@example.com", Role: domain.RoleStudent})
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
		if err := e.leaderboard.Award(ctx, domain.Actor{UserID: u.ID, Role: domain.RoleStudent, Name: u.FullName}, i+1); err != nil {
			t.Fatalf("award: %v", err)
		}
	}

	status, out := e.do(t, http.MethodGet, "/leaderboard?limit=5000", student, nil)
	if status != http.StatusOK {
		t.Fatalf("leaderboard: %d %v", status, out)
	}
	if entries := out["entries"].([]any); len(entries) != 100 {
		t.Fatalf("expected 100 entries, got %d", len(entries))
	}
}

func TestUpdateOwnProfile(t *testing.T) {
	e := newTestEnv(t)
	student := e.signup(t, "Sam", "sam@example.com", domain.RoleStudent)

	status, out := e.do(t, http.MethodPut, "/users/profile", student, map[string]any{"full_name": "Samantha", "role": "admin"})
	if status != http.StatusOK {
		t.Fatalf("update profile: %d %v", status, out)
	}
	user := out["user"].(map[string]any)
	if user["full_name"] != "Samantha" || user["role"] != "student" {
		t.Fatalf("expected only the name to change, got %v", user)
	}

	status, out = e.do(t, http.MethodGet, "/me", student, nil)
	if status != http.StatusOK || out["user"].(map[string]any)["full_name"] != "Samantha" {
		t.Fatalf("me after update: %d %v", status, out)
	}
}
