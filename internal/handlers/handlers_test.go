package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/handlers"
	"taskhub/internal/models"
	"taskhub/internal/realtime"
	"taskhub/internal/repositories"
	"taskhub/internal/routes"
	"taskhub/internal/services"
	"taskhub/internal/testutil"
)

type testServer struct {
	router   *gin.Engine
	tokens   *services.TokenService
	registry *realtime.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewTestDB(t)

	tokens := services.NewTokenService("test-secret", "taskhub", time.Hour)
	registry := realtime.NewRegistry()
	ledger := services.NewNotificationService(repositories.NewNotificationRepository(db))
	tasks := services.NewTaskService(repositories.NewTaskRepository(db), ledger, registry)
	auth := services.NewAuthService(repositories.NewUserRepository(db), tokens)

	r := gin.New()
	routes.SetupRoutes(r, tokens,
		handlers.NewAuthHandler(auth),
		handlers.NewTaskHandler(tasks),
		handlers.NewNotificationHandler(ledger),
		handlers.NewSocketHandler(tokens, registry, 8, time.Second),
	)
	return &testServer{router: r, tokens: tokens, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, _, err := s.tokens.Issue(userID)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func taskBody(assignee string) map[string]any {
	return map[string]any{
		"title":        "Write report",
		"description":  "quarterly",
		"dueDate":      time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"priority":     "HIGH",
		"assignedToId": assignee,
	}
}

func TestTaskEndpointsRequireCredential(t *testing.T) {
	s := newTestServer(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks"},
		{http.MethodPut, "/tasks/x"},
		{http.MethodDelete, "/tasks/x"},
		{http.MethodGet, "/notifications"},
		{http.MethodPatch, "/notifications/x/read"},
		{http.MethodGet, "/ws"},
	} {
		w := s.do(t, tc.method, tc.path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestCreateTaskFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/tasks", "alice", taskBody("bob"))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	task := decode[models.Task](t, w)
	if task.CreatorID != "alice" || task.AssignedToID != "bob" || task.Status != models.StatusTodo || task.Version != 1 {
		t.Fatalf("unexpected task %+v", task)
	}

	w = s.do(t, http.MethodGet, "/notifications", "bob", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	notes := decode[[]models.Notification](t, w)
	if len(notes) != 1 || notes[0].TaskID != task.ID || notes[0].Type != models.NotificationTaskAssigned {
		t.Fatalf("unexpected notifications %+v", notes)
	}

	// alice cannot mark bob's notification
	w = s.do(t, http.MethodPatch, "/notifications/"+notes[0].ID+"/read", "alice", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign notification, got %d", w.Code)
	}
	w = s.do(t, http.MethodPatch, "/notifications/"+notes[0].ID+"/read", "bob", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = s.do(t, http.MethodGet, "/notifications", "bob", nil)
	if notes := decode[[]models.Notification](t, w); len(notes) != 0 {
		t.Fatalf("expected no unread, got %d", len(notes))
	}
}

func TestCreateTaskIgnoresClientCreator(t *testing.T) {
	s := newTestServer(t)
	body := taskBody("bob")
	body["creatorId"] = "mallory"
	w := s.do(t, http.MethodPost, "/tasks", "alice", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if task := decode[models.Task](t, w); task.CreatorID != "alice" {
		t.Fatalf("creator taken from payload: %q", task.CreatorID)
	}
}

func TestCreateTaskValidationErrors(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/tasks", "alice", map[string]any{"title": "", "priority": "NOPE"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, w)
	for _, f := range []string{"title", "dueDate", "priority", "assignedToId"} {
		if _, ok := resp.Fields[f]; !ok {
			t.Fatalf("missing field %s in %v", f, resp.Fields)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString("{not json"))
	token, _, _ := s.tokens.Issue("alice")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestUpdateDeleteAndAccess(t *testing.T) {
	s := newTestServer(t)
	task := decode[models.Task](t, s.do(t, http.MethodPost, "/tasks", "alice", taskBody("bob")))

	if w := s.do(t, http.MethodGet, "/tasks/"+task.ID, "carol", nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for outsider, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/tasks/missing", "alice", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w := s.do(t, http.MethodPut, "/tasks/"+task.ID, "bob", map[string]any{"status": "IN_PROGRESS", "version": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	updated := decode[models.Task](t, w)
	if updated.Status != models.StatusInProgress || updated.Version != 2 {
		t.Fatalf("unexpected task %+v", updated)
	}

	w = s.do(t, http.MethodPut, "/tasks/"+task.ID, "alice", map[string]any{"status": "COMPLETED", "version": 1})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for stale version, got %d", w.Code)
	}
	w = s.do(t, http.MethodPut, "/tasks/"+task.ID, "alice", map[string]any{"status": "DONE"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status, got %d", w.Code)
	}

	if w := s.do(t, http.MethodDelete, "/tasks/"+task.ID, "carol", nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if w := s.do(t, http.MethodDelete, "/tasks/"+task.ID, "alice", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := s.do(t, http.MethodDelete, "/tasks/"+task.ID, "alice", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestListTasksFilters(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/tasks", "alice", taskBody("bob"))
	low := taskBody("alice")
	low["priority"] = "LOW"
	s.do(t, http.MethodPost, "/tasks", "carol", low)

	all := decode[[]models.Task](t, s.do(t, http.MethodGet, "/tasks", "alice", nil))
	if len(all) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(all))
	}
	high := decode[[]models.Task](t, s.do(t, http.MethodGet, "/tasks?priority=HIGH", "alice", nil))
	if len(high) != 1 || high[0].Priority != models.PriorityHigh {
		t.Fatalf("unexpected filtered list %+v", high)
	}
	if w := s.do(t, http.MethodGet, "/tasks?status=LATER", "alice", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad filter, got %d", w.Code)
	}
}

func TestRegisterLoginAndUsers(t *testing.T) {
	s := newTestServer(t)
	reg := map[string]string{"name": "Dana", "email": "dana@example.com", "password": "secret1"}
	w := s.do(t, http.MethodPost, "/auth/register", "", reg)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Fatal("password hash leaked in response")
	}
	if w := s.do(t, http.MethodPost, "/auth/register", "", reg); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "dana@example.com", "password": "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	login := decode[struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}](t, w)
	if login.Token == "" || login.User.Email != "dana@example.com" {
		t.Fatalf("unexpected login response %+v", login)
	}

	if w := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "dana@example.com", "password": "wrong!"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if users := decode[[]models.User](t, rec); len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
}
