package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskdash/task-dashboard-api/internal/core/domain"
	"github.com/taskdash/task-dashboard-api/internal/core/password"
	"github.com/taskdash/task-dashboard-api/internal/core/ports"
	"github.com/taskdash/task-dashboard-api/internal/core/service"
	"github.com/taskdash/task-dashboard-api/internal/infrastructure/config"
)

// --- In-memory repositories ---

type memUserRepo struct {
	nextID int64
	users  map[int64]*domain.Identity
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*domain.Identity)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.Identity) (*domain.Identity, error) {
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	stored := *user
	stored.ID = r.nextID
	r.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *memUserRepo) FindByIdentifier(_ context.Context, identifier string) (*domain.Identity, error) {
	for _, u := range r.users {
		if u.Username == identifier || u.Email == identifier {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByUsernameOrEmail(_ context.Context, username, email string) (*domain.Identity, error) {
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id int64) (*domain.Identity, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *memUserRepo) All(_ context.Context) ([]domain.Identity, error) {
	out := make([]domain.Identity, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memUserRepo) UpdatePasswordHash(_ context.Context, id int64, digest string, updatedAt time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = digest
	u.UpdatedAt = updatedAt
	return nil
}

type memTaskRepo struct {
	nextID int64
	tasks  map[int64]*domain.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[int64]*domain.Task)}
}

func (r *memTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.nextID++
	stored := *task
	stored.ID = r.nextID
	r.tasks[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *memTaskRepo) FindByID(_ context.Context, ownerID, id int64) (*domain.Task, error) {
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	out := *t
	return &out, nil
}

func (r *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	t, ok := r.tasks[task.ID]
	if !ok || t.OwnerID != task.OwnerID {
		return domain.ErrTaskNotFound
	}
	stored := *task
	r.tasks[task.ID] = &stored
	return nil
}

func (r *memTaskRepo) Delete(_ context.Context, ownerID, id int64) error {
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *memTaskRepo) List(_ context.Context, filter ports.TaskFilter) ([]domain.Task, error) {
	out := make([]domain.Task, 0)
	for _, t := range r.tasks {
		if t.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		if filter.Priority != "" && string(t.Priority) != filter.Priority {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(t.Title), needle) &&
				!strings.Contains(strings.ToLower(t.Description), needle) {
				continue
			}
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- Test harness ---

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	hasher := password.NewHasher(bcrypt.MinCost)
	log := zerolog.Nop()
	authService := service.NewAuthService(newMemUserRepo(), hasher, log)
	taskService := service.NewTaskService(newMemTaskRepo(), log)

	return NewRouter(Deps{
		AuthService: authService,
		TaskService: taskService,
		RateLimits:  config.RateLimitConfig{},
		Registry:    prometheus.NewRegistry(),
		Log:         log,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func registerAccount(t *testing.T, h http.Handler, username, email, pass string) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": pass,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, rec.Code, rec.Body.String())
	}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// --- Tests ---

func TestRouter_RegisterLoginFlow(t *testing.T) {
	h := newTestRouter(t)
	registerAccount(t, h, "alice", "alice@example.com", "secret1")

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	decodeJSON(t, rec, &login)
	if login.Token != "alice" || login.User.Username != "alice" {
		t.Fatalf("unexpected login payload: %+v", login)
	}

	// Email works as the login identifier too.
	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice@example.com",
		"password": "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login by email: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", rec.Code)
	}
}

func TestRouter_DuplicateRegistration(t *testing.T) {
	h := newTestRouter(t)
	registerAccount(t, h, "alice", "alice@example.com", "secret1")

	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "secret1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate username: expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "secret1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", rec.Code)
	}
}

func TestRouter_MeRequiresCredential(t *testing.T) {
	h := newTestRouter(t)
	registerAccount(t, h, "alice", "alice@example.com", "secret1")

	rec := doJSON(t, h, http.MethodGet, "/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no credential: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/auth/me", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("with credential: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var me struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	decodeJSON(t, rec, &me)
	if me.Username != "alice" || me.Email != "alice@example.com" {
		t.Fatalf("unexpected /auth/me payload: %+v", me)
	}
}

func TestRouter_TaskOwnershipIsolation(t *testing.T) {
	h := newTestRouter(t)
	registerAccount(t, h, "alice", "alice@example.com", "secret1")
	registerAccount(t, h, "bob", "bob@example.com", "secret2")

	rec := doJSON(t, h, http.MethodPost, "/tasks", "alice", map[string]string{
		"title":    "write report",
		"priority": "high",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID       int64  `json:"id"`
		Status   string `json:"status"`
		Priority string `json:"priority"`
	}
	decodeJSON(t, rec, &created)
	if created.Status != "todo" || created.Priority != "high" {
		t.Fatalf("unexpected created task: %+v", created)
	}

	path := fmt.Sprintf("/tasks/%d", created.ID)

	// Owner sees the task.
	if rec := doJSON(t, h, http.MethodGet, path, "alice", nil); rec.Code != http.StatusOK {
		t.Fatalf("owner get: expected 200, got %d", rec.Code)
	}

	// Another identity gets the same answer as for a missing task.
	if rec := doJSON(t, h, http.MethodGet, path, "bob", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign get: expected 404, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPut, path, "bob", map[string]string{"title": "stolen"}); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign update: expected 404, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodDelete, path, "bob", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: expected 404, got %d", rec.Code)
	}

	// Bob's listing does not include alice's task.
	rec = doJSON(t, h, http.MethodGet, "/tasks", "bob", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("bob list: expected 200, got %d", rec.Code)
	}
	var listing struct {
		Count int `json:"count"`
	}
	decodeJSON(t, rec, &listing)
	if listing.Count != 0 {
		t.Fatalf("bob should see no tasks, got %d", listing.Count)
	}
}

func TestRouter_TaskLifecycle(t *testing.T) {
	h := newTestRouter(t)
	registerAccount(t, h, "alice", "alice@example.com", "secret1")

	rec := doJSON(t, h, http.MethodPost, "/tasks", "alice", map[string]string{
		"title":    "ship release",
		"due_date": "2026-09-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decodeJSON(t, rec, &created)
	path := fmt.Sprintf("/tasks/%d", created.ID)

	rec = doJSON(t, h, http.MethodPatch, path+"/status", "alice", map[string]string{"status": "in_progress"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status patch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var patched struct {
		Status string `json:"status"`
	}
	decodeJSON(t, rec, &patched)
	if patched.Status != "in_progress" {
		t.Fatalf("expected in_progress, got %q", patched.Status)
	}

	rec = doJSON(t, h, http.MethodPut, path, "alice", map[string]string{"description": "v2.1 with fixes"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		DueDate     string `json:"due_date"`
	}
	decodeJSON(t, rec, &updated)
	if updated.Title != "ship release" || updated.Description != "v2.1 with fixes" || updated.DueDate != "2026-09-01" {
		t.Fatalf("partial update clobbered fields: %+v", updated)
	}

	rec = doJSON(t, h, http.MethodGet, "/tasks/stats", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rec.Code)
	}
	var stats struct {
		Total      int `json:"total"`
		InProgress int `json:"in_progress"`
	}
	decodeJSON(t, rec, &stats)
	if stats.Total != 1 || stats.InProgress != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	rec = doJSON(t, h, http.MethodDelete, path, "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, path, "alice", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestRouter_ValidationErrors(t *testing.T) {
	h := newTestRouter(t)
	registerAccount(t, h, "alice", "alice@example.com", "secret1")

	// Registration payload failures.
	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "bb",
		"email":    "not-an-email",
		"password": "123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad register payload: expected 400, got %d", rec.Code)
	}

	// Task payload failures.
	rec = doJSON(t, h, http.MethodPost, "/tasks", "alice", map[string]string{
		"title":    "x",
		"priority": "urgent",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad priority: expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/tasks", "alice", map[string]string{
		"title":    "x",
		"due_date": "tomorrow",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad due_date: expected 400, got %d", rec.Code)
	}

	// Bad list filters surface as 400 too.
	rec = doJSON(t, h, http.MethodGet, "/tasks?status=someday", "alice", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status filter: expected 400, got %d", rec.Code)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newTestRouter(t)

	if rec := doJSON(t, h, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	rec := doJSON(t, h, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "taskdash") {
		t.Fatalf("metrics output missing namespace")
	}
}
