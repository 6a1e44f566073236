package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taskdash/task-dashboard-api/internal/api/middleware"
	"github.com/taskdash/task-dashboard-api/internal/core/domain"
)

type stubAuthService struct {
	registerFn     func(ctx context.Context, username, email, password string) (*domain.Identity, error)
	authenticateFn func(ctx context.Context, identifier, password string) (*domain.Identity, error)
}

func (s *stubAuthService) Register(ctx context.Context, username, email, password string) (*domain.Identity, error) {
	return s.registerFn(ctx, username, email, password)
}

func (s *stubAuthService) Authenticate(ctx context.Context, identifier, password string) (*domain.Identity, error) {
	return s.authenticateFn(ctx, identifier, password)
}

func (s *stubAuthService) ResolveCredential(ctx context.Context, credential string) (*domain.Identity, error) {
	return s.authenticateFn(ctx, credential, "")
}

func jsonContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register(t *testing.T) {
	svc := &stubAuthService{
		registerFn: func(_ context.Context, username, email, _ string) (*domain.Identity, error) {
			return &domain.Identity{ID: 1, Username: username, Email: email}, nil
		},
	}
	h := NewAuthHandler(svc)

	c, rec := jsonContext(t, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"secret1"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["username"] != "alice" {
		t.Fatalf("unexpected body: %v", resp)
	}
	if _, leaked := resp["password_hash"]; leaked {
		t.Fatalf("password hash leaked in response")
	}
}

func TestAuthHandler_RegisterConflict(t *testing.T) {
	svc := &stubAuthService{
		registerFn: func(_ context.Context, _, _, _ string) (*domain.Identity, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewAuthHandler(svc)

	c, rec := jsonContext(t, http.MethodPost, "/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"secret1"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAuthHandler_RegisterRejectsBadPayload(t *testing.T) {
	svc := &stubAuthService{
		registerFn: func(_ context.Context, _, _, _ string) (*domain.Identity, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(svc)

	cases := []struct {
		name string
		body string
	}{
		{"short username", `{"username":"ab","email":"a@x.com","password":"secret1"}`},
		{"bad email", `{"username":"alice","email":"nope","password":"secret1"}`},
		{"short password", `{"username":"alice","email":"a@x.com","password":"123"}`},
		{"missing fields", `{}`},
	}
	for _, tc := range cases {
		c, rec := jsonContext(t, http.MethodPost, "/auth/register", tc.body)
		if err := h.Register(c); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestAuthHandler_Login(t *testing.T) {
	svc := &stubAuthService{
		authenticateFn: func(_ context.Context, identifier, pass string) (*domain.Identity, error) {
			if identifier == "alice" && pass == "secret1" {
				return &domain.Identity{ID: 1, Username: "alice", Email: "alice@example.com"}, nil
			}
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(svc)

	c, rec := jsonContext(t, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"secret1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token != "alice" {
		t.Fatalf("token should echo the username, got %q", resp.Token)
	}

	c, rec = jsonContext(t, http.MethodPost, "/auth/login",
		`{"username":"alice","password":"wrong"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, rec := jsonContext(t, http.MethodGet, "/auth/me", "")
	c.Set(middleware.IdentityKey, &domain.Identity{ID: 7, Username: "alice", Email: "alice@example.com"})
	if err := h.Me(c); err != nil {
		t.Fatalf("me: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// Without an injected identity the handler refuses.
	c, _ = jsonContext(t, http.MethodGet, "/auth/me", "")
	err := h.Me(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 HTTPError, got %v", err)
	}
}
