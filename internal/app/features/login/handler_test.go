package login_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/taskhub/internal/app/features/errors"
	"github.com/dalemusser/taskhub/internal/app/features/login"
	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/store/memstore"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/ratelimit"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, users login.UserStore, limiter *ratelimit.AuthLimiter) (http.Handler, *auth.SessionManager, *memstore.Audit) {
	t.Helper()
	logger := zap.NewNop()
	trail := memstore.New().Audit()
	auditLog := auditlog.New(trail, logger, auditlog.Config{})
	sm := testutil.NewSessionManager(t)
	tokens, err := auth.NewTokens("test-jwt-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens failed: %v", err)
	}
	sm.SetTokens(tokens)
	h := login.NewHandler(users, sm, limiter, auditLog, uierrors.NewErrorLogger(logger), logger)
	return login.Routes(h), sm, trail
}

type sessionBody struct {
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

func register(t *testing.T, r http.Handler, name, email, password string) *testutil.ResponseRecorder {
	t.Helper()
	body := map[string]string{"name": name, "email": email, "password": password}
	return testutil.Serve(r, testutil.NewJSONRequest(t, "POST", "/register", body))
}

func TestHandleRegister(t *testing.T) {
	r, sm, _ := newTestHandler(t, memstore.New().Users(), nil)

	rec := register(t, r, " Ada Lovelace ", "Ada@Example.com", "secret1")
	rec.AssertStatus(t, http.StatusCreated)

	var body sessionBody
	rec.DecodeJSON(t, &body)
	if body.User.Email != "ada@example.com" || body.User.Name != "Ada Lovelace" {
		t.Errorf("user not normalized: %+v", body.User)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
	rec.AssertContains(t, `"token"`)
	if _, err := sm.Tokens().Parse(body.Token); err != nil {
		t.Errorf("issued token does not parse: %v", err)
	}
	if strings.Contains(rec.Body.String(), "password") || strings.Contains(rec.Body.String(), "$2a$") {
		t.Error("response leaks the password hash")
	}
}

func TestHandleRegister_Validation(t *testing.T) {
	r, _, _ := newTestHandler(t, memstore.New().Users(), nil)

	tests := []struct {
		name, user, email, password string
		status                      int
		msg                         string
	}{
		{"short name", "A", "a@example.com", "secret1", http.StatusBadRequest, "Name must be at least 2 characters."},
		{"bad email", "Ada", "ada@", "secret1", http.StatusBadRequest, "A valid email address is required."},
		{"short password", "Ada", "ada@example.com", "12345", http.StatusBadRequest, "Password must be at least 6 characters."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := register(t, r, tt.user, tt.email, tt.password)
			rec.AssertStatus(t, tt.status)
			if got := rec.ErrorMessage(t); got != tt.msg {
				t.Errorf("message: got %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestHandleRegister_DuplicateEmail(t *testing.T) {
	r, _, _ := newTestHandler(t, memstore.New().Users(), nil)

	register(t, r, "Ada", "ada@example.com", "secret1").AssertStatus(t, http.StatusCreated)
	register(t, r, "Ada Again", " ADA@example.com", "secret2").AssertStatus(t, http.StatusConflict)
}

func TestHandleLogin(t *testing.T) {
	r, _, _ := newTestHandler(t, memstore.New().Users(), nil)
	register(t, r, "Ada", "ada@example.com", "secret1").AssertStatus(t, http.StatusCreated)

	tests := []struct {
		name     string
		email    string
		password string
		status   int
	}{
		{"success", "ADA@example.com", "secret1", http.StatusOK},
		{"wrong password", "ada@example.com", "wrong!!", http.StatusUnauthorized},
		{"unknown email", "bob@example.com", "secret1", http.StatusUnauthorized},
		{"missing password", "ada@example.com", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]string{"email": tt.email, "password": tt.password}
			rec := testutil.Serve(r, testutil.NewJSONRequest(t, "POST", "/login", body))
			rec.AssertStatus(t, tt.status)
			if tt.status == http.StatusUnauthorized {
				if got := rec.ErrorMessage(t); got != "Invalid email or password." {
					t.Errorf("message: got %q", got)
				}
			}
		})
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	limiter := ratelimit.NewAuthLimiterWithConfig(100, time.Minute, 2, time.Minute)
	r, _, _ := newTestHandler(t, memstore.New().Users(), limiter)

	body := map[string]string{"email": "ada@example.com", "password": "nope123"}
	for i := 0; i < 2; i++ {
		testutil.Serve(r, testutil.NewJSONRequest(t, "POST", "/login", body)).AssertStatus(t, http.StatusUnauthorized)
	}
	testutil.Serve(r, testutil.NewJSONRequest(t, "POST", "/login", body)).AssertStatus(t, http.StatusTooManyRequests)
}

func TestHandleLogin_MongoUserStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r, _, _ := newTestHandler(t, userstore.New(db), nil)

	register(t, r, "Ada", "ada@example.com", "secret1").AssertStatus(t, http.StatusCreated)
	register(t, r, "Ada", "ada@example.com", "secret1").AssertStatus(t, http.StatusConflict)

	body := map[string]string{"email": "ada@example.com", "password": "secret1"}
	testutil.Serve(r, testutil.NewJSONRequest(t, "POST", "/login", body)).AssertStatus(t, http.StatusOK)
}

func TestHandleLogin_Audited(t *testing.T) {
	r, _, trail := newTestHandler(t, memstore.New().Users(), nil)
	register(t, r, "Ada", "ada@example.com", "secret1").AssertStatus(t, http.StatusCreated)

	for _, pw := range []string{"wrong!!", "secret1"} {
		body := map[string]string{"email": "ada@example.com", "password": pw}
		testutil.Serve(r, testutil.NewJSONRequest(t, "POST", "/login", body))
	}
	body := map[string]string{"email": "nobody@example.com", "password": "secret1"}
	testutil.Serve(r, testutil.NewJSONRequest(t, "POST", "/login", body))

	events, err := trail.Query(t.Context(), audit.QueryFilter{Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	want := map[string]bool{
		audit.EventUserRegistered:           true,
		audit.EventLoginFailedWrongPassword: false,
		audit.EventLoginSuccess:             true,
		audit.EventLoginFailedUserNotFound:  false,
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for _, e := range events {
		success, ok := want[e.EventType]
		if !ok {
			t.Errorf("unexpected event %q", e.EventType)
			continue
		}
		if e.Success != success {
			t.Errorf("%s: success = %v, want %v", e.EventType, e.Success, success)
		}
	}
}
