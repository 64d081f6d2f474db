package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/features/logout"
	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/store/memstore"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestHandleLogout_ExpiresSessionCookie(t *testing.T) {
	sm := testutil.NewSessionManager(t)
	r := logout.Routes(logout.NewHandler(sm, nil, zap.NewNop()))

	// sign in to obtain a cookie
	signIn := httptest.NewRecorder()
	id := models.Identity{ID: primitive.NewObjectID(), Email: "ada@example.com", Name: "Ada"}
	if err := sm.SignIn(signIn, httptest.NewRequest("POST", "/login", nil), id); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := signIn.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn set no cookie")
	}

	req := httptest.NewRequest("POST", "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := testutil.Serve(r, req)
	rec.AssertStatus(t, http.StatusOK)

	var expired bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookies[0].Name && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("expected the session cookie to be expired")
	}
}

func TestHandleLogout_WithoutSession(t *testing.T) {
	sm := testutil.NewSessionManager(t)
	r := logout.Routes(logout.NewHandler(sm, nil, zap.NewNop()))

	rec := testutil.Serve(r, httptest.NewRequest("POST", "/", nil))
	rec.AssertStatus(t, http.StatusOK)
}

func TestHandleLogout_Audited(t *testing.T) {
	sm := testutil.NewSessionManager(t)
	trail := memstore.New().Audit()
	r := logout.Routes(logout.NewHandler(sm, auditlog.New(trail, zap.NewNop(), auditlog.Config{}), zap.NewNop()))

	u := models.User{ID: primitive.NewObjectID(), Email: "ada@example.com", Name: "Ada"}
	testutil.Serve(r, testutil.WithIdentity(httptest.NewRequest("POST", "/", nil), u)).AssertStatus(t, http.StatusOK)

	events, err := trail.Query(t.Context(), audit.QueryFilter{EventType: audit.EventLogout})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 logout event, got %d", len(events))
	}
	if events[0].UserID == nil || *events[0].UserID != u.ID {
		t.Errorf("logout event user: %v", events[0].UserID)
	}
}
