package auditlog_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingStore struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (s *recordingStore) Log(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingStore) all() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event(nil), s.events...)
}

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx := context.Background()
	req := httptest.NewRequest("GET", "/", nil)
	who := models.Identity{ID: primitive.NewObjectID()}

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, models.User{ID: who.ID})
	logger.Logout(ctx, req, nil)
	logger.WorkspaceDeleted(ctx, req, who, primitive.NewObjectID())
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		setting string
		wantDB  bool
		wantLog bool
	}{
		{auditlog.DestAll, true, true},
		{auditlog.DestDB, true, false},
		{auditlog.DestLog, false, true},
		{auditlog.DestOff, false, false},
		{"", true, true},
	}
	for _, tt := range tests {
		t.Run("setting="+tt.setting, func(t *testing.T) {
			store := &recordingStore{}
			core, logs := observer.New(zapcore.InfoLevel)
			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: tt.setting, Workspace: tt.setting})

			req := httptest.NewRequest("POST", "/api/auth/login", nil)
			logger.LoginSuccess(context.Background(), req, models.User{ID: primitive.NewObjectID(), Email: "ada@example.com"})

			if got := len(store.all()) == 1; got != tt.wantDB {
				t.Errorf("stored = %v, want %v", got, tt.wantDB)
			}
			if got := logs.FilterMessage("audit event").Len() == 1; got != tt.wantLog {
				t.Errorf("logged = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestLogger_CategoriesAreIndependent(t *testing.T) {
	store := &recordingStore{}
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DestOff, Workspace: auditlog.DestDB})

	req := httptest.NewRequest("POST", "/", nil)
	actor := models.Identity{ID: primitive.NewObjectID()}
	ctx := context.Background()

	logger.Logout(ctx, req, &actor)
	logger.WorkspaceDeleted(ctx, req, actor, primitive.NewObjectID())

	events := store.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(events))
	}
	if events[0].EventType != audit.EventWorkspaceDeleted {
		t.Errorf("unexpected event %q", events[0].EventType)
	}
}

func TestLogger_WorkspaceEventFields(t *testing.T) {
	store := &recordingStore{}
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{})

	req := httptest.NewRequest("PATCH", "/", nil)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	req.Header.Set("User-Agent", "test-agent")
	actor := models.Identity{ID: primitive.NewObjectID()}
	wsID := primitive.NewObjectID()

	logger.WorkspaceRenamed(context.Background(), req, actor, models.Workspace{ID: wsID, Name: "Liftoff"})

	events := store.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Category != audit.CategoryWorkspace || e.EventType != audit.EventWorkspaceRenamed {
		t.Errorf("classification: %s/%s", e.Category, e.EventType)
	}
	if e.WorkspaceID == nil || *e.WorkspaceID != wsID {
		t.Errorf("workspace id: %v", e.WorkspaceID)
	}
	if e.ActorID == nil || *e.ActorID != actor.ID {
		t.Errorf("actor id: %v", e.ActorID)
	}
	if e.UserID != nil {
		t.Errorf("user id: %v", e.UserID)
	}
	if e.IP != "203.0.113.9" || e.UserAgent != "test-agent" {
		t.Errorf("request context: ip=%q ua=%q", e.IP, e.UserAgent)
	}
	if e.Details["name"] != "Liftoff" {
		t.Errorf("details: %v", e.Details)
	}
}

func TestLogger_FailedLoginIsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := auditlog.New(&recordingStore{}, zap.New(core), auditlog.Config{Auth: auditlog.DestLog})

	logger.LoginFailedUserNotFound(context.Background(), httptest.NewRequest("POST", "/", nil), "who@example.com")

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
}

func TestLogger_StoreErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	store := &recordingStore{err: errors.New("write failed")}
	logger := auditlog.New(store, zap.New(core), auditlog.Config{Workspace: auditlog.DestDB})

	logger.WorkspaceCreated(context.Background(), httptest.NewRequest("POST", "/", nil),
		models.Identity{ID: primitive.NewObjectID()}, models.Workspace{ID: primitive.NewObjectID(), Name: "Team"})

	if logs.FilterMessage("failed to store audit event").Len() != 1 {
		t.Error("expected the store failure to be logged")
	}
}
