package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
		Details:   map[string]string{"email": "ada@example.com"},
	}

	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if got.Details["email"] != "ada@example.com" {
		t.Errorf("details not stored: %v", got.Details)
	}
}

func TestStore_Query_ByWorkspace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ws1 := primitive.NewObjectID()
	ws2 := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)

	for i, ws := range []primitive.ObjectID{ws1, ws1, ws2} {
		ws := ws
		err := store.Log(ctx, audit.Event{
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			WorkspaceID: &ws,
			Category:    audit.CategoryWorkspace,
			EventType:   audit.EventWorkspaceRenamed,
			Success:     true,
		})
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.Query(ctx, audit.QueryFilter{WorkspaceID: &ws1})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events for ws1, got %d", len(events))
	}
	if !events[0].Timestamp.After(events[1].Timestamp) {
		t.Error("expected newest first")
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{Category: audit.CategoryWorkspace})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 workspace events, got %d", n)
	}
}

func TestStore_Query_LimitOffsetAndTimeRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Add(-10 * time.Hour)
	for i := 0; i < 5; i++ {
		err := store.Log(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Category:  audit.CategoryAuth,
			EventType: audit.EventLogout,
			Success:   true,
		})
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	page, err := store.Query(ctx, audit.QueryFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 events, got %d", len(page))
	}
	if !page[0].Timestamp.Equal(base.Add(3 * time.Hour).Truncate(time.Millisecond)) {
		t.Errorf("unexpected first event of page: %v", page[0].Timestamp)
	}

	start := base.Add(90 * time.Minute)
	end := base.Add(3*time.Hour + time.Minute)
	ranged, err := store.Query(ctx, audit.QueryFilter{StartTime: &start, EndTime: &end})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(ranged) != 2 {
		t.Errorf("expected 2 events in range, got %d", len(ranged))
	}
}

func TestQueryFilter_Matches(t *testing.T) {
	ws := primitive.NewObjectID()
	user := primitive.NewObjectID()
	now := time.Now().UTC()
	e := audit.Event{
		Timestamp:   now,
		WorkspaceID: &ws,
		UserID:      &user,
		Category:    audit.CategoryWorkspace,
		EventType:   audit.EventWorkspaceDeleted,
	}
	other := primitive.NewObjectID()
	later := now.Add(time.Minute)

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   bool
	}{
		{"empty filter", audit.QueryFilter{}, true},
		{"same workspace", audit.QueryFilter{WorkspaceID: &ws}, true},
		{"other workspace", audit.QueryFilter{WorkspaceID: &other}, false},
		{"same user", audit.QueryFilter{UserID: &user}, true},
		{"wrong category", audit.QueryFilter{Category: audit.CategoryAuth}, false},
		{"wrong type", audit.QueryFilter{EventType: audit.EventWorkspaceCreated}, false},
		{"before start", audit.QueryFilter{StartTime: &later}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(e); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_DeleteBefore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	for _, age := range []time.Duration{48 * time.Hour, 25 * time.Hour, time.Hour} {
		if err := store.Log(ctx, audit.Event{
			Timestamp: now.Add(-age),
			Category:  audit.CategoryAuth,
			EventType: audit.EventLogout,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	n, err := store.DeleteBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	left, err := store.CountByFilter(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if left != 1 {
		t.Errorf("expected 1 event left, got %d", left)
	}
}
