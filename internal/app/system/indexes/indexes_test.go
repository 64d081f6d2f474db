package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/system/indexes"
	"github.com/dalemusser/taskhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"users":       {"uniq_users_email"},
		"workspaces":  {"idx_workspaces_member_created", "idx_workspaces_owner", "idx_workspaces_name_ci"},
		"tasks":       {"idx_tasks_ws_status_created", "idx_tasks_ws_created", "idx_tasks_assigned_to"},
		"invitations": {"uniq_invitations_ws_email_pending", "idx_invitations_email_status"},
	}
	for coll, want := range expected {
		names := indexNames(t, ctx, db, coll)
		for _, name := range want {
			if !names[name] {
				t.Errorf("expected index %q to exist on %s collection", name, coll)
			}
		}
	}
}

// Only one Pending invitation per (workspace, email); accepted ones do not count.
func TestEnsureAll_PendingInvitationUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	c := db.Collection("invitations")
	wsID := primitive.NewObjectID()

	if _, err := c.InsertOne(ctx, bson.M{"workspace_id": wsID, "email": "bob@x.com", "status": "Accepted"}); err != nil {
		t.Fatalf("insert accepted failed: %v", err)
	}
	if _, err := c.InsertOne(ctx, bson.M{"workspace_id": wsID, "email": "bob@x.com", "status": "Pending"}); err != nil {
		t.Fatalf("insert pending failed: %v", err)
	}
	_, err := c.InsertOne(ctx, bson.M{"workspace_id": wsID, "email": "bob@x.com", "status": "Pending"})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error for second pending invitation, got %v", err)
	}
}

func TestEnsureAll_UniqueEmailEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	if _, err := db.Collection("users").InsertOne(ctx, bson.M{"email": "ann@x.com"}); err != nil {
		t.Fatalf("Insert user failed: %v", err)
	}
	if _, err := db.Collection("users").InsertOne(ctx, bson.M{"email": "ann@x.com"}); err == nil {
		t.Error("expected duplicate key error for unique index on users.email")
	}
}
