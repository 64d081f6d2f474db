package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
// Documents are inserted directly so tests do not depend on the stores
// they are exercising.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert into %s: %v", coll, err)
	}
}

// CreateUser inserts a user. The password hash is a placeholder; use
// auth.HashPassword when a test signs in.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        normalize.Email(email),
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateWorkspace inserts a workspace owned by owner, who becomes its
// Admin. Extra memberships are appended as given.
func (f *Fixtures) CreateWorkspace(ctx context.Context, name string, owner primitive.ObjectID, extra ...models.Membership) models.Workspace {
	f.t.Helper()

	now := time.Now().UTC()
	ws := models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Owner:     owner,
		Members:   append([]models.Membership{{UserID: owner, Role: models.RoleAdmin}}, extra...),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "workspaces", ws)
	return ws
}

// CreateTask inserts a To Do, Medium priority task.
func (f *Fixtures) CreateTask(ctx context.Context, workspaceID, createdBy primitive.ObjectID, title string, assignee *primitive.ObjectID) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		Title:       title,
		AssignedTo:  assignee,
		CreatedBy:   createdBy,
		Status:      models.TaskStatusTodo,
		Priority:    models.TaskPriorityMedium,
		Comments:    []models.Comment{},
		Images:      []models.Image{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "tasks", task)
	return task
}

// CreateInvitation inserts a pending invitation.
func (f *Fixtures) CreateInvitation(ctx context.Context, workspaceID, invitedBy primitive.ObjectID, email string, role models.Role) models.Invitation {
	f.t.Helper()

	now := time.Now().UTC()
	inv := models.Invitation{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		Email:       normalize.Email(email),
		Role:        role,
		InvitedBy:   invitedBy,
		Status:      models.InvitationPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "invitations", inv)
	return inv
}
