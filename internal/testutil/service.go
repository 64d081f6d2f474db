package testutil

import (
	"context"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/service"
	"github.com/dalemusser/taskhub/internal/app/store/memstore"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.uber.org/zap"
)

// MemApp is a service wired to in-memory stores, for handler tests that
// do not need MongoDB. Audit records into DB.Audit().
type MemApp struct {
	DB    *memstore.DB
	Svc   *service.Service
	Audit *auditlog.Logger
}

// NewMemApp builds a MemApp.
func NewMemApp(t *testing.T) *MemApp {
	t.Helper()
	db := memstore.New()
	svc := service.New(service.Deps{
		Workspaces:  db.Workspaces(),
		Tasks:       db.Tasks(),
		Invitations: db.Invitations(),
		Users:       db.Users(),
		Audit:       db.Audit(),
		Logger:      zap.NewNop(),
	})
	audit := auditlog.New(db.Audit(), zap.NewNop(), auditlog.Config{})
	return &MemApp{DB: db, Svc: svc, Audit: audit}
}

// User registers a user in the in-memory directory.
func (a *MemApp) User(t *testing.T, name, email string) models.User {
	t.Helper()
	u, err := a.DB.Users().Create(context.Background(), models.User{Name: name, Email: email, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// Workspace creates a workspace owned by owner and adds each member with
// the given role.
func (a *MemApp) Workspace(t *testing.T, name string, owner models.User, members map[models.User]models.Role) models.Workspace {
	t.Helper()
	ctx := context.Background()
	ws, err := a.Svc.CreateWorkspace(ctx, *IdentityOf(owner), name)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	for u, role := range members {
		ws, err = a.Svc.AddMember(ctx, *IdentityOf(owner), ws.ID, u.Email, string(role))
		if err != nil {
			t.Fatalf("add member %s: %v", u.Email, err)
		}
	}
	return ws
}
