package ledger_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/ledger"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestInitial_CreatorIsSoleAdmin(t *testing.T) {
	u1 := primitive.NewObjectID()
	members := ledger.Initial(u1)

	if len(members) != 1 {
		t.Fatalf("expected 1 membership, got %d", len(members))
	}
	if members[0].UserID != u1 || members[0].Role != models.RoleAdmin {
		t.Errorf("expected {%s, Admin}, got %+v", u1.Hex(), members[0])
	}
}

func TestAdd(t *testing.T) {
	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()
	members := ledger.Initial(u1)

	out, err := ledger.Add(members, u2, models.RoleMember)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if len(out) != 2 || out[1].UserID != u2 || out[1].Role != models.RoleMember {
		t.Errorf("unexpected members after Add: %+v", out)
	}
	if len(members) != 1 {
		t.Error("input slice must not be modified")
	}
}

func TestAdd_DuplicateIsConflict(t *testing.T) {
	u1 := primitive.NewObjectID()
	_, err := ledger.Add(ledger.Initial(u1), u1, models.RoleViewer)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("expected Conflict, got %v", err)
	}
}

func TestAdd_InvalidRole(t *testing.T) {
	_, err := ledger.Add(nil, primitive.NewObjectID(), models.RoleNone)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

// Removing the only Admin must fail and leave the ledger unchanged.
func TestRemove_SoleAdminIsInvariantViolation(t *testing.T) {
	u1 := primitive.NewObjectID()
	members := ledger.Initial(u1)

	out, err := ledger.Remove(members, u1)
	if !errors.Is(err, apperr.ErrInvariantViolation) {
		t.Fatalf("expected InvariantViolation, got %v", err)
	}
	if out != nil {
		t.Error("expected no result on failure")
	}
	if len(members) != 1 || members[0].Role != models.RoleAdmin {
		t.Errorf("ledger changed after failed remove: %+v", members)
	}
}

func TestRemove_NotFound(t *testing.T) {
	_, err := ledger.Remove(ledger.Initial(primitive.NewObjectID()), primitive.NewObjectID())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestRemove_Member(t *testing.T) {
	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()
	members := []models.Membership{
		{UserID: u1, Role: models.RoleAdmin},
		{UserID: u2, Role: models.RoleMember},
	}

	out, err := ledger.Remove(members, u2)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(out) != 1 || out[0].UserID != u1 {
		t.Errorf("unexpected members after Remove: %+v", out)
	}
	if len(members) != 2 {
		t.Error("input slice must not be modified")
	}
}

// Two Admins: demoting one succeeds; demoting the survivor fails.
func TestChangeRole_DemoteAdmins(t *testing.T) {
	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()
	members := []models.Membership{
		{UserID: u1, Role: models.RoleAdmin},
		{UserID: u2, Role: models.RoleAdmin},
	}

	out, err := ledger.ChangeRole(members, u2, models.RoleMember)
	if err != nil {
		t.Fatalf("first demotion failed: %v", err)
	}
	if ledger.AdminCount(out) != 1 {
		t.Errorf("expected 1 Admin after demotion, got %d", ledger.AdminCount(out))
	}
	if members[1].Role != models.RoleAdmin {
		t.Error("input slice must not be modified")
	}

	again, err := ledger.ChangeRole(out, u1, models.RoleMember)
	if !errors.Is(err, apperr.ErrInvariantViolation) {
		t.Fatalf("expected InvariantViolation, got %v", err)
	}
	if again != nil {
		t.Error("expected no result on failure")
	}
	if out[0].Role != models.RoleAdmin {
		t.Error("snapshot changed after failed demotion")
	}
}

func TestChangeRole_NotFound(t *testing.T) {
	_, err := ledger.ChangeRole(ledger.Initial(primitive.NewObjectID()), primitive.NewObjectID(), models.RoleViewer)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestChangeRole_SameRoleIsNoop(t *testing.T) {
	u1 := primitive.NewObjectID()
	out, err := ledger.ChangeRole(ledger.Initial(u1), u1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("ChangeRole failed: %v", err)
	}
	if out[0].Role != models.RoleAdmin {
		t.Errorf("expected Admin, got %q", out[0].Role)
	}
}

func TestSatisfied(t *testing.T) {
	if ledger.Satisfied(nil) {
		t.Error("empty ledger does not satisfy the invariant")
	}
	if !ledger.Satisfied(ledger.Initial(primitive.NewObjectID())) {
		t.Error("initial ledger must satisfy the invariant")
	}
}
