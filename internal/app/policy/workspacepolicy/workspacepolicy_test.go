package workspacepolicy_test

import (
	"fmt"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/taskhub/internal/domain/models"
)

// decisionTable is the expected outcome for every (operation, role) pair,
// split by assignee status. Order of roles: Admin, Member, Viewer.
var decisionTable = map[workspacepolicy.Operation]struct {
	notAssignee [3]bool
	assignee    [3]bool
}{
	workspacepolicy.OpManageWorkspace:      {[3]bool{true, false, false}, [3]bool{true, false, false}},
	workspacepolicy.OpCreateTask:           {[3]bool{true, true, false}, [3]bool{true, true, false}},
	workspacepolicy.OpUpdateTaskUnassigned: {[3]bool{true, false, false}, [3]bool{true, false, false}},
	workspacepolicy.OpUpdateTask:           {[3]bool{true, false, false}, [3]bool{true, true, false}},
	workspacepolicy.OpDeleteTask:           {[3]bool{true, false, false}, [3]bool{true, false, false}},
	workspacepolicy.OpViewTasks:            {[3]bool{true, true, true}, [3]bool{true, true, true}},
}

func TestAllowed_FullCrossProduct(t *testing.T) {
	roles := []models.Role{models.RoleAdmin, models.RoleMember, models.RoleViewer}
	cases := 0

	for _, op := range workspacepolicy.Operations {
		want, ok := decisionTable[op]
		if !ok {
			t.Fatalf("operation %s missing from decision table", op)
		}
		for i, role := range roles {
			for _, isAssignee := range []bool{false, true} {
				cases++
				expected := want.notAssignee[i]
				if isAssignee {
					expected = want.assignee[i]
				}
				name := fmt.Sprintf("%s/%s/assignee=%v", op, role, isAssignee)
				t.Run(name, func(t *testing.T) {
					if got := workspacepolicy.Allowed(role, op, isAssignee); got != expected {
						t.Errorf("Allowed(%s, %s, %v) = %v, want %v", role, op, isAssignee, got, expected)
					}
				})
			}
		}
	}

	if cases != 36 {
		t.Errorf("expected 36 cases, ran %d", cases)
	}
}

func TestAllowed_NoMembershipDeniesEverything(t *testing.T) {
	for _, op := range workspacepolicy.Operations {
		for _, isAssignee := range []bool{false, true} {
			if workspacepolicy.Allowed(models.RoleNone, op, isAssignee) {
				t.Errorf("expected no access for %s (assignee=%v)", op, isAssignee)
			}
		}
	}
}

func TestAllowed_UnknownRoleDenied(t *testing.T) {
	if workspacepolicy.Allowed(models.Role("Owner"), workspacepolicy.OpViewTasks, false) {
		t.Error("expected unknown role to be denied")
	}
}

func TestHelpers(t *testing.T) {
	if !workspacepolicy.CanManageWorkspace(models.RoleAdmin) || workspacepolicy.CanManageWorkspace(models.RoleMember) {
		t.Error("CanManageWorkspace should be Admin-only")
	}
	if !workspacepolicy.CanCreateTask(models.RoleMember) || workspacepolicy.CanCreateTask(models.RoleViewer) {
		t.Error("CanCreateTask should allow Member and deny Viewer")
	}
	if !workspacepolicy.CanUpdateTask(models.RoleMember, true) || workspacepolicy.CanUpdateTask(models.RoleMember, false) {
		t.Error("CanUpdateTask should depend on assignment for Member")
	}
	if workspacepolicy.CanUpdateTask(models.RoleViewer, true) {
		t.Error("assignment must not grant update to Viewer")
	}
	if workspacepolicy.CanDeleteTask(models.RoleMember) {
		t.Error("CanDeleteTask should be Admin-only")
	}
	if !workspacepolicy.CanViewTasks(models.RoleViewer) || workspacepolicy.CanViewTasks(models.RoleNone) {
		t.Error("CanViewTasks should allow Viewer and deny no-membership")
	}
}
