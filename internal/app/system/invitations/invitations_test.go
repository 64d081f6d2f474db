package invitations

import (
	"errors"
	"testing"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/domain/models"
)

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest(" Bob@X.com", "")
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Email != "bob@x.com" || req.Role != models.RoleMember {
		t.Errorf("unexpected request: %+v", req)
	}

	req, err = ParseRequest("bob@x.com", "viewer")
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if req.Role != models.RoleViewer {
		t.Errorf("expected Viewer, got %q", req.Role)
	}

	if _, err := ParseRequest("bob@x.com", "Owner"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ValidationError for unknown role, got %v", err)
	}
	if _, err := ParseRequest("not-an-email", "Member"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ValidationError for bad email, got %v", err)
	}
}

func TestCheckCreate(t *testing.T) {
	tests := []struct {
		name    string
		role    models.Role
		pending bool
		want    error
	}{
		{"admin", models.RoleAdmin, false, nil},
		{"admin duplicate pending", models.RoleAdmin, true, apperr.ErrConflict},
		{"member", models.RoleMember, false, apperr.ErrForbidden},
		{"viewer", models.RoleViewer, false, apperr.ErrForbidden},
		{"no membership", models.RoleNone, false, apperr.ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckCreate(tc.role, tc.pending)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDecideAccept(t *testing.T) {
	pending := models.Invitation{Email: "bob@x.com", Role: models.RoleMember, Status: models.InvitationPending}
	accepted := pending
	accepted.Status = models.InvitationAccepted

	tests := []struct {
		name     string
		inv      models.Invitation
		email    string
		isMember bool
		want     Decision
		wantErr  error
	}{
		{"first accept", pending, "Bob@X.com", false, Decision{AddMembership: true, MarkAccepted: true}, nil},
		{"first accept already member", pending, "bob@x.com", true, Decision{MarkAccepted: true}, nil},
		{"wrong invitee", pending, "eve@x.com", false, Decision{}, apperr.ErrForbidden},
		{"second accept by member", accepted, "bob@x.com", true, Decision{}, nil},
		{"second accept by non-invitee", accepted, "eve@x.com", true, Decision{}, apperr.ErrForbidden},
		{"accepted but removed", accepted, "bob@x.com", false, Decision{}, apperr.ErrNotFound},
		{"unknown status", models.Invitation{Email: "bob@x.com", Status: "Expired"}, "bob@x.com", false, Decision{}, apperr.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecideAccept(tc.inv, tc.email, tc.isMember)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
