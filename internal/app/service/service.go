// Package service runs the workspace, membership, invitation, and task
// operations on top of the record stores.
//
// Every operation resolves the caller's role through the access resolver,
// asks the decision table (directly or via taskguard), and only then
// touches a store. Membership changes are computed by the ledger and
// committed with a version compare-and-swap; on a version conflict the
// snapshot is reloaded and the whole check runs again.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/taskhub/internal/app/policy/workspacepolicy"
	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/system/access"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/taskguard"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultCASRetries is how many times a membership commit is retried after
// a version conflict before the operation gives up with Conflict.
const DefaultCASRetries = 5

// WorkspaceStore persists workspaces. ReplaceMembers must fail with
// apperr.ErrVersionConflict when the stored version differs from
// expectedVersion, and not-found errors must match apperr.ErrNotFound.
type WorkspaceStore interface {
	Create(ctx context.Context, ws models.Workspace) (models.Workspace, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Workspace, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) (models.Workspace, error)
	ReplaceMembers(ctx context.Context, id primitive.ObjectID, expectedVersion int64, members []models.Membership) (models.Workspace, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// TaskStore persists tasks.
type TaskStore interface {
	Create(ctx context.Context, t models.Task) (models.Task, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error)
	List(ctx context.Context, workspaceID primitive.ObjectID, f models.TaskFilter) ([]models.Task, error)
	ListForWorkspaces(ctx context.Context, workspaceIDs []primitive.ObjectID) ([]models.Task, error)
	Apply(ctx context.Context, id primitive.ObjectID, m taskguard.Mutation) (models.Task, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	DeleteByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) (int64, error)
}

// InvitationStore persists invitations.
type InvitationStore interface {
	Create(ctx context.Context, inv models.Invitation) (models.Invitation, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Invitation, error)
	HasPending(ctx context.Context, workspaceID primitive.ObjectID, email string) (bool, error)
	MarkAccepted(ctx context.Context, id primitive.ObjectID) error
	ListPendingForEmail(ctx context.Context, email string) ([]models.Invitation, error)
	ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Invitation, error)
	DeleteByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) (int64, error)
}

// UserDirectory looks up accounts for membership management.
type UserDirectory interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// AuditReader reads the audit trail.
type AuditReader interface {
	Query(ctx context.Context, f audit.QueryFilter) ([]audit.Event, error)
}

// Deps are the collaborators of a Service. Logger, Metrics and Audit may
// be nil.
type Deps struct {
	Workspaces  WorkspaceStore
	Tasks       TaskStore
	Invitations InvitationStore
	Users       UserDirectory
	Audit       AuditReader

	// Access is what the role resolver reads snapshots from; nil means
	// Workspaces.
	Access access.WorkspaceGetter

	Logger  *zap.Logger
	Metrics *Metrics

	// CASRetries bounds membership commit retries; <= 0 means DefaultCASRetries.
	CASRetries int

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Service implements the workspace and task operations.
type Service struct {
	workspaces  WorkspaceStore
	tasks       TaskStore
	invitations InvitationStore
	users       UserDirectory
	audit       AuditReader

	access  *access.Resolver
	log     *zap.Logger
	metrics *Metrics

	casRetries int
	now        func() time.Time
}

// New creates a Service from d.
func New(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	retries := d.CASRetries
	if retries <= 0 {
		retries = DefaultCASRetries
	}
	now := d.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	src := d.Access
	if src == nil {
		src = d.Workspaces
	}
	return &Service{
		workspaces:  d.Workspaces,
		tasks:       d.Tasks,
		invitations: d.Invitations,
		users:       d.Users,
		audit:       d.Audit,
		access:      access.New(src),
		log:         log,
		metrics:     d.Metrics,
		casRetries:  retries,
		now:         now,
	}
}

var errWorkspaceNotFound = apperr.NotFound("Workspace not found.")

// errUnchanged ends a membership commit that needs no write.
var errUnchanged = errors.New("membership unchanged")

// allow records and returns the decision for a non task-specific operation.
func (s *Service) allow(role models.Role, op workspacepolicy.Operation) bool {
	ok := workspacepolicy.Allowed(role, op, false)
	s.metrics.decision(op, ok)
	return ok
}

// record counts a decision made inside taskguard. Anything other than
// Forbidden means authorization passed.
func (s *Service) record(op workspacepolicy.Operation, err error) {
	s.metrics.decision(op, !errors.Is(err, apperr.ErrForbidden))
}

// member resolves a workspace the caller must belong to. A missing
// workspace and a workspace the caller is not in both read as NotFound.
func (s *Service) member(ctx context.Context, id primitive.ObjectID, who models.Identity) (models.Workspace, models.Role, error) {
	ws, role, err := s.access.Resolve(ctx, id, who)
	if err != nil {
		return models.Workspace{}, models.RoleNone, err
	}
	if !access.Found(ws) || role == models.RoleNone {
		return models.Workspace{}, models.RoleNone, errWorkspaceNotFound
	}
	return ws, role, nil
}

// manage resolves a workspace and requires ManageWorkspace.
func (s *Service) manage(ctx context.Context, id primitive.ObjectID, who models.Identity, denied string) (models.Workspace, error) {
	ws, role, err := s.member(ctx, id, who)
	if err != nil {
		return models.Workspace{}, err
	}
	if !s.allow(role, workspacepolicy.OpManageWorkspace) {
		return models.Workspace{}, apperr.Forbidden(denied)
	}
	return ws, nil
}

// commitMembers applies change to the current membership of workspace id
// and commits it with a version compare-and-swap. Each attempt resolves the
// snapshot and who's role through the access resolver, and authorize runs
// against that role, so a caller demoted between attempts is denied on the
// retry. errUnchanged from authorize or change ends the commit without a
// write.
func (s *Service) commitMembers(
	ctx context.Context,
	id primitive.ObjectID,
	who models.Identity,
	authorize func(role models.Role) error,
	change func(members []models.Membership) ([]models.Membership, error),
) (models.Workspace, error) {
	for attempt := 0; ; attempt++ {
		ws, role, err := s.access.Resolve(ctx, id, who)
		if err != nil {
			return models.Workspace{}, err
		}
		if !access.Found(ws) {
			return models.Workspace{}, errWorkspaceNotFound
		}
		err = authorize(role)
		if errors.Is(err, errUnchanged) {
			return ws, nil
		}
		if err != nil {
			return models.Workspace{}, err
		}

		next, err := change(ws.Members)
		if errors.Is(err, errUnchanged) {
			return ws, nil
		}
		if err != nil {
			return models.Workspace{}, err
		}

		updated, err := s.workspaces.ReplaceMembers(ctx, ws.ID, ws.Version, next)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Workspace{}, errWorkspaceNotFound
		}
		if !errors.Is(err, apperr.ErrVersionConflict) {
			return models.Workspace{}, err
		}
		if attempt >= s.casRetries {
			s.log.Warn("membership commit gave up after version conflicts",
				zap.String("workspace_id", id.Hex()),
				zap.Int("attempts", attempt+1))
			return models.Workspace{}, apperr.Conflict("The workspace was modified concurrently. Please try again.")
		}
		s.metrics.casRetry()
		s.log.Debug("membership version conflict, retrying",
			zap.String("workspace_id", id.Hex()),
			zap.Int64("version", ws.Version),
			zap.Int("attempt", attempt+1))
	}
}

// requireManager returns an authorize func for commitMembers that demands
// ManageWorkspace on each attempt.
func (s *Service) requireManager(denied string) func(models.Role) error {
	return func(role models.Role) error {
		if role == models.RoleNone {
			return errWorkspaceNotFound
		}
		if !s.allow(role, workspacepolicy.OpManageWorkspace) {
			return apperr.Forbidden(denied)
		}
		return nil
	}
}
