// Package memstore is an in-memory Record Store with the same semantics as
// the Mongo stores: typed not-found errors, version compare-and-swap on
// workspace members, and one Pending invitation per (workspace, email).
//
// Values are copied on the way in and out so callers never share slices
// with the store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/app/system/taskguard"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrWorkspaceNotFound  = apperr.NotFound("Workspace not found.")
	ErrTaskNotFound       = apperr.NotFound("Task not found.")
	ErrInvitationNotFound = apperr.NotFound("Invitation not found.")
	ErrUserNotFound       = apperr.NotFound("User not found.")
	ErrDuplicatePending   = apperr.Conflict("An invitation is already pending for this email.")
	ErrDuplicateEmail     = apperr.Conflict("A user with this email already exists.")
)

// DB holds every collection behind one mutex.
type DB struct {
	mu          sync.Mutex
	workspaces  map[primitive.ObjectID]models.Workspace
	tasks       map[primitive.ObjectID]models.Task
	invitations map[primitive.ObjectID]models.Invitation
	users       map[primitive.ObjectID]models.User
	audit       []audit.Event
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		workspaces:  map[primitive.ObjectID]models.Workspace{},
		tasks:       map[primitive.ObjectID]models.Task{},
		invitations: map[primitive.ObjectID]models.Invitation{},
		users:       map[primitive.ObjectID]models.User{},
	}
}

func (db *DB) Workspaces() *Workspaces   { return &Workspaces{db: db} }
func (db *DB) Tasks() *Tasks             { return &Tasks{db: db} }
func (db *DB) Invitations() *Invitations { return &Invitations{db: db} }
func (db *DB) Users() *Users             { return &Users{db: db} }
func (db *DB) Audit() *Audit             { return &Audit{db: db} }

func now() time.Time { return time.Now().UTC() }

/* -------------------------------------------------------------------------- */
/* Workspaces                                                                  */
/* -------------------------------------------------------------------------- */

type Workspaces struct{ db *DB }

func cloneWorkspace(ws models.Workspace) models.Workspace {
	ws.Members = append([]models.Membership(nil), ws.Members...)
	return ws
}

func (s *Workspaces) Create(_ context.Context, ws models.Workspace) (models.Workspace, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t := now()
	ws.ID = primitive.NewObjectID()
	ws.NameCI = text.Fold(ws.Name)
	ws.Version = 1
	ws.CreatedAt = t
	ws.UpdatedAt = t
	s.db.workspaces[ws.ID] = cloneWorkspace(ws)
	return cloneWorkspace(ws), nil
}

func (s *Workspaces) GetByID(_ context.Context, id primitive.ObjectID) (models.Workspace, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ws, ok := s.db.workspaces[id]
	if !ok {
		return models.Workspace{}, ErrWorkspaceNotFound
	}
	return cloneWorkspace(ws), nil
}

func (s *Workspaces) ListForUser(_ context.Context, userID primitive.ObjectID) ([]models.Workspace, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Workspace{}
	for _, ws := range s.db.workspaces {
		if ws.HasMember(userID) {
			out = append(out, cloneWorkspace(ws))
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (s *Workspaces) Rename(_ context.Context, id primitive.ObjectID, name string) (models.Workspace, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ws, ok := s.db.workspaces[id]
	if !ok {
		return models.Workspace{}, ErrWorkspaceNotFound
	}
	ws.Name = name
	ws.NameCI = text.Fold(name)
	ws.UpdatedAt = now()
	s.db.workspaces[id] = ws
	return cloneWorkspace(ws), nil
}

// ReplaceMembers is the compare-and-swap commit for membership changes.
func (s *Workspaces) ReplaceMembers(_ context.Context, id primitive.ObjectID, expectedVersion int64, members []models.Membership) (models.Workspace, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	ws, ok := s.db.workspaces[id]
	if !ok {
		return models.Workspace{}, ErrWorkspaceNotFound
	}
	if ws.Version != expectedVersion {
		return models.Workspace{}, apperr.ErrVersionConflict
	}
	ws.Members = append([]models.Membership(nil), members...)
	ws.Version++
	ws.UpdatedAt = now()
	s.db.workspaces[id] = ws
	return cloneWorkspace(ws), nil
}

func (s *Workspaces) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.workspaces[id]; !ok {
		return 0, nil
	}
	delete(s.db.workspaces, id)
	return 1, nil
}

/* -------------------------------------------------------------------------- */
/* Tasks                                                                       */
/* -------------------------------------------------------------------------- */

type Tasks struct{ db *DB }

func cloneTask(t models.Task) models.Task {
	if t.AssignedTo != nil {
		a := *t.AssignedTo
		t.AssignedTo = &a
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	t.Comments = append([]models.Comment{}, t.Comments...)
	t.Images = append([]models.Image{}, t.Images...)
	return t
}

func (s *Tasks) Create(_ context.Context, t models.Task) (models.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t.ID = primitive.NewObjectID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	s.db.tasks[t.ID] = cloneTask(t)
	return cloneTask(t), nil
}

func (s *Tasks) GetByID(_ context.Context, id primitive.ObjectID) (models.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tasks[id]
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (s *Tasks) List(_ context.Context, workspaceID primitive.ObjectID, f models.TaskFilter) ([]models.Task, error) {
	q := strings.ToLower(f.Query)
	return s.filter(func(t models.Task) bool {
		if t.WorkspaceID != workspaceID {
			return false
		}
		if f.Status != "" && t.Status != f.Status {
			return false
		}
		if f.Priority != "" && t.Priority != f.Priority {
			return false
		}
		return q == "" || strings.Contains(strings.ToLower(t.Title), q)
	}), nil
}

func (s *Tasks) ListForWorkspaces(_ context.Context, workspaceIDs []primitive.ObjectID) ([]models.Task, error) {
	set := make(map[primitive.ObjectID]bool, len(workspaceIDs))
	for _, id := range workspaceIDs {
		set[id] = true
	}
	return s.filter(func(t models.Task) bool { return set[t.WorkspaceID] }), nil
}

func (s *Tasks) filter(keep func(models.Task) bool) []models.Task {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Task{}
	for _, t := range s.db.tasks {
		if keep(t) {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out
}

func (s *Tasks) Apply(_ context.Context, id primitive.ObjectID, m taskguard.Mutation) (models.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tasks[id]
	if !ok {
		return models.Task{}, ErrTaskNotFound
	}
	t = m.ApplyTo(cloneTask(t))
	s.db.tasks[id] = t
	return cloneTask(t), nil
}

func (s *Tasks) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.tasks[id]; !ok {
		return 0, nil
	}
	delete(s.db.tasks, id)
	return 1, nil
}

func (s *Tasks) DeleteByWorkspace(_ context.Context, workspaceID primitive.ObjectID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for id, t := range s.db.tasks {
		if t.WorkspaceID == workspaceID {
			delete(s.db.tasks, id)
			n++
		}
	}
	return n, nil
}

/* -------------------------------------------------------------------------- */
/* Invitations                                                                 */
/* -------------------------------------------------------------------------- */

type Invitations struct{ db *DB }

func (s *Invitations) Create(_ context.Context, inv models.Invitation) (models.Invitation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, ex := range s.db.invitations {
		if ex.WorkspaceID == inv.WorkspaceID && ex.Email == inv.Email && ex.IsPending() {
			return models.Invitation{}, ErrDuplicatePending
		}
	}
	t := now()
	inv.ID = primitive.NewObjectID()
	inv.Status = models.InvitationPending
	inv.CreatedAt = t
	inv.UpdatedAt = t
	s.db.invitations[inv.ID] = inv
	return inv, nil
}

func (s *Invitations) GetByID(_ context.Context, id primitive.ObjectID) (models.Invitation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	inv, ok := s.db.invitations[id]
	if !ok {
		return models.Invitation{}, ErrInvitationNotFound
	}
	return inv, nil
}

func (s *Invitations) HasPending(_ context.Context, workspaceID primitive.ObjectID, email string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, inv := range s.db.invitations {
		if inv.WorkspaceID == workspaceID && inv.Email == email && inv.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Invitations) MarkAccepted(_ context.Context, id primitive.ObjectID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	inv, ok := s.db.invitations[id]
	if !ok {
		return ErrInvitationNotFound
	}
	inv.Status = models.InvitationAccepted
	inv.UpdatedAt = now()
	s.db.invitations[id] = inv
	return nil
}

func (s *Invitations) ListPendingForEmail(_ context.Context, email string) ([]models.Invitation, error) {
	return s.filter(func(inv models.Invitation) bool { return inv.Email == email && inv.IsPending() }), nil
}

func (s *Invitations) ListByWorkspace(_ context.Context, workspaceID primitive.ObjectID) ([]models.Invitation, error) {
	return s.filter(func(inv models.Invitation) bool { return inv.WorkspaceID == workspaceID }), nil
}

func (s *Invitations) filter(keep func(models.Invitation) bool) []models.Invitation {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Invitation{}
	for _, inv := range s.db.invitations {
		if keep(inv) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out
}

func (s *Invitations) DeleteByWorkspace(_ context.Context, workspaceID primitive.ObjectID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for id, inv := range s.db.invitations {
		if inv.WorkspaceID == workspaceID {
			delete(s.db.invitations, id)
			n++
		}
	}
	return n, nil
}

/* -------------------------------------------------------------------------- */
/* Users                                                                       */
/* -------------------------------------------------------------------------- */

type Users struct{ db *DB }

func (s *Users) Create(_ context.Context, u models.User) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u.Name = normalize.Name(u.Name)
	u.Email = normalize.Email(u.Email)
	for _, ex := range s.db.users {
		if ex.Email == u.Email {
			return models.User{}, ErrDuplicateEmail
		}
	}
	t := now()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = t
	u.UpdatedAt = t
	s.db.users[u.ID] = u
	return u, nil
}

func (s *Users) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	email = normalize.Email(email)
	for _, u := range s.db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (s *Users) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := s.db.users[id]; ok {
			u.PasswordHash = ""
			out = append(out, u)
		}
	}
	return out, nil
}

// FetchIdentity implements auth.IdentityFetcher.
func (s *Users) FetchIdentity(ctx context.Context, userID string) *models.Identity {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	u, err := s.GetByID(ctx, oid)
	if err != nil {
		return nil
	}
	return &models.Identity{ID: u.ID, Email: u.Email, Name: u.Name}
}

// Remove deletes a user. It exists so tests can revoke an account.
func (s *Users) Remove(id primitive.ObjectID) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.users, id)
}

func newer(ta time.Time, ia primitive.ObjectID, tb time.Time, ib primitive.ObjectID) bool {
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return ia.Hex() > ib.Hex()
}

/* -------------------------------------------------------------------------- */
/* Audit                                                                       */
/* -------------------------------------------------------------------------- */

type Audit struct{ db *DB }

func (s *Audit) Log(_ context.Context, e audit.Event) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now()
	}
	if e.Details != nil {
		d := make(map[string]string, len(e.Details))
		for k, v := range e.Details {
			d[k] = v
		}
		e.Details = d
	}
	s.db.audit = append(s.db.audit, e)
	return nil
}

// Query returns matching events newest first, honouring Limit and Offset
// the way the Mongo store does.
func (s *Audit) Query(_ context.Context, f audit.QueryFilter) ([]audit.Event, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	matched := []audit.Event{}
	for _, e := range s.db.audit {
		if f.Matches(e) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return newer(matched[i].Timestamp, matched[i].ID, matched[j].Timestamp, matched[j].ID)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = audit.DefaultLimit
	}
	if f.Offset >= int64(len(matched)) {
		return []audit.Event{}, nil
	}
	matched = matched[f.Offset:]
	if int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Audit) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	kept := s.db.audit[:0]
	var n int64
	for _, e := range s.db.audit {
		if e.Timestamp.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	s.db.audit = kept
	return n, nil
}
