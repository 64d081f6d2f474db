// internal/app/features/workspaces/handler.go
package workspaces

import (
	"net/http"

	uierrors "github.com/dalemusser/taskhub/internal/app/features/errors"
	"github.com/dalemusser/taskhub/internal/app/service"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/jsonio"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves workspace governance: create, list, read, rename, delete.
type Handler struct {
	Svc    *service.Service
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Audit  *auditlog.Logger
}

// NewHandler creates a new workspaces Handler.
func NewHandler(svc *service.Service, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:    svc,
		Log:    logger,
		ErrLog: errLog,
		Audit:  audit,
	}
}

type nameRequest struct {
	Name string `json:"name"`
}

// HandleList handles GET /api/workspaces.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	who, err := auth.Caller(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list workspaces")
	defer cancel()

	list, err := h.Svc.ListWorkspaces(ctx, who)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, list)
}

// HandleCreate handles POST /api/workspaces.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	who, err := auth.Caller(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req nameRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create workspace")
	defer cancel()

	ws, err := h.Svc.CreateWorkspace(ctx, who, req.Name)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.WorkspaceCreated(ctx, r, who, ws)
	jsonio.Write(w, http.StatusCreated, ws)
}

// ServeWorkspace handles GET /api/workspaces/{id}.
func (h *Handler) ServeWorkspace(w http.ResponseWriter, r *http.Request) {
	who, err := auth.Caller(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	id, err := jsonio.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get workspace")
	defer cancel()

	detail, err := h.Svc.GetWorkspace(ctx, who, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, detail)
}

// HandleRename handles PATCH /api/workspaces/{id}.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	who, err := auth.Caller(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	id, err := jsonio.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req nameRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "rename workspace")
	defer cancel()

	ws, err := h.Svc.RenameWorkspace(ctx, who, id, req.Name)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.WorkspaceRenamed(ctx, r, who, ws)
	jsonio.Write(w, http.StatusOK, ws)
}

// HandleDelete handles DELETE /api/workspaces/{id}. Tasks and invitations
// go with it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	who, err := auth.Caller(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	id, err := jsonio.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete workspace")
	defer cancel()

	if err := h.Svc.DeleteWorkspace(ctx, who, id); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Audit.WorkspaceDeleted(ctx, r, who, id)
	jsonio.Write(w, http.StatusOK, map[string]string{"message": "Workspace deleted."})
}
