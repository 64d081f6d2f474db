// internal/app/features/invitations/handler.go
package invitations

import (
	"net/http"

	uierrors "github.com/dalemusser/taskhub/internal/app/features/errors"
	"github.com/dalemusser/taskhub/internal/app/service"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/jsonio"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves invitations: Admins send and list them per workspace,
// invitees list and accept their own.
type Handler struct {
	Svc    *service.Service
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(svc *service.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:    svc,
		Log:    logger,
		ErrLog: errLog,
	}
}

type createRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleCreate handles POST /api/workspaces/{id}/invitations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
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
	var req createRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create invitation")
	defer cancel()

	inv, err := h.Svc.CreateInvitation(ctx, who, id, req.Email, req.Role)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusCreated, inv)
}

// ServeWorkspaceList handles GET /api/workspaces/{id}/invitations.
func (h *Handler) ServeWorkspaceList(w http.ResponseWriter, r *http.Request) {
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
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list workspace invitations")
	defer cancel()

	list, err := h.Svc.ListWorkspaceInvitations(ctx, who, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, list)
}

// ServeMine handles GET /api/invitations: pending invitations addressed
// to the caller's email.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	who, err := auth.Caller(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list my invitations")
	defer cancel()

	list, err := h.Svc.ListMyInvitations(ctx, who)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, list)
}

// HandleAccept handles POST /api/invitations/{id}/accept.
// Repeating a successful accept answers 200 again.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
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
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "accept invitation")
	defer cancel()

	inv, err := h.Svc.AcceptInvitation(ctx, who, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, inv)
}
