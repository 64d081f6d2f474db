// internal/app/features/members/handler.go
package members

import (
	"net/http"

	uierrors "github.com/dalemusser/taskhub/internal/app/features/errors"
	"github.com/dalemusser/taskhub/internal/app/service"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/jsonio"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves the membership ledger of one workspace. Every route is
// Admin only and answers with the updated workspace.
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

type addRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type roleRequest struct {
	Role string `json:"role"`
}

// HandleAdd handles POST /api/workspaces/{id}/members.
// The role defaults to Member.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
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
	var req addRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "add member")
	defer cancel()

	ws, err := h.Svc.AddMember(ctx, who, id, req.Email, req.Role)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, ws)
}

// HandleChangeRole handles PATCH /api/workspaces/{id}/members/{userID}.
func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
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
	userID, err := jsonio.ObjectIDParam(r, "userID")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req roleRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "change member role")
	defer cancel()

	ws, err := h.Svc.ChangeRole(ctx, who, id, userID, req.Role)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, ws)
}

// HandleRemove handles DELETE /api/workspaces/{id}/members/{userID}.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
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
	userID, err := jsonio.ObjectIDParam(r, "userID")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "remove member")
	defer cancel()

	ws, err := h.Svc.RemoveMember(ctx, who, id, userID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, ws)
}
