// internal/app/features/tasks/handler.go
package tasks

import (
	"net/http"

	uierrors "github.com/dalemusser/taskhub/internal/app/features/errors"
	"github.com/dalemusser/taskhub/internal/app/service"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/jsonio"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves tasks. Who may do what is decided by the service; the
// handler only parses requests and maps errors to status codes.
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

// ServeList handles GET /api/workspaces/{id}/tasks?status=&priority=&q=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
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
	q := r.URL.Query()
	f := models.TaskFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Query:    q.Get("q"),
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list tasks")
	defer cancel()

	list, err := h.Svc.ListTasks(ctx, who, id, f)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, list)
}

// HandleCreate handles POST /api/workspaces/{id}/tasks.
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
	in, err := req.toNewTask()
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create task")
	defer cancel()

	t, err := h.Svc.CreateTask(ctx, who, id, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusCreated, t)
}

// ServeTask handles GET /api/tasks/{id}.
func (h *Handler) ServeTask(w http.ResponseWriter, r *http.Request) {
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
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get task")
	defer cancel()

	t, err := h.Svc.GetTask(ctx, who, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, t)
}

// HandleUpdate handles PATCH /api/tasks/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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
	var req patchRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	p, err := req.toPatch()
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update task")
	defer cancel()

	t, err := h.Svc.UpdateTask(ctx, who, id, p)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, t)
}

// HandleAttachImage handles POST /api/tasks/{id}/images.
func (h *Handler) HandleAttachImage(w http.ResponseWriter, r *http.Request) {
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
	var req imageRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "attach image")
	defer cancel()

	t, err := h.Svc.AttachImage(ctx, who, id, req.URL, req.Name)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, t)
}

// HandleDelete handles DELETE /api/tasks/{id}.
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
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete task")
	defer cancel()

	if err := h.Svc.DeleteTask(ctx, who, id); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	jsonio.Write(w, http.StatusOK, map[string]string{"message": "Task deleted."})
}
