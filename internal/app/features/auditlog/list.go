// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/jsonio"
	"github.com/dalemusser/taskhub/internal/app/system/paging"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
)

type listResponse struct {
	Events  []audit.Event `json:"events"`
	Page    int           `json:"page"`
	HasMore bool          `json:"has_more"`
}

// ServeList handles GET /api/workspaces/{id}/audit?page=N, newest first.
// Admin only.
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
	page := paging.ParsePage(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list audit events")
	defer cancel()

	events, err := h.Svc.ListAuditEvents(ctx, who, id, paging.LimitPlusOne(), paging.Offset(page))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	hasMore := paging.TrimPage(&events)
	jsonio.Write(w, http.StatusOK, listResponse{Events: events, Page: page, HasMore: hasMore})
}
