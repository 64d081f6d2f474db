// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted at /api/workspaces/{id}/members.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.HandleAdd)
	r.Patch("/{userID}", h.HandleChangeRole)
	r.Delete("/{userID}", h.HandleRemove)

	return r
}
