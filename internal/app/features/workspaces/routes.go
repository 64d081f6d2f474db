// internal/app/features/workspaces/routes.go
package workspaces

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the workspace routes under /api/workspaces.
// Membership, invitation and task routes for one workspace are mounted by
// their own features at /api/workspaces/{id}/...
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)

	r.Get("/{id}", h.ServeWorkspace)
	r.Patch("/{id}", h.HandleRename)
	r.Delete("/{id}", h.HandleDelete)

	return r
}
