// internal/app/features/invitations/routes.go
package invitations

import (
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// WorkspaceRoutes is mounted at /api/workspaces/{id}/invitations.
func WorkspaceRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeWorkspaceList)
	r.Post("/", h.HandleCreate)
	return r
}

// Routes is mounted at /api/invitations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeMine)
	r.Post("/{id}/accept", h.HandleAccept)
	return r
}
