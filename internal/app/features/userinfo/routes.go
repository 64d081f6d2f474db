// internal/app/features/userinfo/routes.go
package userinfo

import "github.com/go-chi/chi/v5"

// MountRoutes registers GET /api/auth/me on the supplied router.
// No auth-specific middleware is required because the handler itself
// checks the context via auth.CurrentIdentity.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/api/auth/me", h.ServeUserInfo)
}
