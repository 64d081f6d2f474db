// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/jsonio"
)

// Handler reports who the caller is.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ServeUserInfo returns the caller's authentication status and identity.
// It always answers 200 so clients can check sign-in state without triggering a 401.
//
// Response format:
//
//	{ "isAuthenticated": bool, "id": "...", "name": "...", "email": "..." }
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.CurrentIdentity(r)
	if !ok {
		jsonio.Write(w, http.StatusOK, map[string]any{
			"isAuthenticated": false,
			"id":              "",
			"name":            "",
			"email":           "",
		})
		return
	}

	jsonio.Write(w, http.StatusOK, map[string]any{
		"isAuthenticated": true,
		"id":              id.ID.Hex(),
		"name":            id.Name,
		"email":           id.Email,
	})
}
