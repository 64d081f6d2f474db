// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/taskhub/internal/app/features/errors"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/inputval"
	"github.com/dalemusser/taskhub/internal/app/system/jsonio"
	"github.com/dalemusser/taskhub/internal/app/system/normalize"
	"github.com/dalemusser/taskhub/internal/app/system/ratelimit"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.uber.org/zap"
)

// UserStore is the part of the user store that registration and sign-in need.
type UserStore interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

type Handler struct {
	Users      UserStore
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Limiter    *ratelimit.AuthLimiter
	Audit      *auditlog.Logger
}

// NewHandler wires the auth endpoints. A nil limiter selects the default
// limits; a nil audit logger records nothing.
func NewHandler(users UserStore, sessionMgr *auth.SessionManager, limiter *ratelimit.AuthLimiter, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewAuthLimiter()
	}
	return &Handler{
		Users:      users,
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Limiter:    limiter,
		Audit:      audit,
	}
}

var errBadCredentials = apperr.New(apperr.KindUnauthorized, "Invalid email or password.")

type registerRequest struct {
	Name     string `json:"name" validate:"required,notblank,min=2" label:"Name"`
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required,min=6" label:"Password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User      models.User `json:"user"`
	Token     string      `json:"token,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// HandleRegister handles POST /api/auth/register. The new account is
// signed in immediately.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	req.Name = normalize.Name(req.Name)
	req.Email = normalize.Email(req.Email)

	if ok, reason := h.Limiter.Check(r, req.Email); !ok {
		h.Audit.LoginFailedRateLimit(r.Context(), r, req.Email, "register")
		jsonio.Message(w, http.StatusTooManyRequests, reason)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		h.ErrLog.Write(w, r, apperr.Validation(res.First()))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{Name: req.Name, Email: req.Email, PasswordHash: hash})
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()))
	h.Audit.Registered(ctx, r, u)
	h.startSession(w, r, u, http.StatusCreated)
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		h.ErrLog.Write(w, r, apperr.Validation("Email and password are required."))
		return
	}

	if ok, reason := h.Limiter.Check(r, email); !ok {
		h.Log.Warn("login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
		h.Audit.LoginFailedRateLimit(r.Context(), r, email, "login")
		jsonio.Message(w, http.StatusTooManyRequests, reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			h.Audit.LoginFailedUserNotFound(ctx, r, email)
			err = errBadCredentials
		}
		h.ErrLog.Write(w, r, err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		h.Audit.LoginFailedWrongPassword(ctx, r, u)
		h.ErrLog.Write(w, r, errBadCredentials)
		return
	}

	h.Limiter.ResetEmail(email)
	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()))
	h.Audit.LoginSuccess(ctx, r, u)
	h.startSession(w, r, u, http.StatusOK)
}

// startSession writes the session cookie and, when a token issuer is
// configured, returns a bearer token alongside the user.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u models.User, status int) {
	id := models.Identity{ID: u.ID, Email: u.Email, Name: u.Name}
	if err := h.SessionMgr.SignIn(w, r, id); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	resp := sessionResponse{User: u}
	if tokens := h.SessionMgr.Tokens(); tokens != nil {
		tok, exp, err := tokens.Issue(id)
		if err != nil {
			h.ErrLog.Write(w, r, err)
			return
		}
		resp.Token = tok
		resp.ExpiresAt = &exp
	}
	jsonio.Write(w, status, resp)
}
