// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (register, login, logout).
	Auth string
	// Workspace controls logging for workspace lifecycle events (create,
	// rename, delete). Membership and invitation changes are not audited.
	Workspace string
}

// Store persists audit events. *audit.Store and the in-memory store both
// satisfy it.
type Store interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// It logs to both the Store and structured logs (via zap).
type Logger struct {
	store  Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request. chi's RealIP
// middleware has already folded X-Forwarded-For / X-Real-IP into RemoteAddr
// when it runs; the headers are checked for handlers mounted without it.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.WorkspaceID != nil {
		fields = append(fields, zap.String("workspace_id", event.WorkspaceID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryWorkspace:
		setting = l.config.Workspace
	}
	if setting == "" {
		setting = DestAll
	}
	if setting == DestOff {
		return
	}

	if setting == DestAll || setting == DestLog {
		l.logToZap(event)
	}

	if (setting == DestAll || setting == DestDB) && l.store != nil {
		// The request may already be cancelled (client hung up after the
		// mutation committed); the record is still written.
		if err := l.store.Log(context.WithoutCancel(ctx), event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) authEvent(r *http.Request, eventType string, userID *primitive.ObjectID) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

func (l *Logger) workspaceEvent(r *http.Request, eventType string, actor models.Identity, workspaceID primitive.ObjectID) audit.Event {
	return audit.Event{
		Category:    audit.CategoryWorkspace,
		EventType:   eventType,
		WorkspaceID: &workspaceID,
		ActorID:     &actor.ID,
		IP:          getClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
	}
}

// --- Authentication Events ---

// Registered logs a new account.
func (l *Logger) Registered(ctx context.Context, r *http.Request, u models.User) {
	if l == nil {
		return
	}
	e := l.authEvent(r, audit.EventUserRegistered, &u.ID)
	e.Details = map[string]string{"email": u.Email}
	l.Log(ctx, e)
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, u models.User) {
	if l == nil {
		return
	}
	e := l.authEvent(r, audit.EventLoginSuccess, &u.ID)
	e.Details = map[string]string{"email": u.Email}
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a login for an email with no account.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	if l == nil {
		return
	}
	e := l.authEvent(r, audit.EventLoginFailedUserNotFound, nil)
	e.Success = false
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a login with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, u models.User) {
	if l == nil {
		return
	}
	e := l.authEvent(r, audit.EventLoginFailedWrongPassword, &u.ID)
	e.Success = false
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"email": u.Email}
	l.Log(ctx, e)
}

// LoginFailedRateLimit logs a login refused by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, attemptedEmail, limitType string) {
	if l == nil {
		return
	}
	e := l.authEvent(r, audit.EventLoginFailedRateLimit, nil)
	e.Success = false
	e.FailureReason = "rate limited"
	e.Details = map[string]string{"attempted_email": attemptedEmail, "limit_type": limitType}
	l.Log(ctx, e)
}

// Logout logs a sign-out. who may be nil when no one was signed in.
func (l *Logger) Logout(ctx context.Context, r *http.Request, who *models.Identity) {
	if l == nil {
		return
	}
	var userID *primitive.ObjectID
	if who != nil {
		id := who.ID
		userID = &id
	}
	l.Log(ctx, l.authEvent(r, audit.EventLogout, userID))
}

// --- Workspace Events ---

// WorkspaceCreated logs a new workspace.
func (l *Logger) WorkspaceCreated(ctx context.Context, r *http.Request, actor models.Identity, ws models.Workspace) {
	if l == nil {
		return
	}
	e := l.workspaceEvent(r, audit.EventWorkspaceCreated, actor, ws.ID)
	e.Details = map[string]string{"name": ws.Name}
	l.Log(ctx, e)
}

// WorkspaceRenamed logs a rename.
func (l *Logger) WorkspaceRenamed(ctx context.Context, r *http.Request, actor models.Identity, ws models.Workspace) {
	if l == nil {
		return
	}
	e := l.workspaceEvent(r, audit.EventWorkspaceRenamed, actor, ws.ID)
	e.Details = map[string]string{"name": ws.Name}
	l.Log(ctx, e)
}

// WorkspaceDeleted logs a deletion.
func (l *Logger) WorkspaceDeleted(ctx context.Context, r *http.Request, actor models.Identity, workspaceID primitive.ObjectID) {
	if l == nil {
		return
	}
	l.Log(ctx, l.workspaceEvent(r, audit.EventWorkspaceDeleted, actor, workspaceID))
}
