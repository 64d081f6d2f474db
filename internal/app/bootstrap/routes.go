// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/taskhub/internal/app/features/auditlog"
	dashboardfeature "github.com/dalemusser/taskhub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/taskhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/taskhub/internal/app/features/health"
	invitationsfeature "github.com/dalemusser/taskhub/internal/app/features/invitations"
	loginfeature "github.com/dalemusser/taskhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/taskhub/internal/app/features/logout"
	membersfeature "github.com/dalemusser/taskhub/internal/app/features/members"
	metricsfeature "github.com/dalemusser/taskhub/internal/app/features/metrics"
	tasksfeature "github.com/dalemusser/taskhub/internal/app/features/tasks"
	userinfofeature "github.com/dalemusser/taskhub/internal/app/features/userinfo"
	workspacesfeature "github.com/dalemusser/taskhub/internal/app/features/workspaces"
	"github.com/dalemusser/taskhub/internal/app/service"
	auditstore "github.com/dalemusser/taskhub/internal/app/store/audit"
	invitationstore "github.com/dalemusser/taskhub/internal/app/store/invitations"
	taskstore "github.com/dalemusser/taskhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/taskhub/internal/app/store/users"
	workspacestore "github.com/dalemusser/taskhub/internal/app/store/workspaces"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. TaskHub builds the Mongo-backed stores,
// the session manager with bearer tokens and a cached identity lookup, and
// mounts the JSON API.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	tokens, err := auth.NewTokens(appCfg.JWTSecret, appCfg.JWTExpiresIn)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetTokens(tokens)

	// Every request re-checks its user, through a short-lived cache.
	db := deps.MongoDatabase
	sessionMgr.SetIdentityFetcher(auth.NewCachedFetcher(userstore.NewFetcher(db), appCfg.UserCacheSize, appCfg.UserCacheTTL))

	users := userstore.New(db)
	return newRouter(routerDeps{
		Workspaces:  workspacestore.New(db),
		Tasks:       taskstore.New(db),
		Invitations: invitationstore.New(db),
		Users:       users,
		Accounts:    users,
		Pinger:      deps.MongoClient,
		SessionMgr:  sessionMgr,
		Audit:       auditstore.New(db),
		AuditConfig: auditlog.Config{Auth: appCfg.AuditLogAuth, Workspace: appCfg.AuditLogWorkspace},
		CASRetries:  appCfg.MembershipCASRetries,
	}, logger), nil
}

// AuditStore persists audit events and reads a workspace's trail back.
type AuditStore interface {
	auditlog.Store
	service.AuditReader
}

// routerDeps is everything newRouter needs; tests supply in-memory stores.
type routerDeps struct {
	Workspaces  service.WorkspaceStore
	Tasks       service.TaskStore
	Invitations service.InvitationStore
	Users       service.UserDirectory
	Accounts    loginfeature.UserStore
	Pinger      healthfeature.Pinger
	SessionMgr  *auth.SessionManager
	Audit       AuditStore
	AuditConfig auditlog.Config
	CASRetries  int

	// Registry defaults to a fresh registry with the Go and process
	// collectors.
	Registry *prometheus.Registry
	// Limiter defaults to ratelimit.NewAuthLimiter.
	Limiter *ratelimit.AuthLimiter
}

func newRouter(d routerDeps, logger *zap.Logger) chi.Router {
	registry := d.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	httpMetrics := metricsfeature.NewHTTPMetrics(registry)

	svc := service.New(service.Deps{
		Workspaces:  d.Workspaces,
		Tasks:       d.Tasks,
		Invitations: d.Invitations,
		Users:       d.Users,
		Logger:      logger,
		Audit:       d.Audit,
		Metrics:     service.NewMetrics(registry),
		CASRetries:  d.CASRetries,
	})
	auditLog := auditlog.New(d.Audit, logger, d.AuditConfig)

	sm := d.SessionMgr
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpMetrics.Middleware)

	// Global auth middleware: loads the caller's Identity into context from
	// the session cookie or bearer token.
	r.Use(sm.LoadIdentity)

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(d.Pinger, logger)))
	r.Mount("/metrics", metricsfeature.Routes(registry))

	// Authentication
	loginHandler := loginfeature.NewHandler(d.Accounts, sm, d.Limiter, auditLog, errLog, logger)
	logoutHandler := logoutfeature.NewHandler(sm, auditLog, logger)
	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	workspacesHandler := workspacesfeature.NewHandler(svc, auditLog, errLog, logger)
	membersHandler := membersfeature.NewHandler(svc, errLog, logger)
	invitationsHandler := invitationsfeature.NewHandler(svc, errLog, logger)
	auditHandler := auditlogfeature.NewHandler(svc, errLog, logger)
	tasksHandler := tasksfeature.NewHandler(svc, errLog, logger)
	dashboardHandler := dashboardfeature.NewHandler(svc, errLog, logger)

	r.Route("/api", func(api chi.Router) {
		api.Mount("/auth/logout", logoutfeature.Routes(logoutHandler))
		api.Mount("/auth", loginfeature.Routes(loginHandler))

		// Nested workspace resources are mounted before /workspaces so the
		// {id} prefix is tried first.
		api.Mount("/workspaces/{id}/members", membersfeature.Routes(membersHandler, sm))
		api.Mount("/workspaces/{id}/invitations", invitationsfeature.WorkspaceRoutes(invitationsHandler, sm))
		api.Mount("/workspaces/{id}/tasks", tasksfeature.WorkspaceRoutes(tasksHandler, sm))
		api.Mount("/workspaces/{id}/audit", auditlogfeature.Routes(auditHandler, sm))
		api.Mount("/workspaces", workspacesfeature.Routes(workspacesHandler, sm))

		api.Mount("/invitations", invitationsfeature.Routes(invitationsHandler, sm))
		api.Mount("/tasks", tasksfeature.Routes(tasksHandler, sm))
		api.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sm))
	})

	return r
}
