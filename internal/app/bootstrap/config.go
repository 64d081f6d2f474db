// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/taskhub/internal/app/service"
	"github.com/dalemusser/taskhub/internal/app/system/auditlog"
	"github.com/dalemusser/taskhub/internal/app/system/auth"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for TaskHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: TASKHUB_MONGO_URI, TASKHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "multi_user_task_manager", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "", Desc: "Session signing key (32+ chars; a random key is generated in dev when empty)"},
	{Name: "session_name", Default: "taskhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session cookie lifetime"},

	{Name: "jwt_secret", Default: "", Desc: "HMAC secret for API bearer tokens (required outside dev)"},
	{Name: "jwt_expires_in", Default: "168h", Desc: "Bearer token lifetime (e.g., 24h, 168h)"},

	{Name: "user_cache_size", Default: 1024, Desc: "Number of identities kept in the lookup cache"},
	{Name: "user_cache_ttl", Default: "30s", Desc: "How long a cached identity is trusted"},

	{Name: "membership_cas_retries", Default: service.DefaultCASRetries, Desc: "Retries for a membership change that lost a concurrent update"},

	{Name: "audit_log_auth", Default: auditlog.DestAll, Desc: "Where auth events go: all, db, log, off"},
	{Name: "audit_log_workspace", Default: auditlog.DestAll, Desc: "Where workspace lifecycle events go: all, db, log, off"},
	{Name: "audit_retention", Default: "0s", Desc: "How long audit events are kept (e.g., 2160h); 0 keeps them forever"},
	{Name: "audit_prune_schedule", Default: "@every 1h", Desc: "Cron schedule for removing expired audit events"},
}

// devJWTSecret signs bearer tokens in dev when no secret is configured.
const devJWTSecret = "taskhub-dev-only-jwt-secret"

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// TASKHUB_* environment variables and flags, with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TASKHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 7*24*time.Hour),

		JWTSecret:    appValues.String("jwt_secret"),
		JWTExpiresIn: appValues.Duration("jwt_expires_in", 7*24*time.Hour),

		UserCacheSize: appValues.Int("user_cache_size"),
		UserCacheTTL:  appValues.Duration("user_cache_ttl", 30*time.Second),

		MembershipCASRetries: appValues.Int("membership_cas_retries"),

		AuditLogAuth:      appValues.String("audit_log_auth"),
		AuditLogWorkspace: appValues.String("audit_log_workspace"),

		AuditRetention:     appValues.Duration("audit_retention", 0),
		AuditPruneSchedule: appValues.String("audit_prune_schedule"),
	}

	if coreCfg.Env == "dev" {
		if appCfg.SessionKey == "" {
			logger.Warn("session_key not set; generated a random key, sessions will not survive a restart")
			appCfg.SessionKey = auth.DevSessionKey()
		}
		if appCfg.JWTSecret == "" {
			logger.Warn("jwt_secret not set; using the dev-only secret")
			appCfg.JWTSecret = devJWTSecret
		}
	}

	// Timeouts are read before ConnectDB so the initial ping honours them.
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("applied timeout overrides from environment", zap.Int("count", n))
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database must not be empty")
	}

	if coreCfg.Env != "dev" {
		if appCfg.JWTSecret == "" {
			return errors.New("jwt_secret is required outside dev")
		}
		if appCfg.SessionKey == "" {
			return errors.New("session_key is required outside dev")
		}
	}
	if appCfg.JWTExpiresIn <= 0 {
		return fmt.Errorf("jwt_expires_in must be positive, got %s", appCfg.JWTExpiresIn)
	}
	if appCfg.MembershipCASRetries <= 0 {
		return fmt.Errorf("membership_cas_retries must be positive, got %d", appCfg.MembershipCASRetries)
	}
	if appCfg.UserCacheSize <= 0 {
		return fmt.Errorf("user_cache_size must be positive, got %d", appCfg.UserCacheSize)
	}
	if appCfg.AuditRetention < 0 {
		return fmt.Errorf("audit_retention must not be negative, got %s", appCfg.AuditRetention)
	}
	if appCfg.AuditRetention > 0 {
		if _, err := cron.ParseStandard(appCfg.AuditPruneSchedule); err != nil {
			return fmt.Errorf("invalid audit_prune_schedule %q: %w", appCfg.AuditPruneSchedule, err)
		}
	}
	for key, dest := range map[string]string{
		"audit_log_auth":      appCfg.AuditLogAuth,
		"audit_log_workspace": appCfg.AuditLogWorkspace,
	} {
		if !validAuditDest(dest) {
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", key, dest)
		}
	}

	return nil
}

// validAuditDest reports whether dest is a known audit destination. Blank
// means the default.
func validAuditDest(dest string) bool {
	switch dest {
	case "", auditlog.DestAll, auditlog.DestDB, auditlog.DestLog, auditlog.DestOff:
		return true
	}
	return false
}
