// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/taskhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// auditRetention is started by Startup when a retention window is set and
// stopped by Shutdown.
var auditRetention *workers.AuditRetention

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	cur := timeouts.Current()
	logger.Info("taskhub starting",
		zap.String("env", coreCfg.Env),
		zap.String("database", appCfg.MongoDatabase),
		zap.Duration("jwt_expires_in", appCfg.JWTExpiresIn),
		zap.Int("user_cache_size", appCfg.UserCacheSize),
		zap.Duration("user_cache_ttl", appCfg.UserCacheTTL),
		zap.Int("membership_cas_retries", appCfg.MembershipCASRetries),
		zap.String("audit_log_auth", appCfg.AuditLogAuth),
		zap.String("audit_log_workspace", appCfg.AuditLogWorkspace),
		zap.Duration("timeout_short", cur.Short),
		zap.Duration("timeout_long", cur.Long),
	)

	if appCfg.AuditRetention > 0 && deps.MongoDatabase != nil {
		w, err := workers.NewAuditRetention(audit.New(deps.MongoDatabase), logger, appCfg.AuditPruneSchedule, appCfg.AuditRetention)
		if err != nil {
			return err
		}
		auditRetention = w
		auditRetention.Start()
	}
	return nil
}
