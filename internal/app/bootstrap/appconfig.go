// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP ports,
// TLS, logging level and format, and request body limits. AppConfig
// carries everything specific to TaskHub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: taskhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Bearer tokens for API clients
	JWTSecret    string
	JWTExpiresIn time.Duration

	// Identity lookup cache
	UserCacheSize int
	UserCacheTTL  time.Duration

	// MembershipCASRetries bounds retries of a membership commit that lost
	// a version race.
	MembershipCASRetries int

	// Audit destinations per category: all, db, log or off.
	AuditLogAuth      string
	AuditLogWorkspace string

	// AuditRetention is how long audit events are kept; zero keeps them
	// forever. AuditPruneSchedule is the cron expression for removing old events.
	AuditRetention     time.Duration
	AuditPruneSchedule string
}
