// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "CODETRACKR"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CODETRACKR_MONGO_URI, CODETRACKR_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "codetrackr", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "codetrackr-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie max age (e.g., 24h, 720h, 30m)"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL of this API (OAuth callback)"},
	{Name: "frontend_url", Default: "http://localhost:5173", Desc: "Dashboard URL that sign-in redirects to"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Email/SMTP configuration
	{Name: "mail_enabled", Default: false, Desc: "Send goal reminder and completion emails"},
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "CodeTrackr", Desc: "From display name"},

	{Name: "report_timezone", Default: "Local", Desc: "IANA time zone for daily and weekly reports"},

	// Timeouts
	{Name: "request_timeout", Default: "30s", Desc: "Global request timeout"},
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document store calls"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for listings and report queries"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for aggregations"},
	{Name: "timeout_batch", Default: "60s", Desc: "Timeout for batch ingestion and scheduler sweeps"},

	// Ingestion
	{Name: "ingest_rate_limit", Default: 600, Desc: "Extension requests allowed per API key per window"},
	{Name: "ingest_rate_window", Default: "1m", Desc: "Extension throttling window"},
	{Name: "ingest_max_batch", Default: 500, Desc: "Maximum activities per batch request"},

	// Invalid API key lockout
	{Name: "api_key_max_failures", Default: 10, Desc: "Invalid API key attempts before lockout"},
	{Name: "api_key_failure_window", Default: "15m", Desc: "Window for counting invalid API key attempts"},
	{Name: "api_key_lockout", Default: "15m", Desc: "Lockout duration after too many invalid keys"},

	// Goal scheduler
	{Name: "reminder_interval", Default: "1h", Desc: "How often goal jobs run"},
	{Name: "reminder_lead", Default: "6h", Desc: "Remind this long before a goal deadline"},
	{Name: "reminder_window", Default: "1h", Desc: "Width of the reminder window"},

	{Name: "metrics_enabled", Default: true, Desc: "Expose Prometheus metrics at /metrics"},

	// Demo data
	{Name: "seed_demo_data", Default: false, Desc: "Create a demo user with sample activity on startup"},
	{Name: "seed_demo_email", Default: "demo@codetrackr.local", Desc: "Email of the demo user"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// CODETRACKR_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		CSRFKey: appValues.String("csrf_key"),

		BaseURL:     appValues.String("base_url"),
		FrontendURL: appValues.String("frontend_url"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		MailEnabled:  appValues.Bool("mail_enabled"),
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		ReportTimezone: appValues.String("report_timezone"),

		RequestTimeout: appValues.Duration("request_timeout", 30*time.Second),
		TimeoutShort:   appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium:  appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:    appValues.Duration("timeout_long", 30*time.Second),
		TimeoutBatch:   appValues.Duration("timeout_batch", 60*time.Second),

		IngestRateLimit:  appValues.Int("ingest_rate_limit"),
		IngestRateWindow: appValues.Duration("ingest_rate_window", time.Minute),
		IngestMaxBatch:   appValues.Int("ingest_max_batch"),

		APIKeyMaxFailures:   appValues.Int("api_key_max_failures"),
		APIKeyFailureWindow: appValues.Duration("api_key_failure_window", 15*time.Minute),
		APIKeyLockout:       appValues.Duration("api_key_lockout", 15*time.Minute),

		ReminderInterval: appValues.Duration("reminder_interval", time.Hour),
		ReminderLead:     appValues.Duration("reminder_lead", 6*time.Hour),
		ReminderWindow:   appValues.Duration("reminder_window", time.Hour),

		MetricsEnabled: appValues.Bool("metrics_enabled"),

		SeedDemoData:  appValues.Bool("seed_demo_data"),
		SeedDemoEmail: appValues.String("seed_demo_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if _, err := reportLocation(appCfg.ReportTimezone); err != nil {
		logger.Error("invalid report time zone", zap.String("report_timezone", appCfg.ReportTimezone), zap.Error(err))
		return fmt.Errorf("invalid report_timezone %q: %w", appCfg.ReportTimezone, err)
	}

	positive := []struct {
		name string
		ok   bool
	}{
		{"ingest_rate_limit", appCfg.IngestRateLimit > 0},
		{"ingest_rate_window", appCfg.IngestRateWindow > 0},
		{"ingest_max_batch", appCfg.IngestMaxBatch > 0},
		{"api_key_max_failures", appCfg.APIKeyMaxFailures > 0},
		{"reminder_interval", appCfg.ReminderInterval > 0},
	}
	for _, p := range positive {
		if !p.ok {
			return fmt.Errorf("%s must be positive", p.name)
		}
	}

	if appCfg.GoogleClientID == "" || appCfg.GoogleClientSecret == "" {
		logger.Warn("Google OAuth is not configured; sign-in is disabled")
	}

	return nil
}

// reportLocation resolves the report time zone. An empty name or "Local"
// uses the server's zone.
func reportLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
