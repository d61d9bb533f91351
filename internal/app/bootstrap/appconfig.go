// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits); this
// struct is everything specific to CodeTrackr.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: codetrackr-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Maximum session cookie lifetime (default: 24h)

	// CSRF protection for the browser API
	CSRFKey string

	// Public URLs
	BaseURL     string // where this API is reachable; OAuth callback is BaseURL + /auth/google/callback
	FrontendURL string // dashboard SPA; sign-in redirects land here

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Email/SMTP configuration (goal reminder and completion mail)
	MailEnabled  bool
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Reports
	ReportTimezone string // IANA name used for daily/weekly bucketing (default: Local)

	// Request and store timeouts
	RequestTimeout time.Duration
	TimeoutShort   time.Duration
	TimeoutMedium  time.Duration
	TimeoutLong    time.Duration
	TimeoutBatch   time.Duration

	// Extension ingestion limits
	IngestRateLimit  int           // requests per API key per window
	IngestRateWindow time.Duration // throttling window
	IngestMaxBatch   int           // max activities per batch request

	// Invalid API key lockout
	APIKeyMaxFailures   int
	APIKeyFailureWindow time.Duration
	APIKeyLockout       time.Duration

	// Goal scheduler
	ReminderInterval time.Duration // how often the goal jobs run
	ReminderLead     time.Duration // remind this long before the deadline
	ReminderWindow   time.Duration // width of the reminder window

	MetricsEnabled bool // expose /metrics

	// Demo data
	SeedDemoData  bool
	SeedDemoEmail string
}
