// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - Request body size limits
//
// The struct is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies; required in prod
	SessionName   string        // Cookie name for sessions (default: bloodconnect-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Email/SMTP configuration
	MailSMTPHost        string // SMTP server host
	MailSMTPPort        int    // 465 for implicit TLS, 587 for STARTTLS, 1025 for Mailpit
	MailSMTPUser        string // empty disables AUTH
	MailSMTPPass        string
	MailFrom            string // From email address
	MailFromName        string // From display name
	MailImplicitTLS     bool
	MailConnectTimeout  time.Duration
	MailGreetingTimeout time.Duration
	MailSocketTimeout   time.Duration

	// Emergency fan-out
	CoordinatorEmail  string // receives every emergency request
	NotifyConcurrency int    // 1 sends donor emails one at a time

	// Rate limits (requests per minute per client IP)
	SendEmailRate int
	EmergencyRate int

	// Base URL for the Google callback
	BaseURL string // e.g., "https://blood.example.edu" or "http://localhost:8080"

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string
}

// GoogleEnabled reports whether Google sign-in should be mounted.
func (c AppConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
