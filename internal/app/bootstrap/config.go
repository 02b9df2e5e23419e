// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/inputval"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for BloodConnect.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: BLOODCONNECT_MONGO_URI, BLOODCONNECT_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
//
// Credentials have no defaults.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "bloodconnect", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},
	{Name: "session_key", Default: "", Desc: "Session signing key, 32+ random chars (required in prod)"},
	{Name: "session_name", Default: "bloodconnect-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 465, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "", Desc: "From email address"},
	{Name: "mail_from_name", Default: "NSS BloodConnect", Desc: "From display name"},
	{Name: "mail_implicit_tls", Default: true, Desc: "Use implicit TLS (port 465); false uses STARTTLS when offered"},
	{Name: "mail_connect_timeout", Default: "10s", Desc: "SMTP connect + TLS handshake timeout"},
	{Name: "mail_greeting_timeout", Default: "10s", Desc: "SMTP greeting timeout"},
	{Name: "mail_socket_timeout", Default: "15s", Desc: "SMTP per-command idle timeout"},

	// Emergency fan-out
	{Name: "coordinator_email", Default: "", Desc: "Address that receives every emergency request"},
	{Name: "notify_concurrency", Default: 1, Desc: "Parallel donor emails per emergency (1 = sequential)"},

	// Rate limits
	{Name: "send_email_rate", Default: 10, Desc: "Send-email API requests per minute per client"},
	{Name: "emergency_rate", Default: 5, Desc: "Emergency submissions per minute per client"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL (Google callback)"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, BLOODCONNECT_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BLOODCONNECT", appConfigKeys)
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
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		// Email/SMTP
		MailSMTPHost:        appValues.String("mail_smtp_host"),
		MailSMTPPort:        appValues.Int("mail_smtp_port"),
		MailSMTPUser:        appValues.String("mail_smtp_user"),
		MailSMTPPass:        appValues.String("mail_smtp_pass"),
		MailFrom:            normalize.Email(appValues.String("mail_from")),
		MailFromName:        appValues.String("mail_from_name"),
		MailImplicitTLS:     appValues.Bool("mail_implicit_tls"),
		MailConnectTimeout:  appValues.Duration("mail_connect_timeout", 10*time.Second),
		MailGreetingTimeout: appValues.Duration("mail_greeting_timeout", 10*time.Second),
		MailSocketTimeout:   appValues.Duration("mail_socket_timeout", 15*time.Second),

		// Emergency fan-out
		CoordinatorEmail:  normalize.Email(appValues.String("coordinator_email")),
		NotifyConcurrency: appValues.Int("notify_concurrency"),

		SendEmailRate: appValues.Int("send_email_rate"),
		EmergencyRate: appValues.Int("emergency_rate"),

		BaseURL: appValues.String("base_url"),

		// Google OAuth
		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
	}

	if appCfg.SessionKey == "" && coreCfg.Env != "prod" {
		appCfg.SessionKey = string(securecookie.GenerateRandomKey(32))
		logger.Warn("session_key not set; using a random key, sessions will not survive a restart")
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It fails closed: anything that would leave the app unable to notify the
// coordinator, or without a session key, aborts startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateApp(appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}

// validateApp checks everything except the Mongo URI and reports every
// problem at once.
func validateApp(cfg AppConfig) error {
	var errs []error

	if cfg.CoordinatorEmail == "" {
		errs = append(errs, errors.New("coordinator_email is required"))
	} else if !inputval.IsValidEmail(cfg.CoordinatorEmail) {
		errs = append(errs, fmt.Errorf("coordinator_email %q is not a valid address", cfg.CoordinatorEmail))
	}

	if cfg.MailSMTPHost == "" {
		errs = append(errs, errors.New("mail_smtp_host is required"))
	}
	if cfg.MailSMTPPort <= 0 || cfg.MailSMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("mail_smtp_port %d is out of range", cfg.MailSMTPPort))
	}
	if cfg.MailFrom == "" {
		errs = append(errs, errors.New("mail_from is required"))
	} else if !inputval.IsValidEmail(cfg.MailFrom) {
		errs = append(errs, fmt.Errorf("mail_from %q is not a valid address", cfg.MailFrom))
	}
	if cfg.MailSMTPUser != "" && cfg.MailSMTPPass == "" {
		errs = append(errs, errors.New("mail_smtp_pass is required when mail_smtp_user is set"))
	}

	if cfg.NotifyConcurrency < 1 {
		errs = append(errs, fmt.Errorf("notify_concurrency must be at least 1, got %d", cfg.NotifyConcurrency))
	}
	if cfg.SendEmailRate < 1 || cfg.EmergencyRate < 1 {
		errs = append(errs, errors.New("send_email_rate and emergency_rate must be at least 1"))
	}

	if (cfg.GoogleClientID == "") != (cfg.GoogleClientSecret == "") {
		errs = append(errs, errors.New("google_client_id and google_client_secret must be set together"))
	}

	if cfg.SessionKey == "" {
		errs = append(errs, errors.New("session_key is required in prod"))
	}

	return errors.Join(errs...)
}
