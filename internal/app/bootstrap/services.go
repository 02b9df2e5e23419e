// internal/app/bootstrap/services.go
package bootstrap

import (
	"fmt"
	"time"

	donorstore "github.com/dalemusser/bloodconnect/internal/app/store/donors"
	emergencystore "github.com/dalemusser/bloodconnect/internal/app/store/emergencies"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/fanout"
	"github.com/dalemusser/bloodconnect/internal/app/system/mailer"
	"github.com/dalemusser/bloodconnect/internal/app/system/metrics"
	"github.com/dalemusser/bloodconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are the long-lived collaborators shared by the feature handlers.
type services struct {
	SessionMgr *auth.SessionManager
	Mailer     *mailer.Mailer
	Metrics    *metrics.Recorder
	Engine     *fanout.Engine

	LoginLimiter     *ratelimit.LoginLimiter
	SendEmailLimiter *ratelimit.Limiter
	EmergencyLimiter *ratelimit.Limiter
}

// newServices builds the session manager, the Notification Sender and the
// fan-out engine from configuration.
func newServices(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	m, err := mailer.New(mailer.NewSMTPTransport(smtpConfig(appCfg)), appCfg.MailFrom, appCfg.MailFromName, logger)
	if err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	}

	rec := metrics.New()

	engine, err := fanout.New(fanout.Config{
		CoordinatorEmail: appCfg.CoordinatorEmail,
		SiteName:         models.DefaultSiteName,
		Concurrency:      appCfg.NotifyConcurrency,
	}, emergencystore.New(deps.MongoDatabase), donorstore.New(deps.MongoDatabase), m, rec, logger)
	if err != nil {
		return nil, fmt.Errorf("fan-out engine: %w", err)
	}

	logger.Info("notification sender ready",
		zap.String("smtp_host", appCfg.MailSMTPHost),
		zap.Int("smtp_port", appCfg.MailSMTPPort),
		zap.Bool("implicit_tls", appCfg.MailImplicitTLS),
		zap.Int("notify_concurrency", appCfg.NotifyConcurrency))

	return &services{
		SessionMgr:       sessionMgr,
		Mailer:           m,
		Metrics:          rec,
		Engine:           engine,
		LoginLimiter:     ratelimit.NewLoginLimiter(),
		SendEmailLimiter: ratelimit.New(appCfg.SendEmailRate, time.Minute),
		EmergencyLimiter: ratelimit.New(appCfg.EmergencyRate, time.Minute),
	}, nil
}

func smtpConfig(appCfg AppConfig) mailer.SMTPConfig {
	return mailer.SMTPConfig{
		Host:            appCfg.MailSMTPHost,
		Port:            appCfg.MailSMTPPort,
		Username:        appCfg.MailSMTPUser,
		Password:        appCfg.MailSMTPPass,
		ImplicitTLS:     appCfg.MailImplicitTLS,
		ConnectTimeout:  appCfg.MailConnectTimeout,
		GreetingTimeout: appCfg.MailGreetingTimeout,
		SocketTimeout:   appCfg.MailSocketTimeout,
	}
}
