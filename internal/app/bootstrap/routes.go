// internal/app/bootstrap/routes.go
package bootstrap

import (
	"crypto/sha256"
	"net/http"

	adminfeature "github.com/dalemusser/bloodconnect/internal/app/features/admin"
	authgooglefeature "github.com/dalemusser/bloodconnect/internal/app/features/authgoogle"
	dashboardfeature "github.com/dalemusser/bloodconnect/internal/app/features/dashboard"
	emergencyfeature "github.com/dalemusser/bloodconnect/internal/app/features/emergency"
	errorsfeature "github.com/dalemusser/bloodconnect/internal/app/features/errors"
	healthfeature "github.com/dalemusser/bloodconnect/internal/app/features/health"
	homefeature "github.com/dalemusser/bloodconnect/internal/app/features/home"
	loginfeature "github.com/dalemusser/bloodconnect/internal/app/features/login"
	logoutfeature "github.com/dalemusser/bloodconnect/internal/app/features/logout"
	registerfeature "github.com/dalemusser/bloodconnect/internal/app/features/register"
	sendemailfeature "github.com/dalemusser/bloodconnect/internal/app/features/sendemail"
	"github.com/dalemusser/bloodconnect/internal/app/store/oauthstate"
	"github.com/dalemusser/bloodconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// Layout:
//   - /health, /metrics and /api/send-email sit outside CSRF protection
//     (machine callers; the API requires a session and a JSON body).
//   - Everything else is HTML, behind gorilla/csrf, with the session user
//     loaded into the request context.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc, err := newServices(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("service init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr := svc.SessionMgr

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	db := deps.MongoDatabase

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Set before any Mount so sub-routers inherit it.
	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", svc.Metrics.Handler())

	// Send-email API: session + rate limit + JSON only.
	sendHandler := sendemailfeature.NewHandler(svc.Mailer, svc.Metrics, logger)
	r.Mount("/api/send-email", sendemailfeature.Routes(sendHandler,
		ratelimit.Middleware(svc.SendEmailLimiter, ratelimit.ByIP, logger)))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// HTML pages, CSRF protected.
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware(coreCfg, appCfg)...)

		r.Get("/forbidden", errorsHandler.Forbidden)
		r.Get("/unauthorized", errorsHandler.Unauthorized)

		homeHandler := homefeature.NewHandler(logger)
		r.Mount("/", homefeature.Routes(homeHandler))

		// Authentication
		loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, svc.LoginLimiter, appCfg.GoogleEnabled(), logger)
		r.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
		r.Mount("/logout", logoutfeature.Routes(logoutHandler))

		registerHandler := registerfeature.NewHandler(db, sessionMgr, errLog, logger)
		r.Mount("/register", registerfeature.Routes(registerHandler))

		if appCfg.GoogleEnabled() {
			googleHandler := authgooglefeature.NewHandler(db, sessionMgr, errLog, oauthstate.New(db),
				appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
			r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
		}

		// Donor dashboard
		dashboardHandler := dashboardfeature.NewHandler(db, sessionMgr, errLog, logger)
		r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

		// Public emergency form; submissions are rate limited per IP.
		emergencyHandler := emergencyfeature.NewHandler(svc.Engine, logger)
		r.Mount("/emergency", emergencyfeature.Routes(emergencyHandler,
			ratelimit.Middleware(svc.EmergencyLimiter, ratelimit.ByIP, logger)))

		// Admin area
		adminHandler := adminfeature.NewHandler(db, errLog, logger)
		r.Mount("/admin", adminfeature.Routes(adminHandler))
	})

	logger.Info("routes mounted",
		zap.Bool("google_sign_in", appCfg.GoogleEnabled()),
		zap.String("env", coreCfg.Env))

	return r, nil
}

// csrfMiddleware returns gorilla/csrf keyed off the session key. Over plain
// HTTP in dev, requests are marked plaintext so the origin check does not
// demand https.
func csrfMiddleware(coreCfg *config.CoreConfig, appCfg AppConfig) []func(http.Handler) http.Handler {
	key := sha256.Sum256([]byte("csrf:" + appCfg.SessionKey))
	secure := coreCfg.Env == "prod"

	protect := csrf.Protect(key[:],
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			errorsfeature.RenderError(w, r, http.StatusForbidden, "Form expired",
				"Your form session expired. Please go back, reload the page and try again.", "/")
		})),
	)
	if secure {
		return []func(http.Handler) http.Handler{protect}
	}
	plaintext := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
	return []func(http.Handler) http.Handler{plaintext, protect}
}
