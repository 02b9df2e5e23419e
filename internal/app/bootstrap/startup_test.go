package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/bloodconnect/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "bloodconnect",
		SessionKey:          "0123456789abcdef0123456789abcdef",
		SessionName:         "bloodconnect-session",
		SessionMaxAge:       time.Hour,
		MailSMTPHost:        "smtp.example.com",
		MailSMTPPort:        465,
		MailFrom:            "noreply@example.com",
		MailFromName:        "NSS BloodConnect",
		MailImplicitTLS:     true,
		MailConnectTimeout:  10 * time.Second,
		MailGreetingTimeout: 10 * time.Second,
		MailSocketTimeout:   15 * time.Second,
		CoordinatorEmail:    "coordinator@example.com",
		NotifyConcurrency:   1,
		SendEmailRate:       10,
		EmergencyRate:       5,
		BaseURL:             "http://localhost:8080",
	}
}

func TestValidateApp_Valid(t *testing.T) {
	if err := validateApp(validAppConfig()); err != nil {
		t.Fatalf("validateApp: %v", err)
	}
}

func TestValidateApp_FailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantMsg string
	}{
		{"no coordinator", func(c *AppConfig) { c.CoordinatorEmail = "" }, "coordinator_email is required"},
		{"bad coordinator", func(c *AppConfig) { c.CoordinatorEmail = "not-an-email" }, "coordinator_email"},
		{"no smtp host", func(c *AppConfig) { c.MailSMTPHost = "" }, "mail_smtp_host"},
		{"bad port", func(c *AppConfig) { c.MailSMTPPort = 0 }, "mail_smtp_port"},
		{"no from", func(c *AppConfig) { c.MailFrom = "" }, "mail_from is required"},
		{"user without password", func(c *AppConfig) { c.MailSMTPUser = "apikey" }, "mail_smtp_pass"},
		{"zero concurrency", func(c *AppConfig) { c.NotifyConcurrency = 0 }, "notify_concurrency"},
		{"zero rate", func(c *AppConfig) { c.EmergencyRate = 0 }, "emergency_rate"},
		{"half google", func(c *AppConfig) { c.GoogleClientID = "id" }, "google_client_secret"},
		{"no session key", func(c *AppConfig) { c.SessionKey = "" }, "session_key"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validAppConfig()
			tc.mutate(&cfg)
			err := validateApp(cfg)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestValidateApp_ReportsEveryProblem(t *testing.T) {
	cfg := validAppConfig()
	cfg.CoordinatorEmail = ""
	cfg.MailSMTPHost = ""

	err := validateApp(cfg)
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"coordinator_email", "mail_smtp_host"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidateConfig_BadMongoURI(t *testing.T) {
	cfg := validAppConfig()
	cfg.MongoURI = "postgres://nope"
	if err := ValidateConfig(&config.CoreConfig{Env: "prod"}, cfg, testLogger()); err == nil {
		t.Fatal("expected invalid Mongo URI to be rejected")
	}
}

func TestGoogleEnabled(t *testing.T) {
	cfg := validAppConfig()
	if cfg.GoogleEnabled() {
		t.Error("expected Google sign-in off without credentials")
	}
	cfg.GoogleClientID, cfg.GoogleClientSecret = "id", "secret"
	if !cfg.GoogleEnabled() {
		t.Error("expected Google sign-in on with both credentials")
	}
}

func TestSMTPConfig(t *testing.T) {
	cfg := validAppConfig()
	cfg.MailSMTPUser, cfg.MailSMTPPass = "apikey", "secret"

	got := smtpConfig(cfg)
	if got.Host != "smtp.example.com" || got.Port != 465 || !got.ImplicitTLS {
		t.Errorf("unexpected transport config: %+v", got)
	}
	if got.Username != "apikey" || got.Password != "secret" {
		t.Error("credentials not carried over")
	}
	if got.SocketTimeout != 15*time.Second {
		t.Errorf("SocketTimeout = %v", got.SocketTimeout)
	}
}

func TestNewServices(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	svc, err := newServices(&config.CoreConfig{Env: "dev"}, validAppConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("newServices: %v", err)
	}
	if svc.SessionMgr == nil || svc.Mailer == nil || svc.Engine == nil || svc.Metrics == nil {
		t.Fatal("expected every service to be built")
	}
	if svc.SessionMgr.Name() != "bloodconnect-session" {
		t.Errorf("session name = %q", svc.SessionMgr.Name())
	}
}

func TestNewServices_BadCoordinatorFails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := validAppConfig()
	cfg.CoordinatorEmail = "nope"

	if _, err := newServices(&config.CoreConfig{Env: "dev"}, cfg, DBDeps{MongoDatabase: db}, testLogger()); err == nil {
		t.Fatal("expected fan-out engine construction to fail")
	}
}

func TestEnsureSchema(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, &config.CoreConfig{}, validAppConfig(), deps, testLogger()); err != nil {
			t.Fatalf("EnsureSchema run %d: %v", i+1, err)
		}
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames: %v", err)
	}
	for _, want := range []string{"donors", "emergency_requests", "accounts", "admins"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("collection %q not created", want)
		}
	}
}

func TestCSRFMiddleware_RejectsPostWithoutToken(t *testing.T) {
	mws := csrfMiddleware(&config.CoreConfig{Env: "dev"}, validAppConfig())
	if len(mws) != 2 {
		t.Fatalf("dev chain length = %d, want 2", len(mws))
	}

	called := false
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	req := httptest.NewRequest("POST", "/emergency", strings.NewReader("bloodGroup=O%2B"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	func() {
		defer func() {
			if r := recover(); r != nil {
				// Error page rendering may panic without a template engine.
			}
		}()
		h.ServeHTTP(rec, req)
	}()

	if called {
		t.Error("expected POST without a CSRF token to be rejected")
	}
}

func TestCSRFMiddleware_ProdIsSingle(t *testing.T) {
	if n := len(csrfMiddleware(&config.CoreConfig{Env: "prod"}, validAppConfig())); n != 1 {
		t.Errorf("prod chain length = %d, want 1", n)
	}
}

func TestShutdown_NilClient(t *testing.T) {
	if err := Shutdown(context.Background(), &config.CoreConfig{}, validAppConfig(), DBDeps{}, testLogger()); err != nil {
		t.Errorf("Shutdown with no client: %v", err)
	}
}
