package authgoogle_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/features/authgoogle"
	uierrors "github.com/dalemusser/bloodconnect/internal/app/features/errors"
	"github.com/dalemusser/bloodconnect/internal/app/store/oauthstate"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func newTestHandler(t *testing.T, clientID, clientSecret string) (*authgoogle.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	h := authgoogle.NewHandler(
		db,
		sessionMgr,
		uierrors.NewErrorLogger(logger),
		oauthstate.New(db),
		clientID,
		clientSecret,
		"http://localhost:8080/",
		logger,
	)
	return h, db
}

func TestNewHandler_RedirectURL(t *testing.T) {
	h, _ := newTestHandler(t, "test-client-id", "test-client-secret")
	if h.RedirectURL != "http://localhost:8080/auth/google/callback" {
		t.Errorf("RedirectURL = %q", h.RedirectURL)
	}
}

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name, id, secret string
		want             bool
	}{
		{"both set", "id", "secret", true},
		{"no secret", "id", "", false},
		{"no id", "", "secret", false},
		{"neither", "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := &authgoogle.Handler{ClientID: tc.id, ClientSecret: tc.secret}
			if got := h.IsConfigured(); got != tc.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h, _ := newTestHandler(t, "", "")

	req := httptest.NewRequest("GET", "/auth/google", nil)
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "google_not_configured") {
		t.Errorf("Location = %q, want to contain 'google_not_configured'", loc)
	}
}

func TestServeLogin_RedirectsToGoogleAndSavesState(t *testing.T) {
	h, db := newTestHandler(t, "test-client-id", "test-client-secret")

	req := httptest.NewRequest("GET", "/auth/google?return=/admin", nil)
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected status %d, got %d", http.StatusTemporaryRedirect, rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("Location does not parse: %v", err)
	}
	if loc.Host != "accounts.google.com" {
		t.Errorf("host = %q, want accounts.google.com", loc.Host)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("expected state in redirect")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	ret, valid, err := oauthstate.New(db).Consume(ctx, state)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !valid {
		t.Fatal("expected saved state to be valid")
	}
	if ret != "/admin" {
		t.Errorf("return URL = %q, want /admin", ret)
	}
}

func TestServeCallback_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr string
	}{
		{"google error", "/auth/google/callback?error=access_denied", "google_denied"},
		{"missing state", "/auth/google/callback?code=test-code", "invalid_state"},
		{"unknown state", "/auth/google/callback?state=invalid-state&code=test-code", "invalid_state"},
	}

	h, _ := newTestHandler(t, "test-client-id", "test-client-secret")
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.target, nil)
			rec := httptest.NewRecorder()
			h.ServeCallback(rec, req)

			if rec.Code != http.StatusSeeOther {
				t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
			}
			if loc := rec.Header().Get("Location"); !strings.Contains(loc, tc.wantErr) {
				t.Errorf("Location = %q, want to contain %q", loc, tc.wantErr)
			}
		})
	}
}

func TestServeCallback_StateIsSingleUse(t *testing.T) {
	h, db := newTestHandler(t, "test-client-id", "test-client-secret")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := oauthstate.New(db).Save(ctx, "once", "", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// First use consumes the state and then stops at the missing code.
	req := httptest.NewRequest("GET", "/auth/google/callback?state=once", nil)
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, req)
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "invalid_code") {
		t.Fatalf("first use: Location = %q, want invalid_code", loc)
	}

	req = httptest.NewRequest("GET", "/auth/google/callback?state=once&code=x", nil)
	rec = httptest.NewRecorder()
	h.ServeCallback(rec, req)
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "invalid_state") {
		t.Errorf("replay: Location = %q, want invalid_state", loc)
	}
}

// fakeGoogle serves a token endpoint and a userinfo endpoint. A code of
// "bad" fails the exchange.
func fakeGoogle(t *testing.T, profile string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") == "bad" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			http.Error(w, "no token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(profile))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestServeCallback_FullFlow(t *testing.T) {
	srv := fakeGoogle(t, `{"id":"g-77","email":"Ravi@Campus.edu","verified_email":true,"name":"Ravi Kumar"}`)
	h, db := newTestHandler(t, "test-client-id", "test-client-secret")
	h.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	h.UserInfoURL = srv.URL + "/userinfo"

	ctx, cancel := testutil.TestContext()
	defer cancel()
	states := oauthstate.New(db)
	for _, s := range []string{"ok-state", "bad-state"} {
		if err := states.Save(ctx, s, "/emergency", time.Now().Add(time.Minute)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?state=ok-state&code=good", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/emergency" {
		t.Errorf("Location = %q, want the saved return URL", loc)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}
	acct, err := h.Accounts.GetByEmail(ctx, "ravi@campus.edu")
	if err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if acct.Name != "Ravi Kumar" {
		t.Errorf("Name = %q", acct.Name)
	}

	rec = httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?state=bad-state&code=bad", nil))
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "token_exchange") {
		t.Errorf("failed exchange: Location = %q", loc)
	}
}

func TestServeCallback_ProfileFetchFails(t *testing.T) {
	srv := fakeGoogle(t, `not json`)
	h, db := newTestHandler(t, "test-client-id", "test-client-secret")
	h.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	h.UserInfoURL = srv.URL + "/userinfo"

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := oauthstate.New(db).Save(ctx, "s", "", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?state=s&code=good", nil))
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "user_info") {
		t.Errorf("Location = %q, want user_info", loc)
	}
}

func TestRoutes(t *testing.T) {
	h, _ := newTestHandler(t, "test-client-id", "test-client-secret")
	if authgoogle.Routes(h) == nil {
		t.Fatal("Routes() returned nil")
	}
}
