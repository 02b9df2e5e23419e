package authgoogle

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uierrors "github.com/dalemusser/bloodconnect/internal/app/features/errors"
	"github.com/dalemusser/bloodconnect/internal/app/store/oauthstate"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/bloodconnect/internal/testutil"
	"go.uber.org/zap"
)

func newSignInHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	h := NewHandler(db, sm, uierrors.NewErrorLogger(logger), oauthstate.New(db), "id", "secret", "http://localhost:8080", logger)
	return h, testutil.NewFixtures(t, db)
}

func TestSignIn_CreatesAccountForNewDonor(t *testing.T) {
	h, _ := newSignInHandler(t)

	req := httptest.NewRequest("GET", "/auth/google/callback", nil)
	rec := httptest.NewRecorder()
	h.signIn(rec, req, &googleProfile{ID: "g-1", Email: "New.Donor@Campus.edu", EmailVerified: true, Name: "New Donor"}, "")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	acct, err := h.Accounts.GetByEmail(ctx, "new.donor@campus.edu")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if acct.GoogleSub != "g-1" {
		t.Errorf("GoogleSub = %q, want g-1", acct.GoogleSub)
	}
	if acct.Provider != models.ProviderGoogle {
		t.Errorf("Provider = %q, want %q", acct.Provider, models.ProviderGoogle)
	}
}

func TestSignIn_AdminLandsOnAdmin(t *testing.T) {
	h, fx := newSignInHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateAdmin(ctx, "coord@campus.edu", "Coordinator")

	req := httptest.NewRequest("GET", "/auth/google/callback", nil)
	rec := httptest.NewRecorder()
	h.signIn(rec, req, &googleProfile{ID: "g-2", Email: "coord@campus.edu", EmailVerified: true}, "")

	if loc := rec.Header().Get("Location"); loc != "/admin" {
		t.Errorf("Location = %q, want /admin", loc)
	}
}

func TestSignIn_LinksExistingPasswordAccount(t *testing.T) {
	h, fx := newSignInHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	existing := fx.CreateAccount(ctx, "asha@campus.edu", "Asha Rao")

	req := httptest.NewRequest("GET", "/auth/google/callback", nil)
	rec := httptest.NewRecorder()
	h.signIn(rec, req, &googleProfile{ID: "g-3", Email: "asha@campus.edu", EmailVerified: true, Name: "Someone Else"}, "/dashboard")

	acct, err := h.Accounts.GetByEmail(ctx, "asha@campus.edu")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if acct.ID != existing.ID {
		t.Error("expected the existing account to be linked, not replaced")
	}
	if acct.Name != "Asha Rao" {
		t.Errorf("Name = %q, want the original name kept", acct.Name)
	}
	if acct.GoogleSub != "g-3" {
		t.Errorf("GoogleSub = %q, want g-3", acct.GoogleSub)
	}
}

func TestSignIn_OffsiteReturnIgnored(t *testing.T) {
	h, _ := newSignInHandler(t)

	req := httptest.NewRequest("GET", "/auth/google/callback", nil)
	rec := httptest.NewRecorder()
	h.signIn(rec, req, &googleProfile{ID: "g-4", Email: "x@campus.edu", EmailVerified: true}, "https://evil.example.com/")

	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
}

func TestSignIn_UnverifiedEmailRejected(t *testing.T) {
	h, _ := newSignInHandler(t)

	req := httptest.NewRequest("GET", "/auth/google/callback", nil)
	rec := httptest.NewRecorder()
	h.signIn(rec, req, &googleProfile{ID: "g-5", Email: "x@campus.edu"}, "")

	if loc := rec.Header().Get("Location"); loc != "/login?error=email_unverified" {
		t.Errorf("Location = %q", loc)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("expected no session cookie")
	}
}
