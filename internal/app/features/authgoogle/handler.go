// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/bloodconnect/internal/app/features/errors"
	accountstore "github.com/dalemusser/bloodconnect/internal/app/store/accounts"
	adminstore "github.com/dalemusser/bloodconnect/internal/app/store/admins"
	"github.com/dalemusser/bloodconnect/internal/app/store/oauthstate"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// StateTTL is how long a sign-in attempt may sit at Google's consent screen.
const StateTTL = 10 * time.Minute

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Handler signs people in with their Google account. A first visit creates
// a password-less account; an existing account with the same email is
// linked instead.
type Handler struct {
	Accounts   *accountstore.Store
	Admins     *adminstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	StateStore *oauthstate.Store

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. https://blood.example.edu/auth/google/callback

	// Endpoint and UserInfoURL default to Google's.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	stateStore *oauthstate.Store,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Accounts:     accountstore.New(db),
		Admins:       adminstore.New(db),
		Log:          logger,
		SessionMgr:   sessionMgr,
		ErrLog:       errLog,
		StateStore:   stateStore,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimRight(baseURL, "/") + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  googleUserInfoURL,
	}
}

func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

func (h *Handler) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     h.Endpoint,
	}
}

// fail sends the browser back to the sign-in page with an error code the
// login page knows how to explain.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code, msg string, fields ...zap.Field) {
	if code == "internal" {
		h.Log.Error(msg, fields...)
	} else {
		h.Log.Warn(msg, fields...)
	}
	http.Redirect(w, r, "/login?error="+code, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLogin records a one-time state token (carrying ?return=) and sends
// the browser to the consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.fail(w, r, "google_not_configured", "google sign-in requested but not configured")
		return
	}

	state, err := newState()
	if err != nil {
		h.fail(w, r, "internal", "oauth state generation failed", zap.Error(err))
		return
	}
	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.StateStore.Save(ctx, state, returnURL, time.Now().UTC().Add(StateTTL)); err != nil {
		h.fail(w, r, "internal", "oauth state save failed", zap.Error(err))
		return
	}

	h.Log.Debug("redirecting to google consent", zap.String("return", returnURL))
	http.Redirect(w, r, h.oauthConfig().AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.fail(w, r, "google_denied", "google returned an error",
			zap.String("error", e), zap.String("description", q.Get("error_description")))
		return
	}

	state := q.Get("state")
	if state == "" {
		h.fail(w, r, "invalid_state", "oauth callback without state")
		return
	}
	sctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	returnURL, valid, err := h.StateStore.Consume(sctx, state)
	cancel()
	switch {
	case err != nil:
		h.fail(w, r, "internal", "oauth state lookup failed", zap.Error(err))
		return
	case !valid:
		h.fail(w, r, "invalid_state", "unknown, reused or expired oauth state")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.fail(w, r, "invalid_code", "oauth callback without code")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	token, err := h.oauthConfig().Exchange(ctx, code)
	if err != nil {
		h.fail(w, r, "token_exchange", "oauth code exchange failed", zap.Error(err))
		return
	}
	profile, err := h.fetchProfile(ctx, token)
	if err != nil {
		h.fail(w, r, "user_info", "google profile fetch failed", zap.Error(err))
		return
	}

	h.signIn(w, r, profile, returnURL)
}

// signIn links the Google profile to an account, resolves the role and
// writes the session. Only addresses Google has verified are accepted.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, p *googleProfile, returnURL string) {
	email := normalize.Email(p.Email)
	if email == "" || !p.EmailVerified {
		h.fail(w, r, "email_unverified", "google account email missing or unverified",
			zap.String("google_id", p.ID))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, err := h.Accounts.UpsertGoogle(ctx, p.ID, email, p.Name)
	if err != nil {
		h.fail(w, r, "internal", "google account upsert failed", zap.String("email", email), zap.Error(err))
		return
	}
	role, err := h.Admins.RoleFor(ctx, acct.Email)
	if err != nil {
		h.fail(w, r, "internal", "admin lookup failed", zap.String("email", email), zap.Error(err))
		return
	}

	name := acct.Name
	if name == "" {
		name = acct.Email
	}
	user := auth.SessionUser{ID: acct.ID.Hex(), Name: name, Email: acct.Email, Role: role}
	if err := h.SessionMgr.SignIn(w, r, user); err != nil {
		h.fail(w, r, "internal", "session save failed", zap.Error(err))
		return
	}

	h.Log.Info("signed in with google", zap.String("account_id", user.ID), zap.String("role", role))
	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", authz.Landing(role)), http.StatusSeeOther)
}

// googleProfile is the subset of the v2 userinfo response we read.
type googleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) fetchProfile(ctx context.Context, token *oauth2.Token) (*googleProfile, error) {
	resp, err := h.oauthConfig().Client(ctx, token).Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	var p googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("userinfo decode: %w", err)
	}
	return &p, nil
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
