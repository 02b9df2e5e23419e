// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/bloodconnect/internal/app/features/errors"
	accountstore "github.com/dalemusser/bloodconnect/internal/app/store/accounts"
	adminstore "github.com/dalemusser/bloodconnect/internal/app/store/admins"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/authutil"
	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/app/system/viewdata"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves password sign-in.
type Handler struct {
	Accounts      *accountstore.Store
	Admins        *adminstore.Store
	Log           *zap.Logger
	SessionMgr    *auth.SessionManager
	ErrLog        *uierrors.ErrorLogger
	Limiter       *ratelimit.LoginLimiter
	GoogleEnabled bool // True if Google OAuth is configured
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error         string
	Email         string
	ReturnURL     string
	GoogleEnabled bool
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	limiter *ratelimit.LoginLimiter,
	googleEnabled bool,
	logger *zap.Logger,
) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter()
	}
	return &Handler{
		Accounts:      accountstore.New(db),
		Admins:        adminstore.New(db),
		Log:           logger,
		SessionMgr:    sessionMgr,
		ErrLog:        errLog,
		Limiter:       limiter,
		GoogleEnabled: googleEnabled,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:         googleErrors[query.Get(r, "error")],
		ReturnURL:     query.Get(r, "return"),
		GoogleEnabled: h.GoogleEnabled,
	})
}

// googleErrors maps the error codes the Google callback redirects with.
var googleErrors = map[string]string{
	"google_not_configured": "Google sign-in is not available.",
	"google_denied":         "Google sign-in was cancelled.",
	"invalid_state":         "Your sign-in attempt expired. Please try again.",
	"invalid_code":          "Google sign-in failed. Please try again.",
	"token_exchange":        "Google sign-in failed. Please try again.",
	"user_info":             "Could not read your Google profile.",
	"email_unverified":      "Your Google email address is not verified.",
	"internal":              "Something went wrong. Please try again.",
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := normalize.Email(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		h.renderFormWithError(w, r, http.StatusBadRequest, "Please enter your email and password.", email)
		return
	}

	if ok, msg := h.Limiter.Check(r, email); !ok {
		h.Log.Warn("login rate limited",
			zap.String("email", email),
			zap.String("ip", ratelimit.ClientIP(r)))
		h.renderFormWithError(w, r, http.StatusTooManyRequests, msg, email)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, err := h.Accounts.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		h.renderFormWithError(w, r, http.StatusUnauthorized, "Invalid email or password.", email)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "account lookup failed", err, "A database error occurred.", "/login")
		return
	}

	if acct.PasswordHash == nil {
		msg := "This account uses Google sign-in."
		if !h.GoogleEnabled {
			msg = "This account has no password. Please contact a coordinator."
		}
		h.renderFormWithError(w, r, http.StatusUnauthorized, msg, email)
		return
	}
	if !authutil.CheckPassword(password, *acct.PasswordHash) {
		h.Log.Info("login failed: bad password", zap.String("email", email))
		h.renderFormWithError(w, r, http.StatusUnauthorized, "Invalid email or password.", email)
		return
	}

	role, err := h.Admins.RoleFor(ctx, acct.Email)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin lookup failed", err, "A database error occurred.", "/login")
		return
	}

	name := acct.Name
	if name == "" {
		name = acct.Email
	}
	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:    acct.ID.Hex(),
		Name:  name,
		Email: acct.Email,
		Role:  role,
	}); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		h.renderFormWithError(w, r, http.StatusInternalServerError, "Unable to create session. Please try again.", email)
		return
	}
	h.Limiter.ResetEmail(email)

	h.Log.Info("user signed in",
		zap.String("user_id", acct.ID.Hex()),
		zap.String("role", role))

	ret := strings.TrimSpace(r.FormValue("return"))
	dest := urlutil.SafeReturn(ret, "", authz.Landing(role))
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, status int, msg, email string) {
	// From POST, "return" will be in the form; from GET, we might rely on the query.
	ret := strings.TrimSpace(r.FormValue("return"))
	if ret == "" {
		ret = query.Get(r, "return")
	}

	w.WriteHeader(status)
	templates.Render(w, r, "login", loginFormData{
		BaseVM:        viewdata.NewBaseVM(r, "Sign in", "/"),
		Error:         msg,
		Email:         email,
		ReturnURL:     ret,
		GoogleEnabled: h.GoogleEnabled,
	})
}
