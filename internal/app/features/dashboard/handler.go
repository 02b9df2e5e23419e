// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/bloodconnect/internal/app/features/errors"
	donorstore "github.com/dalemusser/bloodconnect/internal/app/store/donors"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
	"github.com/dalemusser/bloodconnect/internal/app/system/donorprofile"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/app/system/viewdata"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DonorStore is the part of the donor store the dashboard uses.
type DonorStore interface {
	donorprofile.Lookup
	SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error
	RecordDonation(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type Handler struct {
	Donors     DonorStore
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
	Now        func() time.Time
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Donors:     donorstore.New(db),
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Log:        logger,
		Now:        time.Now,
	}
}

type dashboardData struct {
	viewdata.BaseVM
	Donor donorprofile.Summary
}

// ServeDashboard handles GET /dashboard.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	donor, ok := h.resolve(w, r)
	if !ok {
		return
	}
	templates.Render(w, r, "dashboard", dashboardData{
		BaseVM: viewdata.NewBaseVM(r, "My dashboard", "/"),
		Donor:  donorprofile.Summarize(donor, h.Now()),
	})
}

// HandleAvailability handles POST /dashboard/availability.
func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/dashboard")
		return
	}
	available, err := strconv.ParseBool(r.FormValue("available"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad availability value", err, "Invalid availability value.", "/dashboard")
		return
	}

	donor, ok := h.resolve(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Donors.SetAvailability(ctx, donor.ID, available); err != nil {
		h.ErrLog.LogServerError(w, r, "set availability failed", err, "Could not update your availability.", "/dashboard")
		return
	}
	h.Log.Info("donor availability changed",
		zap.String("donor_id", donor.ID.Hex()),
		zap.Bool("available", available))

	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/dashboard")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleDonation handles POST /dashboard/donation. donated_on is YYYY-MM-DD
// and defaults to today; future dates are refused.
func (h *Handler) HandleDonation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/dashboard")
		return
	}
	now := h.Now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if v := strings.TrimSpace(r.FormValue("donated_on")); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, now.Location())
		if err != nil {
			h.ErrLog.LogBadRequest(w, r, "bad donation date", err, "Enter the donation date as YYYY-MM-DD.", "/dashboard")
			return
		}
		if parsed.After(day) {
			h.ErrLog.LogBadRequest(w, r, "future donation date", nil, "The donation date cannot be in the future.", "/dashboard")
			return
		}
		day = parsed
	}

	donor, ok := h.resolve(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Donors.RecordDonation(ctx, donor.ID, day); err != nil {
		h.ErrLog.LogServerError(w, r, "record donation failed", err, "Could not save your donation.", "/dashboard")
		return
	}
	h.Log.Info("donation recorded",
		zap.String("donor_id", donor.ID.Hex()),
		zap.String("date", day.Format("2006-01-02")))

	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/dashboard")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// resolve finds the donor for the signed-in caller. When it returns false
// the response has been written.
//
// A donor identity with no donor record is an incomplete account: the
// session is ended and the caller is sent to registration. Admins without a
// donor record are sent to the admin area instead.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (models.Donor, bool) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		auth.Unauthorized(w, r, "/login")
		return models.Donor{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	donor, err := donorprofile.Resolve(ctx, h.Donors, donorprofile.Identity{ID: uid, Email: authz.UserEmail(r)})
	switch {
	case err == nil:
		return donor, true
	case errors.Is(err, apperr.ErrNotFound) && role == models.RoleAdmin:
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	case errors.Is(err, apperr.ErrNotFound):
		h.Log.Warn("signed-in donor has no donor record; signing out",
			zap.String("user_id", uid.Hex()))
		h.SessionMgr.SignOut(w, r)
		if r.Header.Get("HX-Request") != "" {
			w.Header().Set("HX-Redirect", "/register")
			w.WriteHeader(http.StatusOK)
		} else {
			http.Redirect(w, r, "/register", http.StatusSeeOther)
		}
	default:
		h.ErrLog.LogServerError(w, r, "donor lookup failed", err, "A database error occurred.", "/")
	}
	return models.Donor{}, false
}
