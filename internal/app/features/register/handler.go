// internal/app/features/register/handler.go
package register

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/bloodconnect/internal/app/features/errors"
	accountstore "github.com/dalemusser/bloodconnect/internal/app/store/accounts"
	adminstore "github.com/dalemusser/bloodconnect/internal/app/store/admins"
	donorstore "github.com/dalemusser/bloodconnect/internal/app/store/donors"
	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/authutil"
	"github.com/dalemusser/bloodconnect/internal/app/system/inputval"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/app/system/txn"
	"github.com/dalemusser/bloodconnect/internal/app/system/viewdata"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves donor self-registration.
type Handler struct {
	Client     *mongo.Client
	Accounts   *accountstore.Store
	Donors     *donorstore.Store
	Admins     *adminstore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Client:     db.Client(),
		Accounts:   accountstore.New(db),
		Donors:     donorstore.New(db),
		Admins:     adminstore.New(db),
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Log:        logger,
	}
}

// registerInput is the donor form.
type registerInput struct {
	Name            string `validate:"required,max=100" label:"Name"`
	Email           string `validate:"required,simpleemail,max=254" label:"Email"`
	Phone           string `validate:"required,phone" label:"Phone"`
	RollNumber      string `validate:"required,max=30" label:"Roll number"`
	BloodGroup      string `validate:"required,bloodgroup" label:"Blood group"`
	District        string `validate:"required,district" label:"District"`
	Department      string `validate:"max=100" label:"Department"`
	Year            string `validate:"max=10" label:"Year"`
	Section         string `validate:"max=10" label:"Section"`
	Area            string `validate:"max=100" label:"Area"`
	Password        string `validate:"required" label:"Password"`
	ConfirmPassword string `validate:"eqfield=Password" label:"Password confirmation"`
}

type formData struct {
	viewdata.BaseVM
	Input         registerInput
	Errors        []inputval.FieldError
	BloodGroups   []string
	Districts     []string
	PasswordRules string
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, in registerInput, errs []inputval.FieldError) {
	in.Password, in.ConfirmPassword = "", ""
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	templates.Render(w, r, "register", formData{
		BaseVM:        viewdata.NewBaseVM(r, "Register as a donor", "/"),
		Input:         in,
		Errors:        errs,
		BloodGroups:   models.BloodGroups,
		Districts:     models.Districts,
		PasswordRules: authutil.PasswordRules(),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /register                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, registerInput{}, nil)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /register                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/register")
		return
	}

	in := registerInput{
		Name:            normalize.Name(r.FormValue("name")),
		Email:           normalize.Email(r.FormValue("email")),
		Phone:           normalize.Phone(r.FormValue("phone")),
		RollNumber:      normalize.RollNumber(r.FormValue("roll_number")),
		BloodGroup:      normalize.BloodGroup(r.FormValue("blood_group")),
		District:        strings.TrimSpace(r.FormValue("district")),
		Department:      strings.TrimSpace(r.FormValue("department")),
		Year:            strings.TrimSpace(r.FormValue("year")),
		Section:         strings.TrimSpace(r.FormValue("section")),
		Area:            strings.TrimSpace(r.FormValue("area")),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}

	res := inputval.Validate(in)
	if in.Password != "" {
		if err := authutil.ValidatePassword(in.Password); err != nil {
			res.Errors = append(res.Errors, inputval.FieldError{Field: "Password", Message: capitalize(err.Error()) + "."})
		}
	}
	if res.HasErrors() {
		h.render(w, r, http.StatusBadRequest, in, res.Errors)
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password failed", err, "Registration failed. Please try again.", "/register")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var donor models.Donor
	err = txn.Run(ctx, h.Client, h.Log, func(ctx context.Context) error {
		acct, err := h.Accounts.CreatePassword(ctx, in.Email, in.Name, hash)
		if err != nil {
			return err
		}
		donor, err = h.Donors.Create(ctx, models.Donor{
			ID:          acct.ID,
			Name:        in.Name,
			Email:       in.Email,
			Phone:       in.Phone,
			RollNumber:  in.RollNumber,
			BloodGroup:  in.BloodGroup,
			District:    in.District,
			Department:  in.Department,
			Year:        in.Year,
			Section:     in.Section,
			Area:        in.Area,
			IsAvailable: true,
		})
		if err != nil {
			if derr := h.Accounts.Delete(ctx, acct.ID); derr != nil {
				h.Log.Error("orphaned account after donor insert failure",
					zap.String("account_id", acct.ID.Hex()), zap.Error(derr))
			}
			return err
		}
		return nil
	})
	if errors.Is(err, apperr.ErrDuplicate) {
		h.render(w, r, http.StatusConflict, in, []inputval.FieldError{{
			Field:   "Email",
			Message: "An account with this email already exists. Please sign in instead.",
		}})
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "registration failed", err, "Registration failed. Please try again.", "/register")
		return
	}

	role, err := h.Admins.RoleFor(ctx, donor.Email)
	if err != nil {
		h.Log.Warn("admin lookup failed after registration; signing in as donor", zap.Error(err))
		role = models.RoleDonor
	}
	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:    donor.ID.Hex(),
		Name:  donor.Name,
		Email: donor.Email,
		Role:  role,
	}); err != nil {
		h.Log.Error("session save failed after registration", zap.Error(err))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.Log.Info("donor registered",
		zap.String("donor_id", donor.ID.Hex()),
		zap.String("blood_group", donor.BloodGroup),
		zap.String("district", donor.District))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
