// internal/app/features/emergency/handler.go
package emergency

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/bloodconnect/internal/app/system/fanout"
	"github.com/dalemusser/bloodconnect/internal/app/system/viewdata"
	"github.com/dalemusser/bloodconnect/internal/domain/apperr"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Filer files an emergency. *fanout.Engine satisfies it.
type Filer interface {
	FileEmergency(ctx context.Context, req fanout.Request) (fanout.Outcome, error)
}

// Handler serves the public emergency request form.
type Handler struct {
	Engine Filer
	Log    *zap.Logger
}

func NewHandler(engine Filer, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}

type formData struct {
	viewdata.BaseVM
	Input       fanout.Request
	Errors      []apperr.FieldError
	Banner      string
	BloodGroups []string
	Districts   []string
	Urgencies   []models.Urgency
}

type sentData struct {
	viewdata.BaseVM
	Request models.EmergencyRequest
	Tally   fanout.Tally
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, in fanout.Request, errs []apperr.FieldError, banner string) {
	if in.Urgency == "" {
		in.Urgency = string(models.DefaultUrgency)
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	templates.Render(w, r, "emergency_form", formData{
		BaseVM:      viewdata.NewBaseVM(r, "Emergency blood request", "/"),
		Input:       in,
		Errors:      errs,
		Banner:      banner,
		BloodGroups: models.BloodGroups,
		Districts:   models.Districts,
		Urgencies:   models.Urgencies,
	})
}

// ServeForm handles GET /emergency.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, fanout.Request{}, nil, "")
}

// HandleSubmit handles POST /emergency.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderForm(w, r, http.StatusBadRequest, fanout.Request{}, nil, "Invalid form data.")
		return
	}
	in := fanout.Request{
		BloodGroup:   r.FormValue("blood_group"),
		District:     r.FormValue("district"),
		Urgency:      r.FormValue("urgency"),
		Description:  r.FormValue("description"),
		ContactName:  r.FormValue("contact_name"),
		ContactPhone: r.FormValue("contact_phone"),
	}

	out, err := h.Engine.FileEmergency(r.Context(), in)
	var verr *apperr.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		h.renderForm(w, r, http.StatusBadRequest, in, verr.Errors, "")
		return
	case errors.Is(err, apperr.ErrTransport):
		// The request is recorded; only the coordinator email failed.
		h.Log.Error("emergency recorded but coordinator not notified",
			zap.String("emergency_id", out.Request.ID.Hex()), zap.Error(err))
		h.renderForm(w, r, http.StatusBadGateway, in, nil,
			"Your request was saved, but we could not alert the coordinator. Please call the NSS office directly.")
		return
	default:
		h.Log.Error("emergency request failed", zap.Error(err))
		h.renderForm(w, r, http.StatusInternalServerError, in, nil,
			"We could not save your request. Please try again.")
		return
	}

	templates.Render(w, r, "emergency_sent", sentData{
		BaseVM:  viewdata.NewBaseVM(r, "Request sent", "/"),
		Request: out.Request,
		Tally:   out.Tally,
	})
}
