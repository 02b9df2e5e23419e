// internal/app/features/admin/handler.go
package admin

import (
	"context"
	"net/http"
	"net/url"
	"time"

	uierrors "github.com/dalemusser/bloodconnect/internal/app/features/errors"
	donorstore "github.com/dalemusser/bloodconnect/internal/app/store/donors"
	emergencystore "github.com/dalemusser/bloodconnect/internal/app/store/emergencies"
	"github.com/dalemusser/bloodconnect/internal/app/system/directory"
	"github.com/dalemusser/bloodconnect/internal/app/system/normalize"
	"github.com/dalemusser/bloodconnect/internal/app/system/timeouts"
	"github.com/dalemusser/bloodconnect/internal/app/system/viewdata"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EmergencyLister lists recent requests, newest first.
type EmergencyLister interface {
	ListRecent(ctx context.Context, limit int64) ([]models.EmergencyRequest, error)
}

// emergencyListLimit caps the admin emergencies page.
const emergencyListLimit = 200

// Handler serves the admin area. Routes are mounted behind the admin gate.
type Handler struct {
	Donors      directory.Lister
	Emergencies EmergencyLister
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
	Now         func() time.Time
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Donors:      donorstore.New(db),
		Emergencies: emergencystore.New(db),
		ErrLog:      errLog,
		Log:         logger,
		Now:         time.Now,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Donor directory                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type directoryData struct {
	viewdata.BaseVM
	Filter      directory.FilterState
	Donors      []models.Donor
	Counts      directory.Counts
	ExportURL   string
	BloodGroups []string
	Districts   []string
}

// filterFromRequest reads the directory filter from the query string.
func filterFromRequest(r *http.Request) directory.FilterState {
	f := directory.FilterState{
		Search:       normalize.QueryParam(query.Get(r, "search")),
		BloodGroup:   normalize.Filter(query.Get(r, "bloodGroup")),
		District:     normalize.Filter(query.Get(r, "district")),
		Availability: normalize.QueryParam(query.Get(r, "availability")),
	}
	if f.Availability != directory.Available && f.Availability != directory.Unavailable {
		f.Availability = ""
	}
	return f
}

// encodeFilter renders f back into a query string (without '?').
func encodeFilter(f directory.FilterState) string {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("search", f.Search)
	set("bloodGroup", f.BloodGroup)
	set("district", f.District)
	set("availability", f.Availability)
	return v.Encode()
}

func (h *Handler) loadFiltered(ctx context.Context, f directory.FilterState) (all, filtered []models.Donor, err error) {
	all, err = directory.Load(ctx, h.Donors)
	if err != nil {
		return nil, nil, err
	}
	return all, directory.Filter(all, f), nil
}

// ServeDirectory handles GET /admin.
func (h *Handler) ServeDirectory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f := filterFromRequest(r)
	all, filtered, err := h.loadFiltered(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load donors failed", err, "Could not load the donor directory.", "/")
		return
	}

	exportURL := "/admin/donors.csv"
	if qs := encodeFilter(f); qs != "" {
		exportURL += "?" + qs
	}
	templates.Render(w, r, "admin_directory", directoryData{
		BaseVM:      viewdata.NewBaseVM(r, "Donor directory", "/"),
		Filter:      f,
		Donors:      filtered,
		Counts:      directory.Count(all, filtered),
		ExportURL:   exportURL,
		BloodGroups: models.BloodGroups,
		Districts:   models.Districts,
	})
}

// ServeExport handles GET /admin/donors.csv: the filtered view as CSV.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	f := filterFromRequest(r)
	_, filtered, err := h.loadFiltered(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load donors for export failed", err, "Could not export donors.", "/admin")
		return
	}

	name := directory.ExportFilename(h.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Cache-Control", "no-store")

	// UTF-8 BOM so spreadsheet apps detect the encoding.
	_, _ = w.Write([]byte("\ufeff"))
	n, err := directory.Export(w, filtered)
	if err != nil {
		h.Log.Error("csv export write failed", zap.Int("rows_written", n), zap.Error(err))
		return
	}
	h.Log.Info("donor export",
		zap.String("file", name),
		zap.Int("rows", n),
		zap.Bool("filtered", !f.IsEmpty()))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Emergency requests                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type emergencyRow struct {
	models.EmergencyRequest
	BadgeClass string
	Requested  string
}

type emergenciesData struct {
	viewdata.BaseVM
	Requests []emergencyRow
}

// BadgeClass maps urgency to a CSS badge: critical red, high orange,
// medium yellow, anything else blue.
func BadgeClass(u models.Urgency) string {
	switch u {
	case models.UrgencyCritical:
		return "badge-critical"
	case models.UrgencyHigh:
		return "badge-high"
	case models.UrgencyMedium:
		return "badge-medium"
	default:
		return "badge-low"
	}
}

// ServeEmergencies handles GET /admin/emergencies.
func (h *Handler) ServeEmergencies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reqs, err := h.Emergencies.ListRecent(ctx, emergencyListLimit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list emergencies failed", err, "Could not load emergency requests.", "/admin")
		return
	}
	rows := make([]emergencyRow, len(reqs))
	for i, e := range reqs {
		rows[i] = emergencyRow{
			EmergencyRequest: e,
			BadgeClass:       BadgeClass(e.Urgency),
			Requested:        e.CreatedAt.Local().Format("02 Jan 2006 15:04"),
		}
	}
	templates.Render(w, r, "admin_emergencies", emergenciesData{
		BaseVM:   viewdata.NewBaseVM(r, "Emergency requests", "/admin"),
		Requests: rows,
	})
}
