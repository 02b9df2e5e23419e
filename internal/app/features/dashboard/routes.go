// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/bloodconnect/internal/app/system/gates"
	"github.com/go-chi/chi/v5"
)

// Routes wires the dashboard under whatever mount point the top-level
// router chooses (e.g., "/dashboard"). Every route requires a session.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(gates.Guard(gates.DefaultLoginURL))
	r.Get("/", h.ServeDashboard)
	r.Post("/availability", h.HandleAvailability)
	r.Post("/donation", h.HandleDonation)
	return r
}
