// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/bloodconnect/internal/app/system/gates"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin area (e.g., at "/admin"). Admin role required.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(gates.GuardRole(models.RoleAdmin, gates.DefaultLoginURL))
	r.Get("/", h.ServeDirectory)
	r.Get("/donors.csv", h.ServeExport)
	r.Get("/emergencies", h.ServeEmergencies)
	return r
}
