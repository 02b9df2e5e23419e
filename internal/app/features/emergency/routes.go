// internal/app/features/emergency/routes.go
package emergency

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the form. submitLimit, when non-nil, wraps POST only.
func Routes(h *Handler, submitLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeForm)
	r.Group(func(pr chi.Router) {
		if submitLimit != nil {
			pr.Use(submitLimit)
		}
		pr.Post("/", h.HandleSubmit)
	})
	return r
}
