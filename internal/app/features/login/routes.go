// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes is mounted at /login. The password form posts back to itself and
// is throttled per IP and per email inside HandleLoginPost; Google sign-in
// lives under /auth/google.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeLogin)
	r.Post("/", h.HandleLoginPost)
	return r
}
