package sendemail

import (
	"net/http"

	"github.com/dalemusser/bloodconnect/internal/app/system/gates"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the endpoint (e.g., at "/api/send-email"). Callers must be
// signed in; limit, when non-nil, is applied after the session check.
func Routes(h *Handler, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(gates.Guard(gates.DefaultLoginURL))
	if limit != nil {
		r.Use(limit)
	}
	r.Post("/", h.ServeSend)
	return r
}
