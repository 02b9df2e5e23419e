// Package logout ends a session. Only POST is routed so a cross-site link
// or image cannot sign anyone out.
package logout

import (
	"net/http"

	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, SessionMgr: sessionMgr}
}

// ServeLogout clears the session cookie and returns to the home page.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Log.Info("signed out", zap.String("account_id", u.ID), zap.String("role", u.Role))
	}
	h.SessionMgr.SignOut(w, r)

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
