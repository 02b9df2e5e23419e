// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/bloodconnect/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Message string
}

// RenderUnauthorized shows a friendly “sign in required” page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	RenderError(w, r, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", backURL)
}

// RenderForbidden shows a friendly access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	RenderError(w, r, http.StatusForbidden, "Access denied", msg, backURL)
}

// RenderError renders the shared error page with the given status.
func RenderError(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL string) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, title, "/"),
		Message: msg,
	}
	if backURL != "" {
		data.BackURL = backURL
	}
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}
