// Package viewdata builds the fields every page template reads: the layout
// head, the menu and the CSRF hidden input.
package viewdata

import (
	"html/template"
	"net/http"

	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// BaseVM is embedded by each feature's page model.
type BaseVM struct {
	SiteName string
	Title    string

	IsLoggedIn bool
	IsAdmin    bool
	Role       string
	UserName   string
	// HomeURL is the signed-in user's landing page ("/" for visitors).
	HomeURL string

	BackURL     string
	CurrentPath string

	// CSRFField renders the hidden gorilla.csrf.Token input inside a form.
	CSRFField template.HTML
	CSRFToken string
}

func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    models.DefaultSiteName,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFField:   csrf.TemplateField(r),
		CSRFToken:   csrf.Token(r),
		HomeURL:     "/",
	}

	role, name, _, ok := authz.UserCtx(r)
	vm.Role = role
	if ok {
		vm.IsLoggedIn = true
		vm.IsAdmin = role == models.RoleAdmin
		vm.UserName = name
		vm.HomeURL = authz.Landing(role)
	}
	return vm
}
