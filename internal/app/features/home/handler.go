package home

import (
	"net/http"

	"github.com/dalemusser/bloodconnect/internal/app/system/viewdata"
	"github.com/dalemusser/bloodconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler holds dependencies needed to serve the home page.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		Log: logger,
	}
}

type homeData struct {
	viewdata.BaseVM
	BloodGroups []string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "home", homeData{
		BaseVM:      viewdata.NewBaseVM(r, "Welcome", "/"),
		BloodGroups: models.BloodGroups,
	})
}
