package handlers

import (
	"net/http"

	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/services"
)

// DashboardHandler serves the landing page data.
type DashboardHandler struct {
	dashboard services.DashboardService
}

// NewDashboardHandler, constructor.
func NewDashboardHandler(dashboard services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get godoc
// GET /api/dashboard
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard.Get(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, d)
}
