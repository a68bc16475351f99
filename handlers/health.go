package handlers

import (
	"net/http"

	"github.com/osmium/blog-admin/pkg"
)

// HealthHandler answers the load balancer probe.
type HealthHandler struct {
	backendURL string
}

// NewHealthHandler, constructor.
func NewHealthHandler(backendURL string) *HealthHandler {
	return &HealthHandler{backendURL: backendURL}
}

// Health godoc
// GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": h.backendURL,
	})
}
