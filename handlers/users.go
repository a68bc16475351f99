package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/osmium/blog-admin/models"
	"github.com/osmium/blog-admin/pkg"
	"github.com/osmium/blog-admin/services"
)

// UserHandler serves the users page.
type UserHandler struct {
	users services.UserService
}

// NewUserHandler, constructor.
func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Create godoc
// POST /api/users
// Body: {"name": "...", "email": "...", "password": "..."}
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.users.Create(r.Context(), actor(r.Context()), req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, map[string]string{"message": "user created"})
}
