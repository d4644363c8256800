package handler

import (
	"net/http"

	"github.com/familieapp/familieapp/internal/api/response"
	"github.com/familieapp/familieapp/internal/user"
)

// UserListResponse is the body of GET /v1/users.
type UserListResponse struct {
	Users []user.User `json:"users"`
}

// UserHandler serves the household directory.
type UserHandler struct{}

// NewUserHandler creates a new UserHandler.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// List handles GET /v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, UserListResponse{Users: user.All()})
}
