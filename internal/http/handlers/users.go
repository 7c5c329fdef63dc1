package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/disaforms-backend/internal/http/response"
	"github.com/yungbote/disaforms-backend/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	out, err := h.users.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"users": out})
}

// GET /api/users/by-role/:role
func (h *UserHandler) ListByRole(c *gin.Context) {
	names, err := h.users.ListByRole(c.Request.Context(), c.Param("role"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"usernames": names})
}

// POST /api/users
// body: { "username", "password", "role" }
func (h *UserHandler) Create(c *gin.Context) {
	var req services.UserInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	u, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": u})
}

// PUT /api/users/:id
// body: { "role"?, "password"? }
func (h *UserHandler) Update(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req services.UserInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	u, err := h.users.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
