package handlers

import (
	"net/http"
	"strconv"

	"homerent/internal/models"

	"github.com/gin-gonic/gin"
)

// GetMe - GET /api/users/me
func (h *Handlers) GetMe(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	user, err := h.users.Me(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get user", err)
		return
	}
	c.JSON(http.StatusOK, models.NewUserResponse(user))
}

// UpdateMe - PUT /api/users/me
func (h *Handlers) UpdateMe(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.users.UpdateMe(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, "update user", err)
		return
	}
	c.JSON(http.StatusOK, models.NewUserResponse(user))
}

// UpdateUserRole - PATCH /api/users/:id/role
func (h *Handlers) UpdateUserRole(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		badRequest(c, "id must be a positive integer")
		return
	}
	var req models.UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.users.UpdateRole(c.Request.Context(), id, userID, models.Role(req.Role))
	if err != nil {
		respondError(c, "update role", err)
		return
	}
	c.JSON(http.StatusOK, models.NewUserResponse(user))
}
