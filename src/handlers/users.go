package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/roster-console/src/models"
	"github.com/khabaroff/roster-console/src/services"
)

// mutation resolves the workspace, runs one account mutation and answers
// with the refreshed roster
func (h *ConsoleHandler) mutation(c *gin.Context, status int, fn func(ctx context.Context, ws *services.Workspace) error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ws, ok := h.workspace(ctx, c)
	if !ok {
		return
	}
	if err := fn(ctx, ws); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(status, ws.Roster.View())
}

// HandleCreateUser handles POST /console/api/users
func (h *ConsoleHandler) HandleCreateUser(c *gin.Context) {
	var input models.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Name, valid email, password of at least 6 characters and role are required",
			"details": err.Error(),
		})
		return
	}

	h.mutation(c, http.StatusCreated, func(ctx context.Context, ws *services.Workspace) error {
		return h.console.CreateUser(ctx, ws, input)
	})
}

// HandleUpdateUser handles PUT /console/api/users/:id
func (h *ConsoleHandler) HandleUpdateUser(c *gin.Context) {
	var input models.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Name, valid email and role are required",
			"details": err.Error(),
		})
		return
	}

	h.mutation(c, http.StatusOK, func(ctx context.Context, ws *services.Workspace) error {
		return h.console.UpdateUser(ctx, ws, c.Param("id"), input)
	})
}

// HandleDeleteUser handles DELETE /console/api/users/:id
func (h *ConsoleHandler) HandleDeleteUser(c *gin.Context) {
	h.mutation(c, http.StatusOK, func(ctx context.Context, ws *services.Workspace) error {
		return h.console.DeleteUser(ctx, ws, c.Param("id"))
	})
}

// HandleToggleStatus handles POST /console/api/users/:id/toggle-status
func (h *ConsoleHandler) HandleToggleStatus(c *gin.Context) {
	h.mutation(c, http.StatusOK, func(ctx context.Context, ws *services.Workspace) error {
		return h.console.ToggleStatus(ctx, ws, c.Param("id"))
	})
}

// HandleGetUser handles GET /console/api/users/:id, the detail view of one
// roster user
func (h *ConsoleHandler) HandleGetUser(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ws, ok := h.workspace(ctx, c)
	if !ok {
		return
	}
	u, found := ws.Roster.Find(c.Param("id"))
	if !found {
		h.respondError(c, services.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "status": u.Status()})
}
