package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleNotifications handles GET /console/api/notifications. Returned
// notifications are marked delivered.
func (h *ConsoleHandler) HandleNotifications(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ws, ok := h.workspace(ctx, c)
	if !ok {
		return
	}

	notifications, err := h.console.Notifications(ctx, ws)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", ws.ID).Msg("Failed to drain notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}
