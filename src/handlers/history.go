package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/roster-console/src/pipeline"
	"github.com/khabaroff/roster-console/src/services"
)

// OpenHistoryRequest opens the history feed; AdminID defaults to the operator
type OpenHistoryRequest struct {
	AdminID string `json:"admin_id"`
}

// HistoryFilterRequest replaces the whole history filter
type HistoryFilterRequest struct {
	Search      string   `json:"search"`
	Actions     []string `json:"actions"`
	TargetTypes []string `json:"target_types"`
}

// feedResponse is the view returned by feed operations with the cycle outcome
type feedResponse struct {
	Outcome pipeline.LoadOutcome `json:"outcome"`
	pipeline.HistoryView
}

// HandleOpenHistory handles POST /console/api/history/open
func (h *ConsoleHandler) HandleOpenHistory(c *gin.Context) {
	var req OpenHistoryRequest
	// An empty body opens the operator's own history
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return
		}
	}

	h.feedCycle(c, func(ctx context.Context, ws *services.Workspace) (pipeline.LoadOutcome, error) {
		return h.console.OpenHistory(ctx, ws, req.AdminID)
	})
}

// HandleScrollHistory handles POST /console/api/history/scroll
func (h *ConsoleHandler) HandleScrollHistory(c *gin.Context) {
	var pos pipeline.ScrollPosition
	if err := c.ShouldBindJSON(&pos); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scroll position", "details": err.Error()})
		return
	}

	h.feedCycle(c, func(ctx context.Context, ws *services.Workspace) (pipeline.LoadOutcome, error) {
		return h.console.ScrollHistory(ctx, ws, pos)
	})
}

func (h *ConsoleHandler) feedCycle(c *gin.Context, fn func(ctx context.Context, ws *services.Workspace) (pipeline.LoadOutcome, error)) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ws, ok := h.workspace(ctx, c)
	if !ok {
		return
	}
	outcome, err := fn(ctx, ws)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedResponse{Outcome: outcome, HistoryView: ws.History.View()})
}

// HandleCloseHistory handles POST /console/api/history/close
func (h *ConsoleHandler) HandleCloseHistory(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ws, ok := h.workspace(ctx, c)
	if !ok {
		return
	}
	h.console.CloseHistory(ws)
	c.JSON(http.StatusOK, ws.History.View())
}

// HandleHistoryView handles GET /console/api/history
func (h *ConsoleHandler) HandleHistoryView(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ws, ok := h.workspace(ctx, c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ws.History.View())
}

// HandleSetHistoryFilter handles PUT /console/api/history/filter
func (h *ConsoleHandler) HandleSetHistoryFilter(c *gin.Context) {
	var req HistoryFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ws, ok := h.workspace(ctx, c)
	if !ok {
		return
	}
	ws.History.SetFilter(pipeline.HistoryFilter{
		Search:      req.Search,
		Actions:     pipeline.NewSet(req.Actions...),
		TargetTypes: pipeline.NewSet(req.TargetTypes...),
	})
	c.JSON(http.StatusOK, ws.History.View())
}

// HandleGetAction handles GET /console/api/history/:id, the detail view of one action
func (h *ConsoleHandler) HandleGetAction(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ws, ok := h.workspace(ctx, c)
	if !ok {
		return
	}
	item, found := ws.History.Find(c.Param("id"))
	if !found {
		h.respondError(c, services.ErrActionNotFound)
		return
	}
	c.JSON(http.StatusOK, item)
}
