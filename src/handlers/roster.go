package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/roster-console/src/models"
	"github.com/khabaroff/roster-console/src/pipeline"
	"github.com/khabaroff/roster-console/src/services"
)

// RosterFilterRequest replaces the whole roster filter
type RosterFilterRequest struct {
	Search   string   `json:"search"`
	Roles    []string `json:"roles"`
	Statuses []string `json:"statuses"`
}

// InclusionRequest includes or excludes one filter value
type InclusionRequest struct {
	Included bool `json:"included"`
}

// SearchRequest changes the free-text search
type SearchRequest struct {
	Search string `json:"search"`
}

// SelectAllRequest checks or unchecks the header checkbox
type SelectAllRequest struct {
	Checked bool `json:"checked"`
}

// rosterAction wraps a roster state change: resolve the workspace, apply fn
// and answer with the new view. fn returns false when it already responded.
func (h *ConsoleHandler) rosterAction(fn func(c *gin.Context, r *pipeline.Roster) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		ws, ok := h.workspace(ctx, c)
		if !ok {
			return
		}
		if fn != nil && !fn(c, ws.Roster) {
			return
		}
		c.JSON(http.StatusOK, ws.Roster.View())
	}
}

// HandleRosterView handles GET /console/api/roster
func (h *ConsoleHandler) HandleRosterView() gin.HandlerFunc {
	return h.rosterAction(nil)
}

// HandleRosterRefresh handles POST /console/api/roster/refresh
func (h *ConsoleHandler) HandleRosterRefresh(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ws, ok := h.workspace(ctx, c)
	if !ok {
		return
	}
	if err := h.console.RefreshRoster(ctx, ws); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ws.Roster.View())
}

// HandleSetFilter handles PUT /console/api/roster/filter
func (h *ConsoleHandler) HandleSetFilter() gin.HandlerFunc {
	return h.rosterAction(func(c *gin.Context, r *pipeline.Roster) bool {
		var req RosterFilterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
			return false
		}
		r.SetFilter(pipeline.RosterFilter{
			Search:   req.Search,
			Roles:    pipeline.NewSet(req.Roles...),
			Statuses: pipeline.NewSet(req.Statuses...),
		})
		return true
	})
}

// HandleSetSearch handles PUT /console/api/roster/search
func (h *ConsoleHandler) HandleSetSearch() gin.HandlerFunc {
	return h.rosterAction(func(c *gin.Context, r *pipeline.Roster) bool {
		var req SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search", "details": err.Error()})
			return false
		}
		r.SetSearch(req.Search)
		return true
	})
}

// HandleSetRole handles PUT /console/api/roster/roles/:role
func (h *ConsoleHandler) HandleSetRole() gin.HandlerFunc {
	return h.rosterAction(func(c *gin.Context, r *pipeline.Roster) bool {
		role := models.Role(c.Param("role"))
		if !role.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
			return false
		}
		var req InclusionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return false
		}
		r.SetRole(role, req.Included)
		return true
	})
}

// HandleSetStatus handles PUT /console/api/roster/statuses/:status
func (h *ConsoleHandler) HandleSetStatus() gin.HandlerFunc {
	return h.rosterAction(func(c *gin.Context, r *pipeline.Roster) bool {
		status := models.Status(c.Param("status"))
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return false
		}
		var req InclusionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return false
		}
		r.SetStatus(status, req.Included)
		return true
	})
}

// HandleToggleSort handles POST /console/api/roster/sort/toggle
func (h *ConsoleHandler) HandleToggleSort() gin.HandlerFunc {
	return h.rosterAction(func(c *gin.Context, r *pipeline.Roster) bool {
		r.ToggleSort()
		return true
	})
}

// HandleGoToPage handles POST /console/api/roster/page/:page where page is a
// number, "next" or "prev"
func (h *ConsoleHandler) HandleGoToPage() gin.HandlerFunc {
	return h.rosterAction(func(c *gin.Context, r *pipeline.Roster) bool {
		switch target := c.Param("page"); target {
		case "next":
			r.Next()
		case "prev":
			r.Prev()
		default:
			page, err := strconv.Atoi(target)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
				return false
			}
			r.GoTo(page)
		}
		return true
	})
}

// HandleToggleSelection handles POST /console/api/roster/selection/:id/toggle
func (h *ConsoleHandler) HandleToggleSelection() gin.HandlerFunc {
	return h.rosterAction(func(c *gin.Context, r *pipeline.Roster) bool {
		if !r.ToggleSelection(c.Param("id")) {
			h.respondError(c, services.ErrUserNotFound)
			return false
		}
		return true
	})
}

// HandleSelectAll handles POST /console/api/roster/selection/all
func (h *ConsoleHandler) HandleSelectAll() gin.HandlerFunc {
	return h.rosterAction(func(c *gin.Context, r *pipeline.Roster) bool {
		var req SelectAllRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
			return false
		}
		r.SelectAll(req.Checked)
		return true
	})
}
