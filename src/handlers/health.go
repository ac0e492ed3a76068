package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/roster-console/src/database"
)

var startTime = time.Now()

// Pinger checks reachability of the user-management backend
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db      *database.Database
	backend Pinger
	console interface{ ActiveWorkspaces() int }
}

// NewHealthHandler creates a new health handler. db is nil when notifications
// are kept in memory.
func NewHealthHandler(db *database.Database, backend Pinger, console interface{ ActiveWorkspaces() int }) *HealthHandler {
	return &HealthHandler{
		db:      db,
		backend: backend,
		console: console,
	}
}

// HandleHealth returns health status with DB check
func (hh *HealthHandler) HandleHealth(c *gin.Context) {
	if hh.db == nil {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"database": "disabled",
			"uptime":   time.Since(startTime).String(),
		})
		return
	}

	start := time.Now()
	err := hh.db.Health(c.Request.Context())
	dbLatency := time.Since(start)

	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"database":   "connected",
		"db_latency": dbLatency.String(),
		"db_pool":    hh.db.Stats(),
		"uptime":     time.Since(startTime).String(),
	})
}

// HandleInfo returns service information
func (hh *HealthHandler) HandleInfo(c *gin.Context) {
	info := gin.H{
		"service": "roster-console",
		"version": "1.0.0",
		"status":  "running",
		"uptime":  time.Since(startTime).String(),
	}
	if hh.console != nil {
		info["workspaces"] = hh.console.ActiveWorkspaces()
	}
	c.JSON(http.StatusOK, info)
}

// HandleReady returns readiness status (for load balancers). The console is
// ready when the backend answers and the database, if configured, is healthy.
func (hh *HealthHandler) HandleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if hh.backend != nil {
		if err := hh.backend.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":   false,
				"backend": "unreachable",
			})
			return
		}
	}
	if hh.db != nil {
		if err := hh.db.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":    false,
				"database": "disconnected",
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"ready": true,
	})
}
