package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/roster-console/src/middleware"
	"github.com/khabaroff/roster-console/src/models"
	"github.com/khabaroff/roster-console/src/services"
)

// LoginRequest represents a console sign-in
type LoginRequest struct {
	Kind models.AccountKind `json:"kind" binding:"required,oneof=admin user"`
	models.LoginCredentials
}

// RegisterRequest represents a self-registration from the login form
type RegisterRequest struct {
	Kind models.AccountKind `json:"kind" binding:"required,oneof=admin user"`
	models.CreateUserInput
}

// HandleLogin handles POST /console/login
func (h *ConsoleHandler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Email, password and account kind are required",
			"details": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	signIn, err := h.console.Login(ctx, req.Kind, req.LoginCredentials)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.completeSignIn(c, http.StatusOK, signIn)
}

// HandleRegister handles POST /console/register
func (h *ConsoleHandler) HandleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid registration data",
			"details": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	signIn, err := h.console.Register(ctx, req.Kind, req.CreateUserInput)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// The backend created the account without signing it in
	if signIn.Workspace == nil {
		c.JSON(http.StatusCreated, gin.H{"message": signIn.Message})
		return
	}

	h.completeSignIn(c, http.StatusCreated, signIn)
}

func (h *ConsoleHandler) completeSignIn(c *gin.Context, status int, signIn *services.SignIn) {
	profile := signIn.Workspace.Profile()
	ttl := sessionLifetime(h.sessionTTL, signIn.Workspace.Session.ExpiresAt(), time.Now())
	token, err := middleware.GenerateConsoleToken(
		signIn.Workspace.ID,
		signIn.Sealed,
		profile.ID,
		string(profile.Role),
		ttl,
	)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to issue console token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	h.setSessionCookie(c, token, ttl)
	c.JSON(status, gin.H{
		"message":  signIn.Message,
		"operator": profile,
		"token":    token,
	})
}

// HandleLogout handles POST /console/logout
func (h *ConsoleHandler) HandleLogout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	err := h.console.Logout(ctx, c.GetString(middleware.SessionIDKey))
	if err != nil && !errors.Is(err, services.ErrSessionNotFound) {
		h.respondError(c, err)
		return
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// HandleMe handles GET /console/api/me
func (h *ConsoleHandler) HandleMe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	ws, ok := h.workspace(ctx, c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"operator": ws.Profile()})
}
