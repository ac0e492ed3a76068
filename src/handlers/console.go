package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/khabaroff/roster-console/src/gateway"
	"github.com/khabaroff/roster-console/src/logging"
	"github.com/khabaroff/roster-console/src/middleware"
	"github.com/khabaroff/roster-console/src/services"
)

// requestTimeout bounds one console request including its backend calls
const requestTimeout = 30 * time.Second

// ConsoleHandler serves the console API on top of the console service
type ConsoleHandler struct {
	console      *services.ConsoleService
	sessionTTL   time.Duration
	secureCookie bool
	logger       zerolog.Logger
}

// NewConsoleHandler creates a console handler. sessionTTL bounds the console
// cookie and token lifetime.
func NewConsoleHandler(console *services.ConsoleService, sessionTTL time.Duration, secureCookie bool) *ConsoleHandler {
	return &ConsoleHandler{
		console:      console,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		logger:       logging.NewLogger("handlers"),
	}
}

// workspace resolves the workspace of the authenticated console session.
// On failure the error response has already been written.
func (h *ConsoleHandler) workspace(ctx context.Context, c *gin.Context) (*services.Workspace, bool) {
	ws, err := h.console.Workspace(ctx,
		c.GetString(middleware.SessionIDKey),
		c.GetString(middleware.SealedKey),
	)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return ws, true
}

func (h *ConsoleHandler) setSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.ConsoleCookieName, token, int(ttl.Seconds()), "/", "", h.secureCookie, true)
}

// sessionLifetime caps the console session at the backend credential expiry,
// when the backend token carries one
func sessionLifetime(ttl time.Duration, backendExpiry, now time.Time) time.Duration {
	if backendExpiry.IsZero() {
		return ttl
	}
	if left := backendExpiry.Sub(now); left < ttl {
		return left
	}
	return ttl
}

func (h *ConsoleHandler) clearSessionCookie(c *gin.Context) {
	c.SetCookie(middleware.ConsoleCookieName, "", -1, "/", "", h.secureCookie, true)
}

// respondError maps service and gateway failures to HTTP responses
func (h *ConsoleHandler) respondError(c *gin.Context, err error) {
	var verr *gateway.ValidationError
	var aerr *gateway.APIError

	switch {
	case errors.Is(err, gateway.ErrUnauthorized),
		errors.Is(err, gateway.ErrNotAuthenticated),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrSessionExpired),
		errors.Is(err, services.ErrInvalidSeal):
		h.clearSessionCookie(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, please sign in again"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrMissingUserID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrActionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &verr):
		c.JSON(verr.Status, gin.H{"error": verr.Message})
	case errors.As(err, &aerr):
		msg := aerr.Message
		if msg == "" {
			msg = "backend request failed"
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": msg})
	case errors.Is(err, gateway.ErrTransport), errors.Is(err, gateway.ErrInvalidResponse):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger := logging.ComponentLogger("handlers", middleware.GetRequestID(c))
		logger.Error().Err(err).Str("route", c.FullPath()).Msg("Unhandled console error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
