package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by ConsoleAuthMiddleware
const (
	SessionIDKey    = "session_id"
	SealedKey       = "sealed_credential"
	OperatorIDKey   = "operator_id"
	OperatorRoleKey = "operator_role"
)

// ConsoleCookieName is the cookie carrying the console session token
const ConsoleCookieName = "console_token"

// JWTSecret should be loaded from environment via config
var JWTSecret string

// SetJWTSecret initializes the JWT secret from config
func SetJWTSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if len(secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}
	JWTSecret = secret
	return nil
}

// ConsoleClaims represents JWT claims of a console session. Sealed carries the
// encrypted backend credential so the session can be rebuilt after a restart.
type ConsoleClaims struct {
	SessionID  string `json:"sid"`
	Sealed     string `json:"sealed"`
	OperatorID string `json:"operator_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateConsoleToken creates a console session JWT valid for ttl
func GenerateConsoleToken(sessionID, sealed, operatorID, role string, ttl time.Duration) (string, error) {
	if JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not initialized")
	}

	now := time.Now()
	claims := ConsoleClaims{
		SessionID:  sessionID,
		Sealed:     sealed,
		OperatorID: operatorID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "roster-console",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(JWTSecret))
}

// ValidateConsoleToken verifies a console session JWT and returns its claims
func ValidateConsoleToken(tokenString string) (*ConsoleClaims, error) {
	if JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret not initialized")
	}

	claims := &ConsoleClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(JWTSecret), nil
	}, jwt.WithIssuer("roster-console"))

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("invalid token: missing session id")
	}

	return claims, nil
}

// ConsoleAuthMiddleware checks for a valid console token in the cookie or
// Authorization header
func ConsoleAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		// Try to get token from cookie first
		if cookie, err := c.Cookie(ConsoleCookieName); err == nil {
			token = cookie
		}

		// Fall back to Authorization header
		if token == "" {
			parts := strings.Split(c.GetHeader("Authorization"), " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token"})
			c.Abort()
			return
		}

		claims, err := ValidateConsoleToken(token)
		if err != nil {
			c.SetCookie(ConsoleCookieName, "", -1, "/", "", false, true)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(SessionIDKey, claims.SessionID)
		c.Set(SealedKey, claims.Sealed)
		c.Set(OperatorIDKey, claims.OperatorID)
		c.Set(OperatorRoleKey, claims.Role)
		c.Next()
	}
}
