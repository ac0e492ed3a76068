package gateway

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the credential context of one signed-in operator. It is passed
// explicitly to every Client call that needs authorization.
type Session struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	claims    jwt.MapClaims
	now       func() time.Time
}

// NewSession returns an empty session
func NewSession() *Session {
	return &Session{now: time.Now}
}

// Set stores the backend token. The exp claim, when present, bounds the
// session lifetime. The signature is not verified here: the backend owns
// the signing key and re-checks the token on every call.
func (s *Session) Set(token string) {
	claims := jwt.MapClaims{}
	var expiresAt time.Time
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			expiresAt = exp.Time
		}
	} else {
		claims = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = expiresAt
	s.claims = claims
}

// Clear removes the credential
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.claims = nil
}

// Token returns the credential if one is present and not expired
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", false
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return "", false
	}
	return s.token, true
}

// Authenticated reports whether a usable credential is present
func (s *Session) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// ExpiresAt returns the credential expiry, zero when unknown
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Claims returns a copy of the unverified token claims, nil when the token
// is not a JWT
func (s *Session) Claims() jwt.MapClaims {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.claims == nil {
		return nil
	}
	out := make(jwt.MapClaims, len(s.claims))
	for k, v := range s.claims {
		out[k] = v
	}
	return out
}
