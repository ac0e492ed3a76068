package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/khabaroff/roster-console/src/logging"
	"github.com/khabaroff/roster-console/src/metrics"
	"github.com/khabaroff/roster-console/src/models"
)

const maxResponseBytes = 4 << 20

// Client talks to the user-management backend. It holds no credential of its
// own: every authorized call takes the operator's Session.
type Client struct {
	baseURL    string
	routes     Routes
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithRoutes overrides the backend endpoint paths
func WithRoutes(r Routes) Option {
	return func(c *Client) { c.routes = r }
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records call counts and latencies
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a backend client for baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		routes:  DefaultRoutes(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logging.NewLogger("gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call describes one backend request
type call struct {
	op     string
	method string
	path   string
	body   any
	auth   bool
}

// LoginResult is the outcome of a successful login or registration
type LoginResult struct {
	Message string
	User    *models.User
}

// Login authenticates against the admin or user endpoint and stores the
// returned token in sess
func (c *Client) Login(ctx context.Context, sess *Session, kind models.AccountKind, creds models.LoginCredentials) (LoginResult, error) {
	path := c.routes.UserLogin
	if kind == models.AccountKindAdmin {
		path = c.routes.AdminLogin
	}

	data, err := c.request(ctx, sess, call{
		op:     "login",
		method: http.MethodPost,
		path:   path,
		body:   wireCredentials{Email: creds.Email, Password: creds.Password},
	})
	if err != nil {
		return LoginResult{}, err
	}
	return c.storeToken(sess, data)
}

// Register creates an account from the public registration form. A returned
// token signs the new account in.
func (c *Client) Register(ctx context.Context, sess *Session, kind models.AccountKind, input models.CreateUserInput) (LoginResult, error) {
	path := c.routes.UserRegister
	if kind == models.AccountKindAdmin {
		path = c.routes.AdminRegister
	}

	data, err := c.request(ctx, sess, call{
		op:     "register",
		method: http.MethodPost,
		path:   path,
		body:   createPayload(input),
	})
	if err != nil {
		return LoginResult{}, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return LoginResult{}, fmt.Errorf("%w: register: %v", ErrInvalidResponse, err)
	}
	if env.Token == "" {
		return LoginResult{Message: env.text()}, nil
	}
	return c.storeToken(sess, data)
}

func (c *Client) storeToken(sess *Session, data []byte) (LoginResult, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return LoginResult{}, fmt.Errorf("%w: login: %v", ErrInvalidResponse, err)
	}
	if env.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: login: missing token", ErrInvalidResponse)
	}
	sess.Set(env.Token)

	result := LoginResult{Message: env.text()}
	if len(env.User) > 0 && firstByte(env.User) == '{' {
		if u, err := decodeUser(env.User); err == nil {
			result.User = &u
		}
	}
	return result, nil
}

// Logout ends the backend session. The local credential is cleared even when
// the backend call fails.
func (c *Client) Logout(ctx context.Context, sess *Session) error {
	defer sess.Clear()

	_, err := c.request(ctx, sess, call{
		op:     "logout",
		method: http.MethodPost,
		path:   c.routes.Logout,
		auth:   true,
	})
	return err
}

// CurrentUser returns the signed-in account
func (c *Client) CurrentUser(ctx context.Context, sess *Session) (models.User, error) {
	data, err := c.request(ctx, sess, call{
		op:     "current_user",
		method: http.MethodGet,
		path:   c.routes.CurrentUser,
		auth:   true,
	})
	if err != nil {
		return models.User{}, err
	}
	return decodeUser(data)
}

// ListUsers returns the whole user collection
func (c *Client) ListUsers(ctx context.Context, sess *Session) ([]models.User, error) {
	data, err := c.request(ctx, sess, call{
		op:     "list_users",
		method: http.MethodGet,
		path:   c.routes.ListUsers,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	return decodeUserList(data)
}

// CreateUser creates an account on behalf of an admin. Admin accounts go
// through the admin creation endpoint, user accounts through registration.
func (c *Client) CreateUser(ctx context.Context, sess *Session, input models.CreateUserInput) (string, error) {
	path := c.routes.UserRegister
	if input.Role == models.RoleAdmin {
		path = c.routes.AdminCreateUser
	}

	data, err := c.request(ctx, sess, call{
		op:     "create_user",
		method: http.MethodPost,
		path:   path,
		body:   createPayload(input),
		auth:   true,
	})
	if err != nil {
		return "", err
	}
	return message(data), nil
}

// UpdateUser replaces the editable fields of a user
func (c *Client) UpdateUser(ctx context.Context, sess *Session, id string, input models.UpdateUserInput) (string, error) {
	data, err := c.request(ctx, sess, call{
		op:     "update_user",
		method: http.MethodPut,
		path:   expand(c.routes.UserByID, "id", id),
		body: wireUpdateUser{
			ID:     id,
			Name:   input.Name,
			Email:  input.Email,
			Role:   string(input.Role),
			Active: input.Active,
		},
		auth: true,
	})
	if err != nil {
		return "", err
	}
	return message(data), nil
}

// DeleteUser removes a user
func (c *Client) DeleteUser(ctx context.Context, sess *Session, id string) (string, error) {
	data, err := c.request(ctx, sess, call{
		op:     "delete_user",
		method: http.MethodDelete,
		path:   expand(c.routes.UserByID, "id", id),
		auth:   true,
	})
	if err != nil {
		return "", err
	}
	return message(data), nil
}

// SetActive flips the active flag of u through a regular update
func (c *Client) SetActive(ctx context.Context, sess *Session, u models.User, active bool) (string, error) {
	return c.UpdateUser(ctx, sess, u.ID, models.UpdateUserInput{
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Active: active,
	})
}

// ActionHistory fetches one page of the audit trail of adminID
func (c *Client) ActionHistory(ctx context.Context, sess *Session, adminID string, page int) (models.HistoryPage, error) {
	path := expand(c.routes.ActionHistory, "adminId", adminID) + "?page=" + strconv.Itoa(page)

	data, err := c.request(ctx, sess, call{
		op:     "action_history",
		method: http.MethodGet,
		path:   path,
		auth:   true,
	})
	if err != nil {
		return models.HistoryPage{}, err
	}
	return decodeHistory(data)
}

// Ping checks that the backend answers HTTP at all. Any status counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrTransport, err)
		c.metrics.ObserveBackend("ping", outcome(err), time.Since(start).Seconds())
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()

	c.metrics.ObserveBackend("ping", "ok", time.Since(start).Seconds())
	return nil
}

// request performs one backend call and returns the raw success body
func (c *Client) request(ctx context.Context, sess *Session, cl call) (data []byte, err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveBackend(cl.op, outcome(err), time.Since(start).Seconds())
		if err != nil {
			c.logger.Debug().Err(err).Str("op", cl.op).Str("path", cl.path).Msg("Backend call failed")
		}
	}()

	var token string
	if cl.auth {
		var ok bool
		if token, ok = sess.Token(); !ok {
			return nil, ErrNotAuthenticated
		}
	}

	var reqBody io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	if resp.StatusCode >= 400 {
		return nil, c.statusError(sess, cl, resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) statusError(sess *Session, cl call, status int, data []byte) error {
	msg := message(data)

	switch {
	case cl.auth && (status == http.StatusUnauthorized || status == http.StatusForbidden):
		sess.Clear()
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		}
		return ErrUnauthorized
	case !cl.auth && (status == http.StatusUnauthorized || status == http.StatusForbidden):
		// Wrong credentials on login or registration
		return &ValidationError{Status: status, Message: msg}
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return &ValidationError{Status: status, Message: msg}
	default:
		return &APIError{Status: status, Message: msg}
	}
}

func message(data []byte) string {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ""
	}
	return env.text()
}

func createPayload(in models.CreateUserInput) wireCreateUser {
	return wireCreateUser{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     string(in.Role),
		Active:   in.Active,
	}
}
