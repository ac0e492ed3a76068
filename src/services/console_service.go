package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/khabaroff/roster-console/src/gateway"
	"github.com/khabaroff/roster-console/src/logging"
	"github.com/khabaroff/roster-console/src/metrics"
	"github.com/khabaroff/roster-console/src/models"
	"github.com/khabaroff/roster-console/src/pipeline"
)

// Backend is the part of the gateway client the console depends on
type Backend interface {
	Login(ctx context.Context, sess *gateway.Session, kind models.AccountKind, creds models.LoginCredentials) (gateway.LoginResult, error)
	Register(ctx context.Context, sess *gateway.Session, kind models.AccountKind, input models.CreateUserInput) (gateway.LoginResult, error)
	Logout(ctx context.Context, sess *gateway.Session) error
	CurrentUser(ctx context.Context, sess *gateway.Session) (models.User, error)
	ListUsers(ctx context.Context, sess *gateway.Session) ([]models.User, error)
	CreateUser(ctx context.Context, sess *gateway.Session, input models.CreateUserInput) (string, error)
	UpdateUser(ctx context.Context, sess *gateway.Session, id string, input models.UpdateUserInput) (string, error)
	DeleteUser(ctx context.Context, sess *gateway.Session, id string) (string, error)
	SetActive(ctx context.Context, sess *gateway.Session, u models.User, active bool) (string, error)
	ActionHistory(ctx context.Context, sess *gateway.Session, adminID string, page int) (models.HistoryPage, error)
}

// Workspace is the state of one signed-in operator: the backend credential,
// the roster pipeline and the history feed
type Workspace struct {
	ID      string
	Session *gateway.Session
	Roster  *pipeline.Roster
	History *pipeline.HistoryFeed

	mu       sync.Mutex
	profile  models.User
	lastSeen time.Time
}

// Profile returns the signed-in operator
func (w *Workspace) Profile() models.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.profile
}

func (w *Workspace) setProfile(u models.User) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.profile = u
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = now
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// ConsoleConfig configures the console service
type ConsoleConfig struct {
	Feed pipeline.AccumulatorConfig
}

// ConsoleService owns the operator workspaces and orchestrates backend
// calls with pipeline updates
type ConsoleService struct {
	backend    Backend
	notifier   Notifier
	sealer     *Sealer
	classifier pipeline.ActionClassifier
	cfg        ConsoleConfig
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time

	mu         sync.RWMutex
	workspaces map[string]*Workspace
}

// NewConsoleService creates a console service
func NewConsoleService(backend Backend, notifier Notifier, sealer *Sealer, classifier pipeline.ActionClassifier, cfg ConsoleConfig, m *metrics.Metrics) *ConsoleService {
	return &ConsoleService{
		backend:    backend,
		notifier:   notifier,
		sealer:     sealer,
		classifier: classifier,
		cfg:        cfg,
		metrics:    m,
		logger:     logging.NewLogger("console"),
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// SignIn is the outcome of a login or registration that produced a credential
type SignIn struct {
	Workspace *Workspace
	Sealed    string
	Message   string
}

// Login authenticates the operator and opens a workspace. Admin operators
// get their roster loaded immediately.
func (cs *ConsoleService) Login(ctx context.Context, kind models.AccountKind, creds models.LoginCredentials) (*SignIn, error) {
	sess := gateway.NewSession()
	result, err := cs.backend.Login(ctx, sess, kind, creds)
	if err != nil {
		return nil, err
	}
	return cs.open(ctx, sess, result)
}

// Register creates an account from the public form. When the backend signs
// the new account in, a workspace is opened; otherwise SignIn.Workspace is nil.
func (cs *ConsoleService) Register(ctx context.Context, kind models.AccountKind, input models.CreateUserInput) (*SignIn, error) {
	sess := gateway.NewSession()
	result, err := cs.backend.Register(ctx, sess, kind, input)
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		return &SignIn{Message: result.Message}, nil
	}
	return cs.open(ctx, sess, result)
}

func (cs *ConsoleService) open(ctx context.Context, sess *gateway.Session, result gateway.LoginResult) (*SignIn, error) {
	var profile models.User
	if result.User != nil {
		profile = *result.User
	} else {
		u, err := cs.loadProfile(ctx, sess)
		if err != nil {
			return nil, fmt.Errorf("failed to load operator profile: %w", err)
		}
		profile = u
	}

	token, _ := sess.Token()
	sealed, err := cs.sealer.Seal(token)
	if err != nil {
		return nil, err
	}

	ws := cs.newWorkspace(uuid.NewString(), sess, profile)
	cs.register(ws)

	if result.Message != "" {
		cs.notify(ctx, ws, models.NotificationSuccess, result.Message)
	}
	if profile.IsAdmin() {
		if err := cs.RefreshRoster(ctx, ws); err != nil {
			return nil, err
		}
	}

	cs.logger.Info().Str("session_id", ws.ID).Str("operator", profile.ID).Msg("Operator signed in")
	return &SignIn{Workspace: ws, Sealed: sealed, Message: result.Message}, nil
}

// Logout ends the backend session and drops the workspace
func (cs *ConsoleService) Logout(ctx context.Context, id string) error {
	ws := cs.lookup(id)
	if ws == nil {
		return ErrSessionNotFound
	}
	defer cs.drop(id)

	if err := cs.backend.Logout(ctx, ws.Session); err != nil {
		cs.logger.Warn().Err(err).Str("session_id", id).Msg("Backend logout failed")
	}
	return nil
}

// Workspace returns the workspace of a console session. A session unknown to
// this process (e.g. after a restart) is rebuilt from its sealed credential.
func (cs *ConsoleService) Workspace(ctx context.Context, id, sealed string) (*Workspace, error) {
	if ws := cs.lookup(id); ws != nil {
		if !ws.Session.Authenticated() {
			cs.drop(id)
			return nil, ErrSessionExpired
		}
		ws.touch(cs.now())
		return ws, nil
	}

	if sealed == "" {
		return nil, ErrSessionNotFound
	}
	token, err := cs.sealer.Open(sealed)
	if err != nil {
		return nil, err
	}

	sess := gateway.NewSession()
	sess.Set(token)
	if !sess.Authenticated() {
		return nil, ErrSessionExpired
	}

	profile, err := cs.loadProfile(ctx, sess)
	if err != nil {
		return nil, err
	}

	ws := cs.newWorkspace(id, sess, profile)
	cs.register(ws)
	if profile.IsAdmin() {
		if err := cs.RefreshRoster(ctx, ws); err != nil {
			return nil, err
		}
	}

	cs.logger.Info().Str("session_id", id).Msg("Workspace restored from sealed credential")
	return ws, nil
}

// RefreshRoster replaces the roster with the backend collection. A failed
// fetch empties the roster and notifies the operator; only an authorization
// failure is returned.
func (cs *ConsoleService) RefreshRoster(ctx context.Context, ws *Workspace) error {
	users, err := cs.backend.ListUsers(ctx, ws.Session)
	if err != nil {
		cs.metrics.IncRosterRefresh("failed")
		if cs.isAuthFailure(err) {
			cs.drop(ws.ID)
			return err
		}
		ws.Roster.Fail()
		cs.notify(ctx, ws, models.NotificationError, failureMessage(err, "Failed to load users"))
		cs.logger.Warn().Err(err).Str("session_id", ws.ID).Msg("Roster refresh failed")
		return nil
	}

	ws.Roster.Replace(users)
	cs.metrics.IncRosterRefresh("ok")
	return nil
}

// CreateUser creates an account and refreshes the views
func (cs *ConsoleService) CreateUser(ctx context.Context, ws *Workspace, input models.CreateUserInput) error {
	return cs.mutate(ctx, ws, "User created", func() (string, error) {
		return cs.backend.CreateUser(ctx, ws.Session, input)
	})
}

// UpdateUser edits an account and refreshes the views. Editing one's own
// account reloads the operator profile.
func (cs *ConsoleService) UpdateUser(ctx context.Context, ws *Workspace, id string, input models.UpdateUserInput) error {
	if id == "" {
		return ErrMissingUserID
	}
	if err := cs.mutate(ctx, ws, "User updated", func() (string, error) {
		return cs.backend.UpdateUser(ctx, ws.Session, id, input)
	}); err != nil {
		return err
	}

	if id == ws.Profile().ID {
		profile, err := cs.backend.CurrentUser(ctx, ws.Session)
		if err != nil {
			if cs.isAuthFailure(err) {
				cs.drop(ws.ID)
				return err
			}
			cs.logger.Warn().Err(err).Str("session_id", ws.ID).Msg("Failed to reload operator profile, keeping the submitted edit")
			ws.setProfile(input.Apply(ws.Profile()))
			return nil
		}
		ws.setProfile(profile)
	}
	return nil
}

// DeleteUser removes an account and refreshes the views
func (cs *ConsoleService) DeleteUser(ctx context.Context, ws *Workspace, id string) error {
	if id == "" {
		return ErrMissingUserID
	}
	return cs.mutate(ctx, ws, "User deleted", func() (string, error) {
		return cs.backend.DeleteUser(ctx, ws.Session, id)
	})
}

// ToggleStatus flips the active flag of a roster user and refreshes the views
func (cs *ConsoleService) ToggleStatus(ctx context.Context, ws *Workspace, id string) error {
	if id == "" {
		return ErrMissingUserID
	}
	u, ok := ws.Roster.Find(id)
	if !ok {
		return ErrUserNotFound
	}
	return cs.mutate(ctx, ws, "Status updated", func() (string, error) {
		return cs.backend.SetActive(ctx, ws.Session, u, !u.Active)
	})
}

// mutate runs one admin mutation, reports its outcome and refreshes the
// roster and an open history feed
func (cs *ConsoleService) mutate(ctx context.Context, ws *Workspace, fallback string, fn func() (string, error)) error {
	if profile := ws.Profile(); !profile.IsAdmin() {
		return ErrForbidden
	}

	msg, err := fn()
	if err != nil {
		if cs.isAuthFailure(err) {
			cs.drop(ws.ID)
			return err
		}
		cs.notify(ctx, ws, models.NotificationError, failureMessage(err, "Operation failed"))
		return err
	}

	if msg == "" {
		msg = fallback
	}
	cs.notify(ctx, ws, models.NotificationSuccess, msg)

	if err := cs.RefreshRoster(ctx, ws); err != nil {
		return err
	}
	if _, err := ws.History.Refresh(ctx, cs.historyFetch(ws)); err != nil {
		return cs.feedFailure(ctx, ws, err)
	}
	return nil
}

// OpenHistory opens the action history feed of adminID, the operator when empty
func (cs *ConsoleService) OpenHistory(ctx context.Context, ws *Workspace, adminID string) (pipeline.LoadOutcome, error) {
	if profile := ws.Profile(); !profile.IsAdmin() {
		return pipeline.LoadSuppressed, ErrForbidden
	}
	if adminID == "" {
		adminID = ws.Profile().ID
	}

	outcome, err := ws.History.Open(ctx, adminID, cs.historyFetch(ws))
	cs.metrics.IncFeedCycle(string(outcome))
	if err != nil {
		return outcome, cs.feedFailure(ctx, ws, err)
	}
	return outcome, nil
}

// CloseHistory resets the feed
func (cs *ConsoleService) CloseHistory(ws *Workspace) {
	ws.History.Close()
}

// ScrollHistory runs a feed cycle when the scroll position passed the threshold
func (cs *ConsoleService) ScrollHistory(ctx context.Context, ws *Workspace, pos pipeline.ScrollPosition) (pipeline.LoadOutcome, error) {
	outcome, err := ws.History.Scroll(ctx, pos, cs.historyFetch(ws))
	cs.metrics.IncFeedCycle(string(outcome))
	if err != nil {
		return outcome, cs.feedFailure(ctx, ws, err)
	}
	return outcome, nil
}

// feedFailure notifies a failed feed cycle. Accumulated items are kept by the
// feed; only an authorization failure is returned.
func (cs *ConsoleService) feedFailure(ctx context.Context, ws *Workspace, err error) error {
	if cs.isAuthFailure(err) {
		cs.drop(ws.ID)
		return err
	}
	cs.notify(ctx, ws, models.NotificationError, failureMessage(err, "Failed to load action history"))
	cs.logger.Warn().Err(err).Str("session_id", ws.ID).Msg("History feed cycle failed")
	return nil
}

// Notifications drains the operator's pending notifications
func (cs *ConsoleService) Notifications(ctx context.Context, ws *Workspace) ([]models.Notification, error) {
	return cs.notifier.Drain(ctx, ws.ID)
}

// EvictIdle drops workspaces unused since before cutoff and returns how many were dropped
func (cs *ConsoleService) EvictIdle(cutoff time.Time) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	evicted := 0
	for id, ws := range cs.workspaces {
		if ws.idleSince().Before(cutoff) || !ws.Session.Authenticated() {
			delete(cs.workspaces, id)
			evicted++
		}
	}
	cs.metrics.SetWorkspaces(len(cs.workspaces))
	return evicted
}

// ActiveWorkspaces returns the number of live workspaces
func (cs *ConsoleService) ActiveWorkspaces() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.workspaces)
}

func (cs *ConsoleService) historyFetch(ws *Workspace) pipeline.HistoryFetchFunc {
	return func(ctx context.Context, adminID string, page int) (models.HistoryPage, error) {
		return cs.backend.ActionHistory(ctx, ws.Session, adminID, page)
	}
}

func (cs *ConsoleService) newWorkspace(id string, sess *gateway.Session, profile models.User) *Workspace {
	return &Workspace{
		ID:       id,
		Session:  sess,
		Roster:   pipeline.NewRoster(),
		History:  pipeline.NewHistoryFeed(cs.cfg.Feed, cs.classifier),
		profile:  profile,
		lastSeen: cs.now(),
	}
}

func (cs *ConsoleService) lookup(id string) *Workspace {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.workspaces[id]
}

func (cs *ConsoleService) register(ws *Workspace) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.workspaces[ws.ID] = ws
	cs.metrics.SetWorkspaces(len(cs.workspaces))
}

func (cs *ConsoleService) drop(id string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.workspaces, id)
	cs.metrics.SetWorkspaces(len(cs.workspaces))
}

// loadProfile reads the operator from the backend. When the backend cannot
// answer but the token names the operator, the token claims stand in.
func (cs *ConsoleService) loadProfile(ctx context.Context, sess *gateway.Session) (models.User, error) {
	u, err := cs.backend.CurrentUser(ctx, sess)
	if err == nil {
		return u, nil
	}
	if cs.isAuthFailure(err) {
		return models.User{}, err
	}

	fallback, ok := profileFromClaims(sess.Claims())
	if !ok {
		return models.User{}, err
	}
	cs.logger.Warn().Err(err).Str("operator", fallback.ID).Msg("Operator profile taken from token claims")
	return fallback, nil
}

// profileFromClaims builds an operator from backend token claims. The token
// must name the operator and a known role.
func profileFromClaims(claims map[string]interface{}) (models.User, bool) {
	str := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := claims[k].(string); ok && v != "" {
				return v
			}
		}
		return ""
	}

	u := models.User{
		ID:     str("id", "_id", "userId", "sub"),
		Name:   str("nom", "name"),
		Email:  str("email"),
		Role:   models.Role(str("role")),
		Active: true, // the backend only issues tokens to active accounts
	}
	if u.ID == "" || !u.Role.Valid() {
		return models.User{}, false
	}
	return u, true
}

func (cs *ConsoleService) isAuthFailure(err error) bool {
	return errors.Is(err, gateway.ErrUnauthorized) || errors.Is(err, gateway.ErrNotAuthenticated)
}

func (cs *ConsoleService) notify(ctx context.Context, ws *Workspace, level models.NotificationLevel, message string) {
	if cs.notifier == nil {
		return
	}
	if err := cs.notifier.Notify(ctx, ws.ID, level, message); err != nil {
		cs.logger.Error().Err(err).Str("session_id", ws.ID).Msg("Failed to record notification")
	}
}

// failureMessage prefers the backend's own wording
func failureMessage(err error, fallback string) string {
	if msg := gateway.Message(err); msg != "" {
		return msg
	}
	if errors.Is(err, gateway.ErrTransport) {
		return fallback + ": backend unreachable"
	}
	return fallback
}
