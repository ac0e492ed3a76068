package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khabaroff/roster-console/src/models"
	"github.com/khabaroff/roster-console/src/repositories"
)

// Notifier records operator-facing messages and hands them out once
type Notifier interface {
	Notify(ctx context.Context, sessionID string, level models.NotificationLevel, message string) error
	Drain(ctx context.Context, sessionID string) ([]models.Notification, error)
}

// NotificationService handles the operator notification log
type NotificationService struct {
	pool *pgxpool.Pool
	repo repositories.NotificationRepository
	now  func() time.Time
}

// NewNotificationService creates a notification service backed by PostgreSQL
func NewNotificationService(pool *pgxpool.Pool) *NotificationService {
	return &NotificationService{pool: pool, now: time.Now}
}

// NewNotificationServiceWithRepo creates a notification service with a repository
func NewNotificationServiceWithRepo(repo repositories.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now}
}

// Notify stores a message for the operator of sessionID
func (ns *NotificationService) Notify(ctx context.Context, sessionID string, level models.NotificationLevel, message string) error {
	n := &models.Notification{
		ID:        uuid.New(),
		SessionID: sessionID,
		Level:     level,
		Message:   message,
		CreatedAt: ns.now(),
	}

	if ns.repo != nil {
		if err := ns.repo.Create(ctx, n); err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		return nil
	}

	_, err := ns.pool.Exec(ctx,
		`INSERT INTO console_notifications (id, session_id, level, message, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.SessionID, string(n.Level), n.Message, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// Drain returns pending notifications of sessionID in creation order and
// marks them delivered
func (ns *NotificationService) Drain(ctx context.Context, sessionID string) ([]models.Notification, error) {
	if ns.repo != nil {
		pending, err := ns.repo.ListPending(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to list notifications: %w", err)
		}
		if len(pending) == 0 {
			return []models.Notification{}, nil
		}
		ids := make([]uuid.UUID, len(pending))
		for i, n := range pending {
			ids[i] = n.ID
		}
		if err := ns.repo.MarkDelivered(ctx, ids); err != nil {
			return nil, fmt.Errorf("failed to mark notifications delivered: %w", err)
		}
		return pending, nil
	}

	rows, err := ns.pool.Query(ctx,
		`UPDATE console_notifications
		 SET delivered = true
		 WHERE session_id = $1 AND delivered = false
		 RETURNING id, session_id, level, message, created_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to drain notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var level string
		if err := rows.Scan(&n.ID, &n.SessionID, &level, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Level = models.NotificationLevel(level)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to drain notifications: %w", err)
	}

	// RETURNING gives no ordering guarantee
	sortByCreation(out)
	return out, nil
}

// DeleteOlderThan removes notifications older than age
func (ns *NotificationService) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := ns.now().Add(-age)

	if ns.repo != nil {
		return ns.repo.DeleteOlderThan(ctx, cutoff)
	}

	result, err := ns.pool.Exec(ctx, "DELETE FROM console_notifications WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return result.RowsAffected(), nil
}

func sortByCreation(ns []models.Notification) {
	slices.SortStableFunc(ns, func(a, b models.Notification) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}
