package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khabaroff/roster-console/src/models"
)

// NotificationRepository defines the interface for the operator notification log
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListPending(ctx context.Context, sessionID string) ([]models.Notification, error)
	MarkDelivered(ctx context.Context, ids []uuid.UUID) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
