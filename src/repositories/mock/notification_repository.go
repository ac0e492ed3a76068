package mock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khabaroff/roster-console/src/models"
	"github.com/khabaroff/roster-console/src/repositories"
)

// NotificationRepository is a mock implementation of repositories.NotificationRepository
type NotificationRepository struct {
	// Function stubs that can be overridden in tests
	CreateFunc          func(ctx context.Context, n *models.Notification) error
	ListPendingFunc     func(ctx context.Context, sessionID string) ([]models.Notification, error)
	MarkDeliveredFunc   func(ctx context.Context, ids []uuid.UUID) error
	DeleteOlderThanFunc func(ctx context.Context, cutoff time.Time) (int64, error)

	// Call tracking
	Calls map[string][]interface{}
}

// NewNotificationRepository creates a new mock notification repository
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		Calls: make(map[string][]interface{}),
	}
}

func (m *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	m.Calls["Create"] = append(m.Calls["Create"], n)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, n)
	}
	return nil
}

func (m *NotificationRepository) ListPending(ctx context.Context, sessionID string) ([]models.Notification, error) {
	m.Calls["ListPending"] = append(m.Calls["ListPending"], sessionID)
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, sessionID)
	}
	return nil, nil
}

func (m *NotificationRepository) MarkDelivered(ctx context.Context, ids []uuid.UUID) error {
	m.Calls["MarkDelivered"] = append(m.Calls["MarkDelivered"], ids)
	if m.MarkDeliveredFunc != nil {
		return m.MarkDeliveredFunc(ctx, ids)
	}
	return nil
}

func (m *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.Calls["DeleteOlderThan"] = append(m.Calls["DeleteOlderThan"], cutoff)
	if m.DeleteOlderThanFunc != nil {
		return m.DeleteOlderThanFunc(ctx, cutoff)
	}
	return 0, nil
}

// Ensure NotificationRepository implements the interface
var _ repositories.NotificationRepository = (*NotificationRepository)(nil)
