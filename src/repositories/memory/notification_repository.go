package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khabaroff/roster-console/src/models"
	"github.com/khabaroff/roster-console/src/repositories"
)

type entry struct {
	n         models.Notification
	delivered bool
}

// NotificationRepository keeps notifications in process memory. It is used
// when no DATABASE_URL is configured.
type NotificationRepository struct {
	mu      sync.Mutex
	entries []entry
}

// NewNotificationRepository creates an empty store
func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{n: *n})
	return nil
}

// ListPending returns undelivered notifications of sessionID in creation order
func (r *NotificationRepository) ListPending(ctx context.Context, sessionID string) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Notification
	for _, e := range r.entries {
		if !e.delivered && e.n.SessionID == sessionID {
			out = append(out, e.n)
		}
	}
	return out, nil
}

func (r *NotificationRepository) MarkDelivered(ctx context.Context, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for i := range r.entries {
		if _, ok := set[r.entries[i].n.ID]; ok {
			r.entries[i].delivered = true
		}
	}
	return nil
}

func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	var deleted int64
	for _, e := range r.entries {
		if e.n.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return deleted, nil
}

var _ repositories.NotificationRepository = (*NotificationRepository)(nil)
