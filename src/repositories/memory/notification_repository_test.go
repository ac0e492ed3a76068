package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/roster-console/src/models"
)

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()
	now := time.Now()

	old := &models.Notification{ID: uuid.New(), SessionID: "s1", Message: "old", CreatedAt: now.Add(-48 * time.Hour)}
	fresh := &models.Notification{ID: uuid.New(), SessionID: "s1", Message: "fresh", CreatedAt: now}
	other := &models.Notification{ID: uuid.New(), SessionID: "s2", Message: "other", CreatedAt: now}
	for _, n := range []*models.Notification{old, fresh, other} {
		require.NoError(t, repo.Create(ctx, n))
	}

	pending, err := repo.ListPending(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "old", pending[0].Message)

	require.NoError(t, repo.MarkDelivered(ctx, []uuid.UUID{old.ID}))
	pending, err = repo.ListPending(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "fresh", pending[0].Message)

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	pending, err = repo.ListPending(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
