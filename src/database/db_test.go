package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabase_WithoutPool(t *testing.T) {
	db := NewDatabaseFromPool(nil)

	assert.ErrorIs(t, db.Health(context.Background()), ErrNotConnected)
	assert.Equal(t, PoolStats{}, db.Stats())

	var missing *Database
	assert.ErrorIs(t, missing.Health(context.Background()), ErrNotConnected)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), "://not a url", DefaultPoolOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database URL")
}

func TestNotificationSchema_PendingRows(t *testing.T) {
	WithTestDB(t, func(tdb *TestDB) {
		ctx := context.Background()
		db := NewDatabaseFromPool(tdb.Pool)
		require.NoError(t, db.Health(ctx))

		_, err := tdb.CreateTestNotification("sid-1", "info", "Utilisateur créé avec succès", time.Now())
		require.NoError(t, err)
		_, err = tdb.CreateTestNotification("sid-2", "error", "boom", time.Now())
		require.NoError(t, err)

		var pending int
		err = tdb.Pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM console_notifications WHERE session_id = $1 AND delivered = false`,
			"sid-1",
		).Scan(&pending)
		require.NoError(t, err)
		assert.Equal(t, 1, pending)

		assert.GreaterOrEqual(t, db.Stats().Total, int32(1))
	})
}
