package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/khabaroff/roster-console/src/logging"
)

// CleanupService periodically evicts idle workspaces and purges delivered
// notification history
type CleanupService struct {
	console       *ConsoleService
	notifications *NotificationService
	idleTimeout   time.Duration
	retention     time.Duration
	interval      time.Duration
	logger        zerolog.Logger
	done          chan struct{}
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(console *ConsoleService, notifications *NotificationService, idleTimeout, retention time.Duration) *CleanupService {
	return &CleanupService{
		console:       console,
		notifications: notifications,
		idleTimeout:   idleTimeout,
		retention:     retention,
		interval:      5 * time.Minute,
		logger:        logging.NewLogger("cleanup"),
		done:          make(chan struct{}),
	}
}

// Start starts the cleanup loop
func (cs *CleanupService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(cs.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				cs.logger.Info().Msg("Cleanup service stopped")
				return
			case <-cs.done:
				cs.logger.Info().Msg("Cleanup service stopped")
				return
			case <-ticker.C:
				cs.RunOnce(ctx)
			}
		}
	}()

	cs.logger.Info().Dur("interval", cs.interval).Msg("Cleanup service started")
}

// Stop stops the cleanup loop
func (cs *CleanupService) Stop() {
	close(cs.done)
}

// RunOnce performs a single cleanup pass
func (cs *CleanupService) RunOnce(ctx context.Context) {
	if cs.console != nil && cs.idleTimeout > 0 {
		if n := cs.console.EvictIdle(time.Now().Add(-cs.idleTimeout)); n > 0 {
			cs.logger.Info().Int("evicted", n).Msg("Evicted idle workspaces")
		}
	}

	if cs.notifications != nil && cs.retention > 0 {
		deleted, err := cs.notifications.DeleteOlderThan(ctx, cs.retention)
		if err != nil {
			cs.logger.Error().Err(err).Msg("Notification cleanup failed")
			return
		}
		if deleted > 0 {
			cs.logger.Info().Int64("deleted", deleted).Msg("Purged old notifications")
		}
	}
}
