// Package redis keeps the operator notification log in Redis, for consoles
// running several replicas without PostgreSQL.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/khabaroff/roster-console/src/models"
	"github.com/khabaroff/roster-console/src/repositories"
)

// Key layout, all under the repository prefix:
//
//	<prefix>:notification:<id>  JSON record
//	<prefix>:pending:<session>  sorted set of undelivered ids, scored by creation time
//	<prefix>:created            sorted set of every id, scored by creation time

type record struct {
	ID        uuid.UUID                `json:"id"`
	SessionID string                   `json:"session_id"`
	Level     models.NotificationLevel `json:"level"`
	Message   string                   `json:"message"`
	CreatedAt time.Time                `json:"created_at"`
}

// NotificationRepository implements repositories.NotificationRepository on Redis
type NotificationRepository struct {
	client *redis.Client
	prefix string
}

// NewClientFromURL connects to Redis and checks the connection
func NewClientFromURL(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewNotificationRepository creates a repository storing keys under prefix
func NewNotificationRepository(client *redis.Client, prefix string) *NotificationRepository {
	if prefix == "" {
		prefix = "console"
	}
	return &NotificationRepository{client: client, prefix: prefix}
}

func (r *NotificationRepository) recordKey(id string) string {
	return r.prefix + ":notification:" + id
}

func (r *NotificationRepository) pendingKey(sessionID string) string {
	return r.prefix + ":pending:" + sessionID
}

func (r *NotificationRepository) createdKey() string {
	return r.prefix + ":created"
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	data, err := json.Marshal(record{
		ID:        n.ID,
		SessionID: n.SessionID,
		Level:     n.Level,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	id := n.ID.String()
	score := float64(n.CreatedAt.UnixNano())

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.recordKey(id), data, 0)
		pipe.ZAdd(ctx, r.pendingKey(n.SessionID), redis.Z{Score: score, Member: id})
		pipe.ZAdd(ctx, r.createdKey(), redis.Z{Score: score, Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListPending(ctx context.Context, sessionID string) ([]models.Notification, error) {
	ids, err := r.client.ZRange(ctx, r.pendingKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	records, err := r.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.Notification, 0, len(records))
	for _, rec := range records {
		out = append(out, models.Notification{
			ID:        rec.ID,
			SessionID: rec.SessionID,
			Level:     rec.Level,
			Message:   rec.Message,
			CreatedAt: rec.CreatedAt,
		})
	}
	return out, nil
}

func (r *NotificationRepository) MarkDelivered(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	records, err := r.load(ctx, keys)
	if err != nil {
		return err
	}

	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, rec := range records {
			pipe.ZRem(ctx, r.pendingKey(rec.SessionID), rec.ID.String())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark notifications delivered: %w", err)
	}
	return nil
}

func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	// Scores are creation times; the cutoff itself is kept
	ids, err := r.client.ZRangeByScore(ctx, r.createdKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.UnixNano(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to find old notifications: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	records, err := r.load(ctx, ids)
	if err != nil {
		return 0, err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, rec := range records {
			pipe.ZRem(ctx, r.pendingKey(rec.SessionID), rec.ID.String())
		}
		for _, id := range ids {
			pipe.Del(ctx, r.recordKey(id))
			pipe.ZRem(ctx, r.createdKey(), id)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", err)
	}
	return int64(len(ids)), nil
}

// load fetches records by id, skipping ids whose record is gone
func (r *NotificationRepository) load(ctx context.Context, ids []string) ([]record, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.recordKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	out := make([]record, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

var _ repositories.NotificationRepository = (*NotificationRepository)(nil)
