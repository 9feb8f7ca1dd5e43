package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/pos"
)

var ErrNoSnapshot = errors.New("no saved session")

// SnapshotStore persists the latest snapshot of each terminal's session.
type SnapshotStore interface {
	Save(ctx context.Context, terminalID string, snap pos.Snapshot) error
	Load(ctx context.Context, terminalID string) (pos.Snapshot, error)
	Delete(ctx context.Context, terminalID string) error
}

type RedisSnapshotStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisSnapshotStore(client redis.UniversalClient, ttl time.Duration) *RedisSnapshotStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func (r *RedisSnapshotStore) Save(ctx context.Context, terminalID string, snap pos.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKey(terminalID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisSnapshotStore) Load(ctx context.Context, terminalID string) (pos.Snapshot, error) {
	data, err := r.client.Get(ctx, snapshotKey(terminalID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return pos.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return pos.Snapshot{}, fmt.Errorf("redis get failed: %w", err)
	}

	var snap pos.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return pos.Snapshot{}, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return snap, nil
}

func (r *RedisSnapshotStore) Delete(ctx context.Context, terminalID string) error {
	if err := r.client.Del(ctx, snapshotKey(terminalID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func snapshotKey(terminalID string) string {
	return "pos:session:" + terminalID
}
