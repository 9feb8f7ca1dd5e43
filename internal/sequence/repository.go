package sequence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository hands out gap-free, per-partition sequence numbers for
// outgoing events.
type Repository interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
	Current(ctx context.Context, partitionKey string) (int64, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, errors.New("next sequence: empty partition key")
	}
	var seq int64
	if err := r.db.QueryRowContext(ctx, `
		INSERT INTO event_sequence (partition_key, last_sequence, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (partition_key)
		DO UPDATE SET last_sequence = event_sequence.last_sequence + 1, updated_at = NOW()
		RETURNING last_sequence
	`, partitionKey).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// Current returns the last sequence handed out, or 0 for an unseen partition.
func (r *repo) Current(ctx context.Context, partitionKey string) (int64, error) {
	var seq int64
	err := r.db.QueryRowContext(ctx,
		`SELECT last_sequence FROM event_sequence WHERE partition_key = $1`, partitionKey,
	).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("current sequence: %w", err)
	}
	return seq, nil
}
