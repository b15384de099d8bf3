package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sparta-academy/sparta-backend/internal/config"
	"github.com/sparta-academy/sparta-backend/internal/exam"
)

// AttemptQueue hands finished attempts to the persistence worker through a
// Redis list. The session never waits on PostgreSQL: finalization pushes one
// JSON blob and the worker drains the queue in batches.
type AttemptQueue struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewAttemptQueue creates a new AttemptQueue.
func NewAttemptQueue(rdb *redis.Client) *AttemptQueue {
	return &AttemptQueue{
		rdb: rdb,
		log: log.With().Str("component", "attempt_queue").Logger(),
	}
}

// Record enqueues a finished attempt for persistence.
func (q *AttemptQueue) Record(ctx context.Context, rec *exam.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}

	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue attempt: %w", err)
	}

	q.log.Debug().
		Str("attempt_id", rec.ID).
		Int("user_id", rec.UserID).
		Msg("Attempt enqueued")
	return nil
}
