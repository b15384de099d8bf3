package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sparta-academy/sparta-backend/internal/config"
	"github.com/sparta-academy/sparta-backend/internal/exam"
	"github.com/sparta-academy/sparta-backend/internal/repository"
)

const (
	AttemptBatchSize    = 50
	AttemptBatchTimeout = 2 * time.Second
	AttemptPollTimeout  = 1 * time.Second
)

// AttemptWorker drains the attempt queue into PostgreSQL. Finished attempts
// land here through the Redis list; the exam session itself never blocks on
// the database.
type AttemptWorker struct {
	attemptRepo *repository.AttemptRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

func NewAttemptWorker(attemptRepo *repository.AttemptRepository, rdb *redis.Client, log zerolog.Logger) *AttemptWorker {
	return &AttemptWorker{
		attemptRepo: attemptRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "attempt_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *AttemptWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AttemptWorker started")

	batch := make([]*exam.Record, 0, AttemptBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= AttemptBatchSize || time.Since(lastFlush) >= AttemptBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, AttemptPollTimeout, config.WorkerKey.PersistAttemptsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var rec exam.Record
			if err := json.Unmarshal([]byte(item[1]), &rec); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &rec)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert wrapper with single-row fallback
// ----------------------------------------------------------------

func (w *AttemptWorker) flushSafe(ctx context.Context, batch []*exam.Record) {
	if len(batch) == 0 {
		return
	}

	rows := make([]repository.AttemptRow, 0, len(batch))
	for _, rec := range batch {
		row, err := toRow(rec)
		if err != nil {
			w.log.Error().Err(err).Str("attempt_id", rec.ID).Msg("Malformed record, dropping")
			continue
		}
		rows = append(rows, row)
	}

	if err := w.attemptRepo.BulkInsert(ctx, rows); err != nil {
		w.log.Warn().Err(err).Msg("bulk attempt insert failed, using fallback")

		for i, row := range rows {
			if err := w.attemptRepo.Insert(ctx, row); err != nil {
				w.log.Error().Err(err).Str("attempt_id", row.ID.String()).Msg("Insert failed — requeueing")
				raw, _ := json.Marshal(batch[i])
				w.rdb.RPush(ctx, config.WorkerKey.PersistAttemptsQueue, raw)
			}
		}
		return
	}

	w.log.Debug().Int("count", len(rows)).Msg("Attempts persisted")
}

func toRow(rec *exam.Record) (repository.AttemptRow, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return repository.AttemptRow{}, err
	}
	startedAt, err := time.Parse(time.RFC3339, rec.StartedAt)
	if err != nil {
		return repository.AttemptRow{}, err
	}
	finishedAt, err := time.Parse(time.RFC3339, rec.FinishedAt)
	if err != nil {
		return repository.AttemptRow{}, err
	}
	review, err := json.Marshal(rec.Review)
	if err != nil {
		return repository.AttemptRow{}, err
	}

	return repository.AttemptRow{
		ID:             id,
		UserID:         rec.UserID,
		Username:       rec.Username,
		Name:           rec.Name,
		City:           rec.City,
		UniversityCode: rec.University,
		Subject:        rec.Subject,
		Score:          rec.Score,
		TotalQuestions: rec.TotalQuestions,
		CorrectCount:   rec.CorrectCount,
		IncorrectCount: rec.IncorrectCount,
		BlankCount:     rec.BlankCount,
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
		Review:         review,
	}, nil
}
