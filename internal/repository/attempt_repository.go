package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sparta-academy/sparta-backend/internal/model"
)

// AttemptRepository handles persisted exam attempts.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// AttemptRow is the flat shape the persistence worker hands over. Review is
// pre-marshaled JSON.
type AttemptRow struct {
	ID             uuid.UUID
	UserID         int
	Username       string
	Name           string
	City           string
	UniversityCode string
	Subject        string
	Score          int
	TotalQuestions int
	CorrectCount   int
	IncorrectCount int
	BlankCount     int
	StartedAt      time.Time
	FinishedAt     time.Time
	Review         []byte
}

// BulkInsert writes a batch of attempts in a single statement using UNNEST.
// Duplicate IDs (requeued rows) are skipped.
func (r *AttemptRepository) BulkInsert(ctx context.Context, rows []AttemptRow) error {
	if len(rows) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(rows))
	userIDs := make([]int, len(rows))
	usernames := make([]string, len(rows))
	names := make([]string, len(rows))
	cities := make([]string, len(rows))
	universities := make([]string, len(rows))
	subjects := make([]string, len(rows))
	scores := make([]int, len(rows))
	totals := make([]int, len(rows))
	corrects := make([]int, len(rows))
	incorrects := make([]int, len(rows))
	blanks := make([]int, len(rows))
	startedAts := make([]time.Time, len(rows))
	finishedAts := make([]time.Time, len(rows))
	reviews := make([][]byte, len(rows))

	for i, row := range rows {
		ids[i] = row.ID
		userIDs[i] = row.UserID
		usernames[i] = row.Username
		names[i] = row.Name
		cities[i] = row.City
		universities[i] = row.UniversityCode
		subjects[i] = row.Subject
		scores[i] = row.Score
		totals[i] = row.TotalQuestions
		corrects[i] = row.CorrectCount
		incorrects[i] = row.IncorrectCount
		blanks[i] = row.BlankCount
		startedAts[i] = row.StartedAt
		finishedAts[i] = row.FinishedAt
		reviews[i] = row.Review
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO attempts (id, user_id, username, name, city, university_code, subject,
		                       score, total_questions, correct_count, incorrect_count, blank_count,
		                       started_at, finished_at, review)
		 SELECT * FROM UNNEST($1::uuid[], $2::int[], $3::text[], $4::text[], $5::text[],
		                      $6::text[], $7::text[], $8::int[], $9::int[], $10::int[],
		                      $11::int[], $12::int[], $13::timestamptz[], $14::timestamptz[], $15::jsonb[])
		 ON CONFLICT (id) DO NOTHING`,
		ids, userIDs, usernames, names, cities, universities, subjects,
		scores, totals, corrects, incorrects, blanks, startedAts, finishedAts, reviews)
	if err != nil {
		return fmt.Errorf("bulk insert attempts: %w", err)
	}
	return nil
}

// Insert writes one attempt. Fallback path when a batch fails.
func (r *AttemptRepository) Insert(ctx context.Context, row AttemptRow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attempts (id, user_id, username, name, city, university_code, subject,
		                       score, total_questions, correct_count, incorrect_count, blank_count,
		                       started_at, finished_at, review)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (id) DO NOTHING`,
		row.ID, row.UserID, row.Username, row.Name, row.City, row.UniversityCode, row.Subject,
		row.Score, row.TotalQuestions, row.CorrectCount, row.IncorrectCount, row.BlankCount,
		row.StartedAt, row.FinishedAt, row.Review)
	return err
}

// List retrieves attempts matching the filter, newest first, with a total
// count for pagination.
func (r *AttemptRepository) List(ctx context.Context, filter model.AttemptFilter, limit, offset int) ([]model.Attempt, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	argPos := 1

	if filter.UniversityCode != "" {
		where += fmt.Sprintf(" AND university_code = $%d", argPos)
		args = append(args, filter.UniversityCode)
		argPos++
	}
	if filter.Subject != "" {
		where += fmt.Sprintf(" AND subject = $%d", argPos)
		args = append(args, filter.Subject)
		argPos++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(" AND (username ILIKE $%d OR name ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM attempts "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT id, user_id, username, name, city, university_code, subject,
		        score, total_questions, correct_count, incorrect_count, blank_count,
		        started_at, finished_at, created_at
		 FROM attempts %s
		 ORDER BY finished_at DESC
		 LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.Username, &a.Name, &a.City, &a.UniversityCode, &a.Subject,
			&a.Score, &a.TotalQuestions, &a.CorrectCount, &a.IncorrectCount, &a.BlankCount,
			&a.StartedAt, &a.FinishedAt, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		attempts = append(attempts, a)
	}
	return attempts, total, rows.Err()
}

// GetByID retrieves one attempt including its full answer review.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, username, name, city, university_code, subject,
		        score, total_questions, correct_count, incorrect_count, blank_count,
		        started_at, finished_at, review, created_at
		 FROM attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.UserID, &a.Username, &a.Name, &a.City, &a.UniversityCode, &a.Subject,
		&a.Score, &a.TotalQuestions, &a.CorrectCount, &a.IncorrectCount, &a.BlankCount,
		&a.StartedAt, &a.FinishedAt, &a.Review, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListByUser retrieves a student's own attempt history, newest first.
func (r *AttemptRepository) ListByUser(ctx context.Context, userID, limit int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, username, name, city, university_code, subject,
		        score, total_questions, correct_count, incorrect_count, blank_count,
		        started_at, finished_at, created_at
		 FROM attempts
		 WHERE user_id = $1
		 ORDER BY finished_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		var a model.Attempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.Username, &a.Name, &a.City, &a.UniversityCode, &a.Subject,
			&a.Score, &a.TotalQuestions, &a.CorrectCount, &a.IncorrectCount, &a.BlankCount,
			&a.StartedAt, &a.FinishedAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Summary aggregates attempts per university subject.
func (r *AttemptRepository) Summary(ctx context.Context) ([]model.SubjectSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT university_code, subject, COUNT(*), ROUND(AVG(score), 2), MAX(score), COUNT(DISTINCT user_id)
		 FROM attempts
		 GROUP BY university_code, subject
		 ORDER BY university_code ASC, subject ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.SubjectSummary
	for rows.Next() {
		var s model.SubjectSummary
		if err := rows.Scan(&s.UniversityCode, &s.Subject, &s.Attempts, &s.AverageScore, &s.BestScore, &s.Students); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
