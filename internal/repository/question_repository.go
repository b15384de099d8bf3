package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sparta-academy/sparta-backend/internal/model"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListBySubject retrieves the full bank for a university subject. Options are
// stored as a JSONB object keyed by label.
func (r *QuestionRepository) ListBySubject(ctx context.Context, universityCode, subjectName string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.university_code, q.subject_id, q.prompt, q.options, q.correct_label
		 FROM questions q
		 JOIN subjects s ON s.id = q.subject_id
		 WHERE q.university_code = $1 AND s.name = $2
		 ORDER BY q.id`, universityCode, subjectName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var optionsRaw []byte
		if err := rows.Scan(&q.ID, &q.UniversityCode, &q.SubjectID, &q.Prompt, &optionsRaw, &q.CorrectLabel); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(optionsRaw, &q.Options); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CountBySubject reports bank sizes per subject for a university.
func (r *QuestionRepository) CountBySubject(ctx context.Context, universityCode string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.name, COUNT(q.id)
		 FROM subjects s
		 LEFT JOIN questions q ON q.subject_id = s.id
		 WHERE s.university_code = $1
		 GROUP BY s.name`, universityCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// BulkInsert loads a batch of questions via COPY. Used by the seeder.
func (r *QuestionRepository) BulkInsert(ctx context.Context, questions []model.Question) (int64, error) {
	rows := make([][]any, 0, len(questions))
	for _, q := range questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return 0, err
		}
		id := q.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		rows = append(rows, []any{id, q.UniversityCode, q.SubjectID, q.Prompt, optionsJSON, q.CorrectLabel})
	}

	return r.pool.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{"id", "university_code", "subject_id", "prompt", "options", "correct_label"},
		pgx.CopyFromRows(rows))
}

// DeleteBySubject clears a subject's bank before a reseed.
func (r *QuestionRepository) DeleteBySubject(ctx context.Context, subjectID int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE subject_id = $1`, subjectID)
	return err
}
