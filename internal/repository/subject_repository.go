package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sparta-academy/sparta-backend/internal/model"
)

// SubjectRepository handles subject data access.
type SubjectRepository struct {
	pool *pgxpool.Pool
}

// NewSubjectRepository creates a new SubjectRepository.
func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

// Create registers a subject under a university.
func (r *SubjectRepository) Create(ctx context.Context, s *model.Subject) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO subjects (university_code, name) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		s.UniversityCode, s.Name).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// ListByUniversity retrieves a university's subjects ordered by name.
func (r *SubjectRepository) ListByUniversity(ctx context.Context, universityCode string) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, university_code, name, created_at, updated_at
		 FROM subjects
		 WHERE university_code = $1
		 ORDER BY name ASC`, universityCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubjects(rows)
}

// GetAll retrieves every subject across universities.
func (r *SubjectRepository) GetAll(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, university_code, name, created_at, updated_at
		 FROM subjects
		 ORDER BY university_code ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubjects(rows)
}

// GetByID retrieves one subject.
func (r *SubjectRepository) GetByID(ctx context.Context, id int) (*model.Subject, error) {
	s := &model.Subject{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, university_code, name, created_at, updated_at
		 FROM subjects WHERE id = $1`, id,
	).Scan(&s.ID, &s.UniversityCode, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Update renames a subject.
func (r *SubjectRepository) Update(ctx context.Context, s *model.Subject) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE subjects SET name = $1, updated_at = NOW() WHERE id = $2`, s.Name, s.ID)
	return err
}

// Delete removes a subject. Its questions go with it (FK cascade).
func (r *SubjectRepository) Delete(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	return err
}

func scanSubjects(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]model.Subject, error) {
	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.UniversityCode, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}
