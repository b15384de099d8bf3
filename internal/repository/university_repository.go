package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sparta-academy/sparta-backend/internal/model"
)

// UniversityRepository handles the university roster.
type UniversityRepository struct {
	pool *pgxpool.Pool
}

// NewUniversityRepository creates a new UniversityRepository.
func NewUniversityRepository(pool *pgxpool.Pool) *UniversityRepository {
	return &UniversityRepository{pool: pool}
}

// GetAll retrieves every university ordered by name.
func (r *UniversityRepository) GetAll(ctx context.Context) ([]model.University, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code, name, logo_path, created_at FROM universities ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var universities []model.University
	for rows.Next() {
		var u model.University
		if err := rows.Scan(&u.Code, &u.Name, &u.LogoPath, &u.CreatedAt); err != nil {
			return nil, err
		}
		universities = append(universities, u)
	}
	return universities, rows.Err()
}

// GetByCode retrieves one university.
func (r *UniversityRepository) GetByCode(ctx context.Context, code string) (*model.University, error) {
	u := &model.University{}
	err := r.pool.QueryRow(ctx,
		`SELECT code, name, logo_path, created_at FROM universities WHERE code = $1`, code,
	).Scan(&u.Code, &u.Name, &u.LogoPath, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
