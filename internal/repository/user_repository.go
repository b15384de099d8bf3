package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sparta-academy/sparta-backend/internal/model"
)

// UserRepository handles account data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByUsername retrieves a user with their university access list.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT u.id, u.username, u.name, u.city, u.role, u.password_hash, u.created_at,
		        COALESCE(array_agg(uu.university_code ORDER BY uu.university_code)
		                 FILTER (WHERE uu.university_code IS NOT NULL), '{}')
		 FROM users u
		 LEFT JOIN user_universities uu ON uu.user_id = u.id
		 WHERE u.username = $1
		 GROUP BY u.id`, username,
	).Scan(&u.ID, &u.Username, &u.Name, &u.City, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.Universities)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user with their university access list.
func (r *UserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT u.id, u.username, u.name, u.city, u.role, u.password_hash, u.created_at,
		        COALESCE(array_agg(uu.university_code ORDER BY uu.university_code)
		                 FILTER (WHERE uu.university_code IS NOT NULL), '{}')
		 FROM users u
		 LEFT JOIN user_universities uu ON uu.user_id = u.id
		 WHERE u.id = $1
		 GROUP BY u.id`, id,
	).Scan(&u.ID, &u.Username, &u.Name, &u.City, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.Universities)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a user and their university access rows in one transaction.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, name, city, role, password_hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		u.Username, u.Name, u.City, u.Role, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return err
	}

	for _, code := range u.Universities {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_universities (user_id, university_code) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, u.ID, code); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListStudents retrieves aspirant accounts for the admin roster.
func (r *UserRepository) ListStudents(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.username, u.name, u.city, u.role, u.created_at,
		        COALESCE(array_agg(uu.university_code ORDER BY uu.university_code)
		                 FILTER (WHERE uu.university_code IS NOT NULL), '{}')
		 FROM users u
		 LEFT JOIN user_universities uu ON uu.user_id = u.id
		 WHERE u.role = $1
		 GROUP BY u.id
		 ORDER BY u.name ASC`, model.RoleStudent,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.City, &u.Role, &u.CreatedAt, &u.Universities); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
