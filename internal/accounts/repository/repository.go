package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"konduktv_backend/internal/accounts/domain"
)

const uniqueViolation = "23505"

// Repository persists profiles in the users table. Deletes report affected
// rows so the deprovisioning workflow can treat zero-row deletes as success.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateProfile(ctx context.Context, id uuid.UUID, email string, role domain.Role) (domain.Profile, error) {
	var p domain.Profile
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, role)
		VALUES ($1, $2, $3)
		RETURNING id, email, role, created_at, updated_at
	`, id, email, role).Scan(&p.ID, &p.Email, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.Profile{}, domain.ErrDuplicate
	}
	return p, err
}

func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (domain.Profile, error) {
	var p domain.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, role, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&p.ID, &p.Email, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, err
}

func (r *Repository) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) (domain.Profile, error) {
	var p domain.Profile
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET role = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, email, role, created_at, updated_at
	`, id, role).Scan(&p.ID, &p.Email, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, err
}

func (r *Repository) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, role, created_at, updated_at
		FROM users
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]domain.Profile, 0)
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return profiles, nil
}

// DeleteProfile returns the number of deleted rows; zero is not an error.
func (r *Repository) DeleteProfile(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
