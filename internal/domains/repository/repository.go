package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")
var ErrDuplicate = errors.New("duplicate")

const uniqueViolation = "23505"

// Repository persists domains and team memberships. Bulk deletes report
// affected rows; the deprovisioning workflow treats zero rows as success.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Domain struct {
	ID                 uuid.UUID
	DomainName         string
	ManagerID          uuid.UUID
	SubscriptionStatus string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Membership struct {
	ID        uuid.UUID
	DomainID  uuid.UUID
	UserID    uuid.UUID
	Role      string
	CreatedAt time.Time
}

func (r *Repository) CreateDomain(ctx context.Context, domainName string, managerID uuid.UUID, subscriptionStatus string) (Domain, error) {
	var d Domain
	err := r.pool.QueryRow(ctx, `
		INSERT INTO domains (domain_name, manager_id, subscription_status)
		VALUES ($1, $2, $3)
		RETURNING id, domain_name, manager_id, subscription_status, created_at, updated_at
	`, domainName, managerID, subscriptionStatus).Scan(
		&d.ID, &d.DomainName, &d.ManagerID, &d.SubscriptionStatus, &d.CreatedAt, &d.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return Domain{}, ErrDuplicate
	}
	return d, err
}

func (r *Repository) GetDomain(ctx context.Context, id uuid.UUID) (Domain, error) {
	var d Domain
	err := r.pool.QueryRow(ctx, `
		SELECT id, domain_name, manager_id, subscription_status, created_at, updated_at
		FROM domains WHERE id = $1
	`, id).Scan(&d.ID, &d.DomainName, &d.ManagerID, &d.SubscriptionStatus, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Domain{}, ErrNotFound
	}
	return d, err
}

func (r *Repository) GetDomainByName(ctx context.Context, domainName string) (Domain, error) {
	var d Domain
	err := r.pool.QueryRow(ctx, `
		SELECT id, domain_name, manager_id, subscription_status, created_at, updated_at
		FROM domains WHERE domain_name = $1
	`, domainName).Scan(&d.ID, &d.DomainName, &d.ManagerID, &d.SubscriptionStatus, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Domain{}, ErrNotFound
	}
	return d, err
}

// UpdateDomain applies the updatable fields. Nil means leave unchanged;
// id and timestamps are never updatable.
func (r *Repository) UpdateDomain(ctx context.Context, id uuid.UUID, domainName, subscriptionStatus *string) (Domain, error) {
	var d Domain
	err := r.pool.QueryRow(ctx, `
		UPDATE domains
		SET domain_name = COALESCE($2, domain_name),
			subscription_status = COALESCE($3, subscription_status),
			updated_at = now()
		WHERE id = $1
		RETURNING id, domain_name, manager_id, subscription_status, created_at, updated_at
	`, id, domainName, subscriptionStatus).Scan(
		&d.ID, &d.DomainName, &d.ManagerID, &d.SubscriptionStatus, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Domain{}, ErrNotFound
	}
	if isUniqueViolation(err) {
		return Domain{}, ErrDuplicate
	}
	return d, err
}

// ListDomainsForUser returns every domain the user manages or belongs to,
// deduplicated.
func (r *Repository) ListDomainsForUser(ctx context.Context, userID uuid.UUID) ([]Domain, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT d.id, d.domain_name, d.manager_id, d.subscription_status, d.created_at, d.updated_at
		FROM domains d
		LEFT JOIN teams t ON t.domain_id = d.id
		WHERE d.manager_id = $1 OR t.user_id = $1
		ORDER BY d.domain_name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	domains := make([]Domain, 0)
	for rows.Next() {
		var d Domain
		if err := rows.Scan(&d.ID, &d.DomainName, &d.ManagerID, &d.SubscriptionStatus, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return domains, nil
}

func (r *Repository) ListDomainIDsByManager(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM domains WHERE manager_id = $1
	`, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return ids, nil
}

// DeleteDomains removes the given domains scoped to the manager, so a
// concurrent ownership change between lookup and delete cannot widen the
// delete. Zero affected rows is not an error.
func (r *Repository) DeleteDomains(ctx context.Context, ids []uuid.UUID, managerID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM domains WHERE id = ANY($1) AND manager_id = $2
	`, ids, managerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) CreateMembership(ctx context.Context, domainID, userID uuid.UUID, role string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO teams (domain_id, user_id, role)
		VALUES ($1, $2, $3)
	`, domainID, userID, role)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *Repository) GetMembership(ctx context.Context, domainID, userID uuid.UUID) (Membership, error) {
	var m Membership
	err := r.pool.QueryRow(ctx, `
		SELECT id, domain_id, user_id, role, created_at
		FROM teams WHERE domain_id = $1 AND user_id = $2
	`, domainID, userID).Scan(&m.ID, &m.DomainID, &m.UserID, &m.Role, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Membership{}, ErrNotFound
	}
	return m, err
}

// DeleteMembershipsByDomains removes every membership of the given domains.
// Zero affected rows is not an error.
func (r *Repository) DeleteMembershipsByDomains(ctx context.Context, domainIDs []uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM teams WHERE domain_id = ANY($1)
	`, domainIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteMembershipsByUser removes every membership the user holds, in any
// domain. Zero affected rows is not an error.
func (r *Repository) DeleteMembershipsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM teams WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
