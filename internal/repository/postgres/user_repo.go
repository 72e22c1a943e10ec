package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khatapro/khata-backend/internal/domain"
)

const userColumns = `id, subject, email, name, role, outlet_id, created_at, updated_at`

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetBySubject retrieves a user by their identity-provider subject claim
func (r *UserRepository) GetBySubject(subject string) (*domain.User, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE subject = $1`,
		subject)
	user, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		uuidToPg(id))
	user, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		id                   pgtype.UUID
		subject, email, role string
		name                 pgtype.Text
		outletID             pgtype.UUID
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&id, &subject, &email, &name, &role, &outletID,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		ID:        pgToUUID(id),
		Subject:   subject,
		Email:     email,
		Name:      pgTextToStringPtr(name),
		Role:      domain.Role(role),
		OutletID:  pgToUUIDPtr(outletID),
		CreatedAt: createdAt.Time,
		UpdatedAt: updatedAt.Time,
	}, nil
}
