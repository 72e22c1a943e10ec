package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khatapro/khata-backend/internal/domain"
)

// OutletRepository implements domain.OutletRepository using PostgreSQL
type OutletRepository struct {
	pool *pgxpool.Pool
}

// NewOutletRepository creates a new OutletRepository
func NewOutletRepository(pool *pgxpool.Pool) *OutletRepository {
	return &OutletRepository{pool: pool}
}

// GetByID retrieves an outlet by id
func (r *OutletRepository) GetByID(id uuid.UUID) (*domain.Outlet, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT id, name, address, created_at FROM outlets WHERE id = $1`,
		uuidToPg(id))
	outlet, err := scanOutlet(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrOutletNotFound
		}
		return nil, err
	}
	return outlet, nil
}

// GetAll retrieves every outlet ordered by name
func (r *OutletRepository) GetAll() ([]*domain.Outlet, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, address, created_at FROM outlets ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outlets []*domain.Outlet
	for rows.Next() {
		outlet, err := scanOutlet(rows)
		if err != nil {
			return nil, err
		}
		outlets = append(outlets, outlet)
	}
	return outlets, rows.Err()
}

func scanOutlet(row pgx.Row) (*domain.Outlet, error) {
	var (
		id        pgtype.UUID
		name      string
		address   pgtype.Text
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &name, &address, &createdAt); err != nil {
		return nil, err
	}
	return &domain.Outlet{
		ID:        pgToUUID(id),
		Name:      name,
		Address:   pgTextToStringPtr(address),
		CreatedAt: createdAt.Time,
	}, nil
}
