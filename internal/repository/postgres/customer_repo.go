package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/khatapro/khata-backend/internal/domain"
)

const customerColumns = `id, outlet_id, phone, name, referred_by, outstanding_balance, created_at, updated_at`

// CustomerRepository implements domain.CustomerRepository and
// domain.CustomerResolver using PostgreSQL
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// GetByID retrieves a customer by id
func (r *CustomerRepository) GetByID(id uuid.UUID) (*domain.Customer, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`,
		uuidToPg(id))
	customer, err := scanCustomer(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// GetByPhone retrieves a customer by phone within an outlet
func (r *CustomerRepository) GetByPhone(outletID uuid.UUID, phone string) (*domain.Customer, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE outlet_id = $1 AND phone = $2`,
		uuidToPg(outletID), phone)
	customer, err := scanCustomer(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// Create inserts a new customer with a zero outstanding balance
func (r *CustomerRepository) Create(customer *domain.Customer) (*domain.Customer, error) {
	ctx := context.Background()

	balance, err := decimalToPgNumeric(customer.OutstandingBalance)
	if err != nil {
		return nil, err
	}
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO customers (id, outlet_id, phone, name, referred_by, outstanding_balance)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+customerColumns,
		uuidToPg(customer.ID), uuidToPg(customer.OutletID), customer.Phone,
		customer.Name, stringPtrToPgText(customer.ReferredBy), balance)
	created, err := scanCustomer(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// ResolveOrCreate looks up a customer by phone, creating one on the fly when
// the phone is unknown. A create losing the unique race falls back to the
// winner's row.
func (r *CustomerRepository) ResolveOrCreate(outletID uuid.UUID, phone, name string) (*domain.Customer, error) {
	customer, err := r.GetByPhone(outletID, phone)
	if err == nil {
		return customer, nil
	}
	if err != domain.ErrCustomerNotFound {
		return nil, err
	}

	created, err := r.Create(&domain.Customer{
		OutletID:           outletID,
		Phone:              phone,
		Name:               name,
		OutstandingBalance: decimal.Zero,
	})
	if err == domain.ErrAlreadyExists {
		return r.GetByPhone(outletID, phone)
	}
	return created, err
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		id, outletID         pgtype.UUID
		phone, name          string
		referredBy           pgtype.Text
		outstanding          pgtype.Numeric
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&id, &outletID, &phone, &name, &referredBy, &outstanding,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	return &domain.Customer{
		ID:                 pgToUUID(id),
		OutletID:           pgToUUID(outletID),
		Phone:              phone,
		Name:               name,
		ReferredBy:         pgTextToStringPtr(referredBy),
		OutstandingBalance: pgNumericToDecimal(outstanding),
		CreatedAt:          createdAt.Time,
		UpdatedAt:          updatedAt.Time,
	}, nil
}
