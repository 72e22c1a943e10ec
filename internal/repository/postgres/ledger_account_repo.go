package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khatapro/khata-backend/internal/domain"
)

const ledgerAccountColumns = `id, code, name, type, parent_id, is_leaf, status, is_system, created_at, updated_at`

// LedgerAccountRepository implements domain.LedgerAccountRepository using PostgreSQL
type LedgerAccountRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerAccountRepository creates a new LedgerAccountRepository
func NewLedgerAccountRepository(pool *pgxpool.Pool) *LedgerAccountRepository {
	return &LedgerAccountRepository{pool: pool}
}

// GetByID retrieves a ledger account by id
func (r *LedgerAccountRepository) GetByID(id uuid.UUID) (*domain.LedgerAccount, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+ledgerAccountColumns+` FROM ledger_accounts WHERE id = $1`,
		uuidToPg(id))
	account, err := scanLedgerAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUnknownAccount
		}
		return nil, err
	}
	return account, nil
}

// GetByCode retrieves a ledger account by its code
func (r *LedgerAccountRepository) GetByCode(code string) (*domain.LedgerAccount, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+ledgerAccountColumns+` FROM ledger_accounts WHERE code = $1`,
		code)
	account, err := scanLedgerAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUnknownAccount
		}
		return nil, err
	}
	return account, nil
}

// GetAll retrieves the full chart of accounts ordered by code
func (r *LedgerAccountRepository) GetAll() ([]*domain.LedgerAccount, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx,
		`SELECT `+ledgerAccountColumns+` FROM ledger_accounts ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.LedgerAccount
	for rows.Next() {
		account, err := scanLedgerAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// Create inserts a new ledger account
func (r *LedgerAccountRepository) Create(account *domain.LedgerAccount) (*domain.LedgerAccount, error) {
	ctx := context.Background()

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO ledger_accounts (id, code, name, type, parent_id, is_leaf, status, is_system)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+ledgerAccountColumns,
		uuidToPg(account.ID), account.Code, account.Name, string(account.Type),
		uuidPtrToPg(account.ParentID), account.IsLeaf, string(account.Status), account.IsSystem)
	created, err := scanLedgerAccount(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// Update rewrites an account's mutable fields (code, name, type, parent)
func (r *LedgerAccountRepository) Update(account *domain.LedgerAccount) (*domain.LedgerAccount, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`UPDATE ledger_accounts
		 SET code = $2, name = $3, type = $4, parent_id = $5, is_leaf = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING `+ledgerAccountColumns,
		uuidToPg(account.ID), account.Code, account.Name, string(account.Type),
		uuidPtrToPg(account.ParentID), account.IsLeaf)
	updated, err := scanLedgerAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUnknownAccount
		}
		return nil, err
	}
	return updated, nil
}

// SetStatus flips an account between active and disabled
func (r *LedgerAccountRepository) SetStatus(id uuid.UUID, status domain.AccountStatus) (*domain.LedgerAccount, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`UPDATE ledger_accounts SET status = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+ledgerAccountColumns,
		uuidToPg(id), string(status))
	updated, err := scanLedgerAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUnknownAccount
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes an account. Referential integrity against transactions is
// the service's responsibility; the FK would reject it regardless.
func (r *LedgerAccountRepository) Delete(id uuid.UUID) error {
	ctx := context.Background()

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM ledger_accounts WHERE id = $1`, uuidToPg(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUnknownAccount
	}
	return nil
}

// HasTransactions reports whether any transaction references the account
func (r *LedgerAccountRepository) HasTransactions(id uuid.UUID) (bool, error) {
	ctx := context.Background()

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE ledger_account_id = $1)`,
		uuidToPg(id)).Scan(&exists)
	return exists, err
}

func scanLedgerAccount(row pgx.Row) (*domain.LedgerAccount, error) {
	var (
		id                   pgtype.UUID
		code, name, accType  string
		parentID             pgtype.UUID
		isLeaf, isSystem     bool
		status               string
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&id, &code, &name, &accType, &parentID, &isLeaf, &status,
		&isSystem, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	return &domain.LedgerAccount{
		ID:        pgToUUID(id),
		Code:      code,
		Name:      name,
		Type:      domain.AccountType(accType),
		ParentID:  pgToUUIDPtr(parentID),
		IsLeaf:    isLeaf,
		Status:    domain.AccountStatus(status),
		IsSystem:  isSystem,
		CreatedAt: createdAt.Time,
		UpdatedAt: updatedAt.Time,
	}, nil
}
