package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/khatapro/khata-backend/internal/domain"
)

const transactionColumns = `id, daily_record_id, outlet_id, type, category,
	ledger_account_id, amount, allocations, payment_modes, entry_number,
	description, customer_id, supplier_name, source_type, is_reversal,
	parent_transaction_id, idempotency_key, created_by, created_at`

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// CreateInDay inserts the transaction, applies customerDelta to its
// customer's outstanding balance and recomputes the day's rollup as one
// atomic unit. The day row is held FOR UPDATE for the duration: a locked day
// rejects the insert, and a retried idempotency key returns the row the first
// attempt created, without inserting a duplicate or moving the balance twice.
func (r *TransactionRepository) CreateInDay(t *domain.Transaction, customerDelta decimal.Decimal) (*domain.Transaction, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	day, err := lockDayRow(ctx, tx, t.DailyRecordID)
	if err != nil {
		return nil, err
	}
	if !day.Mutable() {
		return nil, domain.ErrDayLocked
	}

	if t.IdempotencyKey != nil {
		existing, err := getTransactionByIdempotencyKey(ctx, tx, *t.IdempotencyKey)
		if err != nil && err != domain.ErrTransactionNotFound {
			return nil, err
		}
		if existing != nil {
			// Retried request; nothing to insert, nothing to recompute.
			return existing, nil
		}
	}

	amount, err := decimalToPgNumeric(t.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	allocations, err := json.Marshal(t.Allocations)
	if err != nil {
		return nil, err
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO transactions (
			id, daily_record_id, outlet_id, type, category,
			ledger_account_id, amount, allocations, payment_modes, entry_number,
			description, customer_id, supplier_name, source_type, is_reversal,
			parent_transaction_id, idempotency_key, created_by
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 RETURNING `+transactionColumns,
		uuidToPg(t.ID), uuidToPg(t.DailyRecordID), uuidToPg(t.OutletID),
		string(t.Type), string(t.Category), uuidToPg(t.LedgerAccountID),
		amount, allocations, t.PaymentModes, t.EntryNumber,
		stringPtrToPgText(t.Description), uuidPtrToPg(t.CustomerID),
		stringPtrToPgText(t.SupplierName), string(t.SourceType), t.IsReversal,
		uuidPtrToPg(t.ParentTransactionID), stringPtrToPgText(t.IdempotencyKey),
		uuidToPg(t.CreatedBy))
	created, err := scanTransaction(row)
	if err != nil {
		if isPgUniqueViolation(err) && t.IdempotencyKey != nil {
			return getTransactionByIdempotencyKey(ctx, tx, *t.IdempotencyKey)
		}
		return nil, err
	}

	if created.CustomerID != nil && !customerDelta.IsZero() {
		if err := adjustOutstandingInTx(ctx, tx, *created.CustomerID, customerDelta); err != nil {
			return nil, err
		}
	}

	if err := recomputeDayInTx(ctx, tx, day); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a transaction by id
func (r *TransactionRepository) GetByID(id uuid.UUID) (*domain.Transaction, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`,
		uuidToPg(id))
	t, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListByDay retrieves a day's transactions in creation order
func (r *TransactionRepository) ListByDay(dailyRecordID uuid.UUID) ([]*domain.Transaction, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE daily_record_id = $1
		 ORDER BY created_at ASC, id ASC`,
		uuidToPg(dailyRecordID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// CountByDay counts a day's transactions
func (r *TransactionRepository) CountByDay(dailyRecordID uuid.UUID) (int64, error) {
	ctx := context.Background()

	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE daily_record_id = $1`,
		uuidToPg(dailyRecordID)).Scan(&count)
	return count, err
}

// DeleteDraft removes a transaction, applies customerDelta to its customer's
// outstanding balance and recomputes the rollup, but only while the owning
// day is still draft.
func (r *TransactionRepository) DeleteDraft(id uuid.UUID, customerDelta decimal.Decimal) error {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	day, err := lockDayRowForTransaction(ctx, tx, id)
	if err != nil {
		return err
	}
	if day.Status != domain.DayStatusDraft {
		return domain.ErrDayLocked
	}

	var customerID pgtype.UUID
	if err := tx.QueryRow(ctx,
		`DELETE FROM transactions WHERE id = $1 RETURNING customer_id`,
		uuidToPg(id)).Scan(&customerID); err != nil {
		return err
	}

	if cid := pgToUUIDPtr(customerID); cid != nil && !customerDelta.IsZero() {
		if err := adjustOutstandingInTx(ctx, tx, *cid, customerDelta); err != nil {
			return err
		}
	}

	if err := recomputeDayInTx(ctx, tx, day); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RecomputeDay re-derives the day's totals from its transaction set and
// writes them back. Safe to call any number of times.
func (r *TransactionRepository) RecomputeDay(dailyRecordID uuid.UUID) (*domain.BusinessDay, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	day, err := lockDayRow(ctx, tx, dailyRecordID)
	if err != nil {
		return nil, err
	}
	if err := recomputeDayInTx(ctx, tx, day); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx,
		`SELECT `+businessDayColumns+` FROM daily_records WHERE id = $1`,
		uuidToPg(dailyRecordID))
	updated, err := scanBusinessDay(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// recomputeDayInTx reloads the day's transactions inside tx, derives the
// rollup and writes it back to the locked day row.
func recomputeDayInTx(ctx context.Context, tx pgx.Tx, day *domain.BusinessDay) error {
	rows, err := tx.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE daily_record_id = $1
		 ORDER BY created_at ASC, id ASC`,
		uuidToPg(day.ID))
	if err != nil {
		return err
	}
	transactions, err := collectTransactions(rows)
	rows.Close()
	if err != nil {
		return err
	}

	totals := domain.ComputeDayTotals(day, transactions)
	totalIncome, err := decimalToPgNumeric(totals.TotalIncome)
	if err != nil {
		return err
	}
	totalExpense, err := decimalToPgNumeric(totals.TotalExpense)
	if err != nil {
		return err
	}
	closingCash, err := decimalToPgNumeric(totals.ClosingCash)
	if err != nil {
		return err
	}
	closingUPI, err := decimalToPgNumeric(totals.ClosingUPI)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE daily_records
		 SET total_income = $2, total_expense = $3, closing_cash = $4, closing_upi = $5, updated_at = now()
		 WHERE id = $1`,
		uuidToPg(day.ID), totalIncome, totalExpense, closingCash, closingUPI)
	return err
}

// adjustOutstandingInTx moves a customer's outstanding balance inside the
// caller's transaction, so the ledger write and the receivable move commit or
// roll back together.
func adjustOutstandingInTx(ctx context.Context, tx pgx.Tx, customerID uuid.UUID, delta decimal.Decimal) error {
	num, err := decimalToPgNumeric(delta)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx,
		`UPDATE customers SET outstanding_balance = outstanding_balance + $2, updated_at = now()
		 WHERE id = $1`,
		uuidToPg(customerID), num)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func getTransactionByIdempotencyKey(ctx context.Context, tx pgx.Tx, key string) (*domain.Transaction, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE idempotency_key = $1`,
		key)
	t, err := scanTransaction(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var transactions []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		id, dailyRecordID, outletID pgtype.UUID
		txType, category            string
		ledgerAccountID             pgtype.UUID
		amount                      pgtype.Numeric
		allocations                 []byte
		paymentModes, entryNumber   string
		description                 pgtype.Text
		customerID                  pgtype.UUID
		supplierName                pgtype.Text
		sourceType                  string
		isReversal                  bool
		parentTransactionID         pgtype.UUID
		idempotencyKey              pgtype.Text
		createdBy                   pgtype.UUID
		createdAt                   pgtype.Timestamptz
	)
	err := row.Scan(&id, &dailyRecordID, &outletID, &txType, &category,
		&ledgerAccountID, &amount, &allocations, &paymentModes, &entryNumber,
		&description, &customerID, &supplierName, &sourceType, &isReversal,
		&parentTransactionID, &idempotencyKey, &createdBy, &createdAt)
	if err != nil {
		return nil, err
	}

	t := &domain.Transaction{
		ID:                  pgToUUID(id),
		DailyRecordID:       pgToUUID(dailyRecordID),
		OutletID:            pgToUUID(outletID),
		Type:                domain.TransactionType(txType),
		Category:            domain.Category(category),
		LedgerAccountID:     pgToUUID(ledgerAccountID),
		Amount:              pgNumericToDecimal(amount),
		PaymentModes:        paymentModes,
		EntryNumber:         entryNumber,
		Description:         pgTextToStringPtr(description),
		CustomerID:          pgToUUIDPtr(customerID),
		SupplierName:        pgTextToStringPtr(supplierName),
		SourceType:          domain.SourceType(sourceType),
		IsReversal:          isReversal,
		ParentTransactionID: pgToUUIDPtr(parentTransactionID),
		IdempotencyKey:      pgTextToStringPtr(idempotencyKey),
		CreatedBy:           pgToUUID(createdBy),
		CreatedAt:           createdAt.Time,
	}
	if len(allocations) > 0 {
		if err := json.Unmarshal(allocations, &t.Allocations); err != nil {
			return nil, err
		}
	}
	return t, nil
}
