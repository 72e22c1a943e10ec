package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/util"
)

const businessDayColumns = `id, outlet_id, date, opening_cash, opening_upi,
	closing_cash, closing_upi, total_income, total_expense, status,
	submitted_by, submitted_at, locked_by, locked_at, lock_reason,
	unlocked_by, unlocked_at, unlock_reason, created_at, updated_at`

// BusinessDayRepository implements domain.BusinessDayRepository using PostgreSQL
type BusinessDayRepository struct {
	pool *pgxpool.Pool
}

// NewBusinessDayRepository creates a new BusinessDayRepository
func NewBusinessDayRepository(pool *pgxpool.Pool) *BusinessDayRepository {
	return &BusinessDayRepository{pool: pool}
}

// GetByID retrieves a business day by id
func (r *BusinessDayRepository) GetByID(id uuid.UUID) (*domain.BusinessDay, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+businessDayColumns+` FROM daily_records WHERE id = $1`,
		uuidToPg(id))
	day, err := scanBusinessDay(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDayNotFound
		}
		return nil, err
	}
	return day, nil
}

// GetByOutletDate retrieves the business day for an outlet and calendar date
func (r *BusinessDayRepository) GetByOutletDate(outletID uuid.UUID, date time.Time) (*domain.BusinessDay, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+businessDayColumns+` FROM daily_records WHERE outlet_id = $1 AND date = $2`,
		uuidToPg(outletID), timeToPgDate(util.DateOf(date)))
	day, err := scanBusinessDay(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDayNotFound
		}
		return nil, err
	}
	return day, nil
}

// EnsureDay finds or creates the day row for (outlet, date). Opening balances
// are carried from the previous day's closing balances; the insert races
// safely via ON CONFLICT DO NOTHING, so concurrent first-writers of a day
// converge on the same row.
func (r *BusinessDayRepository) EnsureDay(outletID uuid.UUID, date time.Time) (*domain.BusinessDay, error) {
	ctx := context.Background()
	date = util.DateOf(date)

	if day, err := r.GetByOutletDate(outletID, date); err == nil {
		return day, nil
	} else if err != domain.ErrDayNotFound {
		return nil, err
	}

	// Carry opening balances from the most recent prior day, zero if none.
	var openingCash, openingUPI = "0", "0"
	row := r.pool.QueryRow(ctx,
		`SELECT closing_cash::text, closing_upi::text FROM daily_records
		 WHERE outlet_id = $1 AND date < $2
		 ORDER BY date DESC LIMIT 1`,
		uuidToPg(outletID), timeToPgDate(date))
	if err := row.Scan(&openingCash, &openingUPI); err != nil && err != pgx.ErrNoRows {
		return nil, err
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO daily_records (
			id, outlet_id, date, opening_cash, opening_upi,
			closing_cash, closing_upi, total_income, total_expense, status
		 ) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $4::numeric, $5::numeric, 0, 0, $6)
		 ON CONFLICT (outlet_id, date) DO NOTHING`,
		uuidToPg(uuid.New()), uuidToPg(outletID), timeToPgDate(date),
		openingCash, openingUPI, string(domain.DayStatusDraft))
	if err != nil {
		return nil, err
	}

	// Re-read regardless of who won the insert race.
	return r.GetByOutletDate(outletID, date)
}

// Submit transitions a draft day to submitted. The status check, the
// non-empty check and the write share one transaction holding the day row.
func (r *BusinessDayRepository) Submit(id, submittedBy uuid.UUID) (*domain.BusinessDay, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	day, err := lockDayRow(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if day.Status != domain.DayStatusDraft {
		return nil, domain.ErrInvalidTransition
	}

	var count int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE daily_record_id = $1`,
		uuidToPg(id)).Scan(&count); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.ErrEmptyDay
	}

	row := tx.QueryRow(ctx,
		`UPDATE daily_records
		 SET status = $2, submitted_by = $3, submitted_at = now(), updated_at = now()
		 WHERE id = $1
		 RETURNING `+businessDayColumns,
		uuidToPg(id), string(domain.DayStatusSubmitted), uuidToPg(submittedBy))
	updated, err := scanBusinessDay(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// Lock transitions a submitted day to locked, stamping the locker.
func (r *BusinessDayRepository) Lock(id, lockedBy uuid.UUID, reason *string) (*domain.BusinessDay, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	day, err := lockDayRow(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if day.Status != domain.DayStatusSubmitted {
		return nil, domain.ErrInvalidTransition
	}

	row := tx.QueryRow(ctx,
		`UPDATE daily_records
		 SET status = $2, locked_by = $3, locked_at = now(), lock_reason = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING `+businessDayColumns,
		uuidToPg(id), string(domain.DayStatusLocked), uuidToPg(lockedBy), stringPtrToPgText(reason))
	updated, err := scanBusinessDay(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// Unlock transitions a locked day back to submitted. The lock stamps stay
// untouched so the row still shows who locked it; the escalation is recorded
// in its own columns.
func (r *BusinessDayRepository) Unlock(id, unlockedBy uuid.UUID, reason string) (*domain.BusinessDay, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	day, err := lockDayRow(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if day.Status != domain.DayStatusLocked {
		return nil, domain.ErrInvalidTransition
	}

	row := tx.QueryRow(ctx,
		`UPDATE daily_records
		 SET status = $2, unlocked_by = $3, unlocked_at = now(), unlock_reason = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING `+businessDayColumns,
		uuidToPg(id), string(domain.DayStatusSubmitted), uuidToPg(unlockedBy), stringPtrToPgText(&reason))
	updated, err := scanBusinessDay(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateTotals writes a recomputed rollup back to the day row
func (r *BusinessDayRepository) UpdateTotals(id uuid.UUID, totals domain.DayTotals) (*domain.BusinessDay, error) {
	ctx := context.Background()

	totalIncome, err := decimalToPgNumeric(totals.TotalIncome)
	if err != nil {
		return nil, err
	}
	totalExpense, err := decimalToPgNumeric(totals.TotalExpense)
	if err != nil {
		return nil, err
	}
	closingCash, err := decimalToPgNumeric(totals.ClosingCash)
	if err != nil {
		return nil, err
	}
	closingUPI, err := decimalToPgNumeric(totals.ClosingUPI)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE daily_records
		 SET total_income = $2, total_expense = $3, closing_cash = $4, closing_upi = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+businessDayColumns,
		uuidToPg(id), totalIncome, totalExpense, closingCash, closingUPI)
	day, err := scanBusinessDay(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDayNotFound
		}
		return nil, err
	}
	return day, nil
}

// ListByOutletRange retrieves an outlet's days within [from, to], ascending
func (r *BusinessDayRepository) ListByOutletRange(outletID uuid.UUID, from, to time.Time) ([]*domain.BusinessDay, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx,
		`SELECT `+businessDayColumns+` FROM daily_records
		 WHERE outlet_id = $1 AND date >= $2 AND date <= $3
		 ORDER BY date ASC`,
		uuidToPg(outletID), timeToPgDate(util.DateOf(from)), timeToPgDate(util.DateOf(to)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []*domain.BusinessDay
	for rows.Next() {
		day, err := scanBusinessDay(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// lockDayRow reads a day row under SELECT ... FOR UPDATE inside tx.
func lockDayRow(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.BusinessDay, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+businessDayColumns+` FROM daily_records WHERE id = $1 FOR UPDATE`,
		uuidToPg(id))
	day, err := scanBusinessDay(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrDayNotFound
		}
		return nil, err
	}
	return day, nil
}

// lockDayRowForTransaction locks the owning day row for a transaction id.
func lockDayRowForTransaction(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID) (*domain.BusinessDay, error) {
	row := tx.QueryRow(ctx,
		`SELECT d.id, d.outlet_id, d.date, d.opening_cash, d.opening_upi,
			d.closing_cash, d.closing_upi, d.total_income, d.total_expense, d.status,
			d.submitted_by, d.submitted_at, d.locked_by, d.locked_at, d.lock_reason,
			d.unlocked_by, d.unlocked_at, d.unlock_reason, d.created_at, d.updated_at
		 FROM daily_records d
		 JOIN transactions t ON t.daily_record_id = d.id
		 WHERE t.id = $1
		 FOR UPDATE OF d`,
		uuidToPg(transactionID))
	day, err := scanBusinessDay(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return day, nil
}

func scanBusinessDay(row pgx.Row) (*domain.BusinessDay, error) {
	var (
		id, outletID              pgtype.UUID
		date                      pgtype.Date
		openingCash, openingUPI   pgtype.Numeric
		closingCash, closingUPI   pgtype.Numeric
		totalIncome, totalExpense pgtype.Numeric
		status                    string
		submittedBy, lockedBy     pgtype.UUID
		submittedAt, lockedAt     pgtype.Timestamptz
		lockReason                pgtype.Text
		unlockedBy                pgtype.UUID
		unlockedAt                pgtype.Timestamptz
		unlockReason              pgtype.Text
		createdAt, updatedAt      pgtype.Timestamptz
	)
	err := row.Scan(&id, &outletID, &date, &openingCash, &openingUPI,
		&closingCash, &closingUPI, &totalIncome, &totalExpense, &status,
		&submittedBy, &submittedAt, &lockedBy, &lockedAt, &lockReason,
		&unlockedBy, &unlockedAt, &unlockReason, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	day := &domain.BusinessDay{
		ID:           pgToUUID(id),
		OutletID:     pgToUUID(outletID),
		Date:         pgDateToTime(date),
		OpeningCash:  pgNumericToDecimal(openingCash),
		OpeningUPI:   pgNumericToDecimal(openingUPI),
		ClosingCash:  pgNumericToDecimal(closingCash),
		ClosingUPI:   pgNumericToDecimal(closingUPI),
		TotalIncome:  pgNumericToDecimal(totalIncome),
		TotalExpense: pgNumericToDecimal(totalExpense),
		Status:       domain.DayStatus(status),
		SubmittedBy:  pgToUUIDPtr(submittedBy),
		SubmittedAt:  pgTimestamptzToTimePtr(submittedAt),
		LockedBy:     pgToUUIDPtr(lockedBy),
		LockedAt:     pgTimestamptzToTimePtr(lockedAt),
		LockReason:   pgTextToStringPtr(lockReason),
		UnlockedBy:   pgToUUIDPtr(unlockedBy),
		UnlockedAt:   pgTimestamptzToTimePtr(unlockedAt),
		UnlockReason: pgTextToStringPtr(unlockReason),
		CreatedAt:    createdAt.Time,
		UpdatedAt:    updatedAt.Time,
	}
	return day, nil
}
