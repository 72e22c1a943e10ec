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

const monthlyClosureColumns = `id, outlet_id, month_date, status, opening_cash,
	closing_cash, opening_upi, closing_upi, total_income, total_expense,
	days_count, closed_by, closed_at, reopened_by, reopened_at, reopen_reason,
	updated_at`

const closureSnapshotColumns = `id, outlet_id, month_date, version, snapshot,
	snapshot_hash, created_by, created_at`

// MonthlyClosureRepository implements domain.MonthlyClosureRepository using PostgreSQL
type MonthlyClosureRepository struct {
	pool *pgxpool.Pool
}

// NewMonthlyClosureRepository creates a new MonthlyClosureRepository
func NewMonthlyClosureRepository(pool *pgxpool.Pool) *MonthlyClosureRepository {
	return &MonthlyClosureRepository{pool: pool}
}

// GetByOutletMonth retrieves the closure row for an outlet and month
func (r *MonthlyClosureRepository) GetByOutletMonth(outletID uuid.UUID, monthDate time.Time) (*domain.MonthlyClosure, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+monthlyClosureColumns+` FROM monthly_closures
		 WHERE outlet_id = $1 AND month_date = $2`,
		uuidToPg(outletID), timeToPgDate(util.MonthStart(monthDate)))
	closure, err := scanMonthlyClosure(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrClosureNotFound
		}
		return nil, err
	}
	return closure, nil
}

// Upsert writes a closure keyed on (outlet, month), creating the row on first
// close and replacing it on reclose or reopen.
func (r *MonthlyClosureRepository) Upsert(closure *domain.MonthlyClosure) (*domain.MonthlyClosure, error) {
	ctx := context.Background()

	openingCash, err := decimalToPgNumeric(closure.OpeningCash)
	if err != nil {
		return nil, err
	}
	closingCash, err := decimalToPgNumeric(closure.ClosingCash)
	if err != nil {
		return nil, err
	}
	openingUPI, err := decimalToPgNumeric(closure.OpeningUPI)
	if err != nil {
		return nil, err
	}
	closingUPI, err := decimalToPgNumeric(closure.ClosingUPI)
	if err != nil {
		return nil, err
	}
	totalIncome, err := decimalToPgNumeric(closure.TotalIncome)
	if err != nil {
		return nil, err
	}
	totalExpense, err := decimalToPgNumeric(closure.TotalExpense)
	if err != nil {
		return nil, err
	}

	if closure.ID == uuid.Nil {
		closure.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO monthly_closures (
			id, outlet_id, month_date, status, opening_cash, closing_cash,
			opening_upi, closing_upi, total_income, total_expense, days_count,
			closed_by, closed_at, reopened_by, reopened_at, reopen_reason, updated_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())
		 ON CONFLICT (outlet_id, month_date) DO UPDATE SET
			status = EXCLUDED.status,
			opening_cash = EXCLUDED.opening_cash,
			closing_cash = EXCLUDED.closing_cash,
			opening_upi = EXCLUDED.opening_upi,
			closing_upi = EXCLUDED.closing_upi,
			total_income = EXCLUDED.total_income,
			total_expense = EXCLUDED.total_expense,
			days_count = EXCLUDED.days_count,
			closed_by = EXCLUDED.closed_by,
			closed_at = EXCLUDED.closed_at,
			reopened_by = EXCLUDED.reopened_by,
			reopened_at = EXCLUDED.reopened_at,
			reopen_reason = EXCLUDED.reopen_reason,
			updated_at = now()
		 RETURNING `+monthlyClosureColumns,
		uuidToPg(closure.ID), uuidToPg(closure.OutletID),
		timeToPgDate(util.MonthStart(closure.MonthDate)), string(closure.Status),
		openingCash, closingCash, openingUPI, closingUPI,
		totalIncome, totalExpense, closure.DaysCount,
		uuidPtrToPg(closure.ClosedBy), timePtrToPgTimestamptz(closure.ClosedAt),
		uuidPtrToPg(closure.ReopenedBy), timePtrToPgTimestamptz(closure.ReopenedAt),
		stringPtrToPgText(closure.ReopenReason))
	return scanMonthlyClosure(row)
}

// AppendSnapshot inserts the snapshot with version = max(version)+1 for its
// outlet and month. The subselect and the insert run as one statement, so
// concurrent closers cannot claim the same version.
func (r *MonthlyClosureRepository) AppendSnapshot(snapshot *domain.MonthlyClosureSnapshot) (*domain.MonthlyClosureSnapshot, error) {
	ctx := context.Background()

	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	monthDate := timeToPgDate(util.MonthStart(snapshot.MonthDate))

	row := r.pool.QueryRow(ctx,
		`INSERT INTO monthly_closure_snapshots (
			id, outlet_id, month_date, version, snapshot, snapshot_hash, created_by
		 ) VALUES (
			$1, $2, $3,
			(SELECT COALESCE(MAX(version), 0) + 1 FROM monthly_closure_snapshots
			 WHERE outlet_id = $2 AND month_date = $3),
			$4, $5, $6
		 )
		 RETURNING `+closureSnapshotColumns,
		uuidToPg(snapshot.ID), uuidToPg(snapshot.OutletID), monthDate,
		snapshot.Snapshot, snapshot.SnapshotHash, uuidToPg(snapshot.CreatedBy))
	created, err := scanClosureSnapshot(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrConcurrencyConflict
		}
		return nil, err
	}
	return created, nil
}

// ListSnapshots retrieves every snapshot version for an outlet's month,
// oldest first
func (r *MonthlyClosureRepository) ListSnapshots(outletID uuid.UUID, monthDate time.Time) ([]*domain.MonthlyClosureSnapshot, error) {
	ctx := context.Background()

	rows, err := r.pool.Query(ctx,
		`SELECT `+closureSnapshotColumns+` FROM monthly_closure_snapshots
		 WHERE outlet_id = $1 AND month_date = $2
		 ORDER BY version ASC`,
		uuidToPg(outletID), timeToPgDate(util.MonthStart(monthDate)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*domain.MonthlyClosureSnapshot
	for rows.Next() {
		s, err := scanClosureSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// LatestSnapshot retrieves the highest-versioned snapshot for an outlet's month
func (r *MonthlyClosureRepository) LatestSnapshot(outletID uuid.UUID, monthDate time.Time) (*domain.MonthlyClosureSnapshot, error) {
	ctx := context.Background()

	row := r.pool.QueryRow(ctx,
		`SELECT `+closureSnapshotColumns+` FROM monthly_closure_snapshots
		 WHERE outlet_id = $1 AND month_date = $2
		 ORDER BY version DESC LIMIT 1`,
		uuidToPg(outletID), timeToPgDate(util.MonthStart(monthDate)))
	s, err := scanClosureSnapshot(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanMonthlyClosure(row pgx.Row) (*domain.MonthlyClosure, error) {
	var (
		id, outletID              pgtype.UUID
		monthDate                 pgtype.Date
		status                    string
		openingCash, closingCash  pgtype.Numeric
		openingUPI, closingUPI    pgtype.Numeric
		totalIncome, totalExpense pgtype.Numeric
		daysCount                 int
		closedBy, reopenedBy      pgtype.UUID
		closedAt, reopenedAt      pgtype.Timestamptz
		reopenReason              pgtype.Text
		updatedAt                 pgtype.Timestamptz
	)
	err := row.Scan(&id, &outletID, &monthDate, &status, &openingCash,
		&closingCash, &openingUPI, &closingUPI, &totalIncome, &totalExpense,
		&daysCount, &closedBy, &closedAt, &reopenedBy, &reopenedAt,
		&reopenReason, &updatedAt)
	if err != nil {
		return nil, err
	}

	return &domain.MonthlyClosure{
		ID:           pgToUUID(id),
		OutletID:     pgToUUID(outletID),
		MonthDate:    pgDateToTime(monthDate),
		Status:       domain.ClosureStatus(status),
		OpeningCash:  pgNumericToDecimal(openingCash),
		ClosingCash:  pgNumericToDecimal(closingCash),
		OpeningUPI:   pgNumericToDecimal(openingUPI),
		ClosingUPI:   pgNumericToDecimal(closingUPI),
		TotalIncome:  pgNumericToDecimal(totalIncome),
		TotalExpense: pgNumericToDecimal(totalExpense),
		DaysCount:    daysCount,
		ClosedBy:     pgToUUIDPtr(closedBy),
		ClosedAt:     pgTimestamptzToTimePtr(closedAt),
		ReopenedBy:   pgToUUIDPtr(reopenedBy),
		ReopenedAt:   pgTimestamptzToTimePtr(reopenedAt),
		ReopenReason: pgTextToStringPtr(reopenReason),
		UpdatedAt:    updatedAt.Time,
	}, nil
}

func scanClosureSnapshot(row pgx.Row) (*domain.MonthlyClosureSnapshot, error) {
	var (
		id, outletID pgtype.UUID
		monthDate    pgtype.Date
		version      int
		snapshot     []byte
		snapshotHash string
		createdBy    pgtype.UUID
		createdAt    pgtype.Timestamptz
	)
	err := row.Scan(&id, &outletID, &monthDate, &version, &snapshot,
		&snapshotHash, &createdBy, &createdAt)
	if err != nil {
		return nil, err
	}

	return &domain.MonthlyClosureSnapshot{
		ID:           pgToUUID(id),
		OutletID:     pgToUUID(outletID),
		MonthDate:    pgDateToTime(monthDate),
		Version:      version,
		Snapshot:     snapshot,
		SnapshotHash: snapshotHash,
		CreatedBy:    pgToUUID(createdBy),
		CreatedAt:    createdAt.Time,
	}, nil
}
