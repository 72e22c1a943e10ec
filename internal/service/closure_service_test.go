package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/testutil"
)

func seedLockedMonth(dayRepo *testutil.MockBusinessDayRepository, outletID uuid.UUID, month time.Time, days int) {
	cash := decimal.RequireFromString("1000.00")
	upi := decimal.RequireFromString("500.00")
	for i := 0; i < days; i++ {
		income := decimal.RequireFromString("200.00")
		expense := decimal.RequireFromString("50.00")
		day := &domain.BusinessDay{
			OutletID:     outletID,
			Date:         month.AddDate(0, 0, i),
			OpeningCash:  cash,
			OpeningUPI:   upi,
			ClosingCash:  cash.Add(income).Sub(expense),
			ClosingUPI:   upi,
			TotalIncome:  income,
			TotalExpense: expense,
			Status:       domain.DayStatusLocked,
		}
		dayRepo.AddDay(day)
		cash = day.ClosingCash
	}
}

func TestClose_Success(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	closureRepo := testutil.NewMockMonthlyClosureRepository()
	archive := testutil.NewMockSnapshotArchive()
	svc := NewClosureService(closureRepo, dayRepo, archive)

	outletID := uuid.New()
	month := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	seedLockedMonth(dayRepo, outletID, month, 28)

	result, err := svc.Close(accountantActor(), outletID, month)
	require.NoError(t, err)

	closure := result.Closure
	assert.Equal(t, domain.ClosureStatusClosed, closure.Status)
	assert.Equal(t, 28, closure.DaysCount)
	assert.Equal(t, "1000.00", closure.OpeningCash.StringFixed(2))
	assert.Equal(t, "5200.00", closure.ClosingCash.StringFixed(2))
	assert.Equal(t, "5600.00", closure.TotalIncome.StringFixed(2))
	assert.Equal(t, "1400.00", closure.TotalExpense.StringFixed(2))

	assert.Equal(t, 1, result.Snapshot.Version)
	assert.NotEmpty(t, result.Snapshot.SnapshotHash)
	assert.Len(t, archive.ClosureKeys, 1)
}

func TestClose_OpenDaysRemain(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	svc := NewClosureService(testutil.NewMockMonthlyClosureRepository(), dayRepo, nil)

	outletID := uuid.New()
	month := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	seedLockedMonth(dayRepo, outletID, month, 5)
	dayRepo.AddDay(&domain.BusinessDay{
		OutletID: outletID,
		Date:     month.AddDate(0, 0, 5),
		Status:   domain.DayStatusSubmitted,
	})

	_, err := svc.Close(accountantActor(), outletID, month)
	assert.ErrorIs(t, err, domain.ErrOpenDaysRemain)
}

func TestClose_EmptyMonth(t *testing.T) {
	svc := NewClosureService(testutil.NewMockMonthlyClosureRepository(), testutil.NewMockBusinessDayRepository(), nil)

	_, err := svc.Close(accountantActor(), uuid.New(), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrEmptyMonth)
}

func TestClose_RetriesSnapshotVersionRace(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	closureRepo := testutil.NewMockMonthlyClosureRepository()
	svc := NewClosureService(closureRepo, dayRepo, nil)

	outletID := uuid.New()
	month := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	seedLockedMonth(dayRepo, outletID, month, 3)

	// A concurrent closer wins the first version; the close retries once
	// and succeeds.
	closureRepo.SnapshotConflicts = 1
	result, err := svc.Close(accountantActor(), outletID, month)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Snapshot.Version)
	assert.Equal(t, 0, closureRepo.SnapshotConflicts)
}

func TestClose_SurfacesPersistentSnapshotConflict(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	closureRepo := testutil.NewMockMonthlyClosureRepository()
	svc := NewClosureService(closureRepo, dayRepo, nil)

	outletID := uuid.New()
	month := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	seedLockedMonth(dayRepo, outletID, month, 3)

	// One retry only; a second conflict comes back to the caller.
	closureRepo.SnapshotConflicts = 2
	_, err := svc.Close(accountantActor(), outletID, month)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestClose_StaffDenied(t *testing.T) {
	svc := NewClosureService(testutil.NewMockMonthlyClosureRepository(), testutil.NewMockBusinessDayRepository(), nil)

	outletID := uuid.New()
	_, err := svc.Close(staffActor(outletID), outletID, time.Now())
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestReopenAndReclose_AppendsSnapshotVersion(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	closureRepo := testutil.NewMockMonthlyClosureRepository()
	svc := NewClosureService(closureRepo, dayRepo, nil)

	outletID := uuid.New()
	month := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	seedLockedMonth(dayRepo, outletID, month, 10)
	accountant := accountantActor()

	first, err := svc.Close(accountant, outletID, month)
	require.NoError(t, err)

	// Reopen requires a substantive reason.
	_, err = svc.Reopen(accountant, outletID, month, "oops")
	assert.ErrorIs(t, err, domain.ErrReasonRequired)

	reopened, err := svc.Reopen(accountant, outletID, month, "day 7 cash count was wrong")
	require.NoError(t, err)
	assert.Equal(t, domain.ClosureStatusOpen, reopened.Status)
	assert.Equal(t, "day 7 cash count was wrong", *reopened.ReopenReason)

	// Reopening an already-open month fails.
	_, err = svc.Reopen(accountant, outletID, month, "day 7 cash count was wrong")
	assert.ErrorIs(t, err, domain.ErrMonthNotClosed)

	second, err := svc.Close(accountant, outletID, month)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Snapshot.Version)
	assert.Equal(t, first.Closure.ID, second.Closure.ID)

	snapshots, err := svc.ListSnapshots(accountant, outletID, month)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
}

func TestVerify_DetectsTampering(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	closureRepo := testutil.NewMockMonthlyClosureRepository()
	svc := NewClosureService(closureRepo, dayRepo, nil)

	outletID := uuid.New()
	month := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	seedLockedMonth(dayRepo, outletID, month, 3)
	accountant := accountantActor()

	result, err := svc.Close(accountant, outletID, month)
	require.NoError(t, err)

	verification, err := svc.Verify(accountant, outletID, month)
	require.NoError(t, err)
	assert.True(t, verification.Valid)
	assert.Equal(t, result.Snapshot.SnapshotHash, verification.ComputedHash)

	// Corrupt the stored payload; the hash no longer matches.
	snapshot, err := closureRepo.LatestSnapshot(outletID, month)
	require.NoError(t, err)
	snapshot.Snapshot[0] ^= 0x01

	verification, err = svc.Verify(accountant, outletID, month)
	require.NoError(t, err)
	assert.False(t, verification.Valid)
}

func TestVerify_NoSnapshot(t *testing.T) {
	svc := NewClosureService(testutil.NewMockMonthlyClosureRepository(), testutil.NewMockBusinessDayRepository(), nil)

	_, err := svc.Verify(accountantActor(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}
