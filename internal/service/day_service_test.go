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

func staffActor(outletID uuid.UUID) *domain.User {
	return &domain.User{ID: uuid.New(), Role: domain.RoleOutletStaff, OutletID: &outletID}
}

func accountantActor() *domain.User {
	return &domain.User{ID: uuid.New(), Role: domain.RoleHOAccountant}
}

func auditorActor() *domain.User {
	return &domain.User{ID: uuid.New(), Role: domain.RoleAuditor}
}

func seedTransaction(dayRepo *testutil.MockBusinessDayRepository, day *domain.BusinessDay, amount string) {
	txnRepo := testutil.NewMockTransactionRepository(dayRepo)
	_, err := txnRepo.CreateInDay(&domain.Transaction{
		DailyRecordID:   day.ID,
		OutletID:        day.OutletID,
		Type:            domain.TransactionTypeIncome,
		Category:        domain.CategorySales,
		LedgerAccountID: uuid.New(),
		Amount:          decimal.RequireFromString(amount),
		Allocations: []domain.Allocation{
			{Mode: domain.TenderCash, Amount: decimal.RequireFromString(amount), AutoCalculated: true},
		},
		CreatedBy: uuid.New(),
	}, decimal.Zero)
	if err != nil {
		panic(err)
	}
}

func TestEnsureDay_CarriesOpeningBalances(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	txnRepo := testutil.NewMockTransactionRepository(dayRepo)
	svc := NewDayService(dayRepo, txnRepo, nil)

	outletID := uuid.New()
	actor := staffActor(outletID)

	yesterday := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)
	dayRepo.AddDay(&domain.BusinessDay{
		OutletID:    outletID,
		Date:        yesterday,
		ClosingCash: decimal.RequireFromString("1200.00"),
		ClosingUPI:  decimal.RequireFromString("700.00"),
		Status:      domain.DayStatusLocked,
	})

	day, err := svc.EnsureDay(actor, outletID, yesterday.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, "1200.00", day.OpeningCash.StringFixed(2))
	assert.Equal(t, "700.00", day.OpeningUPI.StringFixed(2))
	assert.Equal(t, domain.DayStatusDraft, day.Status)

	// Calling again returns the same row.
	again, err := svc.EnsureDay(actor, outletID, yesterday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, day.ID, again.ID)
}

func TestEnsureDay_FirstDayStartsAtZero(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	svc := NewDayService(dayRepo, testutil.NewMockTransactionRepository(dayRepo), nil)

	outletID := uuid.New()
	day, err := svc.EnsureDay(staffActor(outletID), outletID, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, day.OpeningCash.IsZero())
	assert.True(t, day.OpeningUPI.IsZero())
}

func TestEnsureDay_AuditorDenied(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	svc := NewDayService(dayRepo, testutil.NewMockTransactionRepository(dayRepo), nil)

	_, err := svc.EnsureDay(auditorActor(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestEnsureDay_WrongOutletDenied(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	svc := NewDayService(dayRepo, testutil.NewMockTransactionRepository(dayRepo), nil)

	actor := staffActor(uuid.New())
	_, err := svc.EnsureDay(actor, uuid.New(), time.Now())
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestSubmit_EmptyDayRejected(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	svc := NewDayService(dayRepo, testutil.NewMockTransactionRepository(dayRepo), nil)

	outletID := uuid.New()
	day := &domain.BusinessDay{OutletID: outletID, Date: time.Now(), Status: domain.DayStatusDraft}
	dayRepo.AddDay(day)

	_, err := svc.Submit(staffActor(outletID), day.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyDay)
}

func TestSubmitLockUnlockLifecycle(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	txnRepo := testutil.NewMockTransactionRepository(dayRepo)
	archive := testutil.NewMockSnapshotArchive()
	svc := NewDayService(dayRepo, txnRepo, archive)

	outletID := uuid.New()
	staff := staffActor(outletID)
	accountant := accountantActor()

	day := &domain.BusinessDay{OutletID: outletID, Date: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), Status: domain.DayStatusDraft}
	dayRepo.AddDay(day)
	seedTransaction(dayRepo, day, "100.00")

	// Staff cannot lock; accountant cannot be beaten to the submit by a lock.
	_, err := svc.Lock(staff, day.ID, nil)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, err = svc.Lock(accountant, day.ID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	submitted, err := svc.Submit(staff, day.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DayStatusSubmitted, submitted.Status)
	assert.Equal(t, staff.ID, *submitted.SubmittedBy)

	// Double submit is an illegal transition.
	_, err = svc.Submit(staff, day.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	locked, err := svc.Lock(accountant, day.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DayStatusLocked, locked.Status)
	assert.Equal(t, accountant.ID, *locked.LockedBy)
	assert.Len(t, archive.DayKeys, 1)

	// Unlock needs a substantive reason.
	_, err = svc.Unlock(accountant, day.ID, "typo")
	assert.ErrorIs(t, err, domain.ErrReasonRequired)
	_, err = svc.Unlock(staff, day.ID, "wrong closing cash, recount done")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	reopened, err := svc.Unlock(accountant, day.ID, "wrong closing cash, recount done")
	require.NoError(t, err)
	assert.Equal(t, domain.DayStatusSubmitted, reopened.Status)
}

func TestLockUnlock_WrongOutletDenied(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	svc := NewDayService(dayRepo, testutil.NewMockTransactionRepository(dayRepo), nil)

	day := &domain.BusinessDay{OutletID: uuid.New(), Date: time.Now(), Status: domain.DayStatusSubmitted}
	dayRepo.AddDay(day)

	// An accountant pinned to a different outlet cannot reach this day.
	otherOutlet := uuid.New()
	branchAccountant := &domain.User{ID: uuid.New(), Role: domain.RoleHOAccountant, OutletID: &otherOutlet}

	_, err := svc.Lock(branchAccountant, day.ID, nil)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	day.Status = domain.DayStatusLocked
	_, err = svc.Unlock(branchAccountant, day.ID, "wrong closing cash, recount done")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestUnlock_KeepsLockStamps(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	svc := NewDayService(dayRepo, testutil.NewMockTransactionRepository(dayRepo), nil)

	outletID := uuid.New()
	day := &domain.BusinessDay{OutletID: outletID, Date: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), Status: domain.DayStatusSubmitted}
	dayRepo.AddDay(day)

	locker := accountantActor()
	unlocker := accountantActor()

	_, err := svc.Lock(locker, day.ID, nil)
	require.NoError(t, err)

	reopened, err := svc.Unlock(unlocker, day.ID, "day 14 UPI total was off by 40")
	require.NoError(t, err)

	// The unlock is recorded in its own stamps; who locked stays visible.
	assert.Equal(t, locker.ID, *reopened.LockedBy)
	assert.NotNil(t, reopened.LockedAt)
	assert.Equal(t, unlocker.ID, *reopened.UnlockedBy)
	assert.NotNil(t, reopened.UnlockedAt)
	assert.Equal(t, "day 14 UPI total was off by 40", *reopened.UnlockReason)
}

func TestLock_ArchiveFailureDoesNotFailLock(t *testing.T) {
	dayRepo := testutil.NewMockBusinessDayRepository()
	txnRepo := testutil.NewMockTransactionRepository(dayRepo)
	archive := testutil.NewMockSnapshotArchive()
	archive.Err = assert.AnError
	svc := NewDayService(dayRepo, txnRepo, archive)

	outletID := uuid.New()
	day := &domain.BusinessDay{OutletID: outletID, Date: time.Now(), Status: domain.DayStatusSubmitted}
	dayRepo.AddDay(day)

	locked, err := svc.Lock(accountantActor(), day.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DayStatusLocked, locked.Status)
}
