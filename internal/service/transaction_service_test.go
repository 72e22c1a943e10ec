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

type ledgerFixture struct {
	dayRepo     *testutil.MockBusinessDayRepository
	txnRepo     *testutil.MockTransactionRepository
	accountRepo *testutil.MockLedgerAccountRepository
	custRepo    *testutil.MockCustomerRepository
	svc         *TransactionService
	outletID    uuid.UUID
	actor       *domain.User
	account     *domain.LedgerAccount
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	dayRepo := testutil.NewMockBusinessDayRepository()
	txnRepo := testutil.NewMockTransactionRepository(dayRepo)
	accountRepo := testutil.NewMockLedgerAccountRepository()
	custRepo := testutil.NewMockCustomerRepository()
	txnRepo.Customers = custRepo

	outletID := uuid.New()
	account := &domain.LedgerAccount{
		Code:   "4100",
		Name:   "Counter Sales",
		Type:   domain.AccountTypeIncome,
		IsLeaf: true,
		Status: domain.AccountStatusActive,
	}
	accountRepo.AddAccount(account)

	return &ledgerFixture{
		dayRepo:     dayRepo,
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		custRepo:    custRepo,
		svc:         NewTransactionService(txnRepo, dayRepo, accountRepo, custRepo),
		outletID:    outletID,
		actor:       staffActor(outletID),
		account:     account,
	}
}

func (f *ledgerFixture) salesInput(amount string) RecordTransactionInput {
	amt := decimal.RequireFromString(amount)
	return RecordTransactionInput{
		OutletID:        f.outletID,
		Type:            domain.TransactionTypeIncome,
		Category:        domain.CategorySales,
		LedgerAccountID: f.account.ID,
		Amount:          amt,
		Allocations: []domain.Allocation{
			{Mode: domain.TenderCash, Amount: amt, AutoCalculated: true},
		},
	}
}

func TestRecord_Success(t *testing.T) {
	f := newLedgerFixture(t)

	txn, err := f.svc.Record(f.actor, f.salesInput("250.00"))
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionTypeIncome, txn.Type)
	assert.Equal(t, "CASH", txn.PaymentModes)
	assert.Equal(t, f.actor.ID, txn.CreatedBy)
	assert.Equal(t, domain.SourceManual, txn.SourceType)

	// The day was materialized and its rollup recomputed.
	day, err := f.dayRepo.GetByID(txn.DailyRecordID)
	require.NoError(t, err)
	assert.Equal(t, "250.00", day.TotalIncome.StringFixed(2))
	assert.Equal(t, "250.00", day.ClosingCash.StringFixed(2))
}

func TestRecord_Validation(t *testing.T) {
	f := newLedgerFixture(t)

	tests := []struct {
		name    string
		mutate  func(*RecordTransactionInput)
		wantErr error
	}{
		{"zero amount", func(in *RecordTransactionInput) {
			in.Amount = decimal.Zero
		}, domain.ErrInvalidAmount},
		{"negative amount", func(in *RecordTransactionInput) {
			in.Amount = decimal.RequireFromString("-5")
		}, domain.ErrInvalidAmount},
		{"bad type", func(in *RecordTransactionInput) {
			in.Type = "transfer"
		}, domain.ErrInvalidTransactionType},
		{"bad category", func(in *RecordTransactionInput) {
			in.Category = "payroll"
		}, domain.ErrInvalidCategory},
		{"no modes", func(in *RecordTransactionInput) {
			in.Allocations = nil
		}, domain.ErrNoPaymentModes},
		{"split mismatch", func(in *RecordTransactionInput) {
			in.Allocations = []domain.Allocation{
				{Mode: domain.TenderCash, Amount: decimal.RequireFromString("100.00")},
			}
		}, domain.ErrSplitMismatch},
		{"duplicate mode", func(in *RecordTransactionInput) {
			half := in.Amount.Div(decimal.NewFromInt(2))
			in.Allocations = []domain.Allocation{
				{Mode: domain.TenderCash, Amount: half},
				{Mode: domain.TenderCash, Amount: half},
			}
		}, domain.ErrNoPaymentModes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := f.salesInput("250.00")
			tt.mutate(&input)
			_, err := f.svc.Record(f.actor, input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRecord_SplitWithinTolerance(t *testing.T) {
	f := newLedgerFixture(t)

	input := f.salesInput("100.00")
	input.Allocations = []domain.Allocation{
		{Mode: domain.TenderCash, Amount: decimal.RequireFromString("33.33")},
		{Mode: domain.TenderUPI, Amount: decimal.RequireFromString("33.33")},
		{Mode: domain.TenderCard, Amount: decimal.RequireFromString("33.33")},
	}

	// 99.99 vs 100.00 is inside the 0.01 tolerance.
	_, err := f.svc.Record(f.actor, input)
	assert.NoError(t, err)
}

func TestRecord_NotPostableAccount(t *testing.T) {
	f := newLedgerFixture(t)

	parent := &domain.LedgerAccount{
		Code:   "4000",
		Name:   "Revenue",
		Type:   domain.AccountTypeIncome,
		IsLeaf: false,
		Status: domain.AccountStatusActive,
	}
	f.accountRepo.AddAccount(parent)

	input := f.salesInput("100.00")
	input.LedgerAccountID = parent.ID
	_, err := f.svc.Record(f.actor, input)
	assert.ErrorIs(t, err, domain.ErrAccountNotPostable)

	disabled := &domain.LedgerAccount{
		Code:   "4200",
		Name:   "Old Sales",
		Type:   domain.AccountTypeIncome,
		IsLeaf: true,
		Status: domain.AccountStatusDisabled,
	}
	f.accountRepo.AddAccount(disabled)

	input.LedgerAccountID = disabled.ID
	_, err = f.svc.Record(f.actor, input)
	assert.ErrorIs(t, err, domain.ErrAccountNotPostable)
}

func TestRecord_LockedDayRejected(t *testing.T) {
	f := newLedgerFixture(t)

	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	day, err := f.dayRepo.EnsureDay(f.outletID, date)
	require.NoError(t, err)
	day.Status = domain.DayStatusLocked

	input := f.salesInput("100.00")
	input.Date = &date
	_, err = f.svc.Record(f.actor, input)
	assert.ErrorIs(t, err, domain.ErrDayLocked)
}

func TestRecord_IdempotencyKeyDedupes(t *testing.T) {
	f := newLedgerFixture(t)

	key := "client-key-7f3a"
	phone := "9876543210"
	input := f.salesInput("500.00")
	input.IdempotencyKey = &key
	input.CustomerPhone = &phone
	input.Allocations = []domain.Allocation{
		{Mode: domain.TenderCredit, Amount: decimal.RequireFromString("500.00")},
	}

	first, err := f.svc.Record(f.actor, input)
	require.NoError(t, err)

	second, err := f.svc.Record(f.actor, input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := f.txnRepo.CountByDay(first.DailyRecordID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// The retry must not double-apply the credit side effect.
	customer, err := f.custRepo.GetByPhone(f.outletID, phone)
	require.NoError(t, err)
	assert.Equal(t, "500.00", customer.OutstandingBalance.StringFixed(2))
}

func TestRecord_FailedWriteLeavesNoPartialState(t *testing.T) {
	f := newLedgerFixture(t)

	key := "client-key-2b91"
	phone := "9000000009"
	input := f.salesInput("320.00")
	input.IdempotencyKey = &key
	input.CustomerPhone = &phone
	input.Allocations = []domain.Allocation{
		{Mode: domain.TenderCredit, Amount: decimal.RequireFromString("320.00")},
	}

	// The write aborts: no entry and no receivable movement may survive.
	f.txnRepo.CreateErr = assert.AnError
	_, err := f.svc.Record(f.actor, input)
	require.Error(t, err)

	customer, err := f.custRepo.GetByPhone(f.outletID, phone)
	require.NoError(t, err)
	assert.True(t, customer.OutstandingBalance.IsZero())

	// Retrying the same key applies entry and balance together, once.
	txn, err := f.svc.Record(f.actor, input)
	require.NoError(t, err)

	count, err := f.txnRepo.CountByDay(txn.DailyRecordID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	customer, err = f.custRepo.GetByPhone(f.outletID, phone)
	require.NoError(t, err)
	assert.Equal(t, "320.00", customer.OutstandingBalance.StringFixed(2))
}

func TestRecord_CreditRaisesOutstanding(t *testing.T) {
	f := newLedgerFixture(t)

	phone := "9000000001"
	name := "Ravi"
	input := f.salesInput("300.00")
	input.CustomerPhone = &phone
	input.CustomerName = &name
	input.Allocations = []domain.Allocation{
		{Mode: domain.TenderCash, Amount: decimal.RequireFromString("100.00")},
		{Mode: domain.TenderCredit, Amount: decimal.RequireFromString("200.00")},
	}

	_, err := f.svc.Record(f.actor, input)
	require.NoError(t, err)

	customer, err := f.custRepo.GetByPhone(f.outletID, phone)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", customer.Name)
	assert.Equal(t, "200.00", customer.OutstandingBalance.StringFixed(2))
}

func TestRecord_CreditReceivedLowersOutstanding(t *testing.T) {
	f := newLedgerFixture(t)

	phone := "9000000002"
	customer := &domain.Customer{
		OutletID:           f.outletID,
		Phone:              phone,
		Name:               "Meena",
		OutstandingBalance: decimal.RequireFromString("750.00"),
	}
	f.custRepo.AddCustomer(customer)

	input := f.salesInput("250.00")
	input.Category = domain.CategoryCreditReceived
	input.CustomerPhone = &phone

	_, err := f.svc.Record(f.actor, input)
	require.NoError(t, err)

	assert.Equal(t, "500.00", customer.OutstandingBalance.StringFixed(2))
}

func TestReverse_DraftDayRejected(t *testing.T) {
	f := newLedgerFixture(t)

	txn, err := f.svc.Record(f.actor, f.salesInput("100.00"))
	require.NoError(t, err)

	_, err = f.svc.Reverse(f.actor, txn.ID, nil)
	assert.ErrorIs(t, err, domain.ErrReversalNotAllowed)
}

func TestReverse_PostsOppositeEntryToCurrentDay(t *testing.T) {
	f := newLedgerFixture(t)

	// Record into a past day, then submit and lock it.
	past := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	input := f.salesInput("180.00")
	input.Date = &past
	txn, err := f.svc.Record(f.actor, input)
	require.NoError(t, err)

	day, err := f.dayRepo.GetByID(txn.DailyRecordID)
	require.NoError(t, err)
	day.Status = domain.DayStatusLocked

	reason := "entered against the wrong account"
	reversal, err := f.svc.Reverse(f.actor, txn.ID, &reason)
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionTypeExpense, reversal.Type)
	assert.Equal(t, txn.Amount.StringFixed(2), reversal.Amount.StringFixed(2))
	assert.True(t, reversal.IsReversal)
	assert.Equal(t, txn.ID, *reversal.ParentTransactionID)
	assert.Equal(t, reason, *reversal.Description)
	assert.Equal(t, domain.SourceAdjustment, reversal.SourceType)

	// The locked original day is untouched; the reversal landed elsewhere.
	assert.NotEqual(t, txn.DailyRecordID, reversal.DailyRecordID)
	currentDay, err := f.dayRepo.GetByID(reversal.DailyRecordID)
	require.NoError(t, err)
	assert.Equal(t, "180.00", currentDay.TotalExpense.StringFixed(2))
}

func TestReverse_UndoesCreditEffect(t *testing.T) {
	f := newLedgerFixture(t)

	phone := "9000000003"
	past := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	input := f.salesInput("400.00")
	input.Date = &past
	input.CustomerPhone = &phone
	input.Allocations = []domain.Allocation{
		{Mode: domain.TenderCredit, Amount: decimal.RequireFromString("400.00")},
	}
	txn, err := f.svc.Record(f.actor, input)
	require.NoError(t, err)

	customer, err := f.custRepo.GetByPhone(f.outletID, phone)
	require.NoError(t, err)
	require.Equal(t, "400.00", customer.OutstandingBalance.StringFixed(2))

	day, err := f.dayRepo.GetByID(txn.DailyRecordID)
	require.NoError(t, err)
	day.Status = domain.DayStatusSubmitted

	_, err = f.svc.Reverse(f.actor, txn.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, "0.00", customer.OutstandingBalance.StringFixed(2))
}

func TestDelete_DraftOnly(t *testing.T) {
	f := newLedgerFixture(t)

	txn, err := f.svc.Record(f.actor, f.salesInput("90.00"))
	require.NoError(t, err)

	day, err := f.dayRepo.GetByID(txn.DailyRecordID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(f.actor, txn.ID))
	assert.Equal(t, "0.00", day.TotalIncome.StringFixed(2))

	txn2, err := f.svc.Record(f.actor, f.salesInput("90.00"))
	require.NoError(t, err)
	day.Status = domain.DayStatusSubmitted

	err = f.svc.Delete(f.actor, txn2.ID)
	assert.ErrorIs(t, err, domain.ErrDayLocked)
}

func TestDelete_RollsBackCreditEffect(t *testing.T) {
	f := newLedgerFixture(t)

	phone := "9000000004"
	input := f.salesInput("150.00")
	input.CustomerPhone = &phone
	input.Allocations = []domain.Allocation{
		{Mode: domain.TenderCredit, Amount: decimal.RequireFromString("150.00")},
	}
	txn, err := f.svc.Record(f.actor, input)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(f.actor, txn.ID))

	customer, err := f.custRepo.GetByPhone(f.outletID, phone)
	require.NoError(t, err)
	assert.Equal(t, "0.00", customer.OutstandingBalance.StringFixed(2))
}

func TestRecord_AuditorDenied(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.svc.Record(auditorActor(), f.salesInput("10.00"))
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}
