package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DayStatus string

const (
	DayStatusDraft     DayStatus = "draft"
	DayStatusSubmitted DayStatus = "submitted"
	DayStatusLocked    DayStatus = "locked"
)

// BusinessDay is one outlet's ledger for one calendar date: the unit of
// locking and reconciliation. At most one exists per (outlet, date); opening
// balances are carried from the previous day's closing balances.
type BusinessDay struct {
	ID           uuid.UUID       `json:"id"`
	OutletID     uuid.UUID       `json:"outletId"`
	Date         time.Time       `json:"date"`
	OpeningCash  decimal.Decimal `json:"openingCash"`
	OpeningUPI   decimal.Decimal `json:"openingUpi"`
	ClosingCash  decimal.Decimal `json:"closingCash"`
	ClosingUPI   decimal.Decimal `json:"closingUpi"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	Status       DayStatus       `json:"status"`
	SubmittedBy  *uuid.UUID      `json:"submittedBy,omitempty"`
	SubmittedAt  *time.Time      `json:"submittedAt,omitempty"`
	LockedBy     *uuid.UUID      `json:"lockedBy,omitempty"`
	LockedAt     *time.Time      `json:"lockedAt,omitempty"`
	LockReason   *string         `json:"lockReason,omitempty"`
	UnlockedBy   *uuid.UUID      `json:"unlockedBy,omitempty"`
	UnlockedAt   *time.Time      `json:"unlockedAt,omitempty"`
	UnlockReason *string         `json:"unlockReason,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Mutable reports whether the day still accepts writes. Draft and submitted
// days do; locked days reject every mutation.
func (d *BusinessDay) Mutable() bool {
	return d.Status != DayStatusLocked
}

// DayTotals is the derived rollup of a day's transaction set.
type DayTotals struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	ClosingCash  decimal.Decimal `json:"closingCash"`
	ClosingUPI   decimal.Decimal `json:"closingUpi"`
}

// ComputeDayTotals derives a day's rollup from scratch. Income and expense
// sum the full transaction amounts; the closing cash and UPI balances move
// only by the cash/UPI shares of each transaction's allocation. Recomputing
// with an unchanged transaction set always yields identical totals.
func ComputeDayTotals(day *BusinessDay, transactions []*Transaction) DayTotals {
	totals := DayTotals{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	cashIn, cashOut := decimal.Zero, decimal.Zero
	upiIn, upiOut := decimal.Zero, decimal.Zero

	for _, t := range transactions {
		switch t.Type {
		case TransactionTypeIncome:
			totals.TotalIncome = totals.TotalIncome.Add(t.Amount)
		case TransactionTypeExpense:
			totals.TotalExpense = totals.TotalExpense.Add(t.Amount)
		}

		for _, a := range t.Allocations {
			if !BalanceBearing(a.Mode) {
				continue
			}
			switch {
			case a.Mode == TenderCash && t.Type == TransactionTypeIncome:
				cashIn = cashIn.Add(a.Amount)
			case a.Mode == TenderCash && t.Type == TransactionTypeExpense:
				cashOut = cashOut.Add(a.Amount)
			case a.Mode == TenderUPI && t.Type == TransactionTypeIncome:
				upiIn = upiIn.Add(a.Amount)
			case a.Mode == TenderUPI && t.Type == TransactionTypeExpense:
				upiOut = upiOut.Add(a.Amount)
			}
		}
	}

	totals.ClosingCash = day.OpeningCash.Add(cashIn).Sub(cashOut)
	totals.ClosingUPI = day.OpeningUPI.Add(upiIn).Sub(upiOut)
	return totals
}

type BusinessDayRepository interface {
	GetByID(id uuid.UUID) (*BusinessDay, error)
	GetByOutletDate(outletID uuid.UUID, date time.Time) (*BusinessDay, error)
	// EnsureDay finds or atomically creates the day row for (outlet, date),
	// carrying opening balances from the previous day's closing balances.
	// Concurrent first-writers of a day converge on the same row.
	EnsureDay(outletID uuid.UUID, date time.Time) (*BusinessDay, error)
	// Submit transitions draft -> submitted. Fails with ErrInvalidTransition
	// for any other starting state and ErrEmptyDay when the day holds no
	// transactions. The check and the write share one transaction scope.
	Submit(id, submittedBy uuid.UUID) (*BusinessDay, error)
	// Lock transitions submitted -> locked, stamping the locker.
	Lock(id, lockedBy uuid.UUID, reason *string) (*BusinessDay, error)
	// Unlock transitions locked -> submitted (accountant escalation),
	// stamping the unlocker while leaving the lock stamps intact.
	Unlock(id, unlockedBy uuid.UUID, reason string) (*BusinessDay, error)
	// UpdateTotals writes a recomputed rollup back to the day row.
	UpdateTotals(id uuid.UUID, totals DayTotals) (*BusinessDay, error)
	ListByOutletRange(outletID uuid.UUID, from, to time.Time) ([]*BusinessDay, error)
}
