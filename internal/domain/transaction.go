package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Opposite returns the reversing type.
func (t TransactionType) Opposite() TransactionType {
	if t == TransactionTypeIncome {
		return TransactionTypeExpense
	}
	return TransactionTypeIncome
}

type Category string

const (
	CategorySales          Category = "sales"
	CategoryPurchase       Category = "purchase"
	CategoryCreditReceived Category = "credit_received"
	CategorySalesReturn    Category = "sales_return"
	CategoryPurchaseReturn Category = "purchase_return"
	CategoryExpense        Category = "expense"
	CategoryOtherIncome    Category = "other_income"
)

// ValidCategory reports whether c is a known entry category.
func ValidCategory(c Category) bool {
	switch c {
	case CategorySales, CategoryPurchase, CategoryCreditReceived, CategorySalesReturn,
		CategoryPurchaseReturn, CategoryExpense, CategoryOtherIncome:
		return true
	}
	return false
}

type SourceType string

const (
	SourceSale       SourceType = "sale"
	SourcePurchase   SourceType = "purchase"
	SourceReturn     SourceType = "return"
	SourceManual     SourceType = "manual"
	SourceAdjustment SourceType = "adjustment"
	SourceSystem     SourceType = "system"
)

// Transaction is one income or expense entry in a business day's ledger.
// Entries are append-only once their day leaves draft; corrections to
// submitted or locked days are expressed as linked reversals.
type Transaction struct {
	ID                  uuid.UUID       `json:"id"`
	DailyRecordID       uuid.UUID       `json:"dailyRecordId"`
	OutletID            uuid.UUID       `json:"outletId"`
	Type                TransactionType `json:"type"`
	Category            Category        `json:"category"`
	LedgerAccountID     uuid.UUID       `json:"ledgerAccountId"`
	Amount              decimal.Decimal `json:"amount"`
	Allocations         []Allocation    `json:"allocations"`
	PaymentModes        string          `json:"paymentModes"`
	EntryNumber         string          `json:"entryNumber"`
	Description         *string         `json:"description,omitempty"`
	CustomerID          *uuid.UUID      `json:"customerId,omitempty"`
	SupplierName        *string         `json:"supplierName,omitempty"`
	SourceType          SourceType      `json:"sourceType"`
	IsReversal          bool            `json:"isReversal"`
	ParentTransactionID *uuid.UUID      `json:"parentTransactionId,omitempty"`
	IdempotencyKey      *string         `json:"idempotencyKey,omitempty"`
	CreatedBy           uuid.UUID       `json:"createdBy"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// CreditShare returns the amount allocated to the Credit tender mode.
func (t *Transaction) CreditShare() decimal.Decimal {
	total := decimal.Zero
	for _, a := range t.Allocations {
		if a.Mode == TenderCredit {
			total = total.Add(a.Amount)
		}
	}
	return total
}

type TransactionRepository interface {
	// CreateInDay inserts the transaction, moves the attached customer's
	// outstanding balance by customerDelta and recomputes the day's rollup
	// as one atomic unit: the day row is locked for the duration, a locked
	// day rejects the insert with ErrDayLocked, and a previously used
	// idempotency key returns the already-created row without applying the
	// delta again. The delta is ignored when zero or when the transaction
	// carries no customer.
	CreateInDay(t *Transaction, customerDelta decimal.Decimal) (*Transaction, error)
	GetByID(id uuid.UUID) (*Transaction, error)
	ListByDay(dailyRecordID uuid.UUID) ([]*Transaction, error)
	CountByDay(dailyRecordID uuid.UUID) (int64, error)
	// DeleteDraft removes a transaction, moves its customer's outstanding
	// balance by customerDelta and recomputes the rollup, but only while
	// the owning day is still draft; otherwise ErrDayLocked.
	DeleteDraft(id uuid.UUID, customerDelta decimal.Decimal) error
	// RecomputeDay re-derives the day's totals from its transaction set and
	// writes them back. Idempotent.
	RecomputeDay(dailyRecordID uuid.UUID) (*BusinessDay, error)
}
