package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/util"
)

// TransactionService handles ledger entry business logic: validation,
// customer credit bookkeeping and append-only reversals.
type TransactionService struct {
	txnRepo     domain.TransactionRepository
	dayRepo     domain.BusinessDayRepository
	accountRepo domain.LedgerAccountRepository
	customers   domain.CustomerResolver
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	txnRepo domain.TransactionRepository,
	dayRepo domain.BusinessDayRepository,
	accountRepo domain.LedgerAccountRepository,
	customers domain.CustomerResolver,
) *TransactionService {
	return &TransactionService{
		txnRepo:     txnRepo,
		dayRepo:     dayRepo,
		accountRepo: accountRepo,
		customers:   customers,
	}
}

// RecordTransactionInput holds the input for recording a ledger entry
type RecordTransactionInput struct {
	OutletID        uuid.UUID
	Date            *time.Time
	Type            domain.TransactionType
	Category        domain.Category
	LedgerAccountID uuid.UUID
	Amount          decimal.Decimal
	Allocations     []domain.Allocation
	EntryNumber     string
	Description     *string
	CustomerPhone   *string
	CustomerName    *string
	SupplierName    *string
	SourceType      domain.SourceType
	IdempotencyKey  *string
}

// Record validates and inserts a ledger entry into its business day,
// materializing the day if needed. Credit-tender income raises the
// customer's outstanding balance; credit_received entries lower it.
func (s *TransactionService) Record(actor *domain.User, input RecordTransactionInput) (*domain.Transaction, error) {
	if !actor.Role.CanWrite() {
		return nil, domain.ErrPermissionDenied
	}
	if err := canAccessOutlet(actor, input.OutletID); err != nil {
		return nil, err
	}

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	if input.Type != domain.TransactionTypeIncome && input.Type != domain.TransactionTypeExpense {
		return nil, domain.ErrInvalidTransactionType
	}
	if !domain.ValidCategory(input.Category) {
		return nil, domain.ErrInvalidCategory
	}

	entryNumber := strings.TrimSpace(input.EntryNumber)
	if len(entryNumber) > domain.MaxEntryNumberLength {
		return nil, domain.ErrEntryNumberTooLong
	}

	var supplierName *string
	if input.SupplierName != nil {
		trimmed := strings.TrimSpace(*input.SupplierName)
		if len(trimmed) > domain.MaxSupplierNameLength {
			trimmed = trimmed[:domain.MaxSupplierNameLength]
		}
		if trimmed != "" {
			supplierName = &trimmed
		}
	}

	if err := validateAllocations(input.Allocations, input.Amount); err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetByID(input.LedgerAccountID)
	if err != nil {
		return nil, err
	}
	if !account.Postable() {
		return nil, domain.ErrAccountNotPostable
	}

	date := util.BusinessDate(time.Now())
	if input.Date != nil {
		date = util.DateOf(*input.Date)
	}
	day, err := s.dayRepo.EnsureDay(input.OutletID, date)
	if err != nil {
		return nil, err
	}

	var customer *domain.Customer
	if input.CustomerPhone != nil && strings.TrimSpace(*input.CustomerPhone) != "" {
		name := ""
		if input.CustomerName != nil {
			name = strings.TrimSpace(*input.CustomerName)
		}
		customer, err = s.customers.ResolveOrCreate(input.OutletID, strings.TrimSpace(*input.CustomerPhone), name)
		if err != nil {
			return nil, err
		}
	}

	sourceType := input.SourceType
	if sourceType == "" {
		sourceType = domain.SourceManual
	}

	transaction := &domain.Transaction{
		ID:              uuid.New(),
		DailyRecordID:   day.ID,
		OutletID:        input.OutletID,
		Type:            input.Type,
		Category:        input.Category,
		LedgerAccountID: account.ID,
		Amount:          input.Amount,
		Allocations:     input.Allocations,
		PaymentModes:    domain.ModesLabel(input.Allocations),
		EntryNumber:     entryNumber,
		Description:     input.Description,
		SupplierName:    supplierName,
		SourceType:      sourceType,
		IdempotencyKey:  input.IdempotencyKey,
		CreatedBy:       actor.ID,
	}
	if customer != nil {
		transaction.CustomerID = &customer.ID
	}

	// The balance delta rides in the same transactional scope as the
	// insert: an idempotent retry returns the first attempt's row without
	// moving the receivable again.
	return s.txnRepo.CreateInDay(transaction, customerBalanceDelta(transaction))
}

// Reverse records an append-only correction: an opposite-signed entry linked
// to the original via parentTransactionId, posted to the actor's current
// business day. Entries in a still-draft day are edited directly, not
// reversed.
func (s *TransactionService) Reverse(actor *domain.User, originalID uuid.UUID, reason *string) (*domain.Transaction, error) {
	if !actor.Role.CanWrite() {
		return nil, domain.ErrPermissionDenied
	}

	original, err := s.txnRepo.GetByID(originalID)
	if err != nil {
		return nil, err
	}
	if err := canAccessOutlet(actor, original.OutletID); err != nil {
		return nil, err
	}

	originalDay, err := s.dayRepo.GetByID(original.DailyRecordID)
	if err != nil {
		return nil, err
	}
	if originalDay.Status == domain.DayStatusDraft {
		return nil, domain.ErrReversalNotAllowed
	}

	day, err := s.dayRepo.EnsureDay(original.OutletID, util.BusinessDate(time.Now()))
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("Reversal of %s", original.ID)
	if reason != nil && strings.TrimSpace(*reason) != "" {
		description = strings.TrimSpace(*reason)
	}

	reversal := &domain.Transaction{
		ID:                  uuid.New(),
		DailyRecordID:       day.ID,
		OutletID:            original.OutletID,
		Type:                original.Type.Opposite(),
		Category:            original.Category,
		LedgerAccountID:     original.LedgerAccountID,
		Amount:              original.Amount,
		Allocations:         original.Allocations,
		PaymentModes:        original.PaymentModes,
		EntryNumber:         original.EntryNumber,
		Description:         &description,
		CustomerID:          original.CustomerID,
		SupplierName:        original.SupplierName,
		SourceType:          domain.SourceAdjustment,
		IsReversal:          true,
		ParentTransactionID: &original.ID,
		CreatedBy:           actor.ID,
	}

	return s.txnRepo.CreateInDay(reversal, customerBalanceDelta(reversal))
}

// Delete removes an entry while its day is still draft and rolls back any
// customer balance effect it had.
func (s *TransactionService) Delete(actor *domain.User, id uuid.UUID) error {
	if !actor.Role.CanWrite() {
		return domain.ErrPermissionDenied
	}

	transaction, err := s.txnRepo.GetByID(id)
	if err != nil {
		return err
	}
	if err := canAccessOutlet(actor, transaction.OutletID); err != nil {
		return err
	}

	// Deleting undoes whatever the entry did to the receivable.
	return s.txnRepo.DeleteDraft(id, customerBalanceDelta(transaction).Neg())
}

// GetByID retrieves an entry, enforcing outlet scoping
func (s *TransactionService) GetByID(actor *domain.User, id uuid.UUID) (*domain.Transaction, error) {
	transaction, err := s.txnRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := canAccessOutlet(actor, transaction.OutletID); err != nil {
		return nil, err
	}
	return transaction, nil
}

// ListByDay retrieves a day's entries, enforcing outlet scoping
func (s *TransactionService) ListByDay(actor *domain.User, dayID uuid.UUID) ([]*domain.Transaction, error) {
	day, err := s.dayRepo.GetByID(dayID)
	if err != nil {
		return nil, err
	}
	if err := canAccessOutlet(actor, day.OutletID); err != nil {
		return nil, err
	}
	return s.txnRepo.ListByDay(dayID)
}

// customerBalanceDelta is the signed move an entry makes on its customer's
// outstanding balance. credit_received lowers the receivable by the full
// amount (the expense-typed reversal of such an entry restores it);
// otherwise the Credit tender share moves it in the entry's direction. Zero
// when no customer is attached.
func customerBalanceDelta(t *domain.Transaction) decimal.Decimal {
	if t.CustomerID == nil {
		return decimal.Zero
	}
	if t.Category == domain.CategoryCreditReceived {
		if t.Type == domain.TransactionTypeExpense {
			return t.Amount
		}
		return t.Amount.Neg()
	}
	share := t.CreditShare()
	if share.IsZero() {
		return decimal.Zero
	}
	if t.Type == domain.TransactionTypeIncome {
		return share
	}
	return share.Neg()
}

// validateAllocations checks mode validity, uniqueness and the split-sum
// invariant.
func validateAllocations(allocs []domain.Allocation, amount decimal.Decimal) error {
	if len(allocs) == 0 {
		return domain.ErrNoPaymentModes
	}
	seen := make(map[domain.TenderMode]bool, len(allocs))
	sum := decimal.Zero
	for _, a := range allocs {
		if !domain.ValidTenderMode(a.Mode) {
			return domain.ErrNoPaymentModes
		}
		if seen[a.Mode] {
			return domain.ErrNoPaymentModes
		}
		seen[a.Mode] = true
		if a.Amount.Sign() < 0 {
			return domain.ErrSplitMismatch
		}
		sum = sum.Add(a.Amount)
	}
	if amount.Sub(sum).Abs().GreaterThan(domain.SplitTolerance) {
		return domain.ErrSplitMismatch
	}
	return nil
}
