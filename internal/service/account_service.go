package service

import (
	"strings"

	"github.com/google/uuid"

	"github.com/khatapro/khata-backend/internal/domain"
)

// AccountService manages the chart of accounts. The chart is a tree; only
// active leaf accounts accept postings, and seeded system accounts are
// immutable.
type AccountService struct {
	accountRepo domain.LedgerAccountRepository
}

// NewAccountService creates a new AccountService
func NewAccountService(accountRepo domain.LedgerAccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

// CreateAccountInput holds the input for creating a ledger account
type CreateAccountInput struct {
	Code     string
	Name     string
	Type     domain.AccountType
	ParentID *uuid.UUID
	IsLeaf   bool
}

// List retrieves the full chart of accounts
func (s *AccountService) List() ([]*domain.LedgerAccount, error) {
	return s.accountRepo.GetAll()
}

// GetByID retrieves one account
func (s *AccountService) GetByID(id uuid.UUID) (*domain.LedgerAccount, error) {
	return s.accountRepo.GetByID(id)
}

// Create adds an account to the chart. When a parent is named it must exist;
// a child inherits nothing from it beyond the tree position.
func (s *AccountService) Create(actor *domain.User, input CreateAccountInput) (*domain.LedgerAccount, error) {
	if !actor.Role.CanManageAccounts() {
		return nil, domain.ErrPermissionDenied
	}

	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	if !domain.ValidAccountType(input.Type) {
		return nil, domain.ErrInvalidInput
	}
	if input.ParentID != nil {
		if _, err := s.accountRepo.GetByID(*input.ParentID); err != nil {
			return nil, err
		}
	}

	return s.accountRepo.Create(&domain.LedgerAccount{
		Code:     code,
		Name:     name,
		Type:     input.Type,
		ParentID: input.ParentID,
		IsLeaf:   input.IsLeaf,
		Status:   domain.AccountStatusActive,
	})
}

// UpdateAccountInput holds the mutable fields of an account
type UpdateAccountInput struct {
	Code   *string
	Name   *string
	Type   *domain.AccountType
	IsLeaf *bool
}

// Update edits an account. System accounts reject every edit.
func (s *AccountService) Update(actor *domain.User, id uuid.UUID, input UpdateAccountInput) (*domain.LedgerAccount, error) {
	if !actor.Role.CanManageAccounts() {
		return nil, domain.ErrPermissionDenied
	}
	account, err := s.accountRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if account.IsSystem {
		return nil, domain.ErrAccountLocked
	}

	if input.Code != nil {
		code := strings.TrimSpace(*input.Code)
		if code == "" {
			return nil, domain.ErrInvalidInput
		}
		account.Code = code
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		account.Name = name
	}
	if input.Type != nil {
		if !domain.ValidAccountType(*input.Type) {
			return nil, domain.ErrInvalidInput
		}
		account.Type = *input.Type
	}
	if input.IsLeaf != nil {
		account.IsLeaf = *input.IsLeaf
	}

	return s.accountRepo.Update(account)
}

// SetStatus enables or disables an account. Disabling stops new postings;
// history referencing the account stays valid.
func (s *AccountService) SetStatus(actor *domain.User, id uuid.UUID, status domain.AccountStatus) (*domain.LedgerAccount, error) {
	if !actor.Role.CanManageAccounts() {
		return nil, domain.ErrPermissionDenied
	}
	account, err := s.accountRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if account.IsSystem {
		return nil, domain.ErrAccountLocked
	}
	if status != domain.AccountStatusActive && status != domain.AccountStatusDisabled {
		return nil, domain.ErrInvalidInput
	}
	return s.accountRepo.SetStatus(id, status)
}

// Delete removes an account that nothing references. Accounts with history
// must be disabled instead.
func (s *AccountService) Delete(actor *domain.User, id uuid.UUID) error {
	if !actor.Role.CanManageAccounts() {
		return domain.ErrPermissionDenied
	}
	account, err := s.accountRepo.GetByID(id)
	if err != nil {
		return err
	}
	if account.IsSystem {
		return domain.ErrAccountLocked
	}
	used, err := s.accountRepo.HasTransactions(id)
	if err != nil {
		return err
	}
	if used {
		return domain.ErrAccountInUse
	}
	return s.accountRepo.Delete(id)
}
