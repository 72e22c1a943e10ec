package domain

import (
	"time"

	"github.com/google/uuid"
)

type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusDisabled AccountStatus = "disabled"
)

// LedgerAccount is a node in the chart of accounts. Accounts form a tree via
// ParentID; only active leaf accounts are postable. System accounts are
// seeded and cannot be edited or disabled.
type LedgerAccount struct {
	ID        uuid.UUID     `json:"id"`
	Code      string        `json:"code"`
	Name      string        `json:"name"`
	Type      AccountType   `json:"type"`
	ParentID  *uuid.UUID    `json:"parentId,omitempty"`
	IsLeaf    bool          `json:"isLeaf"`
	Status    AccountStatus `json:"status"`
	IsSystem  bool          `json:"isSystem"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Postable reports whether transactions may reference this account.
func (a *LedgerAccount) Postable() bool {
	return a.IsLeaf && a.Status == AccountStatusActive
}

// ValidAccountType reports whether t is one of the five account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

type LedgerAccountRepository interface {
	GetByID(id uuid.UUID) (*LedgerAccount, error)
	GetByCode(code string) (*LedgerAccount, error)
	GetAll() ([]*LedgerAccount, error)
	Create(account *LedgerAccount) (*LedgerAccount, error)
	Update(account *LedgerAccount) (*LedgerAccount, error)
	// SetStatus flips an account between active and disabled.
	SetStatus(id uuid.UUID, status AccountStatus) (*LedgerAccount, error)
	// HasTransactions reports whether any transaction references the account.
	HasTransactions(id uuid.UUID) (bool, error)
	Delete(id uuid.UUID) error
}
