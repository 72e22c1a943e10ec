package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/testutil"
)

func adminActor() *domain.User {
	return &domain.User{ID: uuid.New(), Role: domain.RoleMasterAdmin}
}

func TestCreateAccount_Success(t *testing.T) {
	accountRepo := testutil.NewMockLedgerAccountRepository()
	svc := NewAccountService(accountRepo)

	account, err := svc.Create(adminActor(), CreateAccountInput{
		Code:   "5200",
		Name:   "Shop Rent",
		Type:   domain.AccountTypeExpense,
		IsLeaf: true,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if account.Code != "5200" {
		t.Errorf("Expected code '5200', got %s", account.Code)
	}
	if account.Status != domain.AccountStatusActive {
		t.Errorf("Expected new account to be active, got %s", account.Status)
	}
	if !account.Postable() {
		t.Error("Expected active leaf account to be postable")
	}
}

func TestCreateAccount_RequiresAdmin(t *testing.T) {
	svc := NewAccountService(testutil.NewMockLedgerAccountRepository())

	_, err := svc.Create(accountantActor(), CreateAccountInput{
		Code: "5200", Name: "Shop Rent", Type: domain.AccountTypeExpense, IsLeaf: true,
	})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("Expected ErrPermissionDenied, got %v", err)
	}
}

func TestCreateAccount_Validation(t *testing.T) {
	svc := NewAccountService(testutil.NewMockLedgerAccountRepository())
	admin := adminActor()

	if _, err := svc.Create(admin, CreateAccountInput{Code: "", Name: "X", Type: domain.AccountTypeAsset}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty code, got %v", err)
	}
	if _, err := svc.Create(admin, CreateAccountInput{Code: "1000", Name: "Cash", Type: "weird"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for bad type, got %v", err)
	}
	missing := uuid.New()
	if _, err := svc.Create(admin, CreateAccountInput{Code: "1000", Name: "Cash", Type: domain.AccountTypeAsset, ParentID: &missing}); !errors.Is(err, domain.ErrUnknownAccount) {
		t.Errorf("Expected ErrUnknownAccount for missing parent, got %v", err)
	}
}

func TestCreateAccount_DuplicateCode(t *testing.T) {
	accountRepo := testutil.NewMockLedgerAccountRepository()
	svc := NewAccountService(accountRepo)
	admin := adminActor()

	input := CreateAccountInput{Code: "4100", Name: "Sales", Type: domain.AccountTypeIncome, IsLeaf: true}
	if _, err := svc.Create(admin, input); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := svc.Create(admin, input); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("Expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateAccount_SystemAccountLocked(t *testing.T) {
	accountRepo := testutil.NewMockLedgerAccountRepository()
	svc := NewAccountService(accountRepo)

	system := &domain.LedgerAccount{
		Code: "1000", Name: "Cash in Hand", Type: domain.AccountTypeAsset,
		IsLeaf: true, Status: domain.AccountStatusActive, IsSystem: true,
	}
	accountRepo.AddAccount(system)
	admin := adminActor()

	name := "Renamed"
	if _, err := svc.Update(admin, system.ID, UpdateAccountInput{Name: &name}); !errors.Is(err, domain.ErrAccountLocked) {
		t.Errorf("Expected ErrAccountLocked on update, got %v", err)
	}
	if _, err := svc.SetStatus(admin, system.ID, domain.AccountStatusDisabled); !errors.Is(err, domain.ErrAccountLocked) {
		t.Errorf("Expected ErrAccountLocked on disable, got %v", err)
	}
	if err := svc.Delete(admin, system.ID); !errors.Is(err, domain.ErrAccountLocked) {
		t.Errorf("Expected ErrAccountLocked on delete, got %v", err)
	}
}

func TestDeleteAccount_InUse(t *testing.T) {
	accountRepo := testutil.NewMockLedgerAccountRepository()
	svc := NewAccountService(accountRepo)

	account := &domain.LedgerAccount{
		Code: "4100", Name: "Sales", Type: domain.AccountTypeIncome,
		IsLeaf: true, Status: domain.AccountStatusActive,
	}
	accountRepo.AddAccount(account)
	accountRepo.Referenced[account.ID] = true

	if err := svc.Delete(adminActor(), account.ID); !errors.Is(err, domain.ErrAccountInUse) {
		t.Fatalf("Expected ErrAccountInUse, got %v", err)
	}
}

func TestDisableAccount_StopsNewPostings(t *testing.T) {
	accountRepo := testutil.NewMockLedgerAccountRepository()
	svc := NewAccountService(accountRepo)

	account := &domain.LedgerAccount{
		Code: "4100", Name: "Sales", Type: domain.AccountTypeIncome,
		IsLeaf: true, Status: domain.AccountStatusActive,
	}
	accountRepo.AddAccount(account)

	disabled, err := svc.SetStatus(adminActor(), account.ID, domain.AccountStatusDisabled)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if disabled.Postable() {
		t.Error("Expected disabled account to not be postable")
	}
}
