package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOutletStaff   Role = "outlet_staff"
	RoleOutletManager Role = "outlet_manager"
	RoleHOAccountant  Role = "ho_accountant"
	RoleMasterAdmin   Role = "master_admin"
	RoleSuperadmin    Role = "superadmin"
	RoleAuditor       Role = "auditor"
)

// User is the pre-authenticated acting identity. Authentication itself is
// owned by the identity provider; the core only trusts the resolved id, role
// and outlet assignment.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Subject   string     `json:"subject"`
	Email     string     `json:"email"`
	Name      *string    `json:"name,omitempty"`
	Role      Role       `json:"role"`
	OutletID  *uuid.UUID `json:"outletId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CanWrite reports whether the role may record or mutate ledger entries.
// Auditors are strictly read-only.
func (r Role) CanWrite() bool {
	switch r {
	case RoleOutletStaff, RoleOutletManager, RoleHOAccountant, RoleMasterAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// CanLockDays reports whether the role may lock or unlock a reviewed day.
func (r Role) CanLockDays() bool {
	switch r {
	case RoleHOAccountant, RoleMasterAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// CanCloseMonths reports whether the role may close or reopen a month.
func (r Role) CanCloseMonths() bool {
	return r.CanLockDays()
}

// CanManageAccounts reports whether the role may edit the chart of accounts.
func (r Role) CanManageAccounts() bool {
	return r == RoleMasterAdmin || r == RoleSuperadmin
}

type UserRepository interface {
	GetBySubject(subject string) (*User, error)
	GetByID(id uuid.UUID) (*User, error)
}
