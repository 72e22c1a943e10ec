package domain

import "errors"

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInternalError = errors.New("internal error")

	// Validation
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidCategory        = errors.New("invalid transaction category")
	ErrNoPaymentModes         = errors.New("at least one payment mode is required")
	ErrSplitMismatch          = errors.New("payment allocations do not sum to the transaction amount")
	ErrReasonRequired         = errors.New("a reason is required")
	ErrEntryNumberTooLong     = errors.New("entry number exceeds maximum length")

	// Chart of accounts
	ErrUnknownAccount     = errors.New("ledger account does not exist")
	ErrAccountNotPostable = errors.New("ledger account is disabled or not a leaf")
	ErrAccountLocked      = errors.New("system accounts cannot be modified")
	ErrAccountInUse       = errors.New("ledger account is referenced by transactions")

	// Day lifecycle
	ErrDayNotFound        = errors.New("business day not found")
	ErrDayLocked          = errors.New("business day is locked")
	ErrInvalidTransition  = errors.New("illegal business day transition")
	ErrEmptyDay           = errors.New("business day has no transactions")
	ErrReversalNotAllowed = errors.New("transactions in a draft day must be edited directly, not reversed")

	// Month closure
	ErrClosureNotFound  = errors.New("monthly closure not found")
	ErrSnapshotNotFound = errors.New("no closure snapshot recorded")
	ErrOpenDaysRemain   = errors.New("month has days that are not yet locked")
	ErrEmptyMonth       = errors.New("month has no business days to close")
	ErrMonthNotClosed   = errors.New("month is not closed")

	// Access control / concurrency
	ErrPermissionDenied    = errors.New("role lacks authority for this operation")
	ErrConcurrencyConflict = errors.New("concurrent update conflict, retry the operation")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrOutletNotFound      = errors.New("outlet not found")
	ErrUserNotFound        = errors.New("user not found")
)

// Validation constants
const (
	MaxEntryNumberLength  = 64
	MaxSupplierNameLength = 255
	MinReopenReasonLength = 10
)
