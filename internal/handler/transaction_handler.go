package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/middleware"
	"github.com/khatapro/khata-backend/internal/service"
)

// TransactionHandler handles ledger entry HTTP requests
type TransactionHandler struct {
	txnService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(txnService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{txnService: txnService}
}

// AllocationRequest is one tender mode's share in a request body
type AllocationRequest struct {
	Mode           string `json:"mode"`
	Amount         string `json:"amount"`
	AutoCalculated bool   `json:"autoCalculated"`
}

// CreateTransactionRequest is the body for recording a ledger entry
type CreateTransactionRequest struct {
	OutletID        string              `json:"outletId"`
	Date            *string             `json:"date"`
	Type            string              `json:"type"`
	Category        string              `json:"category"`
	LedgerAccountID string              `json:"ledgerAccountId"`
	Amount          string              `json:"amount"`
	Allocations     []AllocationRequest `json:"allocations"`
	EntryNumber     string              `json:"entryNumber"`
	Description     *string             `json:"description"`
	CustomerPhone   *string             `json:"customerPhone"`
	CustomerName    *string             `json:"customerName"`
	SupplierName    *string             `json:"supplierName"`
	SourceType      string              `json:"sourceType"`
}

// AllocationResponse is one tender mode's share in a response
type AllocationResponse struct {
	Mode           string `json:"mode"`
	Amount         string `json:"amount"`
	AutoCalculated bool   `json:"autoCalculated"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID                  string               `json:"id"`
	DailyRecordID       string               `json:"dailyRecordId"`
	OutletID            string               `json:"outletId"`
	Type                string               `json:"type"`
	Category            string               `json:"category"`
	LedgerAccountID     string               `json:"ledgerAccountId"`
	Amount              string               `json:"amount"`
	Allocations         []AllocationResponse `json:"allocations"`
	PaymentModes        string               `json:"paymentModes"`
	EntryNumber         string               `json:"entryNumber"`
	Description         *string              `json:"description,omitempty"`
	CustomerID          *string              `json:"customerId,omitempty"`
	SupplierName        *string              `json:"supplierName,omitempty"`
	SourceType          string               `json:"sourceType"`
	IsReversal          bool                 `json:"isReversal"`
	ParentTransactionID *string              `json:"parentTransactionId,omitempty"`
	CreatedBy           string               `json:"createdBy"`
	CreatedAt           string               `json:"createdAt"`
}

// Create handles POST /api/v1/transactions. Retried requests carrying the
// same X-Idempotency-Key return the originally created entry.
func (h *TransactionHandler) Create(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	outletID, err := uuid.Parse(req.OutletID)
	if err != nil {
		return NewValidationError(c, "Invalid outlet ID", []ValidationError{
			{Field: "outletId", Message: "Must be a valid UUID"},
		})
	}

	accountID, err := uuid.Parse(req.LedgerAccountID)
	if err != nil {
		return NewValidationError(c, "Invalid ledger account ID", []ValidationError{
			{Field: "ledgerAccountId", Message: "Must be a valid UUID"},
		})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	allocations := make([]domain.Allocation, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		allocAmount, err := decimal.NewFromString(a.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid allocation amount", []ValidationError{
				{Field: "allocations", Message: "Each allocation amount must be a valid decimal number"},
			})
		}
		allocations = append(allocations, domain.Allocation{
			Mode:           domain.TenderMode(a.Mode),
			Amount:         allocAmount,
			AutoCalculated: a.AutoCalculated,
		})
	}

	var date *time.Time
	if req.Date != nil && *req.Date != "" {
		parsed, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return NewValidationError(c, "Invalid date", []ValidationError{
				{Field: "date", Message: "Date must be in YYYY-MM-DD format"},
			})
		}
		date = &parsed
	}

	input := service.RecordTransactionInput{
		OutletID:        outletID,
		Date:            date,
		Type:            domain.TransactionType(req.Type),
		Category:        domain.Category(req.Category),
		LedgerAccountID: accountID,
		Amount:          amount,
		Allocations:     allocations,
		EntryNumber:     req.EntryNumber,
		Description:     req.Description,
		CustomerPhone:   req.CustomerPhone,
		CustomerName:    req.CustomerName,
		SupplierName:    req.SupplierName,
		SourceType:      domain.SourceType(req.SourceType),
	}
	if key := c.Request().Header.Get("X-Idempotency-Key"); key != "" {
		input.IdempotencyKey = &key
	}

	transaction, err := h.txnService.Record(user, input)
	if err != nil {
		return h.transactionError(c, err, "Failed to record transaction")
	}

	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// List handles GET /api/v1/transactions?dayId=
func (h *TransactionHandler) List(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	dayID, err := uuid.Parse(c.QueryParam("dayId"))
	if err != nil {
		return NewValidationError(c, "Invalid day ID", []ValidationError{
			{Field: "dayId", Message: "Must be a valid UUID"},
		})
	}

	transactions, err := h.txnService.ListByDay(user, dayID)
	if err != nil {
		return h.transactionError(c, err, "Failed to list transactions")
	}

	response := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		response[i] = toTransactionResponse(t)
	}
	return c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/transactions/:id
func (h *TransactionHandler) Get(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.txnService.GetByID(user, id)
	if err != nil {
		return h.transactionError(c, err, "Failed to get transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// Delete handles DELETE /api/v1/transactions/:id. Only entries in draft
// days can be deleted; anything later requires a reversal.
func (h *TransactionHandler) Delete(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.txnService.Delete(user, id); err != nil {
		if errors.Is(err, domain.ErrDayLocked) {
			return NewConflictError(c, "Only entries in draft days can be deleted; reverse this entry instead")
		}
		return h.transactionError(c, err, "Failed to delete transaction")
	}

	return c.NoContent(http.StatusNoContent)
}

// ReverseTransactionRequest is the body for reversing an entry
type ReverseTransactionRequest struct {
	Reason *string `json:"reason"`
}

// Reverse handles POST /api/v1/transactions/:id/reverse
func (h *TransactionHandler) Reverse(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req ReverseTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	reversal, err := h.txnService.Reverse(user, id, req.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrReversalNotAllowed) {
			return NewConflictError(c, "Entries in a draft day are edited directly, not reversed")
		}
		return h.transactionError(c, err, "Failed to reverse transaction")
	}

	return c.JSON(http.StatusCreated, toTransactionResponse(reversal))
}

func (h *TransactionHandler) transactionError(c echo.Context, err error, logMsg string) error {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return NewForbiddenError(c, "Your role does not permit this operation")
	case errors.Is(err, domain.ErrTransactionNotFound):
		return NewNotFoundError(c, "Transaction not found")
	case errors.Is(err, domain.ErrDayNotFound):
		return NewNotFoundError(c, "Business day not found")
	case errors.Is(err, domain.ErrUnknownAccount):
		return NewValidationError(c, "Ledger account does not exist", nil)
	case errors.Is(err, domain.ErrAccountNotPostable):
		return NewValidationError(c, "Ledger account is disabled or not a leaf", nil)
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Amount must be positive", nil)
	case errors.Is(err, domain.ErrInvalidTransactionType):
		return NewValidationError(c, "Invalid transaction type", nil)
	case errors.Is(err, domain.ErrInvalidCategory):
		return NewValidationError(c, "Invalid transaction category", nil)
	case errors.Is(err, domain.ErrNoPaymentModes):
		return NewValidationError(c, "At least one payment mode is required", nil)
	case errors.Is(err, domain.ErrSplitMismatch):
		return NewValidationError(c, "Payment allocations do not sum to the transaction amount", nil)
	case errors.Is(err, domain.ErrEntryNumberTooLong):
		return NewValidationError(c, "Entry number exceeds maximum length", nil)
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Invalid input", nil)
	case errors.Is(err, domain.ErrDayLocked):
		return NewConflictError(c, "Business day is locked")
	}
	log.Error().Err(err).Msg(logMsg)
	return NewInternalError(c, logMsg)
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	allocations := make([]AllocationResponse, len(t.Allocations))
	for i, a := range t.Allocations {
		allocations[i] = AllocationResponse{
			Mode:           string(a.Mode),
			Amount:         a.Amount.StringFixed(2),
			AutoCalculated: a.AutoCalculated,
		}
	}

	resp := TransactionResponse{
		ID:              t.ID.String(),
		DailyRecordID:   t.DailyRecordID.String(),
		OutletID:        t.OutletID.String(),
		Type:            string(t.Type),
		Category:        string(t.Category),
		LedgerAccountID: t.LedgerAccountID.String(),
		Amount:          t.Amount.StringFixed(2),
		Allocations:     allocations,
		PaymentModes:    t.PaymentModes,
		EntryNumber:     t.EntryNumber,
		Description:     t.Description,
		SupplierName:    t.SupplierName,
		SourceType:      string(t.SourceType),
		IsReversal:      t.IsReversal,
		CreatedBy:       t.CreatedBy.String(),
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
	if t.CustomerID != nil {
		s := t.CustomerID.String()
		resp.CustomerID = &s
	}
	if t.ParentTransactionID != nil {
		s := t.ParentTransactionID.String()
		resp.ParentTransactionID = &s
	}
	return resp
}
