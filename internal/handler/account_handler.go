package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/middleware"
	"github.com/khatapro/khata-backend/internal/service"
)

// AccountHandler handles chart-of-accounts HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// AccountResponse represents a ledger account in API responses
type AccountResponse struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	ParentID  *string `json:"parentId,omitempty"`
	IsLeaf    bool    `json:"isLeaf"`
	Status    string  `json:"status"`
	IsSystem  bool    `json:"isSystem"`
	CreatedAt string  `json:"createdAt"`
}

// List handles GET /api/v1/ledger-accounts
func (h *AccountHandler) List(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	accounts, err := h.accountService.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list ledger accounts")
		return NewInternalError(c, "Failed to list ledger accounts")
	}

	response := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		response[i] = toAccountResponse(a)
	}
	return c.JSON(http.StatusOK, response)
}

// CreateAccountRequest is the body for creating a ledger account
type CreateAccountRequest struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	ParentID *string `json:"parentId"`
	IsLeaf   bool    `json:"isLeaf"`
}

// Create handles POST /api/v1/ledger-accounts
func (h *AccountHandler) Create(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.CreateAccountInput{
		Code:   req.Code,
		Name:   req.Name,
		Type:   domain.AccountType(req.Type),
		IsLeaf: req.IsLeaf,
	}
	if req.ParentID != nil && *req.ParentID != "" {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			return NewValidationError(c, "Invalid parent ID", []ValidationError{
				{Field: "parentId", Message: "Must be a valid UUID"},
			})
		}
		input.ParentID = &parentID
	}

	account, err := h.accountService.Create(user, input)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return NewConflictError(c, "An account with this code already exists")
		}
		return h.accountError(c, err, "Failed to create ledger account")
	}

	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// UpdateAccountRequest is the body for updating a ledger account; absent
// fields are left unchanged
type UpdateAccountRequest struct {
	Code   *string `json:"code"`
	Name   *string `json:"name"`
	Type   *string `json:"type"`
	IsLeaf *bool   `json:"isLeaf"`
}

// Update handles PATCH /api/v1/ledger-accounts/:id
func (h *AccountHandler) Update(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	var req UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateAccountInput{
		Code:   req.Code,
		Name:   req.Name,
		IsLeaf: req.IsLeaf,
	}
	if req.Type != nil {
		accountType := domain.AccountType(*req.Type)
		input.Type = &accountType
	}

	account, err := h.accountService.Update(user, id, input)
	if err != nil {
		return h.accountError(c, err, "Failed to update ledger account")
	}

	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// SetAccountStatusRequest is the body for enabling or disabling an account
type SetAccountStatusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PATCH /api/v1/ledger-accounts/:id/status
func (h *AccountHandler) SetStatus(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	var req SetAccountStatusRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	account, err := h.accountService.SetStatus(user, id, domain.AccountStatus(req.Status))
	if err != nil {
		return h.accountError(c, err, "Failed to set ledger account status")
	}

	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// Delete handles DELETE /api/v1/ledger-accounts/:id
func (h *AccountHandler) Delete(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	if err := h.accountService.Delete(user, id); err != nil {
		if errors.Is(err, domain.ErrAccountInUse) {
			return NewConflictError(c, "Accounts referenced by transactions cannot be deleted; disable instead")
		}
		return h.accountError(c, err, "Failed to delete ledger account")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) accountError(c echo.Context, err error, logMsg string) error {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return NewForbiddenError(c, "Your role does not permit account management")
	case errors.Is(err, domain.ErrUnknownAccount):
		return NewNotFoundError(c, "Ledger account not found")
	case errors.Is(err, domain.ErrAccountLocked):
		return NewConflictError(c, "System accounts cannot be modified")
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Invalid input", nil)
	}
	log.Error().Err(err).Msg(logMsg)
	return NewInternalError(c, logMsg)
}

func toAccountResponse(a *domain.LedgerAccount) AccountResponse {
	resp := AccountResponse{
		ID:        a.ID.String(),
		Code:      a.Code,
		Name:      a.Name,
		Type:      string(a.Type),
		IsLeaf:    a.IsLeaf,
		Status:    string(a.Status),
		IsSystem:  a.IsSystem,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
	if a.ParentID != nil {
		s := a.ParentID.String()
		resp.ParentID = &s
	}
	return resp
}
