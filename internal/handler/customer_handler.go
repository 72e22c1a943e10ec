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

// CustomerHandler handles credit customer HTTP requests
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CustomerResponse represents a credit customer in API responses
type CustomerResponse struct {
	ID                 string  `json:"id"`
	OutletID           string  `json:"outletId"`
	Phone              string  `json:"phone"`
	Name               string  `json:"name"`
	ReferredBy         *string `json:"referredBy,omitempty"`
	OutstandingBalance string  `json:"outstandingBalance"`
	CreatedAt          string  `json:"createdAt"`
}

// Get handles GET /api/v1/customers/:id
func (h *CustomerHandler) Get(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid customer ID", nil)
	}

	customer, err := h.customerService.GetByID(user, id)
	if err != nil {
		return h.customerError(c, err, "Failed to get customer")
	}

	return c.JSON(http.StatusOK, toCustomerResponse(customer))
}

// GetByPhone handles GET /api/v1/customers?phone=
func (h *CustomerHandler) GetByPhone(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	outletID, err := requestOutletID(c, user)
	if err != nil {
		return NewValidationError(c, "Outlet is required", []ValidationError{
			{Field: "outletId", Message: "A valid outlet id must be provided"},
		})
	}

	phone := c.QueryParam("phone")
	if phone == "" {
		return NewValidationError(c, "Phone is required", []ValidationError{
			{Field: "phone", Message: "A phone number must be provided"},
		})
	}

	customer, err := h.customerService.GetByPhone(user, outletID, phone)
	if err != nil {
		return h.customerError(c, err, "Failed to get customer")
	}

	return c.JSON(http.StatusOK, toCustomerResponse(customer))
}

func (h *CustomerHandler) customerError(c echo.Context, err error, logMsg string) error {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return NewForbiddenError(c, "Your role does not permit this operation")
	case errors.Is(err, domain.ErrCustomerNotFound):
		return NewNotFoundError(c, "Customer not found")
	}
	log.Error().Err(err).Msg(logMsg)
	return NewInternalError(c, logMsg)
}

func toCustomerResponse(cust *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                 cust.ID.String(),
		OutletID:           cust.OutletID.String(),
		Phone:              cust.Phone,
		Name:               cust.Name,
		ReferredBy:         cust.ReferredBy,
		OutstandingBalance: cust.OutstandingBalance.StringFixed(2),
		CreatedAt:          cust.CreatedAt.Format(time.RFC3339),
	}
}
