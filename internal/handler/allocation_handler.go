package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/middleware"
	"github.com/khatapro/khata-backend/internal/service"
)

// AllocationHandler exposes the payment-split allocator as a stateless
// preview endpoint for entry forms
type AllocationHandler struct {
	allocService *service.AllocationService
}

// NewAllocationHandler creates a new AllocationHandler
func NewAllocationHandler(allocService *service.AllocationService) *AllocationHandler {
	return &AllocationHandler{allocService: allocService}
}

// PreviewSplitRequest is the body for a split preview. Current carries the
// split as the form last saw it; op names the edit that just happened.
type PreviewSplitRequest struct {
	Op           string              `json:"op"`
	Modes        []string            `json:"modes"`
	Total        string              `json:"total"`
	Current      []AllocationRequest `json:"current"`
	EditedMode   string              `json:"editedMode"`
	EditedAmount string              `json:"editedAmount"`
}

// PreviewSplitResponse is the resplit plus its balance state
type PreviewSplitResponse struct {
	Allocations []AllocationResponse `json:"allocations"`
	Sum         string               `json:"sum"`
	Mismatch    string               `json:"mismatch"`
	Balanced    bool                 `json:"balanced"`
}

// Preview handles POST /api/v1/payment-splits/preview
func (h *AllocationHandler) Preview(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req PreviewSplitRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	total, err := decimal.NewFromString(req.Total)
	if err != nil {
		return NewValidationError(c, "Invalid total", []ValidationError{
			{Field: "total", Message: "Must be a valid decimal number"},
		})
	}

	modes := make([]domain.TenderMode, len(req.Modes))
	for i, m := range req.Modes {
		modes[i] = domain.TenderMode(m)
	}

	current := make(domain.Split, len(req.Current))
	for _, a := range req.Current {
		amount, err := decimal.NewFromString(a.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid allocation amount", []ValidationError{
				{Field: "current", Message: "Each allocation amount must be a valid decimal number"},
			})
		}
		current[domain.TenderMode(a.Mode)] = domain.SplitAmount{
			Amount: amount,
			Auto:   a.AutoCalculated,
		}
	}

	input := service.PreviewInput{
		Op:         service.SplitEditOp(req.Op),
		Modes:      modes,
		Total:      total,
		Current:    current,
		EditedMode: domain.TenderMode(req.EditedMode),
	}
	if req.EditedAmount != "" {
		edited, err := decimal.NewFromString(req.EditedAmount)
		if err != nil {
			return NewValidationError(c, "Invalid edited amount", []ValidationError{
				{Field: "editedAmount", Message: "Must be a valid decimal number"},
			})
		}
		input.EditedAmount = edited
	}

	result, err := h.allocService.Preview(input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoPaymentModes):
			return NewValidationError(c, "At least one valid payment mode is required", nil)
		case errors.Is(err, domain.ErrInvalidInput):
			return NewValidationError(c, "Unknown split operation", nil)
		}
		return NewInternalError(c, "Failed to preview split")
	}

	allocations := make([]AllocationResponse, 0, len(modes))
	for _, a := range result.Split.Allocations(modes) {
		allocations = append(allocations, AllocationResponse{
			Mode:           string(a.Mode),
			Amount:         a.Amount.StringFixed(2),
			AutoCalculated: a.AutoCalculated,
		})
	}

	return c.JSON(http.StatusOK, PreviewSplitResponse{
		Allocations: allocations,
		Sum:         result.Sum.StringFixed(2),
		Mismatch:    result.Mismatch.StringFixed(2),
		Balanced:    result.Balanced,
	})
}
