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

// OutletHandler handles outlet registry HTTP requests
type OutletHandler struct {
	outletService *service.OutletService
}

// NewOutletHandler creates a new OutletHandler
func NewOutletHandler(outletService *service.OutletService) *OutletHandler {
	return &OutletHandler{outletService: outletService}
}

// OutletResponse represents an outlet in API responses
type OutletResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   *string `json:"address,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// List handles GET /api/v1/outlets
func (h *OutletHandler) List(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	outlets, err := h.outletService.List(user)
	if err != nil {
		return h.outletError(c, err, "Failed to list outlets")
	}

	responses := make([]OutletResponse, 0, len(outlets))
	for _, outlet := range outlets {
		responses = append(responses, toOutletResponse(outlet))
	}
	return c.JSON(http.StatusOK, responses)
}

// Get handles GET /api/v1/outlets/:id
func (h *OutletHandler) Get(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid outlet ID", nil)
	}

	outlet, err := h.outletService.GetByID(user, id)
	if err != nil {
		return h.outletError(c, err, "Failed to get outlet")
	}

	return c.JSON(http.StatusOK, toOutletResponse(outlet))
}

func (h *OutletHandler) outletError(c echo.Context, err error, logMsg string) error {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return NewForbiddenError(c, "Your role does not permit this operation")
	case errors.Is(err, domain.ErrOutletNotFound):
		return NewNotFoundError(c, "Outlet not found")
	}
	log.Error().Err(err).Msg(logMsg)
	return NewInternalError(c, logMsg)
}

func toOutletResponse(outlet *domain.Outlet) OutletResponse {
	return OutletResponse{
		ID:        outlet.ID.String(),
		Name:      outlet.Name,
		Address:   outlet.Address,
		CreatedAt: outlet.CreatedAt.Format(time.RFC3339),
	}
}
