package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/middleware"
	"github.com/khatapro/khata-backend/internal/service"
)

// ClosureHandler handles monthly closure HTTP requests
type ClosureHandler struct {
	closureService *service.ClosureService
}

// NewClosureHandler creates a new ClosureHandler
func NewClosureHandler(closureService *service.ClosureService) *ClosureHandler {
	return &ClosureHandler{closureService: closureService}
}

// ClosureResponse represents a monthly closure in API responses
type ClosureResponse struct {
	ID           string  `json:"id"`
	OutletID     string  `json:"outletId"`
	Month        string  `json:"month"`
	Status       string  `json:"status"`
	OpeningCash  string  `json:"openingCash"`
	ClosingCash  string  `json:"closingCash"`
	OpeningUPI   string  `json:"openingUpi"`
	ClosingUPI   string  `json:"closingUpi"`
	TotalIncome  string  `json:"totalIncome"`
	TotalExpense string  `json:"totalExpense"`
	DaysCount    int     `json:"daysCount"`
	ClosedBy     *string `json:"closedBy,omitempty"`
	ClosedAt     *string `json:"closedAt,omitempty"`
	ReopenedBy   *string `json:"reopenedBy,omitempty"`
	ReopenedAt   *string `json:"reopenedAt,omitempty"`
	ReopenReason *string `json:"reopenReason,omitempty"`
}

// SnapshotResponse represents one versioned closure snapshot
type SnapshotResponse struct {
	ID           string `json:"id"`
	OutletID     string `json:"outletId"`
	Month        string `json:"month"`
	Version      int    `json:"version"`
	Snapshot     string `json:"snapshot"`
	SnapshotHash string `json:"snapshotHash"`
	CreatedBy    string `json:"createdBy"`
	CreatedAt    string `json:"createdAt"`
}

// CloseMonthRequest is the body for closing a month
type CloseMonthRequest struct {
	OutletID string `json:"outletId"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
}

// Close handles POST /api/v1/closures
func (h *ClosureHandler) Close(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CloseMonthRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	outletID, monthDate, problem := parseClosureTarget(req.OutletID, req.Year, req.Month)
	if problem != nil {
		return NewValidationError(c, "Invalid closure target", problem)
	}

	result, err := h.closureService.Close(user, outletID, monthDate)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOpenDaysRemain):
			return NewConflictError(c, "Every day in the month must be locked before closing")
		case errors.Is(err, domain.ErrEmptyMonth):
			return NewConflictError(c, "A month with no business days cannot be closed")
		}
		return h.closureError(c, err, "Failed to close month")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"closure":  toClosureResponse(result.Closure),
		"snapshot": toSnapshotResponse(result.Snapshot),
	})
}

// ReopenMonthRequest is the body for reopening a closed month
type ReopenMonthRequest struct {
	OutletID string `json:"outletId"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Reason   string `json:"reason"`
}

// Reopen handles POST /api/v1/closures/reopen
func (h *ClosureHandler) Reopen(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req ReopenMonthRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	outletID, monthDate, problem := parseClosureTarget(req.OutletID, req.Year, req.Month)
	if problem != nil {
		return NewValidationError(c, "Invalid closure target", problem)
	}

	closure, err := h.closureService.Reopen(user, outletID, monthDate, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReasonRequired):
			return NewValidationError(c, "A reopen reason of at least 10 characters is required", []ValidationError{
				{Field: "reason", Message: "Reason must be at least 10 characters"},
			})
		case errors.Is(err, domain.ErrMonthNotClosed):
			return NewConflictError(c, "Month is not closed")
		}
		return h.closureError(c, err, "Failed to reopen month")
	}

	return c.JSON(http.StatusOK, toClosureResponse(closure))
}

// Get handles GET /api/v1/closures/:year/:month
func (h *ClosureHandler) Get(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	outletID, monthDate, err := h.pathTarget(c, user)
	if err != nil {
		return NewValidationError(c, "Invalid closure target", nil)
	}

	closure, err := h.closureService.Get(user, outletID, monthDate)
	if err != nil {
		return h.closureError(c, err, "Failed to get closure")
	}

	return c.JSON(http.StatusOK, toClosureResponse(closure))
}

// ListSnapshots handles GET /api/v1/closures/:year/:month/snapshots
func (h *ClosureHandler) ListSnapshots(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	outletID, monthDate, err := h.pathTarget(c, user)
	if err != nil {
		return NewValidationError(c, "Invalid closure target", nil)
	}

	snapshots, err := h.closureService.ListSnapshots(user, outletID, monthDate)
	if err != nil {
		return h.closureError(c, err, "Failed to list closure snapshots")
	}

	response := make([]SnapshotResponse, len(snapshots))
	for i, s := range snapshots {
		response[i] = toSnapshotResponse(s)
	}
	return c.JSON(http.StatusOK, response)
}

// Verify handles GET /api/v1/closures/:year/:month/verify
func (h *ClosureHandler) Verify(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	outletID, monthDate, err := h.pathTarget(c, user)
	if err != nil {
		return NewValidationError(c, "Invalid closure target", nil)
	}

	result, err := h.closureService.Verify(user, outletID, monthDate)
	if err != nil {
		return h.closureError(c, err, "Failed to verify closure snapshot")
	}

	return c.JSON(http.StatusOK, result)
}

func (h *ClosureHandler) pathTarget(c echo.Context, user *domain.User) (uuid.UUID, time.Time, error) {
	outletID, err := requestOutletID(c, user)
	if err != nil {
		return uuid.Nil, time.Time{}, err
	}

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2100 {
		return uuid.Nil, time.Time{}, domain.ErrInvalidInput
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return uuid.Nil, time.Time{}, domain.ErrInvalidInput
	}

	return outletID, time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

func parseClosureTarget(rawOutletID string, year, month int) (uuid.UUID, time.Time, []ValidationError) {
	outletID, err := uuid.Parse(rawOutletID)
	if err != nil {
		return uuid.Nil, time.Time{}, []ValidationError{
			{Field: "outletId", Message: "Must be a valid UUID"},
		}
	}
	if year < 2000 || year > 2100 {
		return uuid.Nil, time.Time{}, []ValidationError{
			{Field: "year", Message: "Year must be between 2000 and 2100"},
		}
	}
	if month < 1 || month > 12 {
		return uuid.Nil, time.Time{}, []ValidationError{
			{Field: "month", Message: "Month must be between 1 and 12"},
		}
	}
	return outletID, time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

func (h *ClosureHandler) closureError(c echo.Context, err error, logMsg string) error {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return NewForbiddenError(c, "Your role does not permit month closure operations")
	case errors.Is(err, domain.ErrClosureNotFound):
		return NewNotFoundError(c, "Monthly closure not found")
	case errors.Is(err, domain.ErrSnapshotNotFound):
		return NewNotFoundError(c, "No closure snapshot recorded for this month")
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return NewConflictError(c, "Concurrent closure update, retry the operation")
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Invalid input", nil)
	}
	log.Error().Err(err).Msg(logMsg)
	return NewInternalError(c, logMsg)
}

func toClosureResponse(m *domain.MonthlyClosure) ClosureResponse {
	resp := ClosureResponse{
		ID:           m.ID.String(),
		OutletID:     m.OutletID.String(),
		Month:        m.MonthDate.Format("2006-01"),
		Status:       string(m.Status),
		OpeningCash:  m.OpeningCash.StringFixed(2),
		ClosingCash:  m.ClosingCash.StringFixed(2),
		OpeningUPI:   m.OpeningUPI.StringFixed(2),
		ClosingUPI:   m.ClosingUPI.StringFixed(2),
		TotalIncome:  m.TotalIncome.StringFixed(2),
		TotalExpense: m.TotalExpense.StringFixed(2),
		DaysCount:    m.DaysCount,
		ReopenReason: m.ReopenReason,
	}
	if m.ClosedBy != nil {
		s := m.ClosedBy.String()
		resp.ClosedBy = &s
	}
	if m.ClosedAt != nil {
		s := m.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &s
	}
	if m.ReopenedBy != nil {
		s := m.ReopenedBy.String()
		resp.ReopenedBy = &s
	}
	if m.ReopenedAt != nil {
		s := m.ReopenedAt.Format(time.RFC3339)
		resp.ReopenedAt = &s
	}
	return resp
}

func toSnapshotResponse(s *domain.MonthlyClosureSnapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:           s.ID.String(),
		OutletID:     s.OutletID.String(),
		Month:        s.MonthDate.Format("2006-01"),
		Version:      s.Version,
		Snapshot:     string(s.Snapshot),
		SnapshotHash: s.SnapshotHash,
		CreatedBy:    s.CreatedBy.String(),
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
	}
}
