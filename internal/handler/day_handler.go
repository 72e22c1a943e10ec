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

// DayHandler handles business-day HTTP requests
type DayHandler struct {
	dayService *service.DayService
	aggService *service.AggregationService
}

// NewDayHandler creates a new DayHandler
func NewDayHandler(dayService *service.DayService, aggService *service.AggregationService) *DayHandler {
	return &DayHandler{
		dayService: dayService,
		aggService: aggService,
	}
}

// DayResponse represents a business day in API responses
type DayResponse struct {
	ID           string  `json:"id"`
	OutletID     string  `json:"outletId"`
	Date         string  `json:"date"`
	OpeningCash  string  `json:"openingCash"`
	OpeningUPI   string  `json:"openingUpi"`
	ClosingCash  string  `json:"closingCash"`
	ClosingUPI   string  `json:"closingUpi"`
	TotalIncome  string  `json:"totalIncome"`
	TotalExpense string  `json:"totalExpense"`
	Status       string  `json:"status"`
	SubmittedBy  *string `json:"submittedBy,omitempty"`
	SubmittedAt  *string `json:"submittedAt,omitempty"`
	LockedBy     *string `json:"lockedBy,omitempty"`
	LockedAt     *string `json:"lockedAt,omitempty"`
	LockReason   *string `json:"lockReason,omitempty"`
	UnlockedBy   *string `json:"unlockedBy,omitempty"`
	UnlockedAt   *string `json:"unlockedAt,omitempty"`
	UnlockReason *string `json:"unlockReason,omitempty"`
	CreatedAt    string  `json:"createdAt"`
}

// requestOutletID resolves the outlet a request targets: the outletId query
// parameter when present, otherwise the actor's own outlet. Head-office
// users have no outlet of their own and must name one.
func requestOutletID(c echo.Context, user *domain.User) (uuid.UUID, error) {
	if raw := c.QueryParam("outletId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, domain.ErrInvalidInput
		}
		return id, nil
	}
	if user.OutletID != nil {
		return *user.OutletID, nil
	}
	return uuid.Nil, domain.ErrInvalidInput
}

// GetToday handles GET /api/v1/days/today
func (h *DayHandler) GetToday(c echo.Context) error {
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

	day, err := h.dayService.Today(user, outletID)
	if err != nil {
		return h.dayError(c, err, "Failed to get today's business day")
	}

	return c.JSON(http.StatusOK, toDayResponse(day))
}

// GetByDate handles GET /api/v1/days/:year/:month/:day
func (h *DayHandler) GetByDate(c echo.Context) error {
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

	date, ok := parseDateParams(c)
	if !ok {
		return NewValidationError(c, "Invalid date", []ValidationError{
			{Field: "date", Message: "Path must be a valid /:year/:month/:day date"},
		})
	}

	day, err := h.dayService.GetByOutletDate(user, outletID, date)
	if err != nil {
		return h.dayError(c, err, "Failed to get business day")
	}

	return c.JSON(http.StatusOK, toDayResponse(day))
}

// List handles GET /api/v1/days?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *DayHandler) List(c echo.Context) error {
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

	from, err := time.Parse("2006-01-02", c.QueryParam("from"))
	if err != nil {
		return NewValidationError(c, "Invalid from date", []ValidationError{
			{Field: "from", Message: "Date must be in YYYY-MM-DD format"},
		})
	}
	to, err := time.Parse("2006-01-02", c.QueryParam("to"))
	if err != nil {
		return NewValidationError(c, "Invalid to date", []ValidationError{
			{Field: "to", Message: "Date must be in YYYY-MM-DD format"},
		})
	}

	days, err := h.dayService.ListRange(user, outletID, from, to)
	if err != nil {
		return h.dayError(c, err, "Failed to list business days")
	}

	response := make([]DayResponse, len(days))
	for i, day := range days {
		response[i] = toDayResponse(day)
	}
	return c.JSON(http.StatusOK, response)
}

// Submit handles POST /api/v1/days/:id/submit
func (h *DayHandler) Submit(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	dayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid day ID", nil)
	}

	day, err := h.dayService.Submit(user, dayID)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyDay) {
			return NewConflictError(c, "A day with no transactions cannot be submitted")
		}
		return h.dayError(c, err, "Failed to submit business day")
	}

	return c.JSON(http.StatusOK, toDayResponse(day))
}

// LockDayRequest is the optional body for locking a day
type LockDayRequest struct {
	Reason *string `json:"reason"`
}

// Lock handles POST /api/v1/days/:id/lock
func (h *DayHandler) Lock(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	dayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid day ID", nil)
	}

	var req LockDayRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	day, err := h.dayService.Lock(user, dayID, req.Reason)
	if err != nil {
		return h.dayError(c, err, "Failed to lock business day")
	}

	return c.JSON(http.StatusOK, toDayResponse(day))
}

// UnlockDayRequest is the body for unlocking a day
type UnlockDayRequest struct {
	Reason string `json:"reason"`
}

// Unlock handles POST /api/v1/days/:id/unlock
func (h *DayHandler) Unlock(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	dayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid day ID", nil)
	}

	var req UnlockDayRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	day, err := h.dayService.Unlock(user, dayID, req.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrReasonRequired) {
			return NewValidationError(c, "A reopen reason of at least 10 characters is required", []ValidationError{
				{Field: "reason", Message: "Reason must be at least 10 characters"},
			})
		}
		return h.dayError(c, err, "Failed to unlock business day")
	}

	return c.JSON(http.StatusOK, toDayResponse(day))
}

// Recompute handles POST /api/v1/days/:id/recompute
func (h *DayHandler) Recompute(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	dayID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid day ID", nil)
	}

	day, err := h.aggService.Recompute(user, dayID)
	if err != nil {
		return h.dayError(c, err, "Failed to recompute business day")
	}

	return c.JSON(http.StatusOK, toDayResponse(day))
}

// dayError maps the shared day-lifecycle failures; operation-specific cases
// are handled at the call site before falling through here.
func (h *DayHandler) dayError(c echo.Context, err error, logMsg string) error {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return NewForbiddenError(c, "Your role does not permit this operation")
	case errors.Is(err, domain.ErrDayNotFound):
		return NewNotFoundError(c, "Business day not found")
	case errors.Is(err, domain.ErrDayLocked):
		return NewConflictError(c, "Business day is locked")
	case errors.Is(err, domain.ErrInvalidTransition):
		return NewConflictError(c, "Business day is not in a state that allows this transition")
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Invalid input", nil)
	}
	log.Error().Err(err).Msg(logMsg)
	return NewInternalError(c, logMsg)
}

func parseDateParams(c echo.Context) (time.Time, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2100 {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func toDayResponse(d *domain.BusinessDay) DayResponse {
	resp := DayResponse{
		ID:           d.ID.String(),
		OutletID:     d.OutletID.String(),
		Date:         d.Date.Format("2006-01-02"),
		OpeningCash:  d.OpeningCash.StringFixed(2),
		OpeningUPI:   d.OpeningUPI.StringFixed(2),
		ClosingCash:  d.ClosingCash.StringFixed(2),
		ClosingUPI:   d.ClosingUPI.StringFixed(2),
		TotalIncome:  d.TotalIncome.StringFixed(2),
		TotalExpense: d.TotalExpense.StringFixed(2),
		Status:       string(d.Status),
		LockReason:   d.LockReason,
		UnlockReason: d.UnlockReason,
		CreatedAt:    d.CreatedAt.Format(time.RFC3339),
	}
	if d.SubmittedBy != nil {
		s := d.SubmittedBy.String()
		resp.SubmittedBy = &s
	}
	if d.SubmittedAt != nil {
		s := d.SubmittedAt.Format(time.RFC3339)
		resp.SubmittedAt = &s
	}
	if d.LockedBy != nil {
		s := d.LockedBy.String()
		resp.LockedBy = &s
	}
	if d.LockedAt != nil {
		s := d.LockedAt.Format(time.RFC3339)
		resp.LockedAt = &s
	}
	if d.UnlockedBy != nil {
		s := d.UnlockedBy.String()
		resp.UnlockedBy = &s
	}
	if d.UnlockedAt != nil {
		s := d.UnlockedAt.Format(time.RFC3339)
		resp.UnlockedAt = &s
	}
	return resp
}
