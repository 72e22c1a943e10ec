package service

import (
	"github.com/google/uuid"

	"github.com/khatapro/khata-backend/internal/domain"
)

// AggregationService re-derives day rollups from the underlying transaction
// set. Recomputation is the recovery path when a rollup is suspected stale;
// it is idempotent and safe on any mutable or locked day.
type AggregationService struct {
	txnRepo domain.TransactionRepository
	dayRepo domain.BusinessDayRepository
}

// NewAggregationService creates a new AggregationService
func NewAggregationService(txnRepo domain.TransactionRepository, dayRepo domain.BusinessDayRepository) *AggregationService {
	return &AggregationService{
		txnRepo: txnRepo,
		dayRepo: dayRepo,
	}
}

// Recompute rebuilds a day's totals from scratch and writes them back
func (s *AggregationService) Recompute(actor *domain.User, dayID uuid.UUID) (*domain.BusinessDay, error) {
	if !actor.Role.CanWrite() {
		return nil, domain.ErrPermissionDenied
	}
	day, err := s.dayRepo.GetByID(dayID)
	if err != nil {
		return nil, err
	}
	if err := canAccessOutlet(actor, day.OutletID); err != nil {
		return nil, err
	}
	return s.txnRepo.RecomputeDay(dayID)
}

// Totals derives a day's rollup without persisting it; used to compare a
// stored rollup against the ground truth.
func (s *AggregationService) Totals(actor *domain.User, dayID uuid.UUID) (*domain.DayTotals, error) {
	day, err := s.dayRepo.GetByID(dayID)
	if err != nil {
		return nil, err
	}
	if err := canAccessOutlet(actor, day.OutletID); err != nil {
		return nil, err
	}
	transactions, err := s.txnRepo.ListByDay(dayID)
	if err != nil {
		return nil, err
	}
	totals := domain.ComputeDayTotals(day, transactions)
	return &totals, nil
}
