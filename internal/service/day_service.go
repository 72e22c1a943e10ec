package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/repository/storage"
	"github.com/khatapro/khata-backend/internal/util"
)

// DayService owns the business-day lifecycle: lazy materialization, the
// draft -> submitted -> locked state machine, and the accountant unlock
// escalation.
type DayService struct {
	dayRepo domain.BusinessDayRepository
	txnRepo domain.TransactionRepository
	archive storage.SnapshotArchive
}

// NewDayService creates a new DayService. archive may be nil, in which case
// locked days are not pushed to object storage.
func NewDayService(dayRepo domain.BusinessDayRepository, txnRepo domain.TransactionRepository, archive storage.SnapshotArchive) *DayService {
	return &DayService{
		dayRepo: dayRepo,
		txnRepo: txnRepo,
		archive: archive,
	}
}

// canAccessOutlet enforces outlet scoping: outlet-bound roles only touch
// their own outlet, head-office roles touch any.
func canAccessOutlet(actor *domain.User, outletID uuid.UUID) error {
	if actor.OutletID != nil && *actor.OutletID != outletID {
		return domain.ErrPermissionDenied
	}
	return nil
}

// Today finds or creates the actor's current business day. The business date
// rolls over at midnight IST, not UTC.
func (s *DayService) Today(actor *domain.User, outletID uuid.UUID) (*domain.BusinessDay, error) {
	return s.EnsureDay(actor, outletID, util.BusinessDate(time.Now()))
}

// EnsureDay finds or creates the day row for (outlet, date), carrying
// opening balances forward. Requires a writing role: materializing a row is
// a write even when nothing is posted yet.
func (s *DayService) EnsureDay(actor *domain.User, outletID uuid.UUID, date time.Time) (*domain.BusinessDay, error) {
	if !actor.Role.CanWrite() {
		return nil, domain.ErrPermissionDenied
	}
	if err := canAccessOutlet(actor, outletID); err != nil {
		return nil, err
	}
	return s.dayRepo.EnsureDay(outletID, date)
}

// GetByID retrieves a day, enforcing outlet scoping
func (s *DayService) GetByID(actor *domain.User, id uuid.UUID) (*domain.BusinessDay, error) {
	day, err := s.dayRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := canAccessOutlet(actor, day.OutletID); err != nil {
		return nil, err
	}
	return day, nil
}

// GetByOutletDate retrieves the day for an outlet and date without
// materializing it.
func (s *DayService) GetByOutletDate(actor *domain.User, outletID uuid.UUID, date time.Time) (*domain.BusinessDay, error) {
	if err := canAccessOutlet(actor, outletID); err != nil {
		return nil, err
	}
	return s.dayRepo.GetByOutletDate(outletID, date)
}

// ListRange retrieves an outlet's days within [from, to]
func (s *DayService) ListRange(actor *domain.User, outletID uuid.UUID, from, to time.Time) ([]*domain.BusinessDay, error) {
	if err := canAccessOutlet(actor, outletID); err != nil {
		return nil, err
	}
	return s.dayRepo.ListByOutletRange(outletID, from, to)
}

// Submit transitions a draft day to submitted. Empty days cannot be
// submitted.
func (s *DayService) Submit(actor *domain.User, dayID uuid.UUID) (*domain.BusinessDay, error) {
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
	return s.dayRepo.Submit(dayID, actor.ID)
}

// Lock transitions a submitted day to locked and pushes the frozen ledger to
// the archive. Archive failures are logged, never surfaced: the lock has
// already committed.
func (s *DayService) Lock(actor *domain.User, dayID uuid.UUID, reason *string) (*domain.BusinessDay, error) {
	if !actor.Role.CanLockDays() {
		return nil, domain.ErrPermissionDenied
	}
	existing, err := s.dayRepo.GetByID(dayID)
	if err != nil {
		return nil, err
	}
	if err := canAccessOutlet(actor, existing.OutletID); err != nil {
		return nil, err
	}
	day, err := s.dayRepo.Lock(dayID, actor.ID, reason)
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		transactions, err := s.txnRepo.ListByDay(day.ID)
		if err == nil {
			_, err = s.archive.ArchiveDay(context.Background(), day, transactions)
		}
		if err != nil {
			log.Warn().Err(err).
				Str("day_id", day.ID.String()).
				Str("outlet_id", day.OutletID.String()).
				Msg("Failed to archive locked day")
		}
	}
	return day, nil
}

// Unlock transitions a locked day back to submitted. The escalation needs an
// accountant-level role and a substantive reason.
func (s *DayService) Unlock(actor *domain.User, dayID uuid.UUID, reason string) (*domain.BusinessDay, error) {
	if !actor.Role.CanLockDays() {
		return nil, domain.ErrPermissionDenied
	}
	reason = strings.TrimSpace(reason)
	if len(reason) < domain.MinReopenReasonLength {
		return nil, domain.ErrReasonRequired
	}
	day, err := s.dayRepo.GetByID(dayID)
	if err != nil {
		return nil, err
	}
	if err := canAccessOutlet(actor, day.OutletID); err != nil {
		return nil, err
	}
	return s.dayRepo.Unlock(dayID, actor.ID, reason)
}
