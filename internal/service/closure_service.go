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

// ClosureService freezes whole months once every constituent day is locked.
// Each close appends a versioned, hashed snapshot of the aggregated totals;
// snapshots are never rewritten, so a reopened and reclosed month leaves an
// audit trail of versions.
type ClosureService struct {
	closureRepo domain.MonthlyClosureRepository
	dayRepo     domain.BusinessDayRepository
	archive     storage.SnapshotArchive
}

// NewClosureService creates a new ClosureService. archive may be nil.
func NewClosureService(closureRepo domain.MonthlyClosureRepository, dayRepo domain.BusinessDayRepository, archive storage.SnapshotArchive) *ClosureService {
	return &ClosureService{
		closureRepo: closureRepo,
		dayRepo:     dayRepo,
		archive:     archive,
	}
}

// CloseResult pairs the closure row with the snapshot version the close
// produced.
type CloseResult struct {
	Closure  *domain.MonthlyClosure
	Snapshot *domain.MonthlyClosureSnapshot
}

// snapshotRetryBackoff is the pause before retrying a snapshot append that
// lost a version race to a concurrent close.
const snapshotRetryBackoff = 50 * time.Millisecond

// Close freezes a month. Every day in the month must be locked; a month with
// no days at all cannot be closed. Aggregation runs over the day rollups:
// opening balances from the first day, closing balances from the last,
// income and expense summed across all of them.
func (s *ClosureService) Close(actor *domain.User, outletID uuid.UUID, monthDate time.Time) (*CloseResult, error) {
	if !actor.Role.CanCloseMonths() {
		return nil, domain.ErrPermissionDenied
	}
	if err := canAccessOutlet(actor, outletID); err != nil {
		return nil, err
	}

	monthStart, monthEnd := util.MonthBounds(monthDate)
	days, err := s.dayRepo.ListByOutletRange(outletID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, domain.ErrEmptyMonth
	}
	for _, day := range days {
		if day.Status != domain.DayStatusLocked {
			return nil, domain.ErrOpenDaysRemain
		}
	}

	now := time.Now()
	closure := &domain.MonthlyClosure{
		OutletID:    outletID,
		MonthDate:   monthStart,
		Status:      domain.ClosureStatusClosed,
		OpeningCash: days[0].OpeningCash,
		OpeningUPI:  days[0].OpeningUPI,
		ClosingCash: days[len(days)-1].ClosingCash,
		ClosingUPI:  days[len(days)-1].ClosingUPI,
		DaysCount:   len(days),
		ClosedBy:    &actor.ID,
		ClosedAt:    &now,
	}
	for _, day := range days {
		closure.TotalIncome = closure.TotalIncome.Add(day.TotalIncome)
		closure.TotalExpense = closure.TotalExpense.Add(day.TotalExpense)
	}

	// Recloses keep the earlier row's id and overwrite reopen bookkeeping.
	if existing, err := s.closureRepo.GetByOutletMonth(outletID, monthStart); err == nil {
		closure.ID = existing.ID
	} else if err != domain.ErrClosureNotFound {
		return nil, err
	}

	closure, err = s.closureRepo.Upsert(closure)
	if err != nil {
		return nil, err
	}

	payload, err := domain.MarshalSnapshotPayload(closure.SnapshotPayload())
	if err != nil {
		return nil, err
	}
	record := &domain.MonthlyClosureSnapshot{
		OutletID:     outletID,
		MonthDate:    monthStart,
		Snapshot:     payload,
		SnapshotHash: domain.SnapshotHash(payload, monthStart, outletID),
		CreatedBy:    actor.ID,
	}
	snapshot, err := s.closureRepo.AppendSnapshot(record)
	if err == domain.ErrConcurrencyConflict {
		// Two closers raced for the same version; back off once and take
		// the next one.
		time.Sleep(snapshotRetryBackoff)
		snapshot, err = s.closureRepo.AppendSnapshot(record)
	}
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		if _, err := s.archive.ArchiveClosure(context.Background(), snapshot); err != nil {
			log.Warn().Err(err).
				Str("outlet_id", outletID.String()).
				Str("month", monthStart.Format("2006-01")).
				Int("version", snapshot.Version).
				Msg("Failed to archive closure snapshot")
		}
	}

	return &CloseResult{Closure: closure, Snapshot: snapshot}, nil
}

// Reopen flips a closed month back to open so locked days can be unlocked
// and corrected. The reason is mandatory and substantive; the existing
// snapshots stay untouched.
func (s *ClosureService) Reopen(actor *domain.User, outletID uuid.UUID, monthDate time.Time, reason string) (*domain.MonthlyClosure, error) {
	if !actor.Role.CanCloseMonths() {
		return nil, domain.ErrPermissionDenied
	}
	if err := canAccessOutlet(actor, outletID); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if len(reason) < domain.MinReopenReasonLength {
		return nil, domain.ErrReasonRequired
	}

	closure, err := s.closureRepo.GetByOutletMonth(outletID, monthDate)
	if err != nil {
		return nil, err
	}
	if closure.Status != domain.ClosureStatusClosed {
		return nil, domain.ErrMonthNotClosed
	}

	now := time.Now()
	closure.Status = domain.ClosureStatusOpen
	closure.ReopenedBy = &actor.ID
	closure.ReopenedAt = &now
	closure.ReopenReason = &reason
	return s.closureRepo.Upsert(closure)
}

// Get retrieves the closure row for an outlet's month
func (s *ClosureService) Get(actor *domain.User, outletID uuid.UUID, monthDate time.Time) (*domain.MonthlyClosure, error) {
	if err := canAccessOutlet(actor, outletID); err != nil {
		return nil, err
	}
	return s.closureRepo.GetByOutletMonth(outletID, monthDate)
}

// ListSnapshots retrieves the full snapshot version history for a month
func (s *ClosureService) ListSnapshots(actor *domain.User, outletID uuid.UUID, monthDate time.Time) ([]*domain.MonthlyClosureSnapshot, error) {
	if err := canAccessOutlet(actor, outletID); err != nil {
		return nil, err
	}
	return s.closureRepo.ListSnapshots(outletID, monthDate)
}

// VerificationResult reports a snapshot integrity check
type VerificationResult struct {
	Version      int    `json:"version"`
	StoredHash   string `json:"storedHash"`
	ComputedHash string `json:"computedHash"`
	Valid        bool   `json:"valid"`
}

// Verify recomputes the latest snapshot's content hash from its stored
// payload and compares it with the recorded hash. A mismatch means the
// snapshot bytes were altered after the close.
func (s *ClosureService) Verify(actor *domain.User, outletID uuid.UUID, monthDate time.Time) (*VerificationResult, error) {
	if err := canAccessOutlet(actor, outletID); err != nil {
		return nil, err
	}

	snapshot, err := s.closureRepo.LatestSnapshot(outletID, monthDate)
	if err != nil {
		return nil, err
	}

	computed := domain.SnapshotHash(snapshot.Snapshot, snapshot.MonthDate, snapshot.OutletID)
	return &VerificationResult{
		Version:      snapshot.Version,
		StoredHash:   snapshot.SnapshotHash,
		ComputedHash: computed,
		Valid:        computed == snapshot.SnapshotHash,
	}, nil
}
