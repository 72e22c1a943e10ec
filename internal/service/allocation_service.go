package service

import (
	"github.com/shopspring/decimal"

	"github.com/khatapro/khata-backend/internal/domain"
)

// AllocationService runs the payment-split allocator for interactive entry
// forms. It is stateless; the client sends the current split and the edit
// that just happened, and gets the resplit back.
type AllocationService struct{}

// NewAllocationService creates a new AllocationService
func NewAllocationService() *AllocationService {
	return &AllocationService{}
}

// SplitEditOp names the edit that triggered a preview
type SplitEditOp string

const (
	SplitOpDistribute SplitEditOp = "distribute"
	SplitOpManual     SplitEditOp = "manual"
	SplitOpRemove     SplitEditOp = "remove"
)

// PreviewInput holds the allocator input for one edit
type PreviewInput struct {
	Op      SplitEditOp
	Modes   []domain.TenderMode
	Total   decimal.Decimal
	Current domain.Split
	// EditedMode and EditedAmount apply to the manual op only.
	EditedMode   domain.TenderMode
	EditedAmount decimal.Decimal
}

// PreviewResult is the resplit plus its balance state
type PreviewResult struct {
	Split    domain.Split
	Sum      decimal.Decimal
	Mismatch decimal.Decimal
	Balanced bool
}

// Preview applies one allocator edit and reports the resulting split
func (s *AllocationService) Preview(input PreviewInput) (*PreviewResult, error) {
	if len(input.Modes) == 0 {
		return nil, domain.ErrNoPaymentModes
	}
	for _, m := range input.Modes {
		if !domain.ValidTenderMode(m) {
			return nil, domain.ErrNoPaymentModes
		}
	}

	var split domain.Split
	switch input.Op {
	case SplitOpDistribute, "":
		split = domain.DistributeSplit(input.Current, input.Modes, input.Total)
	case SplitOpManual:
		if !domain.ValidTenderMode(input.EditedMode) {
			return nil, domain.ErrNoPaymentModes
		}
		split = domain.ApplyManualSplit(input.Current, input.Modes, input.Total, input.EditedMode, input.EditedAmount)
	case SplitOpRemove:
		split = domain.RemoveSplitMode(input.Current, input.Modes, input.Total)
	default:
		return nil, domain.ErrInvalidInput
	}

	return &PreviewResult{
		Split:    split,
		Sum:      split.Sum(),
		Mismatch: split.Mismatch(input.Total),
		Balanced: split.Balanced(input.Total),
	}, nil
}
