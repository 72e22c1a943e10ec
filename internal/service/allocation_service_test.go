package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khatapro/khata-backend/internal/domain"
)

func TestPreview_Distribute(t *testing.T) {
	svc := NewAllocationService()

	result, err := svc.Preview(PreviewInput{
		Op:    SplitOpDistribute,
		Modes: []domain.TenderMode{domain.TenderCash, domain.TenderUPI, domain.TenderCard},
		Total: decimal.RequireFromString("100.00"),
	})
	require.NoError(t, err)

	assert.True(t, result.Balanced)
	assert.Equal(t, "100.00", result.Sum.StringFixed(2))
	assert.Equal(t, "33.34", result.Split[domain.TenderCard].Amount.StringFixed(2))
}

func TestPreview_ManualEdit(t *testing.T) {
	svc := NewAllocationService()
	modes := []domain.TenderMode{domain.TenderCash, domain.TenderUPI}
	total := decimal.RequireFromString("100.00")

	first, err := svc.Preview(PreviewInput{Op: SplitOpDistribute, Modes: modes, Total: total})
	require.NoError(t, err)

	second, err := svc.Preview(PreviewInput{
		Op:           SplitOpManual,
		Modes:        modes,
		Total:        total,
		Current:      first.Split,
		EditedMode:   domain.TenderCash,
		EditedAmount: decimal.RequireFromString("30.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, "30.00", second.Split[domain.TenderCash].Amount.StringFixed(2))
	assert.Equal(t, "70.00", second.Split[domain.TenderUPI].Amount.StringFixed(2))
	assert.True(t, second.Balanced)
}

func TestPreview_RejectsUnknownModes(t *testing.T) {
	svc := NewAllocationService()

	_, err := svc.Preview(PreviewInput{
		Op:    SplitOpDistribute,
		Modes: []domain.TenderMode{"CHEQUE"},
		Total: decimal.RequireFromString("50.00"),
	})
	assert.ErrorIs(t, err, domain.ErrNoPaymentModes)

	_, err = svc.Preview(PreviewInput{Op: SplitOpDistribute, Total: decimal.RequireFromString("50.00")})
	assert.ErrorIs(t, err, domain.ErrNoPaymentModes)
}

func TestPreview_UnknownOp(t *testing.T) {
	svc := NewAllocationService()

	_, err := svc.Preview(PreviewInput{
		Op:    "merge",
		Modes: []domain.TenderMode{domain.TenderCash},
		Total: decimal.RequireFromString("50.00"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
