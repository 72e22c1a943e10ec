package domain

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ClosureStatus string

const (
	ClosureStatusOpen   ClosureStatus = "open"
	ClosureStatusClosed ClosureStatus = "closed"
)

// MonthlyClosure freezes one outlet's month once every constituent day is
// locked. It references, but does not own, the days it summarizes.
type MonthlyClosure struct {
	ID           uuid.UUID       `json:"id"`
	OutletID     uuid.UUID       `json:"outletId"`
	MonthDate    time.Time       `json:"monthDate"`
	Status       ClosureStatus   `json:"status"`
	OpeningCash  decimal.Decimal `json:"openingCash"`
	ClosingCash  decimal.Decimal `json:"closingCash"`
	OpeningUPI   decimal.Decimal `json:"openingUpi"`
	ClosingUPI   decimal.Decimal `json:"closingUpi"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	DaysCount    int             `json:"daysCount"`
	ClosedBy     *uuid.UUID      `json:"closedBy,omitempty"`
	ClosedAt     *time.Time      `json:"closedAt,omitempty"`
	ReopenedBy   *uuid.UUID      `json:"reopenedBy,omitempty"`
	ReopenedAt   *time.Time      `json:"reopenedAt,omitempty"`
	ReopenReason *string         `json:"reopenReason,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ClosureSnapshotPayload is the serialized body of a snapshot: the frozen
// totals, nothing more. Reports recomputed from the same locked days must
// serialize to the same bytes.
type ClosureSnapshotPayload struct {
	OpeningCash  string `json:"openingCash"`
	ClosingCash  string `json:"closingCash"`
	OpeningUPI   string `json:"openingUpi"`
	ClosingUPI   string `json:"closingUpi"`
	TotalIncome  string `json:"totalIncome"`
	TotalExpense string `json:"totalExpense"`
	DaysCount    int    `json:"daysCount"`
}

// SnapshotPayload renders the closure's totals in canonical fixed-point form.
func (c *MonthlyClosure) SnapshotPayload() ClosureSnapshotPayload {
	return ClosureSnapshotPayload{
		OpeningCash:  c.OpeningCash.StringFixed(2),
		ClosingCash:  c.ClosingCash.StringFixed(2),
		OpeningUPI:   c.OpeningUPI.StringFixed(2),
		ClosingUPI:   c.ClosingUPI.StringFixed(2),
		TotalIncome:  c.TotalIncome.StringFixed(2),
		TotalExpense: c.TotalExpense.StringFixed(2),
		DaysCount:    c.DaysCount,
	}
}

// MonthlyClosureSnapshot is an append-only, versioned copy of a closure's
// totals. Snapshots are never updated or deleted; reclosing a reopened month
// appends the next version.
type MonthlyClosureSnapshot struct {
	ID           uuid.UUID `json:"id"`
	OutletID     uuid.UUID `json:"outletId"`
	MonthDate    time.Time `json:"monthDate"`
	Version      int       `json:"version"`
	Snapshot     []byte    `json:"snapshot"`
	SnapshotHash string    `json:"snapshotHash"`
	CreatedBy    uuid.UUID `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SnapshotHash stamps a snapshot payload for tamper detection. The digest is
// md5(payload bytes + YYYY-MM-DD month date + outlet id), kept compatible
// with snapshots produced by earlier deployments so old audit chains still
// verify.
func SnapshotHash(payload []byte, monthDate time.Time, outletID uuid.UUID) string {
	h := md5.New()
	h.Write(payload)
	h.Write([]byte(monthDate.Format("2006-01-02")))
	h.Write([]byte(outletID.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// MarshalSnapshotPayload renders the canonical snapshot bytes used for both
// storage and hashing.
func MarshalSnapshotPayload(p ClosureSnapshotPayload) ([]byte, error) {
	return json.Marshal(p)
}

type MonthlyClosureRepository interface {
	GetByOutletMonth(outletID uuid.UUID, monthDate time.Time) (*MonthlyClosure, error)
	// Upsert writes a closure keyed on (outlet, month), creating or
	// replacing the mutable closure row.
	Upsert(closure *MonthlyClosure) (*MonthlyClosure, error)
	// AppendSnapshot inserts the snapshot with version = max(version)+1 for
	// its outlet+month, atomically with respect to concurrent closers.
	AppendSnapshot(snapshot *MonthlyClosureSnapshot) (*MonthlyClosureSnapshot, error)
	ListSnapshots(outletID uuid.UUID, monthDate time.Time) ([]*MonthlyClosureSnapshot, error)
	LatestSnapshot(outletID uuid.UUID, monthDate time.Time) (*MonthlyClosureSnapshot, error)
}
