package storage

import (
	"context"

	"github.com/khatapro/khata-backend/internal/domain"
)

// SnapshotArchive defines the interface for off-database audit copies. A
// locked day and a closed month each get a serialized record pushed to
// object storage; failures are reported but never roll back the lock or the
// close.
type SnapshotArchive interface {
	ArchiveDay(ctx context.Context, day *domain.BusinessDay, transactions []*domain.Transaction) (string, error)
	ArchiveClosure(ctx context.Context, snapshot *domain.MonthlyClosureSnapshot) (string, error)
}
