// Package storage defines the scan-history archive interface. The archive
// belongs to the serving layer: the scan engine itself is stateless and
// never reads it.
package storage

import (
	"context"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
)

// ScanStore archives completed scan results.
type ScanStore interface {
	// Insert appends one scan record and fills in its assigned ID.
	Insert(ctx context.Context, rec *domain.ScanRecord) error

	// GetByOwner returns the most recent records for an owner, newest
	// first, up to limit.
	GetByOwner(ctx context.Context, owner string, limit int) ([]*domain.ScanRecord, error)

	// Latest returns the newest record for an owner.
	// Returns ErrNotFound when the owner was never scanned.
	Latest(ctx context.Context, owner string) (*domain.ScanRecord, error)
}
