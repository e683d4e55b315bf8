package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
	"github.com/nothingdao/solana-wallet-scanner/internal/storage"
)

// ScanStore is an in-memory implementation of storage.ScanStore.
type ScanStore struct {
	mu      sync.RWMutex
	nextID  int64
	byOwner map[string][]*domain.ScanRecord
}

// NewScanStore creates a new in-memory scan store.
func NewScanStore() *ScanStore {
	return &ScanStore{
		nextID:  1,
		byOwner: make(map[string][]*domain.ScanRecord),
	}
}

// Insert appends one scan record and assigns its ID.
func (s *ScanStore) Insert(_ context.Context, rec *domain.ScanRecord) error {
	if rec == nil || rec.Owner == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recCopy := *rec
	recCopy.ID = s.nextID
	s.nextID++
	s.byOwner[rec.Owner] = append(s.byOwner[rec.Owner], &recCopy)

	rec.ID = recCopy.ID
	return nil
}

// GetByOwner returns the newest records for an owner, up to limit.
func (s *ScanStore) GetByOwner(_ context.Context, owner string, limit int) ([]*domain.ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.byOwner[owner]
	out := make([]*domain.ScanRecord, 0, len(records))
	for _, r := range records {
		recCopy := *r
		out = append(out, &recCopy)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ScannedAt.Equal(out[j].ScannedAt) {
			return out[i].ScannedAt.After(out[j].ScannedAt)
		}
		return out[i].ID > out[j].ID
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Latest returns the newest record for an owner.
func (s *ScanStore) Latest(ctx context.Context, owner string) (*domain.ScanRecord, error) {
	records, err := s.GetByOwner(ctx, owner, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records[0], nil
}

var _ storage.ScanStore = (*ScanStore)(nil)
