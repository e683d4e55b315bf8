package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
	"github.com/nothingdao/solana-wallet-scanner/internal/storage"
)

func record(owner string, at time.Time, score int) *domain.ScanRecord {
	return &domain.ScanRecord{
		Owner:      owner,
		ScannedAt:  at,
		RiskScore:  score,
		ResultJSON: []byte(`{}`),
	}
}

func TestScanStore_InsertAssignsIDs(t *testing.T) {
	store := NewScanStore()
	ctx := context.Background()

	r1 := record("owner1", time.Now(), 10)
	r2 := record("owner1", time.Now(), 20)

	require.NoError(t, store.Insert(ctx, r1))
	require.NoError(t, store.Insert(ctx, r2))

	assert.Equal(t, int64(1), r1.ID)
	assert.Equal(t, int64(2), r2.ID)
}

func TestScanStore_InsertValidation(t *testing.T) {
	store := NewScanStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.ScanRecord{}), storage.ErrInvalidInput)
}

func TestScanStore_GetByOwnerNewestFirst(t *testing.T) {
	store := NewScanStore()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, store.Insert(ctx, record("owner1", base.Add(-2*time.Hour), 10)))
	require.NoError(t, store.Insert(ctx, record("owner1", base, 30)))
	require.NoError(t, store.Insert(ctx, record("owner1", base.Add(-time.Hour), 20)))
	require.NoError(t, store.Insert(ctx, record("other", base, 99)))

	records, err := store.GetByOwner(ctx, "owner1", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 30, records[0].RiskScore)
	assert.Equal(t, 20, records[1].RiskScore)
	assert.Equal(t, 10, records[2].RiskScore)

	limited, err := store.GetByOwner(ctx, "owner1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestScanStore_Latest(t *testing.T) {
	store := NewScanStore()
	ctx := context.Background()

	_, err := store.Latest(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Insert(ctx, record("owner1", time.Now().Add(-time.Hour), 10)))
	require.NoError(t, store.Insert(ctx, record("owner1", time.Now(), 42)))

	latest, err := store.Latest(ctx, "owner1")
	require.NoError(t, err)
	assert.Equal(t, 42, latest.RiskScore)
}

func TestScanStore_CopiesOnReturn(t *testing.T) {
	store := NewScanStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, record("owner1", time.Now(), 10)))

	first, err := store.Latest(ctx, "owner1")
	require.NoError(t, err)
	first.RiskScore = 999

	second, err := store.Latest(ctx, "owner1")
	require.NoError(t, err)
	assert.Equal(t, 10, second.RiskScore)
}
