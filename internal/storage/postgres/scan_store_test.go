package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
	"github.com/nothingdao/solana-wallet-scanner/internal/storage"
)

func testRecord(owner string, scannedAt time.Time, score int) *domain.ScanRecord {
	return &domain.ScanRecord{
		Owner:             owner,
		ScannedAt:         scannedAt,
		RiskScore:         score,
		TotalTokens:       3,
		TotalNFTs:         1,
		SuspiciousCount:   1,
		MaliciousCount:    0,
		DelegateApprovals: 1,
		TotalValueUSD:     1234.56,
		ResultJSON:        []byte(`{"Owner":"` + owner + `"}`),
	}
}

func TestScanStore_InsertAndLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScanStore(pool)

	rec := testRecord("OwnerA", time.Now().UTC().Truncate(time.Millisecond), 38)

	err := store.Insert(ctx, rec)
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)

	latest, err := store.Latest(ctx, "OwnerA")
	require.NoError(t, err)

	assert.Equal(t, rec.ID, latest.ID)
	assert.Equal(t, rec.Owner, latest.Owner)
	assert.Equal(t, rec.RiskScore, latest.RiskScore)
	assert.Equal(t, rec.TotalTokens, latest.TotalTokens)
	assert.Equal(t, rec.TotalNFTs, latest.TotalNFTs)
	assert.Equal(t, rec.SuspiciousCount, latest.SuspiciousCount)
	assert.Equal(t, rec.DelegateApprovals, latest.DelegateApprovals)
	assert.InDelta(t, rec.TotalValueUSD, latest.TotalValueUSD, 0.0001)
	assert.JSONEq(t, string(rec.ResultJSON), string(latest.ResultJSON))
	assert.WithinDuration(t, rec.ScannedAt, latest.ScannedAt, time.Second)
}

func TestScanStore_LatestNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScanStore(pool)

	_, err := store.Latest(ctx, "NeverScanned")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestScanStore_GetByOwnerOrderAndLimit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScanStore(pool)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		rec := testRecord("OwnerB", base.Add(time.Duration(i)*time.Minute), i*10)
		require.NoError(t, store.Insert(ctx, rec))
	}
	// Another owner's record must not leak into the listing.
	require.NoError(t, store.Insert(ctx, testRecord("OwnerC", base, 99)))

	records, err := store.GetByOwner(ctx, "OwnerB", 3)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first.
	assert.Equal(t, 40, records[0].RiskScore)
	assert.Equal(t, 30, records[1].RiskScore)
	assert.Equal(t, 20, records[2].RiskScore)
	for _, rec := range records {
		assert.Equal(t, "OwnerB", rec.Owner)
	}
}

func TestScanStore_GetByOwnerEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScanStore(pool)

	records, err := store.GetByOwner(ctx, "NoSuchOwner", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestScanStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewScanStore(pool)

	err := store.Insert(ctx, &domain.ScanRecord{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = store.GetByOwner(ctx, "", 10)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = store.Latest(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
