package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
)

// fakeSource is a scriptable Source for resolver tests.
type fakeSource struct {
	name   string
	meta   *domain.TokenMetadata
	err    error
	delay  time.Duration
	calls  int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Resolve(ctx context.Context, _ string) (*domain.TokenMetadata, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.meta, f.err
}

func ptr(v float64) *float64 { return &v }

func TestResolve_FirstWriterWins(t *testing.T) {
	first := &fakeSource{name: "first", meta: &domain.TokenMetadata{Name: "Alpha", Symbol: "ALPHA"}}
	second := &fakeSource{name: "second", meta: &domain.TokenMetadata{Name: "Beta", Symbol: "BETA", Image: "beta.png"}}

	r := NewResolver([]Source{first, second}, nil)
	meta := r.Resolve(context.Background(), "mint1")

	// First source supplied a usable identity; the chain short-circuits and
	// the second source is never consulted.
	assert.Equal(t, "Alpha", meta.Name)
	assert.Equal(t, "ALPHA", meta.Symbol)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestResolve_FallsThroughToLowerPriority(t *testing.T) {
	empty := &fakeSource{name: "empty"}
	partial := &fakeSource{name: "partial", meta: &domain.TokenMetadata{Image: "only-image.png"}}
	full := &fakeSource{name: "full", meta: &domain.TokenMetadata{Name: "Gamma", Symbol: "GMA", Image: "full.png"}}

	r := NewResolver([]Source{empty, partial, full}, nil)
	meta := r.Resolve(context.Background(), "mint1")

	assert.Equal(t, "Gamma", meta.Name)
	assert.Equal(t, "GMA", meta.Symbol)
	// Image was already written by the higher-priority partial source.
	assert.Equal(t, "only-image.png", meta.Image)
	assert.Equal(t, 1, empty.calls)
	assert.Equal(t, 1, partial.calls)
	assert.Equal(t, 1, full.calls)
}

func TestResolve_PlaceholderIdentity(t *testing.T) {
	r := NewResolver([]Source{&fakeSource{name: "empty"}}, nil)
	meta := r.Resolve(context.Background(), "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU")

	require.True(t, meta.HasIdentity())
	assert.Equal(t, "Unknown Token (7xKX...gAsU)", meta.Name)
	assert.Equal(t, PlaceholderSymbol, meta.Symbol)
}

func TestResolve_MarketAlwaysAttempted(t *testing.T) {
	identity := &fakeSource{name: "identity", meta: &domain.TokenMetadata{Name: "Delta", Symbol: "DLT"}}
	market := &fakeSource{name: "market", meta: &domain.TokenMetadata{
		Price:     ptr(1.25),
		Liquidity: ptr(50000),
	}}

	r := NewResolver([]Source{identity}, []Source{market})
	meta := r.Resolve(context.Background(), "mint1")

	// Identity resolution succeeded, but market sources still run: they
	// populate an orthogonal signal class.
	assert.Equal(t, 1, market.calls)
	require.NotNil(t, meta.Price)
	assert.Equal(t, 1.25, *meta.Price)
	require.NotNil(t, meta.Liquidity)
	assert.Equal(t, 50000.0, *meta.Liquidity)
	assert.Nil(t, meta.Volume24h)
}

func TestResolve_SourceErrorDegradesToNoData(t *testing.T) {
	broken := &fakeSource{name: "broken", err: errors.New("connection refused")}
	good := &fakeSource{name: "good", meta: &domain.TokenMetadata{Symbol: "OK"}}

	r := NewResolver([]Source{broken, good}, nil)
	meta := r.Resolve(context.Background(), "mint1")

	assert.Equal(t, "OK", meta.Symbol)
}

func TestResolve_SlowSourceBoundedWait(t *testing.T) {
	slow := &fakeSource{name: "slow", delay: time.Second, meta: &domain.TokenMetadata{Name: "Never"}}
	fallback := &fakeSource{name: "fallback", meta: &domain.TokenMetadata{Name: "Fast", Symbol: "FST"}}

	r := NewResolver([]Source{slow, fallback}, nil, WithSourceTimeout(20*time.Millisecond))

	start := time.Now()
	meta := r.Resolve(context.Background(), "mint1")

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, "Fast", meta.Name)
}

func TestMergeFrom_NeverOverwrites(t *testing.T) {
	dst := &domain.TokenMetadata{Name: "Keep", Price: ptr(2)}
	mergeFrom(dst, &domain.TokenMetadata{
		Name:      "Discard",
		Symbol:    "NEW",
		Price:     ptr(9),
		Volume24h: ptr(10),
	})

	assert.Equal(t, "Keep", dst.Name)
	assert.Equal(t, "NEW", dst.Symbol)
	assert.Equal(t, 2.0, *dst.Price)
	assert.Equal(t, 10.0, *dst.Volume24h)
}
