package metadata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
	"github.com/nothingdao/solana-wallet-scanner/internal/observability"
)

// DefaultSourceTimeout bounds how long one source may hold up a holding's
// resolution before it is treated as no-data.
const DefaultSourceTimeout = 8 * time.Second

// PlaceholderSymbol is the synthesized symbol when no source yields identity.
const PlaceholderSymbol = "UNKNOWN"

// Resolver queries identity sources in fixed priority order, short-circuits
// once a usable name or symbol is found, and always separately queries the
// market sources. Merge order, not completion order, determines precedence.
type Resolver struct {
	identitySources []Source
	marketSources   []Source
	sourceTimeout   time.Duration
	logger          *zap.Logger
	metrics         *observability.Metrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithSourceTimeout sets the per-source bounded wait.
func WithSourceTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.sourceTimeout = d
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMetrics enables per-source lookup and error counters.
func WithMetrics(m *observability.Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a Resolver. identitySources are tried in the given
// priority order for name/symbol/image; marketSources fill price/liquidity
// fields regardless of identity outcome.
func NewResolver(identitySources, marketSources []Source, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		identitySources: identitySources,
		marketSources:   marketSources,
		sourceTimeout:   DefaultSourceTimeout,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve builds the merged metadata for a mint. It never returns nil and
// never fails: at worst the result carries a synthesized placeholder
// identity and no market data. The returned value is owned by the caller.
func (r *Resolver) Resolve(ctx context.Context, mint string) *domain.TokenMetadata {
	meta := &domain.TokenMetadata{Mint: mint}

	// Identity and market lookups populate disjoint field classes, so they
	// run concurrently; within each class sources stay strictly ordered.
	var wg sync.WaitGroup
	market := &domain.TokenMetadata{Mint: mint}

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.resolveMarket(ctx, mint, market)
	}()

	r.resolveIdentity(ctx, mint, meta)
	wg.Wait()

	mergeFrom(meta, market)

	if !meta.HasIdentity() {
		meta.Name = placeholderName(mint)
		meta.Symbol = PlaceholderSymbol
	}

	return meta
}

// resolveIdentity walks the identity chain, merging partial fields and
// stopping the chain once a usable name or symbol is present.
func (r *Resolver) resolveIdentity(ctx context.Context, mint string, meta *domain.TokenMetadata) {
	for _, src := range r.identitySources {
		partial := r.query(ctx, src, mint)
		mergeFrom(meta, partial)
		if meta.HasIdentity() {
			return
		}
	}
}

// resolveMarket walks every market source, first-writer-wins per field.
func (r *Resolver) resolveMarket(ctx context.Context, mint string, meta *domain.TokenMetadata) {
	for _, src := range r.marketSources {
		partial := r.query(ctx, src, mint)
		mergeFrom(meta, partial)
	}
}

// query runs one source under the bounded per-source wait. Any failure,
// including timeout, degrades to no-data.
func (r *Resolver) query(ctx context.Context, src Source, mint string) *domain.TokenMetadata {
	sctx, cancel := context.WithTimeout(ctx, r.sourceTimeout)
	defer cancel()

	r.metrics.IncSourceLookup(src.Name())
	partial, err := src.Resolve(sctx, mint)
	if err != nil {
		r.metrics.IncSourceError(src.Name())
		r.logger.Debug("metadata source failed",
			zap.String("source", src.Name()),
			zap.String("mint", mint),
			zap.Error(err))
		return nil
	}
	return partial
}

// placeholderName derives a deterministic label from the mint so downstream
// consumers never see an empty identity.
func placeholderName(mint string) string {
	if len(mint) <= 8 {
		return fmt.Sprintf("Unknown Token (%s)", mint)
	}
	return fmt.Sprintf("Unknown Token (%s...%s)", mint[:4], mint[len(mint)-4:])
}
