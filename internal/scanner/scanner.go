// Package scanner orchestrates a wallet scan: enumerate holdings over RPC,
// resolve metadata, classify risk, aggregate. One Scan call is one
// stateless pass; the scanner keeps nothing between invocations.
package scanner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
	"github.com/nothingdao/solana-wallet-scanner/internal/metadata"
	"github.com/nothingdao/solana-wallet-scanner/internal/observability"
	"github.com/nothingdao/solana-wallet-scanner/internal/portfolio"
	"github.com/nothingdao/solana-wallet-scanner/internal/risk"
	"github.com/nothingdao/solana-wallet-scanner/internal/solana"
)

// DefaultConcurrency bounds the per-holding resolution fan-out.
const DefaultConcurrency = 8

// Scanner is the scan entry point.
type Scanner struct {
	rpc        solana.RPCClient
	resolver   *metadata.Resolver
	classifier *risk.Classifier
	aggregator *portfolio.Aggregator

	concurrency  int
	fetchSupply  bool
	logger       *zap.Logger
	metrics      *observability.Metrics
}

// Options configures a Scanner. RPC, Resolver and Classifier are required.
type Options struct {
	RPC        solana.RPCClient
	Resolver   *metadata.Resolver
	Classifier *risk.Classifier
	Aggregator *portfolio.Aggregator

	// Concurrency bounds parallel per-holding resolution; 0 means default.
	Concurrency int

	// FetchSupply enables the best-effort getTokenSupply lookup feeding
	// the supply-outlier rule.
	FetchSupply bool

	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// New creates a Scanner.
func New(opts Options) (*Scanner, error) {
	if opts.RPC == nil {
		return nil, fmt.Errorf("rpc client is required")
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("metadata resolver is required")
	}
	if opts.Classifier == nil {
		return nil, fmt.Errorf("risk classifier is required")
	}

	s := &Scanner{
		rpc:         opts.RPC,
		resolver:    opts.Resolver,
		classifier:  opts.Classifier,
		aggregator:  opts.Aggregator,
		concurrency: opts.Concurrency,
		fetchSupply: opts.FetchSupply,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
	if s.aggregator == nil {
		s.aggregator = portfolio.NewAggregator(0)
	}
	if s.concurrency <= 0 {
		s.concurrency = DefaultConcurrency
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s, nil
}

// Scan classifies every non-empty holding of owner and returns the
// aggregated result. It fails only on a malformed owner address or an
// unreachable chain RPC; individual metadata providers can never fail it.
func (s *Scanner) Scan(ctx context.Context, owner string) (*domain.ScanResult, error) {
	start := time.Now()

	if err := solana.ValidateAddress(owner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	accounts, err := s.rpc.GetTokenAccountsByOwner(ctx, owner)
	if err != nil {
		s.metrics.IncRPCError()
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	holdings := toHoldings(accounts)
	s.logger.Info("scanning holdings",
		zap.String("owner", owner),
		zap.Int("accounts", len(accounts)),
		zap.Int("nonEmpty", len(holdings)))

	classified, err := s.classifyAll(ctx, holdings)
	if err != nil {
		return nil, err
	}

	var tokens, nfts []domain.ClassifiedHolding
	for _, c := range classified {
		if c.Holding.IsNFT() {
			nfts = append(nfts, c)
		} else {
			tokens = append(tokens, c)
		}
	}

	result := s.aggregator.Aggregate(owner, tokens, nfts)

	s.metrics.ObserveScan(time.Since(start), result)
	s.logger.Info("scan complete",
		zap.String("owner", owner),
		zap.Int("tokens", result.Summary.TotalTokens),
		zap.Int("nfts", result.Summary.TotalNFTs),
		zap.Int("riskScore", result.Summary.RiskScore),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// toHoldings converts raw token accounts, dropping empty balances: dust and
// closed accounts are not classified at all.
func toHoldings(accounts []solana.TokenAccount) []domain.TokenHolding {
	holdings := make([]domain.TokenHolding, 0, len(accounts))
	for _, a := range accounts {
		if a.Amount.UIAmount == 0 {
			continue
		}
		h := domain.TokenHolding{
			Mint:            a.Mint,
			TokenAccount:    a.Pubkey,
			Amount:          a.Amount.Raw(),
			Decimals:        a.Amount.Decimals,
			UIAmount:        a.Amount.UIAmount,
			Delegate:        a.Delegate,
			FreezeAuthority: a.FreezeAuthority,
			CloseAuthority:  a.CloseAuthority,
		}
		if a.DelegatedAmount != nil {
			da := a.DelegatedAmount.UIAmount
			h.DelegatedAmount = &da
		}
		holdings = append(holdings, h)
	}
	return holdings
}

// classifyAll resolves and classifies holdings with bounded parallelism.
// Output order matches input order; completion order is irrelevant because
// the aggregator re-sorts anyway.
func (s *Scanner) classifyAll(ctx context.Context, holdings []domain.TokenHolding) ([]domain.ClassifiedHolding, error) {
	classified := make([]domain.ClassifiedHolding, len(holdings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range holdings {
		g.Go(func() error {
			h := holdings[i]

			if s.fetchSupply && !h.IsNFT() {
				if supply, err := s.rpc.GetTokenSupply(gctx, h.Mint); err == nil && supply != nil {
					ui := supply.UIAmount
					h.Supply = &ui
				}
			}

			meta := s.resolver.Resolve(gctx, h.Mint)
			verdict := s.classifier.Classify(&h, meta)

			// Each goroutine owns slot i exclusively.
			classified[i] = domain.ClassifiedHolding{
				Holding:  h,
				Metadata: *meta,
				Verdict:  verdict,
			}

			s.metrics.IncClassified(verdict.Level)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return classified, nil
}
