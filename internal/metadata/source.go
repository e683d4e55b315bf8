// Package metadata resolves token identity and market data for a mint by
// querying a fixed-priority chain of external sources. Every source is
// best-effort: transport failures, bad payloads and missing fields all
// degrade to "no data" and never abort a scan.
package metadata

import (
	"context"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
)

// Source supplies a partial TokenMetadata for a mint.
//
// A source returns (nil, nil) when it has no data for the mint. Errors are
// reserved for context cancellation; everything else is absorbed inside the
// source. No source retries a failed lookup.
type Source interface {
	Name() string
	Resolve(ctx context.Context, mint string) (*domain.TokenMetadata, error)
}

// mergeFrom fills dst's empty fields from src, first-writer-wins: a field
// already populated by a higher-priority source is never overwritten.
func mergeFrom(dst, src *domain.TokenMetadata) {
	if src == nil {
		return
	}
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Symbol == "" {
		dst.Symbol = src.Symbol
	}
	if dst.Image == "" {
		dst.Image = src.Image
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if dst.Website == "" {
		dst.Website = src.Website
	}
	if dst.Twitter == "" {
		dst.Twitter = src.Twitter
	}
	if src.Verified {
		dst.Verified = true
	}
	if dst.Price == nil {
		dst.Price = src.Price
	}
	if dst.MarketCap == nil {
		dst.MarketCap = src.MarketCap
	}
	if dst.Volume24h == nil {
		dst.Volume24h = src.Volume24h
	}
	if dst.Liquidity == nil {
		dst.Liquidity = src.Liquidity
	}
}
