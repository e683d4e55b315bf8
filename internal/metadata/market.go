package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
)

// DefaultMarketURL is the DexScreener token-pairs endpoint prefix.
const DefaultMarketURL = "https://api.dexscreener.com/latest/dex/tokens"

// MarketDataSource resolves price, market cap, 24h volume and liquidity
// from a DexScreener-style pairs endpoint. It never sets identity fields;
// identity and market data are orthogonal signal classes.
type MarketDataSource struct {
	baseURL string
	client  *http.Client
}

// NewMarketDataSource creates a market data source. baseURL may be empty
// for the default.
func NewMarketDataSource(baseURL string, timeout time.Duration) *MarketDataSource {
	if baseURL == "" {
		baseURL = DefaultMarketURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MarketDataSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name identifies the source in logs and metrics.
func (s *MarketDataSource) Name() string { return "market" }

// marketPair is one trading pair from the pairs endpoint. priceUsd comes
// back as a string; liquidity and volume are nested objects.
type marketPair struct {
	PriceUSD  string   `json:"priceUsd"`
	MarketCap *float64 `json:"marketCap"`
	FDV       *float64 `json:"fdv"`
	Liquidity struct {
		USD *float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 *float64 `json:"h24"`
	} `json:"volume"`
}

// Resolve returns market fields for the mint's deepest pair, nil when the
// token has no listed pairs.
func (s *MarketDataSource) Resolve(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	url := fmt.Sprintf("%s/%s", s.baseURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, nil
	}

	var payload struct {
		Pairs []marketPair `json:"pairs"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil
	}
	if len(payload.Pairs) == 0 {
		return nil, nil
	}

	best := payload.Pairs[0]
	for _, p := range payload.Pairs[1:] {
		if liquidityUSD(p) > liquidityUSD(best) {
			best = p
		}
	}

	meta := &domain.TokenMetadata{Mint: mint}

	if best.PriceUSD != "" {
		if price, err := strconv.ParseFloat(best.PriceUSD, 64); err == nil {
			meta.Price = &price
		}
	}
	if best.MarketCap != nil {
		meta.MarketCap = best.MarketCap
	} else if best.FDV != nil {
		meta.MarketCap = best.FDV
	}
	if best.Liquidity.USD != nil {
		meta.Liquidity = best.Liquidity.USD
	}
	if best.Volume.H24 != nil {
		meta.Volume24h = best.Volume.H24
	}

	if !meta.HasMarketData() {
		return nil, nil
	}
	return meta, nil
}

func liquidityUSD(p marketPair) float64 {
	if p.Liquidity.USD == nil {
		return 0
	}
	return *p.Liquidity.USD
}

var _ Source = (*MarketDataSource)(nil)
