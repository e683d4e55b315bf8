package domain

// TokenMetadata is the merged view of a mint's identity and market data.
// Fields are filled first-writer-wins by the resolver; nil means no source
// supplied the field, which is a distinct signal from zero.
type TokenMetadata struct {
	Mint        string
	Name        string
	Symbol      string
	Image       string
	Description string
	Website     string
	Twitter     string
	Verified    bool

	Price     *float64 // USD
	MarketCap *float64 // USD
	Volume24h *float64 // USD
	Liquidity *float64 // USD
}

// HasIdentity reports whether any source supplied a usable name or symbol.
func (m *TokenMetadata) HasIdentity() bool {
	return m.Name != "" || m.Symbol != ""
}

// HasMarketData reports whether any market field was resolved.
func (m *TokenMetadata) HasMarketData() bool {
	return m.Price != nil || m.MarketCap != nil || m.Volume24h != nil || m.Liquidity != nil
}
