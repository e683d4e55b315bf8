package domain

// TokenHolding is a single SPL token account held by the scanned owner,
// as reported by getTokenAccountsByOwner.
type TokenHolding struct {
	Mint            string   // token mint address
	TokenAccount    string   // token account (ATA or legacy) address
	Amount          uint64   // raw integer amount
	Decimals        int      // mint decimals
	UIAmount        float64  // Amount / 10^Decimals
	Delegate        *string  // spending delegate (nullable)
	DelegatedAmount *float64 // ui amount approved to the delegate (nullable)
	FreezeAuthority *string  // mint freeze authority (nullable)
	CloseAuthority  *string  // account close authority (nullable)
	Supply          *float64 // total ui supply of the mint (nullable, best effort)
}

// IsNFT reports whether the holding looks like a genuine single-unit NFT.
// Zero-decimal mints held in bulk are deliberately excluded: those are
// classified as fungible tokens and hit the bulk-holding rule instead.
func (h *TokenHolding) IsNFT() bool {
	return h.Decimals == 0 && h.UIAmount == 1
}

// HasDelegate reports whether a spending delegate is set on the account.
func (h *TokenHolding) HasDelegate() bool {
	return h.Delegate != nil && *h.Delegate != ""
}

// ClassifiedHolding pairs a holding with its resolved metadata and verdict.
type ClassifiedHolding struct {
	Holding  TokenHolding
	Metadata TokenMetadata
	Verdict  Verdict
}

// ValueUSD returns the holding's USD value, or 0 when no price resolved.
func (c *ClassifiedHolding) ValueUSD() float64 {
	if c.Metadata.Price == nil {
		return 0
	}
	return c.Holding.UIAmount * *c.Metadata.Price
}

// HasValue reports whether a price was resolved for the holding.
func (c *ClassifiedHolding) HasValue() bool {
	return c.Metadata.Price != nil
}
