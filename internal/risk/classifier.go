package risk

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
)

// Thresholds are the tunable rule constants. Zero values are replaced with
// the defaults by NewClassifier.
type Thresholds struct {
	// SupplyOutlier flags mints whose ui supply exceeds this.
	SupplyOutlier float64

	// NonDivisibleBulk flags zero-decimal holdings above this quantity.
	NonDivisibleBulk float64

	// DustPrice is the near-zero USD price floor.
	DustPrice float64

	// MinLiquidityUSD is the USD liquidity floor.
	MinLiquidityUSD float64

	// MinVolume24hUSD is the 24h volume floor.
	MinVolume24hUSD float64

	// WashLiquidityRatio flags liquidity above marketCap times this ratio.
	WashLiquidityRatio float64

	// DedupKeywordIssues collapses keyword issues to one per keyword
	// instead of one per keyword per field. Off by default to preserve
	// the literal per-field behavior.
	DedupKeywordIssues bool
}

// DefaultThresholds returns the standard rule constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SupplyOutlier:      1e15,
		NonDivisibleBulk:   100,
		DustPrice:          1e-6,
		MinLiquidityUSD:    1000,
		MinVolume24hUSD:    100,
		WashLiquidityRatio: 10,
	}
}

// Classifier maps a holding plus its resolved metadata to a risk verdict.
// It is a pure function over its inputs and the immutable reference tables:
// no I/O, fully deterministic.
type Classifier struct {
	ref *ReferenceSet
	cfg Thresholds
}

// NewClassifier creates a classifier over the given reference tables.
func NewClassifier(ref *ReferenceSet, cfg Thresholds) *Classifier {
	if ref == nil {
		ref = DefaultReferenceSet()
	}
	def := DefaultThresholds()
	if cfg.SupplyOutlier == 0 {
		cfg.SupplyOutlier = def.SupplyOutlier
	}
	if cfg.NonDivisibleBulk == 0 {
		cfg.NonDivisibleBulk = def.NonDivisibleBulk
	}
	if cfg.DustPrice == 0 {
		cfg.DustPrice = def.DustPrice
	}
	if cfg.MinLiquidityUSD == 0 {
		cfg.MinLiquidityUSD = def.MinLiquidityUSD
	}
	if cfg.MinVolume24hUSD == 0 {
		cfg.MinVolume24hUSD = def.MinVolume24hUSD
	}
	if cfg.WashLiquidityRatio == 0 {
		cfg.WashLiquidityRatio = def.WashLiquidityRatio
	}
	return &Classifier{ref: ref, cfg: cfg}
}

// Classify runs the rule chain over one holding. The verdict level only
// ever escalates; no rule can downgrade an earlier finding. NFTs skip the
// supply, bulk-holding and market rules.
func (c *Classifier) Classify(h *domain.TokenHolding, meta *domain.TokenMetadata) domain.Verdict {
	var v domain.Verdict
	isNFT := h.IsNFT()

	// 1. Known scam match pins the level at malicious immediately.
	if c.ref.IsDenylisted(h.Mint) {
		v.Flag(domain.LevelMalicious, "Known scam token")
	}

	// 2. Missing identity. Placeholder identities synthesized by the
	// resolver do not count as resolved metadata.
	if !hasResolvedIdentity(meta) {
		v.Flag(domain.LevelSuspicious, "No metadata available")
	}

	// 3. Suspicious keyword scan over name, symbol and description.
	c.scanKeywords(&v, meta)

	// 4. Canonical symbol on the wrong mint is impersonation.
	if meta != nil && meta.Symbol != "" && meta.Symbol != PlaceholderSymbol {
		if canonical, ok := c.ref.CanonicalMint(meta.Symbol); ok && canonical != h.Mint {
			v.Flag(domain.LevelMalicious,
				fmt.Sprintf("Symbol %s impersonates a well-known token", strings.ToUpper(meta.Symbol)))
		}
	}

	// 5. Active delegate is the exploit vector the revoke flow targets.
	if h.HasDelegate() {
		v.Flag(domain.LevelSuspicious, "Active delegate approval: another account can spend these tokens")
	}

	// 6. Freeze authority, unless it is the mint referring to itself.
	if h.FreezeAuthority != nil && *h.FreezeAuthority != "" && *h.FreezeAuthority != h.Mint {
		v.Flag(domain.LevelSuspicious, "Freeze authority present: transfers can be frozen at any time")
	}

	if !isNFT {
		// 7. Supply outlier.
		if h.Supply != nil && *h.Supply > c.cfg.SupplyOutlier {
			v.Flag(domain.LevelSuspicious, "Extremely large total supply")
		}

		// 8. Zero-decimal bulk holdings are spam airdrops, not NFTs.
		if h.Decimals == 0 && h.UIAmount > c.cfg.NonDivisibleBulk {
			v.Flag(domain.LevelSuspicious, "High quantity of non-divisible tokens")
		}
	}

	// 9. Invisible characters spoof legitimate names.
	if meta != nil && containsInvisibleRunes(meta.Name) {
		v.Flag(domain.LevelSuspicious, "Name contains invisible characters")
	}

	if !isNFT && meta != nil {
		c.applyMarketRules(&v, meta)
	}

	return v
}

// scanKeywords matches each keyword independently against each field; a
// keyword appearing in two fields logs twice unless dedup is configured.
func (c *Classifier) scanKeywords(v *domain.Verdict, meta *domain.TokenMetadata) {
	if meta == nil {
		return
	}

	fields := []struct {
		label string
		value string
	}{
		{"name", meta.Name},
		{"symbol", meta.Symbol},
		{"description", meta.Description},
	}

	seen := make(map[string]bool)
	for _, kw := range c.ref.Keywords {
		for _, f := range fields {
			if f.value == "" {
				continue
			}
			if !strings.Contains(strings.ToLower(f.value), kw) {
				continue
			}
			if c.cfg.DedupKeywordIssues && seen[kw] {
				continue
			}
			seen[kw] = true
			v.Flag(domain.LevelSuspicious,
				fmt.Sprintf("Suspicious keyword %q in %s", kw, f.label))
			if c.cfg.DedupKeywordIssues {
				break
			}
		}
	}
}

// applyMarketRules evaluates the market-signal rules. Each fires only when
// its field was actually resolved; absence is not zero.
func (c *Classifier) applyMarketRules(v *domain.Verdict, meta *domain.TokenMetadata) {
	if meta.Price != nil && *meta.Price < c.cfg.DustPrice {
		v.Flag(domain.LevelSuspicious, "Price is effectively zero")
	}
	if meta.Liquidity != nil && *meta.Liquidity < c.cfg.MinLiquidityUSD {
		v.Flag(domain.LevelSuspicious, "Very low liquidity")
	}
	if meta.Volume24h != nil && *meta.Volume24h < c.cfg.MinVolume24hUSD {
		v.Flag(domain.LevelSuspicious, "Very low 24h trading volume")
	}
	// Liquidity dwarfing market cap is a wash-liquidity rug signature.
	if meta.Liquidity != nil && meta.MarketCap != nil && *meta.MarketCap > 0 &&
		*meta.Liquidity > *meta.MarketCap*c.cfg.WashLiquidityRatio {
		v.Flag(domain.LevelSuspicious, "Liquidity far exceeds market cap")
	}

	// 11. Real market activity without any verified listing.
	if !meta.Verified && meta.Price != nil && *meta.Price > 0 {
		v.Flag(domain.LevelSuspicious, "Unverified token with market activity")
	}
}

// PlaceholderSymbol mirrors the resolver's synthesized symbol so the
// classifier can tell placeholder identity from resolved identity.
const PlaceholderSymbol = "UNKNOWN"

func hasResolvedIdentity(meta *domain.TokenMetadata) bool {
	if meta == nil {
		return false
	}
	if meta.Symbol == PlaceholderSymbol && strings.HasPrefix(meta.Name, "Unknown Token") {
		return false
	}
	return meta.HasIdentity()
}

// containsInvisibleRunes reports zero-width or other format control code
// points, the usual vehicle for homoglyph spoofing of legitimate names.
func containsInvisibleRunes(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cf, r) {
			return true
		}
	}
	return false
}
