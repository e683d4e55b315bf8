package risk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
)

func ptr(v float64) *float64 { return &v }
func sptr(s string) *string  { return &s }

func goodMeta(name, symbol string) *domain.TokenMetadata {
	return &domain.TokenMetadata{Name: name, Symbol: symbol, Verified: true}
}

func newClassifier() *Classifier {
	return NewClassifier(DefaultReferenceSet(), Thresholds{})
}

func TestClassify_CanonicalNativeAssetIsSafe(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{
		Mint:     WrappedSOLMint,
		Amount:   1_000_000_000,
		Decimals: 9,
		UIAmount: 1,
	}
	v := c.Classify(h, goodMeta("Wrapped SOL", "SOL"))

	assert.Equal(t, domain.LevelSafe, v.Level)
	assert.Empty(t, v.Issues)
}

func TestClassify_DenylistPinsMalicious(t *testing.T) {
	ref := DefaultReferenceSet()
	ref.Denylist["ScamMint11111111111111111111111111111111111"] = struct{}{}
	c := NewClassifier(ref, Thresholds{})

	// Even with otherwise perfect metadata the level is malicious.
	h := &domain.TokenHolding{
		Mint:     "ScamMint11111111111111111111111111111111111",
		UIAmount: 10,
		Decimals: 6,
	}
	v := c.Classify(h, goodMeta("Nice Token", "NICE"))

	assert.Equal(t, domain.LevelMalicious, v.Level)
	require.NotEmpty(t, v.Issues)
	assert.Equal(t, "Known scam token", v.Issues[0])
}

func TestClassify_MissingIdentity(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{Mint: "SomeMint", UIAmount: 5, Decimals: 6}

	// Placeholder identity from the resolver counts as missing.
	meta := &domain.TokenMetadata{
		Name:   "Unknown Token (Some...Mint)",
		Symbol: PlaceholderSymbol,
	}
	v := c.Classify(h, meta)

	assert.Equal(t, domain.LevelSuspicious, v.Level)
	assert.Contains(t, v.Issues, "No metadata available")
}

func TestClassify_KeywordPerFieldDuplication(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{Mint: "M", UIAmount: 1, Decimals: 6}
	meta := &domain.TokenMetadata{
		Name:        "Free Airdrop",
		Symbol:      "FREE",
		Description: "free tokens for everyone",
		Verified:    true,
	}
	v := c.Classify(h, meta)

	assert.Equal(t, domain.LevelSuspicious, v.Level)

	// "free" matches name, symbol and description independently: three issues.
	var freeIssues int
	for _, issue := range v.Issues {
		if strings.Contains(issue, `"free"`) {
			freeIssues++
		}
	}
	assert.Equal(t, 3, freeIssues)
}

func TestClassify_KeywordDedupConfigured(t *testing.T) {
	c := NewClassifier(DefaultReferenceSet(), Thresholds{DedupKeywordIssues: true})

	h := &domain.TokenHolding{Mint: "M", UIAmount: 1, Decimals: 6}
	meta := &domain.TokenMetadata{
		Name:        "Free Airdrop",
		Symbol:      "FREE",
		Description: "free tokens",
		Verified:    true,
	}
	v := c.Classify(h, meta)

	var freeIssues int
	for _, issue := range v.Issues {
		if strings.Contains(issue, `"free"`) {
			freeIssues++
		}
	}
	assert.Equal(t, 1, freeIssues)
}

func TestClassify_StablecoinImpersonation(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{
		Mint:     "FakeUSDC1111111111111111111111111111111111",
		UIAmount: 100,
		Decimals: 6,
	}
	v := c.Classify(h, goodMeta("USD Coin", "USDC"))

	assert.Equal(t, domain.LevelMalicious, v.Level)

	found := false
	for _, issue := range v.Issues {
		if strings.Contains(issue, "impersonate") {
			found = true
		}
	}
	assert.True(t, found, "expected an impersonation issue, got %v", v.Issues)
}

func TestClassify_CaseInsensitiveImpersonation(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{Mint: "NotTheRealOne", UIAmount: 1, Decimals: 6}
	v := c.Classify(h, goodMeta("usd coin", "usdc"))

	assert.Equal(t, domain.LevelMalicious, v.Level)
}

func TestClassify_DelegatePresent(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{
		Mint:     "M",
		UIAmount: 10,
		Decimals: 6,
		Delegate: sptr("De1egate111111111111111111111111111111111"),
	}
	v := c.Classify(h, goodMeta("Fine Token", "FINE"))

	assert.Equal(t, domain.LevelSuspicious, v.Level)
	found := false
	for _, issue := range v.Issues {
		if strings.Contains(issue, "delegate approval") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestClassify_FreezeAuthority(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{
		Mint:            "M",
		UIAmount:        10,
		Decimals:        6,
		FreezeAuthority: sptr("Freeze111111111111111111111111111111111111"),
	}
	v := c.Classify(h, goodMeta("Fine Token", "FINE"))
	assert.Equal(t, domain.LevelSuspicious, v.Level)

	// Self-referential freeze authority does not escalate.
	h.FreezeAuthority = sptr("M")
	v = c.Classify(h, goodMeta("Fine Token", "FINE"))
	assert.Equal(t, domain.LevelSafe, v.Level)
}

func TestClassify_SupplyOutlier(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{
		Mint:     "M",
		UIAmount: 10,
		Decimals: 6,
		Supply:   ptr(1e16),
	}
	v := c.Classify(h, goodMeta("Big Supply", "BIG"))
	assert.Equal(t, domain.LevelSuspicious, v.Level)
}

func TestClassify_NonDivisibleBulk(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{Mint: "M", UIAmount: 5000, Decimals: 0}
	v := c.Classify(h, goodMeta("Airdropped Junk", "JUNK"))

	assert.Equal(t, domain.LevelSuspicious, v.Level)
	assert.Contains(t, v.Issues, "High quantity of non-divisible tokens")
}

func TestClassify_DefaultThresholdBoundaries(t *testing.T) {
	c := newClassifier()

	// Below the bulk cutoff of 100, a zero-decimal holding is clean.
	h := &domain.TokenHolding{Mint: "M", UIAmount: 50, Decimals: 0}
	v := c.Classify(h, goodMeta("Event Tickets", "TIX"))
	assert.Equal(t, domain.LevelSafe, v.Level)
	assert.NotContains(t, v.Issues, "High quantity of non-divisible tokens")

	h = &domain.TokenHolding{Mint: "M", UIAmount: 101, Decimals: 0}
	v = c.Classify(h, goodMeta("Event Tickets", "TIX"))
	assert.Contains(t, v.Issues, "High quantity of non-divisible tokens")

	// The dust floor is 1e-6 USD, so 1e-8 trips it and 1e-5 does not.
	h = &domain.TokenHolding{Mint: "M", UIAmount: 10, Decimals: 6}
	v = c.Classify(h, &domain.TokenMetadata{Name: "Dusty", Symbol: "DST", Verified: true, Price: ptr(1e-8)})
	assert.Contains(t, v.Issues, "Price is effectively zero")

	v = c.Classify(h, &domain.TokenMetadata{Name: "Dusty", Symbol: "DST", Verified: true, Price: ptr(1e-5)})
	assert.NotContains(t, v.Issues, "Price is effectively zero")
}

func TestClassify_GenuineNFTNotBulkFlagged(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{Mint: "M", UIAmount: 1, Decimals: 0}
	require.True(t, h.IsNFT())

	v := c.Classify(h, goodMeta("Cool Ape #42", "APE"))
	assert.Equal(t, domain.LevelSafe, v.Level)
	assert.Empty(t, v.Issues)
}

func TestClassify_InvisibleCharacters(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{Mint: "M", UIAmount: 1, Decimals: 6}
	v := c.Classify(h, goodMeta("Wrapped​BTC", "XBTC"))

	assert.Equal(t, domain.LevelSuspicious, v.Level)
	assert.Contains(t, v.Issues, "Name contains invisible characters")
}

func TestClassify_MarketRules(t *testing.T) {
	c := newClassifier()
	h := &domain.TokenHolding{Mint: "M", UIAmount: 1, Decimals: 6}

	tests := []struct {
		name  string
		meta  *domain.TokenMetadata
		issue string
	}{
		{
			"dust price",
			&domain.TokenMetadata{Name: "T", Symbol: "TT", Verified: true, Price: ptr(1e-9)},
			"Price is effectively zero",
		},
		{
			"low liquidity",
			&domain.TokenMetadata{Name: "T", Symbol: "TT", Verified: true, Liquidity: ptr(50)},
			"Very low liquidity",
		},
		{
			"low volume",
			&domain.TokenMetadata{Name: "T", Symbol: "TT", Verified: true, Volume24h: ptr(5)},
			"Very low 24h trading volume",
		},
		{
			"wash liquidity",
			&domain.TokenMetadata{Name: "T", Symbol: "TT", Verified: true,
				Liquidity: ptr(5_000_000), MarketCap: ptr(10_000)},
			"Liquidity far exceeds market cap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := c.Classify(h, tt.meta)
			assert.Equal(t, domain.LevelSuspicious, v.Level)
			assert.Contains(t, v.Issues, tt.issue)
		})
	}
}

func TestClassify_AbsentMarketDataIsNotZero(t *testing.T) {
	c := newClassifier()

	// No market fields resolved at all: none of the market rules fire.
	h := &domain.TokenHolding{Mint: "M", UIAmount: 1, Decimals: 6}
	v := c.Classify(h, goodMeta("Quiet Token", "QUIET"))
	assert.Equal(t, domain.LevelSafe, v.Level)
}

func TestClassify_UnverifiedWithActivity(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{Mint: "M", UIAmount: 1, Decimals: 6}
	meta := &domain.TokenMetadata{
		Name: "Active Token", Symbol: "ACT",
		Price: ptr(0.5), Liquidity: ptr(100000), Volume24h: ptr(50000),
	}
	v := c.Classify(h, meta)

	assert.Equal(t, domain.LevelSuspicious, v.Level)
	assert.Contains(t, v.Issues, "Unverified token with market activity")
}

func TestClassify_NFTSkipsMarketRules(t *testing.T) {
	c := newClassifier()

	h := &domain.TokenHolding{Mint: "M", UIAmount: 1, Decimals: 0}
	meta := &domain.TokenMetadata{
		Name: "Ape #1", Symbol: "APE", Verified: true,
		Price: ptr(1e-12), Liquidity: ptr(1),
	}
	v := c.Classify(h, meta)

	assert.Equal(t, domain.LevelSafe, v.Level)
}

func TestClassify_MonotonicEscalation(t *testing.T) {
	ref := DefaultReferenceSet()
	ref.Denylist["Sc4m"] = struct{}{}
	c := NewClassifier(ref, Thresholds{})

	// A denylisted holding with many additional suspicious signals stays
	// malicious; later suspicious rules append issues but never downgrade.
	h := &domain.TokenHolding{
		Mint:     "Sc4m",
		UIAmount: 9000,
		Decimals: 0,
		Delegate: sptr("D"),
	}
	meta := &domain.TokenMetadata{Name: "Free Airdrop", Symbol: "FREE", Price: ptr(1e-9)}
	v := c.Classify(h, meta)

	assert.Equal(t, domain.LevelMalicious, v.Level)
	assert.Greater(t, len(v.Issues), 3)
	assert.Equal(t, "Known scam token", v.Issues[0])
}

func TestVerdict_EscalateNeverDowngrades(t *testing.T) {
	var v domain.Verdict
	v.Escalate(domain.LevelMalicious)
	v.Escalate(domain.LevelSuspicious)
	v.Escalate(domain.LevelSafe)
	assert.Equal(t, domain.LevelMalicious, v.Level)
}
