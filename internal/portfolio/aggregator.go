// Package portfolio aggregates classified holdings into the final scan
// result: per-level counts, a normalized risk score and recommendations.
package portfolio

import (
	"math"
	"sort"
	"time"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
)

// Risk points per classified holding, normalized against the maximum.
const (
	pointsMalicious  = 10
	pointsSuspicious = 5
	maxPointsPerItem = pointsMalicious
)

// DefaultHardwareWalletAdviceUSD is the portfolio value above which cold
// storage advice is added.
const DefaultHardwareWalletAdviceUSD = 1000

// generalAdvice is the constant hygiene tail appended to every result.
var generalAdvice = []string{
	"Never share your seed phrase or private key with anyone",
	"Verify token mint addresses before interacting with unfamiliar tokens",
	"Be wary of unsolicited airdrops; they are a common phishing vector",
}

// Aggregator folds classified holdings into a ScanResult.
type Aggregator struct {
	hardwareWalletAdviceUSD float64
}

// NewAggregator creates an aggregator. adviceThresholdUSD <= 0 selects the
// default materiality threshold.
func NewAggregator(adviceThresholdUSD float64) *Aggregator {
	if adviceThresholdUSD <= 0 {
		adviceThresholdUSD = DefaultHardwareWalletAdviceUSD
	}
	return &Aggregator{hardwareWalletAdviceUSD: adviceThresholdUSD}
}

// Aggregate builds the immutable scan result for one owner. Tokens are
// sorted by descending USD value; holdings without a resolved price sort
// last, stably, so identical inputs always produce identical output.
func (a *Aggregator) Aggregate(owner string, tokens, nfts []domain.ClassifiedHolding) *domain.ScanResult {
	sorted := make([]domain.ClassifiedHolding, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, vj := sorted[i].ValueUSD(), sorted[j].ValueUSD()
		if sorted[i].HasValue() != sorted[j].HasValue() {
			return sorted[i].HasValue()
		}
		return vi > vj
	})

	summary := domain.ScanSummary{
		TotalTokens: len(tokens),
		TotalNFTs:   len(nfts),
	}

	var points int
	countVerdict := func(v domain.Verdict) {
		switch v.Level {
		case domain.LevelMalicious:
			summary.MaliciousCount++
			points += pointsMalicious
		case domain.LevelSuspicious:
			summary.SuspiciousCount++
			points += pointsSuspicious
		default:
			summary.SafeCount++
		}
	}

	for _, t := range sorted {
		countVerdict(t.Verdict)
		if t.Holding.HasDelegate() {
			summary.DelegateApprovals++
		}
		summary.TotalValueUSD += t.ValueUSD()
	}
	for _, n := range nfts {
		countVerdict(n.Verdict)
	}

	summary.RiskScore = normalizeScore(points, len(tokens)+len(nfts))

	return &domain.ScanResult{
		Owner:           owner,
		ScannedAt:       time.Now().UTC(),
		Tokens:          sorted,
		NFTs:            nfts,
		Summary:         summary,
		Recommendations: a.recommendations(summary),
	}
}

// normalizeScore maps accumulated points onto a 0-100 integer scale.
// An empty holding set scores 0 rather than dividing by zero.
func normalizeScore(points, holdings int) int {
	if holdings == 0 {
		return 0
	}
	score := int(math.Round(float64(points) * 100 / float64(holdings*maxPointsPerItem)))
	if score > 100 {
		score = 100
	}
	return score
}

// recommendations produces the ordered, deduplicated advisory list.
func (a *Aggregator) recommendations(s domain.ScanSummary) []string {
	var recs []string

	if s.MaliciousCount > 0 {
		recs = append(recs, "Malicious tokens detected: do not interact with them and consider closing their accounts")
	}
	if s.DelegateApprovals > 0 {
		recs = append(recs, "Revoke active delegate approvals to stop third-party spending of your tokens")
	}
	if s.SuspiciousCount > 0 {
		recs = append(recs, "Research the flagged suspicious tokens before trading or approving them")
	}
	if s.TotalValueUSD > a.hardwareWalletAdviceUSD {
		recs = append(recs, "Consider moving significant holdings to a hardware wallet")
	}

	recs = append(recs, generalAdvice...)

	return dedup(recs)
}

// dedup removes repeated strings while preserving first-seen order.
func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
