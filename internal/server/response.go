package server

import (
	"time"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
)

// HoldingResponse is one classified holding on the wire.
type HoldingResponse struct {
	Mint            string   `json:"mint"`
	TokenAccount    string   `json:"token_account"`
	Name            string   `json:"name"`
	Symbol          string   `json:"symbol"`
	UIAmount        float64  `json:"ui_amount"`
	Decimals        int      `json:"decimals"`
	Verified        bool     `json:"verified"`
	PriceUSD        *float64 `json:"price_usd,omitempty"`
	ValueUSD        *float64 `json:"value_usd,omitempty"`
	Delegate        *string  `json:"delegate,omitempty"`
	DelegatedAmount *float64 `json:"delegated_amount,omitempty"`
	FreezeAuthority *string  `json:"freeze_authority,omitempty"`
	RiskLevel       string   `json:"risk_level"`
	Issues          []string `json:"issues"`
}

// SummaryResponse mirrors domain.ScanSummary.
type SummaryResponse struct {
	TotalTokens       int     `json:"total_tokens"`
	TotalNFTs         int     `json:"total_nfts"`
	SafeCount         int     `json:"safe_count"`
	SuspiciousCount   int     `json:"suspicious_count"`
	MaliciousCount    int     `json:"malicious_count"`
	DelegateApprovals int     `json:"delegate_approvals"`
	TotalValueUSD     float64 `json:"total_value_usd"`
	RiskScore         int     `json:"risk_score"`
}

// ScanResponse is the full scan result on the wire.
type ScanResponse struct {
	Owner           string            `json:"owner"`
	ScannedAt       time.Time         `json:"scanned_at"`
	Tokens          []HoldingResponse `json:"tokens"`
	NFTs            []HoldingResponse `json:"nfts"`
	Summary         SummaryResponse   `json:"summary"`
	Recommendations []string          `json:"recommendations"`
}

// HistoryEntryResponse is one archived scan in a history listing. The full
// result is omitted; clients fetch it from the latest endpoint.
type HistoryEntryResponse struct {
	ID                int64     `json:"id"`
	ScannedAt         time.Time `json:"scanned_at"`
	RiskScore         int       `json:"risk_score"`
	TotalTokens       int       `json:"total_tokens"`
	TotalNFTs         int       `json:"total_nfts"`
	SuspiciousCount   int       `json:"suspicious_count"`
	MaliciousCount    int       `json:"malicious_count"`
	DelegateApprovals int       `json:"delegate_approvals"`
	TotalValueUSD     float64   `json:"total_value_usd"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func toHoldingResponse(c domain.ClassifiedHolding) HoldingResponse {
	r := HoldingResponse{
		Mint:            c.Holding.Mint,
		TokenAccount:    c.Holding.TokenAccount,
		Name:            c.Metadata.Name,
		Symbol:          c.Metadata.Symbol,
		UIAmount:        c.Holding.UIAmount,
		Decimals:        c.Holding.Decimals,
		Verified:        c.Metadata.Verified,
		PriceUSD:        c.Metadata.Price,
		Delegate:        c.Holding.Delegate,
		DelegatedAmount: c.Holding.DelegatedAmount,
		FreezeAuthority: c.Holding.FreezeAuthority,
		RiskLevel:       c.Verdict.Level.String(),
		Issues:          c.Verdict.Issues,
	}
	if r.Issues == nil {
		r.Issues = []string{}
	}
	if c.HasValue() {
		v := c.ValueUSD()
		r.ValueUSD = &v
	}
	return r
}

func toHoldingResponses(holdings []domain.ClassifiedHolding) []HoldingResponse {
	out := make([]HoldingResponse, 0, len(holdings))
	for _, c := range holdings {
		out = append(out, toHoldingResponse(c))
	}
	return out
}

// ToScanResponse converts a scan result to its wire form.
func ToScanResponse(result *domain.ScanResult) ScanResponse {
	recs := result.Recommendations
	if recs == nil {
		recs = []string{}
	}
	return ScanResponse{
		Owner:     result.Owner,
		ScannedAt: result.ScannedAt,
		Tokens:    toHoldingResponses(result.Tokens),
		NFTs:      toHoldingResponses(result.NFTs),
		Summary: SummaryResponse{
			TotalTokens:       result.Summary.TotalTokens,
			TotalNFTs:         result.Summary.TotalNFTs,
			SafeCount:         result.Summary.SafeCount,
			SuspiciousCount:   result.Summary.SuspiciousCount,
			MaliciousCount:    result.Summary.MaliciousCount,
			DelegateApprovals: result.Summary.DelegateApprovals,
			TotalValueUSD:     result.Summary.TotalValueUSD,
			RiskScore:         result.Summary.RiskScore,
		},
		Recommendations: recs,
	}
}

func toHistoryEntry(rec *domain.ScanRecord) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:                rec.ID,
		ScannedAt:         rec.ScannedAt,
		RiskScore:         rec.RiskScore,
		TotalTokens:       rec.TotalTokens,
		TotalNFTs:         rec.TotalNFTs,
		SuspiciousCount:   rec.SuspiciousCount,
		MaliciousCount:    rec.MaliciousCount,
		DelegateApprovals: rec.DelegateApprovals,
		TotalValueUSD:     rec.TotalValueUSD,
	}
}
