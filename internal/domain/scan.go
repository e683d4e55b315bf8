package domain

import "time"

// ScanSummary holds the aggregate counters for one scan.
type ScanSummary struct {
	TotalTokens       int
	TotalNFTs         int
	SafeCount         int
	SuspiciousCount   int
	MaliciousCount    int
	DelegateApprovals int
	TotalValueUSD     float64
	RiskScore         int // 0-100
}

// ScanResult is the full outcome of scanning one owner. It is built once by
// the aggregator and never mutated afterwards.
type ScanResult struct {
	Owner           string
	ScannedAt       time.Time
	Tokens          []ClassifiedHolding // sorted by descending USD value
	NFTs            []ClassifiedHolding
	Summary         ScanSummary
	Recommendations []string
}

// ScanRecord is the serving-layer archive row for a completed scan.
// The engine never reads these; they exist for history endpoints only.
type ScanRecord struct {
	ID                int64
	Owner             string
	ScannedAt         time.Time
	RiskScore         int
	TotalTokens       int
	TotalNFTs         int
	SuspiciousCount   int
	MaliciousCount    int
	DelegateApprovals int
	TotalValueUSD     float64
	ResultJSON        []byte // marshalled ScanResult
}
