// Package risk classifies token holdings against static reference tables
// and rule thresholds. Reference tables load once at process start and are
// read-only afterwards, so they need no locking.
package risk

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReferenceSet holds the static tables the classifier reads.
type ReferenceSet struct {
	// Denylist is the set of known scam mints.
	Denylist map[string]struct{}

	// Keywords are the suspicious promotional/urgency terms matched
	// case-insensitively against name, symbol and description.
	Keywords []string

	// CanonicalMints maps an uppercase well-known symbol to its one
	// legitimate mint. A matching symbol on any other mint is impersonation.
	CanonicalMints map[string]string
}

// Well-known canonical mints.
const (
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint       = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	BONKMint       = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	JUPMint        = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
	RAYMint        = "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"
	JitoSOLMint    = "J1toso1uCk3RLmjorhTtrVwY9HJ7X8V9yYac6Y7kGCPn"
	MSOLMint       = "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"
)

// DefaultReferenceSet returns the built-in tables.
func DefaultReferenceSet() *ReferenceSet {
	return &ReferenceSet{
		Denylist: map[string]struct{}{},
		Keywords: []string{
			"airdrop",
			"claim",
			"free",
			"bonus",
			"giveaway",
			"reward",
			"winner",
			"urgent",
			"limited time",
			"presale",
			"whitelist",
			"1000x",
			"elon",
			"official",
			"verify wallet",
			"visit",
			".com",
			".io",
			".xyz",
		},
		CanonicalMints: map[string]string{
			"SOL":     WrappedSOLMint,
			"WSOL":    WrappedSOLMint,
			"USDC":    USDCMint,
			"USDT":    USDTMint,
			"BONK":    BONKMint,
			"JUP":     JUPMint,
			"RAY":     RAYMint,
			"JITOSOL": JitoSOLMint,
			"MSOL":    MSOLMint,
		},
	}
}

// referenceFile is the YAML shape of an external reference table file.
type referenceFile struct {
	Denylist  []string          `yaml:"denylist"`
	Keywords  []string          `yaml:"keywords"`
	Canonical map[string]string `yaml:"canonical"`
}

// LoadReferenceFile merges a YAML reference file over the defaults.
// Denylist entries and keywords append; canonical entries override by symbol.
func LoadReferenceFile(path string) (*ReferenceSet, error) {
	ref := DefaultReferenceSet()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference file: %w", err)
	}

	var file referenceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse reference file: %w", err)
	}

	for _, mint := range file.Denylist {
		if mint != "" {
			ref.Denylist[mint] = struct{}{}
		}
	}
	for _, kw := range file.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && !containsKeyword(ref.Keywords, kw) {
			ref.Keywords = append(ref.Keywords, kw)
		}
	}
	for sym, mint := range file.Canonical {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym != "" && mint != "" {
			ref.CanonicalMints[sym] = mint
		}
	}

	return ref, nil
}

func containsKeyword(keywords []string, kw string) bool {
	for _, k := range keywords {
		if k == kw {
			return true
		}
	}
	return false
}

// IsDenylisted reports whether the mint is a known scam.
func (r *ReferenceSet) IsDenylisted(mint string) bool {
	_, ok := r.Denylist[mint]
	return ok
}

// CanonicalMint returns the legitimate mint for a well-known symbol,
// looked up case-insensitively. ok is false for unknown symbols.
func (r *ReferenceSet) CanonicalMint(symbol string) (string, bool) {
	mint, ok := r.CanonicalMints[strings.ToUpper(symbol)]
	return mint, ok
}
