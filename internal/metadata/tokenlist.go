package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
)

// DefaultTokenListURL is the curated Jupiter verified token list.
const DefaultTokenListURL = "https://tokens.jup.ag/tokens?tags=verified"

// TokenListSource resolves identity from a curated token list. The list is
// one large JSON document; it is downloaded once and served from an
// in-memory snapshot for the life of the process.
type TokenListSource struct {
	url    string
	client *http.Client

	once    sync.Once
	loaded  chan struct{}
	byMint  map[string]tokenListEntry
	loadErr error
}

type tokenListEntry struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	LogoURI string `json:"logoURI"`
}

// NewTokenListSource creates a token list source. url may be empty for the default.
func NewTokenListSource(url string, timeout time.Duration) *TokenListSource {
	if url == "" {
		url = DefaultTokenListURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TokenListSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		loaded: make(chan struct{}),
	}
}

// Name identifies the source in logs and metrics.
func (s *TokenListSource) Name() string { return "tokenlist" }

// Resolve returns identity fields for mints present on the curated list.
// Membership on the list implies the verified flag.
func (s *TokenListSource) Resolve(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	// The snapshot loads once, detached from any caller's deadline, so an
	// impatient first caller cannot poison it for the process lifetime.
	s.once.Do(func() { go s.load() })
	select {
	case <-s.loaded:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.loadErr != nil {
		return nil, nil
	}

	entry, ok := s.byMint[mint]
	if !ok {
		return nil, nil
	}

	return &domain.TokenMetadata{
		Mint:     mint,
		Name:     entry.Name,
		Symbol:   entry.Symbol,
		Image:    entry.LogoURI,
		Verified: true,
	}, nil
}

// load fetches the list snapshot, bounded by the client timeout. Called
// exactly once; a failed load leaves the source permanently empty rather
// than retrying.
func (s *TokenListSource) load() {
	defer close(s.loaded)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, s.url, nil)
	if err != nil {
		s.loadErr = fmt.Errorf("create request: %w", err)
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.loadErr = fmt.Errorf("fetch token list: %w", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.loadErr = fmt.Errorf("token list status %d", resp.StatusCode)
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		s.loadErr = fmt.Errorf("read token list: %w", err)
		return
	}

	var entries []tokenListEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		s.loadErr = fmt.Errorf("parse token list: %w", err)
		return
	}

	byMint := make(map[string]tokenListEntry, len(entries))
	for _, e := range entries {
		if e.Address == "" {
			continue
		}
		byMint[e.Address] = e
	}
	s.byMint = byMint
}

var _ Source = (*TokenListSource)(nil)
