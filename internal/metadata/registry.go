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

// DefaultRegistryURL is the legacy Solana Labs token registry snapshot.
const DefaultRegistryURL = "https://raw.githubusercontent.com/solana-labs/token-list/main/src/tokens/solana.tokenlist.json"

// RegistrySource resolves identity from the official token registry, which
// wraps entries in a {"tokens": [...]} envelope and carries website/twitter
// extensions the curated list does not.
type RegistrySource struct {
	url    string
	client *http.Client

	once    sync.Once
	loaded  chan struct{}
	byMint  map[string]registryEntry
	loadErr error
}

type registryEntry struct {
	Address    string `json:"address"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	LogoURI    string `json:"logoURI"`
	Extensions struct {
		Website string `json:"website"`
		Twitter string `json:"twitter"`
	} `json:"extensions"`
}

// NewRegistrySource creates a registry source. url may be empty for the default.
func NewRegistrySource(url string, timeout time.Duration) *RegistrySource {
	if url == "" {
		url = DefaultRegistryURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RegistrySource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		loaded: make(chan struct{}),
	}
}

// Name identifies the source in logs and metrics.
func (s *RegistrySource) Name() string { return "registry" }

// Resolve returns identity fields for mints present in the registry.
func (s *RegistrySource) Resolve(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	// As with the token list, the snapshot load is detached from caller
	// deadlines so a transient first-lookup timeout cannot poison it.
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
		Website:  entry.Extensions.Website,
		Twitter:  entry.Extensions.Twitter,
		Verified: true,
	}, nil
}

func (s *RegistrySource) load() {
	defer close(s.loaded)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, s.url, nil)
	if err != nil {
		s.loadErr = fmt.Errorf("create request: %w", err)
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.loadErr = fmt.Errorf("fetch registry: %w", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.loadErr = fmt.Errorf("registry status %d", resp.StatusCode)
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		s.loadErr = fmt.Errorf("read registry: %w", err)
		return
	}

	var payload struct {
		Tokens []registryEntry `json:"tokens"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		s.loadErr = fmt.Errorf("parse registry: %w", err)
		return
	}

	byMint := make(map[string]registryEntry, len(payload.Tokens))
	for _, e := range payload.Tokens {
		if e.Address == "" {
			continue
		}
		byMint[e.Address] = e
	}
	s.byMint = byMint
}

var _ Source = (*RegistrySource)(nil)
