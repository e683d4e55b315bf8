package metadata

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mr-tron/base58"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
	"github.com/nothingdao/solana-wallet-scanner/internal/solana"
)

// MetadataProgramID is the Metaplex token metadata program.
const MetadataProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

// OnChainSource resolves identity from the mint's Metaplex metadata account,
// then dereferences the off-chain URI for image/description/socials.
type OnChainSource struct {
	rpc    solana.RPCClient
	client *http.Client
}

// NewOnChainSource creates an on-chain metadata source backed by rpc.
func NewOnChainSource(rpc solana.RPCClient, timeout time.Duration) *OnChainSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OnChainSource{
		rpc:    rpc,
		client: &http.Client{Timeout: timeout},
	}
}

// Name identifies the source in logs and metrics.
func (s *OnChainSource) Name() string { return "onchain" }

// Resolve derives the metadata PDA for the mint, parses the on-chain
// account, and enriches from the off-chain URI when one is present. Every
// step is best-effort: a failed URI fetch still returns the on-chain fields.
func (s *OnChainSource) Resolve(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	pda, err := metadataPDA(mint)
	if err != nil {
		return nil, nil
	}

	info, err := s.rpc.GetAccountInfo(ctx, pda)
	if err != nil || info == nil || info.Data == "" {
		return nil, nil
	}

	name, symbol, uri, err := parseMetadataAccount(info.Data)
	if err != nil {
		return nil, nil
	}

	meta := &domain.TokenMetadata{
		Mint:   mint,
		Name:   name,
		Symbol: symbol,
	}

	if uri != "" {
		s.fillFromURI(ctx, meta, uri)
	}

	return meta, nil
}

// metadataPDA derives the Metaplex metadata account address for a mint.
func metadataPDA(mint string) (string, error) {
	program, err := base58.Decode(MetadataProgramID)
	if err != nil {
		return "", err
	}
	mintRaw, err := base58.Decode(mint)
	if err != nil {
		return "", err
	}

	seeds := [][]byte{[]byte("metadata"), program, mintRaw}
	return solana.FindProgramAddress(seeds, MetadataProgramID)
}

// parseMetadataAccount extracts name, symbol and uri from a base64-encoded
// Metaplex metadata account. Layout: key(1) | update_authority(32) |
// mint(32) | name | symbol | uri, each string borsh-encoded as u32 length
// followed by NUL-padded bytes.
func parseMetadataAccount(data string) (name, symbol, uri string, err error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", "", "", fmt.Errorf("decode account data: %w", err)
	}

	offset := 1 + 32 + 32
	if len(raw) < offset {
		return "", "", "", fmt.Errorf("metadata account too short: %d", len(raw))
	}

	name, offset, err = readBorshString(raw, offset)
	if err != nil {
		return "", "", "", err
	}
	symbol, offset, err = readBorshString(raw, offset)
	if err != nil {
		return "", "", "", err
	}
	uri, _, err = readBorshString(raw, offset)
	if err != nil {
		return "", "", "", err
	}

	return name, symbol, uri, nil
}

// readBorshString reads a u32-length-prefixed string and strips NUL padding.
func readBorshString(raw []byte, offset int) (string, int, error) {
	if len(raw) < offset+4 {
		return "", 0, fmt.Errorf("truncated string length at offset %d", offset)
	}
	length := int(binary.LittleEndian.Uint32(raw[offset:]))
	offset += 4

	if length < 0 || length > 1024 || len(raw) < offset+length {
		return "", 0, fmt.Errorf("invalid string length %d at offset %d", length, offset)
	}

	s := strings.TrimRight(string(raw[offset:offset+length]), "\x00")
	return strings.TrimSpace(s), offset + length, nil
}

// offChainMetadata is the conventional JSON document behind the on-chain URI.
type offChainMetadata struct {
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Image        string `json:"image"`
	Description  string `json:"description"`
	ExternalURL  string `json:"external_url"`
	Extensions   struct {
		Website string `json:"website"`
		Twitter string `json:"twitter"`
	} `json:"extensions"`
}

// fillFromURI fetches the off-chain document and fills gaps in meta.
// Failures are swallowed; the on-chain fields already gathered stand.
func (s *OnChainSource) fillFromURI(ctx context.Context, meta *domain.TokenMetadata, uri string) {
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return
	}

	var doc offChainMetadata
	if err := json.Unmarshal(body, &doc); err != nil {
		return
	}

	if meta.Name == "" {
		meta.Name = doc.Name
	}
	if meta.Symbol == "" {
		meta.Symbol = doc.Symbol
	}
	meta.Image = doc.Image
	meta.Description = doc.Description
	if doc.Extensions.Website != "" {
		meta.Website = doc.Extensions.Website
	} else {
		meta.Website = doc.ExternalURL
	}
	meta.Twitter = doc.Extensions.Twitter
}

var _ Source = (*OnChainSource)(nil)
