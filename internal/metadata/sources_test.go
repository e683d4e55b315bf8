package metadata

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nothingdao/solana-wallet-scanner/internal/solana"
	"github.com/nothingdao/solana-wallet-scanner/internal/solana/stub"
)

const usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func TestTokenListSource_ResolveAndSnapshot(t *testing.T) {
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		json.NewEncoder(w).Encode([]map[string]string{
			{"address": usdcMint, "name": "USD Coin", "symbol": "USDC", "logoURI": "usdc.png"},
		})
	}))
	defer srv.Close()

	src := NewTokenListSource(srv.URL, time.Second)

	meta, err := src.Resolve(context.Background(), usdcMint)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "USD Coin", meta.Name)
	assert.Equal(t, "USDC", meta.Symbol)
	assert.True(t, meta.Verified)

	// Unknown mint is no-data, not an error.
	meta, err = src.Resolve(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, meta)

	// The list is a one-shot snapshot: both lookups share one fetch.
	assert.Equal(t, int32(1), fetches.Load())
}

func TestTokenListSource_SlowFirstCallerDoesNotPoisonSnapshot(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		json.NewEncoder(w).Encode([]map[string]string{
			{"address": usdcMint, "name": "USD Coin", "symbol": "USDC"},
		})
	}))
	defer srv.Close()

	src := NewTokenListSource(srv.URL, 5*time.Second)

	// The first caller gives up while the list is still downloading.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	meta, err := src.Resolve(ctx, usdcMint)
	require.Error(t, err)
	assert.Nil(t, meta)

	// The load finishes anyway and later lookups see the snapshot.
	close(release)
	meta, err = src.Resolve(context.Background(), usdcMint)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "USDC", meta.Symbol)
}

func TestRegistrySource_SlowFirstCallerDoesNotPoisonSnapshot(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		json.NewEncoder(w).Encode(map[string]any{
			"tokens": []map[string]string{
				{"address": usdcMint, "name": "USD Coin", "symbol": "USDC"},
			},
		})
	}))
	defer srv.Close()

	src := NewRegistrySource(srv.URL, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	meta, err := src.Resolve(ctx, usdcMint)
	require.Error(t, err)
	assert.Nil(t, meta)

	close(release)
	meta, err = src.Resolve(context.Background(), usdcMint)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "USDC", meta.Symbol)
}

func TestTokenListSource_ServerErrorIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewTokenListSource(srv.URL, time.Second)
	meta, err := src.Resolve(context.Background(), usdcMint)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestRegistrySource_Extensions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tokens": []map[string]interface{}{
				{
					"address": usdcMint,
					"name":    "USD Coin",
					"symbol":  "USDC",
					"extensions": map[string]string{
						"website": "https://www.centre.io",
						"twitter": "https://twitter.com/circle",
					},
				},
			},
		})
	}))
	defer srv.Close()

	src := NewRegistrySource(srv.URL, time.Second)
	meta, err := src.Resolve(context.Background(), usdcMint)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "https://www.centre.io", meta.Website)
	assert.Equal(t, "https://twitter.com/circle", meta.Twitter)
	assert.True(t, meta.Verified)
}

func TestMarketDataSource_PicksDeepestPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"pairs": []map[string]interface{}{
				{
					"priceUsd":  "0.95",
					"liquidity": map[string]float64{"usd": 1000},
					"volume":    map[string]float64{"h24": 50},
				},
				{
					"priceUsd":  "1.00",
					"marketCap": 42000000.0,
					"liquidity": map[string]float64{"usd": 900000},
					"volume":    map[string]float64{"h24": 120000},
				},
			},
		})
	}))
	defer srv.Close()

	src := NewMarketDataSource(srv.URL, time.Second)
	meta, err := src.Resolve(context.Background(), usdcMint)
	require.NoError(t, err)
	require.NotNil(t, meta)

	require.NotNil(t, meta.Price)
	assert.Equal(t, 1.00, *meta.Price)
	require.NotNil(t, meta.MarketCap)
	assert.Equal(t, 42000000.0, *meta.MarketCap)
	require.NotNil(t, meta.Liquidity)
	assert.Equal(t, 900000.0, *meta.Liquidity)
	require.NotNil(t, meta.Volume24h)
	assert.Equal(t, 120000.0, *meta.Volume24h)

	// Identity fields never come from the market source.
	assert.Empty(t, meta.Name)
	assert.Empty(t, meta.Symbol)
}

func TestMarketDataSource_NoPairsIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"pairs": []interface{}{}})
	}))
	defer srv.Close()

	src := NewMarketDataSource(srv.URL, time.Second)
	meta, err := src.Resolve(context.Background(), "nolisting")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestMarketDataSource_MalformedBodyIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	src := NewMarketDataSource(srv.URL, time.Second)
	meta, err := src.Resolve(context.Background(), usdcMint)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

// buildMetadataAccount assembles a base64 Metaplex metadata account blob.
func buildMetadataAccount(name, symbol, uri string) string {
	raw := make([]byte, 1+32+32)
	for _, s := range []string{name, symbol, uri} {
		// Metaplex pads strings with NULs to fixed capacity.
		padded := append([]byte(s), make([]byte, 4)...)
		lenBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBuf, uint32(len(padded)))
		raw = append(raw, lenBuf...)
		raw = append(raw, padded...)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestOnChainSource_ParsesMetadataAccount(t *testing.T) {
	uriSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name":        "Cool Token",
			"symbol":      "COOL",
			"image":       "https://img.example/cool.png",
			"description": "a token",
		})
	}))
	defer uriSrv.Close()

	pda, err := metadataPDA(usdcMint)
	require.NoError(t, err)

	rpc := stub.NewRPCClient()
	rpc.AccountInfos[pda] = &solana.AccountInfo{
		Data: buildMetadataAccount("Cool Token", "COOL", uriSrv.URL),
	}

	src := NewOnChainSource(rpc, time.Second)
	meta, err := src.Resolve(context.Background(), usdcMint)
	require.NoError(t, err)
	require.NotNil(t, meta)

	assert.Equal(t, "Cool Token", meta.Name)
	assert.Equal(t, "COOL", meta.Symbol)
	assert.Equal(t, "https://img.example/cool.png", meta.Image)
	assert.Equal(t, "a token", meta.Description)
}

func TestOnChainSource_MissingAccountIsNoData(t *testing.T) {
	src := NewOnChainSource(stub.NewRPCClient(), time.Second)
	meta, err := src.Resolve(context.Background(), usdcMint)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestOnChainSource_BrokenURIKeepsOnChainFields(t *testing.T) {
	pda, err := metadataPDA(usdcMint)
	require.NoError(t, err)

	rpc := stub.NewRPCClient()
	rpc.AccountInfos[pda] = &solana.AccountInfo{
		Data: buildMetadataAccount("Half Token", "HALF", "https://127.0.0.1:1/unreachable"),
	}

	src := NewOnChainSource(rpc, 100*time.Millisecond)
	meta, err := src.Resolve(context.Background(), usdcMint)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "Half Token", meta.Name)
	assert.Equal(t, "HALF", meta.Symbol)
	assert.Empty(t, meta.Image)
}
