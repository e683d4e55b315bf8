// Package main runs the wallet scanner HTTP API: on-demand scans, scan
// history, and Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nothingdao/solana-wallet-scanner/internal/config"
	"github.com/nothingdao/solana-wallet-scanner/internal/metadata"
	"github.com/nothingdao/solana-wallet-scanner/internal/observability"
	"github.com/nothingdao/solana-wallet-scanner/internal/risk"
	"github.com/nothingdao/solana-wallet-scanner/internal/scanner"
	"github.com/nothingdao/solana-wallet-scanner/internal/server"
	"github.com/nothingdao/solana-wallet-scanner/internal/solana"
	"github.com/nothingdao/solana-wallet-scanner/internal/storage"
	"github.com/nothingdao/solana-wallet-scanner/internal/storage/memory"
	pgstore "github.com/nothingdao/solana-wallet-scanner/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	logger.Info("Starting wallet scanner API",
		zap.String("rpc_url", cfg.Solana.RPCURL),
		zap.Int("port", cfg.API.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("wallet_scanner")

	rpc := solana.NewHTTPClient(cfg.Solana.RPCURL,
		solana.WithTimeout(cfg.Solana.RequestTimeout),
		solana.WithMaxRetries(cfg.Solana.MaxRetries),
		solana.WithRetryDelay(cfg.Solana.RetryDelay),
	)

	sc, err := buildScanner(cfg, rpc, logger, metrics)
	if err != nil {
		logger.Fatal("Failed to build scanner", zap.Error(err))
	}

	// Postgres archive when configured, in-process memory archive otherwise.
	var store storage.ScanStore
	if cfg.Database.Enabled() {
		pool, err := pgstore.NewPool(ctx, cfg.Database.DSN())
		if err != nil {
			logger.Fatal("Failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()
		if err := pgstore.Migrate(ctx, pool); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		store = pgstore.NewScanStore(pool)
		logger.Info("Scan archive backed by postgres", zap.String("host", cfg.Database.Host))
	} else {
		store = memory.NewScanStore()
		logger.Info("Scan archive backed by memory")
	}

	srv, err := server.New(server.Options{
		Scanner:      sc,
		Store:        store,
		Logger:       logger,
		RateLimitRPM: cfg.API.RateLimitRPM,
	})
	if err != nil {
		logger.Fatal("Failed to build server", zap.Error(err))
	}

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		logger.Info("API server starting", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

// buildScanner wires the metadata sources, classifier and scan engine.
func buildScanner(cfg *config.Config, rpc solana.RPCClient, logger *zap.Logger, metrics *observability.Metrics) (*scanner.Scanner, error) {
	identity := []metadata.Source{
		metadata.NewTokenListSource(cfg.Metadata.TokenListURL, cfg.Metadata.SourceTimeout),
		metadata.NewRegistrySource(cfg.Metadata.RegistryURL, cfg.Metadata.SourceTimeout),
		metadata.NewOnChainSource(rpc, cfg.Metadata.SourceTimeout),
	}

	market := []metadata.Source{
		metadata.NewMarketDataSource(cfg.Metadata.MarketDataURL, cfg.Metadata.SourceTimeout),
	}

	resolver := metadata.NewResolver(identity, market,
		metadata.WithSourceTimeout(cfg.Metadata.SourceTimeout),
		metadata.WithLogger(logger),
		metadata.WithMetrics(metrics),
	)

	ref := risk.DefaultReferenceSet()
	if cfg.Risk.ReferenceFile != "" {
		loaded, err := risk.LoadReferenceFile(cfg.Risk.ReferenceFile)
		if err != nil {
			return nil, fmt.Errorf("load reference file: %w", err)
		}
		ref = loaded
	}

	classifier := risk.NewClassifier(ref, risk.Thresholds{
		SupplyOutlier:      cfg.Risk.SupplyOutlier,
		NonDivisibleBulk:   cfg.Risk.NonDivisibleBulk,
		DustPrice:          cfg.Risk.DustPrice,
		MinLiquidityUSD:    cfg.Risk.MinLiquidityUSD,
		MinVolume24hUSD:    cfg.Risk.MinVolume24hUSD,
		WashLiquidityRatio: cfg.Risk.WashLiquidityRatio,
		DedupKeywordIssues: cfg.Risk.DedupKeywordIssues,
	})

	return scanner.New(scanner.Options{
		RPC:         rpc,
		Resolver:    resolver,
		Classifier:  classifier,
		Concurrency: cfg.Scanner.Concurrency,
		FetchSupply: cfg.Scanner.FetchSupply,
		Logger:      logger,
		Metrics:     metrics,
	})
}

func setupLogger(level, format string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoding := "json"
	if format == "console" {
		encoding = "console"
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, _ := zapCfg.Build()
	return logger
}
