// Package main is the one-shot wallet scanner CLI. It scans a wallet's token
// holdings, prints a colorized risk report, and can keep watching the wallet
// for changes over WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/nothingdao/solana-wallet-scanner/internal/config"
	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
	"github.com/nothingdao/solana-wallet-scanner/internal/metadata"
	"github.com/nothingdao/solana-wallet-scanner/internal/risk"
	"github.com/nothingdao/solana-wallet-scanner/internal/scanner"
	"github.com/nothingdao/solana-wallet-scanner/internal/server"
	"github.com/nothingdao/solana-wallet-scanner/internal/solana"
	"github.com/nothingdao/solana-wallet-scanner/internal/watch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags override environment defaults.
	rpcURL := flag.String("rpc-url", cfg.Solana.RPCURL, "Solana RPC HTTP endpoint")
	wsURL := flag.String("ws-url", cfg.Solana.WSURL, "Solana WebSocket endpoint (watch mode)")
	referenceFile := flag.String("reference-file", cfg.Risk.ReferenceFile, "YAML file merged over the built-in risk reference tables")
	jsonOut := flag.Bool("json", false, "Print the scan result as JSON instead of a report")
	watchMode := flag.Bool("watch", false, "Keep watching the wallet and re-scan on changes")
	verbose := flag.Bool("verbose", false, "Enable debug logging to stderr")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <wallet-address>\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	owner := flag.Arg(0)

	cfg.Solana.RPCURL = *rpcURL
	cfg.Solana.WSURL = *wsURL
	cfg.Risk.ReferenceFile = *referenceFile

	logger := zap.NewNop()
	if *verbose {
		devLogger, err := zap.NewDevelopment()
		if err == nil {
			logger = devLogger
		}
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rpc := solana.NewHTTPClient(cfg.Solana.RPCURL,
		solana.WithTimeout(cfg.Solana.RequestTimeout),
		solana.WithMaxRetries(cfg.Solana.MaxRetries),
		solana.WithRetryDelay(cfg.Solana.RetryDelay),
	)

	sc, err := buildScanner(cfg, rpc, logger)
	if err != nil {
		fatalf("Failed to build scanner: %v", err)
	}

	if *watchMode {
		runWatch(ctx, cfg, sc, logger, owner, *jsonOut)
		return
	}

	result, err := sc.Scan(ctx, owner)
	if err != nil {
		fatalf("Scan failed: %v", err)
	}
	printResult(result, *jsonOut)
}

// runWatch scans once, then re-scans and reprints whenever a token account
// changes, until interrupted.
func runWatch(ctx context.Context, cfg *config.Config, sc *scanner.Scanner, logger *zap.Logger, owner string, jsonOut bool) {
	ws, err := solana.NewWSClient(ctx, cfg.Solana.WSURL, nil)
	if err != nil {
		fatalf("Failed to connect to WebSocket endpoint: %v", err)
	}
	defer ws.Close()

	w, err := watch.New(watch.Options{WS: ws, Scanner: sc, Logger: logger})
	if err != nil {
		fatalf("Failed to build watcher: %v", err)
	}

	results := make(chan *domain.ScanResult, 1)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, owner, results) }()

	for {
		select {
		case result, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			printResult(result, jsonOut)
			if !jsonOut {
				fmt.Println(color.HiBlackString("watching for changes, Ctrl-C to stop..."))
			}
		case err := <-done:
			if err != nil && ctx.Err() == nil {
				fatalf("Watch failed: %v", err)
			}
			return
		}
	}
}

// buildScanner wires the metadata sources, classifier and scan engine.
func buildScanner(cfg *config.Config, rpc solana.RPCClient, logger *zap.Logger) (*scanner.Scanner, error) {
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
	})
}

func printResult(result *domain.ScanResult, jsonOut bool) {
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(server.ToScanResponse(result)); err != nil {
			fatalf("Failed to encode result: %v", err)
		}
		return
	}
	printReport(result)
}

func printReport(result *domain.ScanResult) {
	bold := color.New(color.Bold)

	fmt.Println()
	bold.Printf("Wallet %s\n", result.Owner)
	fmt.Printf("Scanned at %s\n\n", result.ScannedAt.Format("2006-01-02 15:04:05 MST"))

	if len(result.Tokens) > 0 {
		bold.Printf("Tokens (%d)\n", len(result.Tokens))
		for _, c := range result.Tokens {
			printHolding(c)
		}
		fmt.Println()
	}
	if len(result.NFTs) > 0 {
		bold.Printf("NFTs (%d)\n", len(result.NFTs))
		for _, c := range result.NFTs {
			printHolding(c)
		}
		fmt.Println()
	}

	s := result.Summary
	bold.Println("Summary")
	fmt.Printf("  %d tokens, %d NFTs  total value $%.2f\n", s.TotalTokens, s.TotalNFTs, s.TotalValueUSD)
	fmt.Printf("  %s  %s  %s  delegate approvals: %d\n",
		color.GreenString("%d safe", s.SafeCount),
		color.YellowString("%d suspicious", s.SuspiciousCount),
		color.RedString("%d malicious", s.MaliciousCount),
		s.DelegateApprovals,
	)
	fmt.Printf("  Risk score: %s\n\n", scoreString(s.RiskScore))

	if len(result.Recommendations) > 0 {
		bold.Println("Recommendations")
		for _, rec := range result.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
		fmt.Println()
	}
}

func printHolding(c domain.ClassifiedHolding) {
	name := c.Metadata.Name
	if c.Metadata.Symbol != "" {
		name = fmt.Sprintf("%s (%s)", name, c.Metadata.Symbol)
	}

	value := ""
	if c.HasValue() {
		value = fmt.Sprintf("  $%.2f", c.ValueUSD())
	}

	fmt.Printf("  %s %s  %s%s\n", levelBadge(c.Verdict.Level), name,
		formatAmount(c.Holding.UIAmount), value)
	for _, issue := range c.Verdict.Issues {
		fmt.Printf("      %s\n", color.HiBlackString(issue))
	}
}

func levelBadge(level domain.RiskLevel) string {
	switch level {
	case domain.LevelMalicious:
		return color.RedString("[MALICIOUS] ")
	case domain.LevelSuspicious:
		return color.YellowString("[SUSPICIOUS]")
	default:
		return color.GreenString("[SAFE]      ")
	}
}

func scoreString(score int) string {
	switch {
	case score >= 50:
		return color.RedString("%d/100", score)
	case score >= 20:
		return color.YellowString("%d/100", score)
	default:
		return color.GreenString("%d/100", score)
	}
}

func formatAmount(ui float64) string {
	if ui == float64(int64(ui)) {
		return fmt.Sprintf("%d", int64(ui))
	}
	return fmt.Sprintf("%.4f", ui)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, color.RedString(format)+"\n", args...)
	os.Exit(1)
}
