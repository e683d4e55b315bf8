// Package watch re-scans a wallet whenever one of its token accounts changes
// on chain. It subscribes to account notifications over WebSocket and
// debounces bursts of updates into a single scan.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nothingdao/solana-wallet-scanner/internal/domain"
	"github.com/nothingdao/solana-wallet-scanner/internal/scanner"
	"github.com/nothingdao/solana-wallet-scanner/internal/solana"
)

// DefaultDebounce is how long the watcher waits after the last notification
// before re-scanning.
const DefaultDebounce = 5 * time.Second

// Options configures a Watcher.
type Options struct {
	WS       solana.WSClient
	Scanner  *scanner.Scanner
	Debounce time.Duration
	Logger   *zap.Logger
}

// Watcher keeps one wallet's scan result fresh.
type Watcher struct {
	ws       solana.WSClient
	scanner  *scanner.Scanner
	debounce time.Duration
	logger   *zap.Logger

	mu         sync.Mutex
	subscribed map[string]bool
	updates    chan solana.AccountNotification
}

// New creates a Watcher. WS and Scanner are required.
func New(opts Options) (*Watcher, error) {
	if opts.WS == nil {
		return nil, fmt.Errorf("ws client is required")
	}
	if opts.Scanner == nil {
		return nil, fmt.Errorf("scanner is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Watcher{
		ws:         opts.WS,
		scanner:    opts.Scanner,
		debounce:   opts.Debounce,
		logger:     opts.Logger,
		subscribed: make(map[string]bool),
		updates:    make(chan solana.AccountNotification, 64),
	}, nil
}

// Run scans the owner once, emits the result, then blocks re-scanning on
// every change to one of the owner's token accounts until ctx is cancelled.
// Each result, including the initial one, is sent to results. The channel is
// closed when Run returns.
func (w *Watcher) Run(ctx context.Context, owner string, results chan<- *domain.ScanResult) error {
	defer close(results)

	result, err := w.scanner.Scan(ctx, owner)
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	w.subscribeAccounts(ctx, result)
	select {
	case results <- result:
	case <-ctx.Done():
		return ctx.Err()
	}

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case n := <-w.updates:
			w.logger.Debug("account changed",
				zap.String("pubkey", n.Pubkey),
				zap.Int64("slot", n.Slot))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			result, err := w.scanner.Scan(ctx, owner)
			if err != nil {
				w.logger.Warn("re-scan failed", zap.String("owner", owner), zap.Error(err))
				continue
			}
			// New token accounts appear between scans; subscribe to them too.
			w.subscribeAccounts(ctx, result)
			select {
			case results <- result:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// subscribeAccounts subscribes to every token account in the result that is
// not yet watched. Subscription failures are logged and skipped.
func (w *Watcher) subscribeAccounts(ctx context.Context, result *domain.ScanResult) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, h := range append(result.Tokens, result.NFTs...) {
		pubkey := h.Holding.TokenAccount
		if pubkey == "" || w.subscribed[pubkey] {
			continue
		}
		ch, err := w.ws.SubscribeAccount(ctx, pubkey)
		if err != nil {
			w.logger.Warn("subscribe failed", zap.String("pubkey", pubkey), zap.Error(err))
			continue
		}
		w.subscribed[pubkey] = true
		go w.forward(ctx, ch)
	}
}

// forward copies notifications from one subscription into the shared queue.
func (w *Watcher) forward(ctx context.Context, ch <-chan solana.AccountNotification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			select {
			case w.updates <- n:
			default:
				// Queue full; the pending re-scan will pick up the change.
			}
		}
	}
}
