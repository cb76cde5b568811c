package sniper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/sirupsen/logrus"

	"sniper-suite-go/internal/config"
	"sniper-suite-go/internal/logger"
	"sniper-suite-go/internal/monitor"
	"sniper-suite-go/internal/notify"
	"sniper-suite-go/internal/safety"
	"sniper-suite-go/internal/trading"
	"sniper-suite-go/internal/wallet"
)

// Strategy tags recorded on dispatched buys
const (
	StrategySnipe     = "snipe"
	StrategySnipeFast = "snipe_fast"
)

// Skip reasons counted by the pipeline
const (
	SkipLowLiquidity = "low_liquidity"
	SkipOracleError  = "oracle_error"
	SkipBuyFailed    = "buy_failed"
)

// BuyDispatcher executes a single-wallet buy.
type BuyDispatcher interface {
	ExecuteBuy(ctx context.Context, walletID int64, signer types.Account, tokenMint string, solAmount float64, slippageBPS int, strategy string) (*trading.Result, error)
}

// Stats is a snapshot of session counters. For every consumed event exactly
// one of TokensBought/TokensSkipped is incremented, so after the pipeline
// settles TokensBought+TokensSkipped == PoolsDetected.
type Stats struct {
	PoolsDetected int
	TokensBought  int
	TokensSkipped int
	SkipReasons   map[string]int
	StartedAt     time.Time
	LastError     string
}

// SuccessRate is bought/detected, zero before the first event
func (s Stats) SuccessRate() float64 {
	if s.PoolsDetected == 0 {
		return 0
	}
	return float64(s.TokensBought) / float64(s.PoolsDetected)
}

// Session consumes pool events in arrival order, one at a time, and runs the
// decision pipeline on each.
type Session struct {
	wallet   wallet.WalletRef
	signer   types.Account
	cfg      config.SniperConfig
	source   monitor.EventSource
	oracle   safety.Oracle
	executor BuyDispatcher
	notifier notify.Notifier
	log      *logger.Logger

	mu    sync.Mutex
	stats Stats

	ready chan struct{}
	errCh chan error
	done  chan struct{}
}

func newSession(w wallet.WalletRef, signer types.Account, cfg config.SniperConfig, source monitor.EventSource, oracle safety.Oracle, executor BuyDispatcher, notifier notify.Notifier, log *logger.Logger) *Session {
	return &Session{
		wallet:   w,
		signer:   signer,
		cfg:      cfg,
		source:   source,
		oracle:   oracle,
		executor: executor,
		notifier: notifier,
		log:      log,
		stats: Stats{
			SkipReasons: make(map[string]int),
			StartedAt:   time.Now().UTC(),
		},
		ready: make(chan struct{}),
		errCh: make(chan error, 1),
		done:  make(chan struct{}),
	}
}

// run is the session's background loop. Events are consumed serially in
// arrival order; the mutex only guards counter reads from Status callers.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	if err := s.source.Start(ctx); err != nil {
		s.errCh <- fmt.Errorf("failed to start event source: %w", err)
		return
	}
	defer s.source.Stop()

	close(s.ready)

	s.log.WithFields(logrus.Fields{
		"wallet":    s.wallet.Address,
		"fast_mode": s.cfg.FastMode,
	}).Info("🎯 Sniper session listening")
	s.notifier.NotifyLifecycle(ctx, fmt.Sprintf("🎯 Sniper session started for %s", s.wallet.Address))

	for {
		select {
		case <-ctx.Done():
			s.log.WithField("reason", ctx.Err()).Info("Sniper session loop stopped")
			return
		case event := <-s.source.Events():
			s.handleEvent(ctx, event)
		}
	}
}

// handleEvent runs the decision pipeline for one pool event. Failures are
// counted and logged, never propagated: one bad event must not stop the loop.
func (s *Session) handleEvent(ctx context.Context, event monitor.PoolEvent) {
	s.mu.Lock()
	s.stats.PoolsDetected++
	s.mu.Unlock()

	if s.cfg.FastMode {
		s.dispatchBuy(ctx, event, StrategySnipeFast)
		return
	}

	if event.LiquiditySOL < s.cfg.MinLiquiditySOL {
		s.skip(event, SkipLowLiquidity)
		return
	}

	report, err := s.oracle.Analyze(ctx, event.TokenAddress)
	if err != nil {
		s.log.LogError("sniper", "oracle_analyze", err, logrus.Fields{"mint": event.TokenAddress})
		s.skip(event, SkipOracleError)
		return
	}

	decision := safety.Evaluate(*report, s.cfg)
	if !decision.Accept {
		s.skip(event, decision.Reason)
		return
	}

	s.dispatchBuy(ctx, event, StrategySnipe)
}

func (s *Session) dispatchBuy(ctx context.Context, event monitor.PoolEvent, strategy string) {
	result, err := s.executor.ExecuteBuy(ctx, s.wallet.ID, s.signer, event.TokenAddress, s.cfg.BuyAmountSOL, s.cfg.SlippageBPS, strategy)
	if err != nil {
		s.mu.Lock()
		s.stats.TokensSkipped++
		s.stats.SkipReasons[SkipBuyFailed]++
		s.stats.LastError = err.Error()
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.stats.TokensBought++
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{
		"mint":      event.TokenAddress,
		"platform":  event.Platform,
		"strategy":  strategy,
		"signature": result.Signature,
	}).Info("🎯 Snipe executed")
}

func (s *Session) skip(event monitor.PoolEvent, reason string) {
	s.mu.Lock()
	s.stats.TokensSkipped++
	s.stats.SkipReasons[reason]++
	s.mu.Unlock()
	s.log.LogTokenSkipped(event.TokenAddress, reason)
}

// Snapshot copies the counters
func (s *Session) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.stats
	out.SkipReasons = make(map[string]int, len(s.stats.SkipReasons))
	for k, v := range s.stats.SkipReasons {
		out.SkipReasons[k] = v
	}
	return out
}
