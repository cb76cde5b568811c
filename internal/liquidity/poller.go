package liquidity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/sirupsen/logrus"

	"sniper-suite-go/internal/config"
	"sniper-suite-go/internal/logger"
	"sniper-suite-go/internal/trading"
)

// Poller errors
var (
	ErrAlreadyMonitoring = errors.New("token already monitored for this wallet")
	ErrMonitorNotFound   = errors.New("monitor not found")
)

// StrategyPreLaunchSnipe tags buys triggered by pre-launch pool detection
const StrategyPreLaunchSnipe = "pre_launch_snipe"

// Monitor status values
const (
	StatusMonitoring = "monitoring"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusStopped    = "stopped"
)

// BuyExecutor executes the one-shot buy once a pool appears.
type BuyExecutor interface {
	ExecuteBuy(ctx context.Context, walletID int64, signer types.Account, tokenMint string, solAmount float64, slippageBPS int, strategy string) (*trading.Result, error)
}

// MonitorConfig describes one pre-launch watch.
type MonitorConfig struct {
	TokenAddress  string
	WalletID      int64
	BuyAmountSOL  float64
	SlippageBPS   int
	CheckInterval time.Duration
}

// MonitorHandle is a read-only snapshot of a monitor's progress.
type MonitorHandle struct {
	TokenAddress     string
	WalletID         int64
	BuyAmountSOL     float64
	ChecksPerformed  int
	PoolDetected     bool
	PlatformDetected string
	Status           string
	StartedAt        time.Time
	LastError        string
}

type monitorKey struct {
	token    string
	walletID int64
}

type monitorState struct {
	cfg    MonitorConfig
	signer types.Account
	cancel context.CancelFunc
	done   chan struct{}

	checks       int
	poolDetected bool
	platform     string
	status       string
	startedAt    time.Time
	lastError    string
}

// Poller watches not-yet-launched tokens per (token, wallet) pair. Each
// monitor polls the platform checkers in priority order until a pool appears,
// fires exactly one buy, and tears itself down.
type Poller struct {
	checkers []PoolChecker
	executor BuyExecutor
	log      *logger.Logger

	mu       sync.Mutex
	monitors map[monitorKey]*monitorState
}

// NewPoller creates a poller over the given platform checkers
func NewPoller(checkers []PoolChecker, executor BuyExecutor, log *logger.Logger) *Poller {
	return &Poller{
		checkers: checkers,
		executor: executor,
		log:      log,
		monitors: make(map[monitorKey]*monitorState),
	}
}

// StartMonitor registers a watch and begins polling in the background.
// Returns ErrAlreadyMonitoring when the (token, wallet) pair is already
// being watched.
func (p *Poller) StartMonitor(cfg MonitorConfig, signer types.Account) error {
	if cfg.TokenAddress == "" {
		return fmt.Errorf("token address is required")
	}
	if cfg.BuyAmountSOL < config.MinTradeAmountSOL || cfg.BuyAmountSOL > config.MaxTradeAmountSOL {
		return fmt.Errorf("buy amount %.4f SOL out of range [%.4f, %.4f]",
			cfg.BuyAmountSOL, config.MinTradeAmountSOL, config.MaxTradeAmountSOL)
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = config.DefaultPollIntervalMs * time.Millisecond
	}
	if cfg.SlippageBPS <= 0 {
		cfg.SlippageBPS = config.DefaultSlippageBPS
	}

	key := monitorKey{token: cfg.TokenAddress, walletID: cfg.WalletID}
	ctx, cancel := context.WithCancel(context.Background())
	state := &monitorState{
		cfg:       cfg,
		signer:    signer,
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    StatusMonitoring,
		startedAt: time.Now().UTC(),
	}

	p.mu.Lock()
	if _, exists := p.monitors[key]; exists {
		p.mu.Unlock()
		cancel()
		return ErrAlreadyMonitoring
	}
	p.monitors[key] = state
	p.mu.Unlock()

	p.log.LogMonitorEvent(cfg.TokenAddress, cfg.WalletID, "started")
	go p.runMonitor(ctx, key, state)

	return nil
}

// StopMonitor cancels a watch and returns its final snapshot
func (p *Poller) StopMonitor(tokenAddress string, walletID int64) (MonitorHandle, error) {
	key := monitorKey{token: tokenAddress, walletID: walletID}

	p.mu.Lock()
	state, exists := p.monitors[key]
	p.mu.Unlock()
	if !exists {
		return MonitorHandle{}, ErrMonitorNotFound
	}

	state.cancel()
	<-state.done

	p.mu.Lock()
	handle := p.snapshotLocked(state)
	delete(p.monitors, key)
	p.mu.Unlock()

	return handle, nil
}

// MonitorStatus returns the current snapshot of an active watch
func (p *Poller) MonitorStatus(tokenAddress string, walletID int64) (MonitorHandle, error) {
	key := monitorKey{token: tokenAddress, walletID: walletID}

	p.mu.Lock()
	defer p.mu.Unlock()

	state, exists := p.monitors[key]
	if !exists {
		return MonitorHandle{}, ErrMonitorNotFound
	}
	return p.snapshotLocked(state), nil
}

// ListActiveMonitors returns snapshots of every registered watch, ordered by
// token then wallet
func (p *Poller) ListActiveMonitors() []MonitorHandle {
	p.mu.Lock()
	defer p.mu.Unlock()

	handles := make([]MonitorHandle, 0, len(p.monitors))
	for _, state := range p.monitors {
		handles = append(handles, p.snapshotLocked(state))
	}
	sort.Slice(handles, func(i, j int) bool {
		if handles[i].TokenAddress != handles[j].TokenAddress {
			return handles[i].TokenAddress < handles[j].TokenAddress
		}
		return handles[i].WalletID < handles[j].WalletID
	})
	return handles
}

// StopAll cancels every watch, for shutdown
func (p *Poller) StopAll() {
	p.mu.Lock()
	states := make([]*monitorState, 0, len(p.monitors))
	for _, state := range p.monitors {
		states = append(states, state)
	}
	p.mu.Unlock()

	for _, state := range states {
		state.cancel()
		<-state.done
	}

	p.mu.Lock()
	p.monitors = make(map[monitorKey]*monitorState)
	p.mu.Unlock()
}

func (p *Poller) runMonitor(ctx context.Context, key monitorKey, state *monitorState) {
	defer close(state.done)

	ticker := time.NewTicker(state.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			if state.status == StatusMonitoring {
				state.status = StatusStopped
			}
			p.mu.Unlock()
			p.log.LogMonitorEvent(key.token, key.walletID, "stopped")
			return
		case <-ticker.C:
			platform, detected := p.checkOnce(ctx, state)
			if !detected {
				continue
			}

			p.mu.Lock()
			state.poolDetected = true
			state.platform = platform
			p.mu.Unlock()

			p.log.WithFields(logrus.Fields{
				"mint":      key.token,
				"wallet_id": key.walletID,
				"platform":  platform,
			}).Info("🚀 Pool detected, executing pre-launch snipe")

			p.executeBuy(ctx, state)
			p.teardown(key, state)
			return
		}
	}
}

// checkOnce probes the checkers in priority order. Checker errors are logged
// and the next platform is tried; one flaky RPC must not end the watch.
func (p *Poller) checkOnce(ctx context.Context, state *monitorState) (string, bool) {
	p.mu.Lock()
	state.checks++
	p.mu.Unlock()

	for _, checker := range p.checkers {
		exists, err := checker.PoolExists(ctx, state.cfg.TokenAddress)
		if err != nil {
			if ctx.Err() != nil {
				return "", false
			}
			p.log.WithError(err).WithFields(logrus.Fields{
				"mint":     state.cfg.TokenAddress,
				"platform": checker.Name(),
			}).Debug("Pool check failed")
			continue
		}
		if exists {
			return checker.Name(), true
		}
	}
	return "", false
}

func (p *Poller) executeBuy(ctx context.Context, state *monitorState) {
	_, err := p.executor.ExecuteBuy(ctx, state.cfg.WalletID, state.signer,
		state.cfg.TokenAddress, state.cfg.BuyAmountSOL, state.cfg.SlippageBPS, StrategyPreLaunchSnipe)

	p.mu.Lock()
	if err != nil {
		state.status = StatusFailed
		state.lastError = err.Error()
	} else {
		state.status = StatusCompleted
	}
	p.mu.Unlock()
}

// teardown removes the watch regardless of buy outcome. One shot per pair.
func (p *Poller) teardown(key monitorKey, state *monitorState) {
	p.mu.Lock()
	status := state.status
	delete(p.monitors, key)
	p.mu.Unlock()

	p.log.LogMonitorEvent(key.token, key.walletID, status)
}

func (p *Poller) snapshotLocked(state *monitorState) MonitorHandle {
	return MonitorHandle{
		TokenAddress:     state.cfg.TokenAddress,
		WalletID:         state.cfg.WalletID,
		BuyAmountSOL:     state.cfg.BuyAmountSOL,
		ChecksPerformed:  state.checks,
		PoolDetected:     state.poolDetected,
		PlatformDetected: state.platform,
		Status:           state.status,
		StartedAt:        state.startedAt,
		LastError:        state.lastError,
	}
}
