package sniper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/types"

	"sniper-suite-go/internal/config"
	"sniper-suite-go/internal/logger"
	"sniper-suite-go/internal/monitor"
	"sniper-suite-go/internal/notify"
	"sniper-suite-go/internal/safety"
	"sniper-suite-go/internal/wallet"
)

// Manager lifecycle errors
var (
	ErrAlreadyRunning = errors.New("sniper already running")
	ErrNotRunning     = errors.New("sniper not running")
)

// State of the managed session
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

const startGracePeriod = 10 * time.Second

// SourceFactory builds a fresh event source per session. Sources are single
// use; a restarted session gets a new one.
type SourceFactory func() (monitor.EventSource, error)

// Manager owns at most one sniper session at a time. State transitions are
// check-and-set under the mutex, so concurrent Start calls cannot race past
// each other.
type Manager struct {
	newSource SourceFactory
	oracle    safety.Oracle
	executor  BuyDispatcher
	notifier  notify.Notifier
	log       *logger.Logger

	mu      sync.Mutex
	state   State
	session *Session
	cancel  context.CancelFunc
}

// NewManager creates an idle manager
func NewManager(newSource SourceFactory, oracle safety.Oracle, executor BuyDispatcher, notifier notify.Notifier, log *logger.Logger) *Manager {
	return &Manager{
		newSource: newSource,
		oracle:    oracle,
		executor:  executor,
		notifier:  notifier,
		log:       log,
		state:     StateIdle,
	}
}

// Start launches a session for the wallet. Returns ErrAlreadyRunning when a
// session is active in any non-idle state. The session outlives ctx: it runs
// until Stop is called.
func (m *Manager) Start(ctx context.Context, w wallet.WalletRef, signer types.Account, cfg config.SniperConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid sniper config: %w", err)
	}

	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.state = StateStarting
	m.mu.Unlock()

	source, err := m.newSource()
	if err != nil {
		m.setIdle()
		return fmt.Errorf("failed to build event source: %w", err)
	}

	session := newSession(w, signer, cfg, source, m.oracle, m.executor, m.notifier, m.log)
	runCtx, cancel := context.WithCancel(context.Background())
	go session.run(runCtx)

	select {
	case <-session.ready:
	case err := <-session.errCh:
		cancel()
		<-session.done
		m.setIdle()
		return err
	case <-time.After(startGracePeriod):
		cancel()
		<-session.done
		m.setIdle()
		return fmt.Errorf("sniper session did not become ready within %s", startGracePeriod)
	case <-ctx.Done():
		cancel()
		<-session.done
		m.setIdle()
		return ctx.Err()
	}

	m.mu.Lock()
	m.session = session
	m.cancel = cancel
	m.state = StateRunning
	m.mu.Unlock()

	m.log.WithField("wallet", w.Address).Info("🚀 Sniper started")
	return nil
}

// Stop tears down the running session and returns its final counters.
// Returns ErrNotRunning when there is nothing to stop.
func (m *Manager) Stop() (Stats, error) {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return Stats{}, ErrNotRunning
	}
	m.state = StateStopping
	session := m.session
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	<-session.done

	stats := session.Snapshot()

	m.mu.Lock()
	m.session = nil
	m.cancel = nil
	m.state = StateIdle
	m.mu.Unlock()

	m.log.LogShutdown("stop requested")
	m.notifier.NotifyLifecycle(context.Background(), fmt.Sprintf(
		"🛑 Sniper stopped | detected %d | bought %d | skipped %d",
		stats.PoolsDetected, stats.TokensBought, stats.TokensSkipped))

	return stats, nil
}

// Status reports the current state and, while a session is live, its
// counters so far. The live snapshot is approximate: the loop may be
// mid-event when it is taken.
func (m *Manager) Status() (State, Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return m.state, Stats{}
	}
	return m.state, m.session.Snapshot()
}

func (m *Manager) setIdle() {
	m.mu.Lock()
	m.state = StateIdle
	m.mu.Unlock()
}
