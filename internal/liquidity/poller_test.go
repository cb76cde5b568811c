package liquidity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniper-suite-go/internal/logger"
	"sniper-suite-go/internal/trading"
)

const testMint = "TestMint111111111111111111111111111111111111"

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(logger.LogConfig{Level: "error", Format: "text"})
	require.NoError(t, err)
	return log
}

type stubChecker struct {
	name string

	mu     sync.Mutex
	exists bool
	err    error
	calls  int
}

func (c *stubChecker) Name() string { return c.name }

func (c *stubChecker) PoolExists(ctx context.Context, tokenMint string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.exists, c.err
}

func (c *stubChecker) setExists(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exists = v
}

func (c *stubChecker) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type stubBuyer struct {
	mu       sync.Mutex
	err      error
	walletID int64
	mint     string
	amount   float64
	strategy string
	calls    int
}

func (b *stubBuyer) ExecuteBuy(ctx context.Context, walletID int64, signer types.Account, tokenMint string, solAmount float64, slippageBPS int, strategy string) (*trading.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.walletID = walletID
	b.mint = tokenMint
	b.amount = solAmount
	b.strategy = strategy
	if b.err != nil {
		return nil, b.err
	}
	return &trading.Result{TradeID: "t", Signature: "sig", AmountSOL: solAmount}, nil
}

func (b *stubBuyer) snapshot() (int, string, float64, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls, b.mint, b.amount, b.strategy
}

func fastConfig(walletID int64) MonitorConfig {
	return MonitorConfig{
		TokenAddress:  testMint,
		WalletID:      walletID,
		BuyAmountSOL:  0.1,
		SlippageBPS:   500,
		CheckInterval: 10 * time.Millisecond,
	}
}

func TestStartMonitorRejectsDuplicateKey(t *testing.T) {
	checker := &stubChecker{name: "raydium"}
	p := NewPoller([]PoolChecker{checker}, &stubBuyer{}, testLogger(t))
	defer p.StopAll()

	require.NoError(t, p.StartMonitor(fastConfig(1), types.Account{}))

	err := p.StartMonitor(fastConfig(1), types.Account{})
	assert.ErrorIs(t, err, ErrAlreadyMonitoring)

	// Same token under a different wallet is a distinct watch
	require.NoError(t, p.StartMonitor(fastConfig(2), types.Account{}))
	assert.Len(t, p.ListActiveMonitors(), 2)
}

func TestMonitorBuysOnceAndTearsDown(t *testing.T) {
	checker := &stubChecker{name: "raydium", exists: true}
	buyer := &stubBuyer{}
	p := NewPoller([]PoolChecker{checker}, buyer, testLogger(t))

	cfg := fastConfig(1)
	require.NoError(t, p.StartMonitor(cfg, types.Account{}))

	require.Eventually(t, func() bool {
		calls, _, _, _ := buyer.snapshot()
		return calls == 1
	}, 2*time.Second, 5*time.Millisecond)

	calls, mint, amount, strategy := buyer.snapshot()
	assert.Equal(t, 1, calls)
	assert.Equal(t, testMint, mint)
	assert.Equal(t, cfg.BuyAmountSOL, amount)
	assert.Equal(t, StrategyPreLaunchSnipe, strategy)

	// The watch removes itself after the one-shot buy
	require.Eventually(t, func() bool {
		_, err := p.MonitorStatus(testMint, 1)
		return errors.Is(err, ErrMonitorNotFound)
	}, 2*time.Second, 5*time.Millisecond)

	// A failed buy would still have torn the watch down; either way the pair
	// can be monitored again
	require.NoError(t, p.StartMonitor(cfg, types.Account{}))
	p.StopAll()
}

func TestMonitorTearsDownEvenWhenBuyFails(t *testing.T) {
	checker := &stubChecker{name: "raydium", exists: true}
	buyer := &stubBuyer{err: errors.New("swap reverted")}
	p := NewPoller([]PoolChecker{checker}, buyer, testLogger(t))

	require.NoError(t, p.StartMonitor(fastConfig(1), types.Account{}))

	require.Eventually(t, func() bool {
		_, err := p.MonitorStatus(testMint, 1)
		return errors.Is(err, ErrMonitorNotFound)
	}, 2*time.Second, 5*time.Millisecond)

	calls, _, _, _ := buyer.snapshot()
	assert.Equal(t, 1, calls)
}

func TestMonitorChecksPlatformsInPriorityOrder(t *testing.T) {
	first := &stubChecker{name: "raydium", exists: true}
	second := &stubChecker{name: "pumpfun", exists: true}
	buyer := &stubBuyer{}
	p := NewPoller([]PoolChecker{first, second}, buyer, testLogger(t))

	require.NoError(t, p.StartMonitor(fastConfig(1), types.Account{}))

	require.Eventually(t, func() bool {
		calls, _, _, _ := buyer.snapshot()
		return calls == 1
	}, 2*time.Second, 5*time.Millisecond)

	// The first platform matched, so the second was never probed
	assert.GreaterOrEqual(t, first.callCount(), 1)
	assert.Zero(t, second.callCount())
}

func TestMonitorSurvivesCheckerErrors(t *testing.T) {
	flaky := &stubChecker{name: "raydium", err: errors.New("rpc timeout")}
	healthy := &stubChecker{name: "pumpfun"}
	buyer := &stubBuyer{}
	p := NewPoller([]PoolChecker{flaky, healthy}, buyer, testLogger(t))

	require.NoError(t, p.StartMonitor(fastConfig(1), types.Account{}))

	// Flaky first checker falls through to the next platform
	require.Eventually(t, func() bool {
		return healthy.callCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	healthy.setExists(true)

	require.Eventually(t, func() bool {
		calls, _, _, _ := buyer.snapshot()
		return calls == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStopMonitorReturnsFinalSnapshot(t *testing.T) {
	checker := &stubChecker{name: "raydium"}
	buyer := &stubBuyer{}
	p := NewPoller([]PoolChecker{checker}, buyer, testLogger(t))

	require.NoError(t, p.StartMonitor(fastConfig(1), types.Account{}))

	require.Eventually(t, func() bool {
		handle, err := p.MonitorStatus(testMint, 1)
		return err == nil && handle.ChecksPerformed >= 2
	}, 2*time.Second, 5*time.Millisecond)

	handle, err := p.StopMonitor(testMint, 1)
	require.NoError(t, err)

	assert.Equal(t, StatusStopped, handle.Status)
	assert.False(t, handle.PoolDetected)
	assert.GreaterOrEqual(t, handle.ChecksPerformed, 2)

	calls, _, _, _ := buyer.snapshot()
	assert.Zero(t, calls)

	_, err = p.StopMonitor(testMint, 1)
	assert.ErrorIs(t, err, ErrMonitorNotFound)
}

func TestMonitorStatusWhileRunning(t *testing.T) {
	checker := &stubChecker{name: "raydium"}
	p := NewPoller([]PoolChecker{checker}, &stubBuyer{}, testLogger(t))
	defer p.StopAll()

	cfg := fastConfig(1)
	require.NoError(t, p.StartMonitor(cfg, types.Account{}))

	handle, err := p.MonitorStatus(testMint, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusMonitoring, handle.Status)
	assert.Equal(t, testMint, handle.TokenAddress)
	assert.Equal(t, int64(1), handle.WalletID)
	assert.Equal(t, cfg.BuyAmountSOL, handle.BuyAmountSOL)
}

func TestStartMonitorValidatesInput(t *testing.T) {
	p := NewPoller([]PoolChecker{&stubChecker{name: "raydium"}}, &stubBuyer{}, testLogger(t))

	cfg := fastConfig(1)
	cfg.TokenAddress = ""
	assert.Error(t, p.StartMonitor(cfg, types.Account{}))

	cfg = fastConfig(1)
	cfg.BuyAmountSOL = 0
	assert.Error(t, p.StartMonitor(cfg, types.Account{}))

	assert.Empty(t, p.ListActiveMonitors())
}
