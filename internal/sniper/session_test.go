package sniper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniper-suite-go/internal/config"
	"sniper-suite-go/internal/logger"
	"sniper-suite-go/internal/monitor"
	"sniper-suite-go/internal/notify"
	"sniper-suite-go/internal/safety"
	"sniper-suite-go/internal/trading"
	"sniper-suite-go/internal/wallet"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(logger.LogConfig{Level: "error", Format: "text"})
	require.NoError(t, err)
	return log
}

type stubSource struct {
	mu       sync.Mutex
	events   chan monitor.PoolEvent
	startErr error
	stopped  bool
}

func newStubSource() *stubSource {
	return &stubSource{events: make(chan monitor.PoolEvent, 16)}
}

func (s *stubSource) Start(ctx context.Context) error { return s.startErr }
func (s *stubSource) Events() <-chan monitor.PoolEvent {
	return s.events
}
func (s *stubSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	return nil
}
func (s *stubSource) wasStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type stubOracle struct {
	report *safety.Report
	err    error
}

func (o *stubOracle) Analyze(ctx context.Context, tokenAddress string) (*safety.Report, error) {
	if o.err != nil {
		return nil, o.err
	}
	report := *o.report
	report.TokenAddress = tokenAddress
	return &report, nil
}

type buyCall struct {
	tokenMint string
	amountSOL float64
	strategy  string
}

type stubDispatcher struct {
	mu    sync.Mutex
	err   error
	calls []buyCall
}

func (d *stubDispatcher) ExecuteBuy(ctx context.Context, walletID int64, signer types.Account, tokenMint string, solAmount float64, slippageBPS int, strategy string) (*trading.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, buyCall{tokenMint: tokenMint, amountSOL: solAmount, strategy: strategy})
	if d.err != nil {
		return nil, d.err
	}
	return &trading.Result{TradeID: "t", Signature: "sig", AmountSOL: solAmount}, nil
}

func (d *stubDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func (d *stubDispatcher) call(i int) buyCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[i]
}

func testConfig() config.SniperConfig {
	return config.SniperConfig{
		BuyAmountSOL:           0.1,
		SlippageBPS:            500,
		MinLiquiditySOL:        5.0,
		MinSafetyScore:         70,
		RequireMintRenounced:   true,
		RequireFreezeRenounced: true,
		MaxBuyTaxPercent:       10.0,
	}
}

func goodReport() *safety.Report {
	return &safety.Report{MintRenounced: true, FreezeRenounced: true, SafetyScore: 80}
}

func newTestManager(source *stubSource, oracle safety.Oracle, dispatcher *stubDispatcher, log *logger.Logger) *Manager {
	factory := func() (monitor.EventSource, error) { return source, nil }
	return NewManager(factory, oracle, dispatcher, notify.Noop{}, log)
}

func poolEvent(mint string, liquidity float64) monitor.PoolEvent {
	return monitor.PoolEvent{
		Platform:     monitor.PlatformRaydium,
		TokenAddress: mint,
		PoolAddress:  "pool-" + mint,
		LiquiditySOL: liquidity,
		DetectedAt:   time.Now().UTC(),
	}
}

func waitDetected(t *testing.T, m *Manager, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, stats := m.Status()
		return stats.PoolsDetected >= n
	}, 2*time.Second, 5*time.Millisecond)
}

// waitSettled blocks until n events have fully passed through the pipeline
func waitSettled(t *testing.T, m *Manager, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, stats := m.Status()
		return stats.TokensBought+stats.TokensSkipped >= n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestManagerStartStopLifecycle(t *testing.T) {
	source := newStubSource()
	dispatcher := &stubDispatcher{}
	m := newTestManager(source, &stubOracle{report: goodReport()}, dispatcher, testLogger(t))

	require.NoError(t, m.Start(context.Background(), wallet.WalletRef{ID: 1, Address: "addr"}, types.Account{}, testConfig()))

	state, _ := m.Status()
	assert.Equal(t, StateRunning, state)

	stats, err := m.Stop()
	require.NoError(t, err)
	assert.Zero(t, stats.PoolsDetected)
	assert.True(t, source.wasStopped())

	state, _ = m.Status()
	assert.Equal(t, StateIdle, state)
}

func TestManagerRejectsSecondStart(t *testing.T) {
	source := newStubSource()
	m := newTestManager(source, &stubOracle{report: goodReport()}, &stubDispatcher{}, testLogger(t))

	require.NoError(t, m.Start(context.Background(), wallet.WalletRef{ID: 1}, types.Account{}, testConfig()))
	defer m.Stop()

	err := m.Start(context.Background(), wallet.WalletRef{ID: 2}, types.Account{}, testConfig())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := newTestManager(newStubSource(), &stubOracle{report: goodReport()}, &stubDispatcher{}, testLogger(t))

	_, err := m.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestManagerStartFailsOnSourceError(t *testing.T) {
	source := newStubSource()
	source.startErr = errors.New("connection refused")
	m := newTestManager(source, &stubOracle{report: goodReport()}, &stubDispatcher{}, testLogger(t))

	err := m.Start(context.Background(), wallet.WalletRef{ID: 1}, types.Account{}, testConfig())
	require.Error(t, err)

	// Failed start leaves the manager restartable
	state, _ := m.Status()
	assert.Equal(t, StateIdle, state)

	source.startErr = nil
	require.NoError(t, m.Start(context.Background(), wallet.WalletRef{ID: 1}, types.Account{}, testConfig()))
	m.Stop()
}

func TestManagerRejectsInvalidConfig(t *testing.T) {
	m := newTestManager(newStubSource(), &stubOracle{report: goodReport()}, &stubDispatcher{}, testLogger(t))

	cfg := testConfig()
	cfg.BuyAmountSOL = 0

	err := m.Start(context.Background(), wallet.WalletRef{ID: 1}, types.Account{}, cfg)
	require.Error(t, err)

	state, _ := m.Status()
	assert.Equal(t, StateIdle, state)
}

func TestSessionSkipsLowLiquidityPool(t *testing.T) {
	source := newStubSource()
	dispatcher := &stubDispatcher{}
	m := newTestManager(source, &stubOracle{report: goodReport()}, dispatcher, testLogger(t))

	require.NoError(t, m.Start(context.Background(), wallet.WalletRef{ID: 1}, types.Account{}, testConfig()))

	source.events <- poolEvent("LowLiqMint111111111111111111111111111111111", 3.0)
	waitDetected(t, m, 1)

	stats, err := m.Stop()
	require.NoError(t, err)

	assert.Equal(t, 1, stats.PoolsDetected)
	assert.Equal(t, 0, stats.TokensBought)
	assert.Equal(t, 1, stats.TokensSkipped)
	assert.Equal(t, 1, stats.SkipReasons[SkipLowLiquidity])
	assert.Zero(t, dispatcher.callCount())
}

func TestSessionBuysHealthyPool(t *testing.T) {
	source := newStubSource()
	dispatcher := &stubDispatcher{}
	m := newTestManager(source, &stubOracle{report: goodReport()}, dispatcher, testLogger(t))

	cfg := testConfig()
	require.NoError(t, m.Start(context.Background(), wallet.WalletRef{ID: 1}, types.Account{}, cfg))

	source.events <- poolEvent("HealthyMint11111111111111111111111111111111", 10.0)
	waitDetected(t, m, 1)

	stats, err := m.Stop()
	require.NoError(t, err)

	assert.Equal(t, 1, stats.PoolsDetected)
	assert.Equal(t, 1, stats.TokensBought)
	assert.Equal(t, 0, stats.TokensSkipped)

	require.Equal(t, 1, dispatcher.callCount())
	call := dispatcher.call(0)
	assert.Equal(t, "HealthyMint11111111111111111111111111111111", call.tokenMint)
	assert.Equal(t, cfg.BuyAmountSOL, call.amountSOL)
	assert.Equal(t, StrategySnipe, call.strategy)
}

func TestSessionFastModeBypassesGates(t *testing.T) {
	source := newStubSource()
	dispatcher := &stubDispatcher{}
	// Oracle always errors: fast mode must never consult it
	m := newTestManager(source, &stubOracle{err: errors.New("oracle down")}, dispatcher, testLogger(t))

	cfg := testConfig()
	cfg.FastMode = true
	require.NoError(t, m.Start(context.Background(), wallet.WalletRef{ID: 1}, types.Account{}, cfg))

	source.events <- poolEvent("FastMint1111111111111111111111111111111111", 0.0)
	waitDetected(t, m, 1)

	stats, err := m.Stop()
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TokensBought)
	require.Equal(t, 1, dispatcher.callCount())
	assert.Equal(t, StrategySnipeFast, dispatcher.call(0).strategy)
}

func TestSessionCounterConservation(t *testing.T) {
	source := newStubSource()
	dispatcher := &stubDispatcher{}
	m := newTestManager(source, &stubOracle{report: goodReport()}, dispatcher, testLogger(t))

	require.NoError(t, m.Start(context.Background(), wallet.WalletRef{ID: 1}, types.Account{}, testConfig()))

	mints := []struct {
		mint      string
		liquidity float64
	}{
		{"Mint1111111111111111111111111111111111111a1", 10.0},
		{"Mint1111111111111111111111111111111111111a2", 1.0},
		{"Mint1111111111111111111111111111111111111a3", 8.0},
		{"Mint1111111111111111111111111111111111111a4", 0.5},
		{"Mint1111111111111111111111111111111111111a5", 20.0},
	}
	for _, mt := range mints {
		source.events <- poolEvent(mt.mint, mt.liquidity)
	}
	waitDetected(t, m, len(mints))

	stats, err := m.Stop()
	require.NoError(t, err)

	assert.Equal(t, len(mints), stats.PoolsDetected)
	assert.Equal(t, stats.PoolsDetected, stats.TokensBought+stats.TokensSkipped)
	assert.Equal(t, 3, stats.TokensBought)
	assert.Equal(t, 2, stats.SkipReasons[SkipLowLiquidity])
	assert.InDelta(t, 0.6, stats.SuccessRate(), 1e-9)
}

func TestSessionCountsRejectedAndFailedBuys(t *testing.T) {
	source := newStubSource()
	dispatcher := &stubDispatcher{err: errors.New("swap reverted")}
	oracle := &stubOracle{report: &safety.Report{MintRenounced: false, FreezeRenounced: true, SafetyScore: 90}}
	m := newTestManager(source, oracle, dispatcher, testLogger(t))

	require.NoError(t, m.Start(context.Background(), wallet.WalletRef{ID: 1}, types.Account{}, testConfig()))

	// Rejected by the safety gate
	source.events <- poolEvent("RuggyMint1111111111111111111111111111111111", 10.0)
	waitSettled(t, m, 1)

	// Passes the gate but the buy fails
	oracle.report = goodReport()
	source.events <- poolEvent("FailedBuyMint111111111111111111111111111111", 10.0)
	waitSettled(t, m, 2)

	stats, err := m.Stop()
	require.NoError(t, err)

	assert.Equal(t, 2, stats.PoolsDetected)
	assert.Equal(t, 0, stats.TokensBought)
	assert.Equal(t, 2, stats.TokensSkipped)
	assert.Equal(t, 1, stats.SkipReasons[safety.ReasonMintAuthorityActive])
	assert.Equal(t, 1, stats.SkipReasons[SkipBuyFailed])
	assert.Zero(t, stats.SuccessRate())
}

func TestSuccessRateZeroWithoutEvents(t *testing.T) {
	assert.Zero(t, Stats{}.SuccessRate())
}
