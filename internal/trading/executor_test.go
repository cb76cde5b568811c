package trading

import (
	"context"
	"errors"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniper-suite-go/internal/config"
	"sniper-suite-go/internal/ledger"
	"sniper-suite-go/internal/logger"
	"sniper-suite-go/internal/notify"
)

const testMint = "TokenMint11111111111111111111111111111111111"

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(logger.LogConfig{Level: "error", Format: "text"})
	require.NoError(t, err)
	return log
}

type stubRouter struct {
	buyErr   error
	sellErr  error
	buyCalls int
}

func (r *stubRouter) Buy(ctx context.Context, signer types.Account, tokenMint string, solAmount float64, slippageBPS int) (string, error) {
	r.buyCalls++
	if r.buyErr != nil {
		return "", r.buyErr
	}
	return "buy-signature", nil
}

func (r *stubRouter) Sell(ctx context.Context, signer types.Account, tokenMint string, percentage float64, slippageBPS int) (string, error) {
	if r.sellErr != nil {
		return "", r.sellErr
	}
	return "sell-signature", nil
}

type stubBalances struct {
	lamports uint64
}

func (b *stubBalances) GetBalance(ctx context.Context, address string) (uint64, error) {
	return b.lamports, nil
}

func newTestExecutor(t *testing.T, router *stubRouter, balanceSOL float64) (*Executor, *ledger.MemoryStore) {
	t.Helper()
	store := ledger.NewMemoryStore()
	balances := &stubBalances{lamports: config.ConvertSOLToLamports(balanceSOL)}
	return NewExecutor(router, balances, store, nil, notify.Noop{}, testLogger(t)), store
}

func TestExecuteBuyRecordsTrade(t *testing.T) {
	router := &stubRouter{}
	executor, store := newTestExecutor(t, router, 1.0)
	ctx := context.Background()

	result, err := executor.ExecuteBuy(ctx, 7, types.Account{}, testMint, 0.1, 500, "snipe")
	require.NoError(t, err)

	assert.NotEmpty(t, result.TradeID)
	assert.Equal(t, "buy-signature", result.Signature)
	assert.Contains(t, result.ExplorerURL, "buy-signature")
	assert.Equal(t, 0.1, result.AmountSOL)

	record, err := store.GetByID(ctx, result.TradeID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), record.WalletID)
	assert.Equal(t, testMint, record.TokenAddress)
	assert.Equal(t, ledger.SideBuy, record.Side)
	assert.Equal(t, "snipe", record.StrategyTag)
}

func TestExecuteBuyRejectsInsufficientBalance(t *testing.T) {
	router := &stubRouter{}
	// Balance covers the buy amount but not the fee reserve
	executor, store := newTestExecutor(t, router, 0.1)
	ctx := context.Background()

	_, err := executor.ExecuteBuy(ctx, 1, types.Account{}, testMint, 0.1, 500, "snipe")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// The swap was never attempted and nothing was recorded
	assert.Zero(t, router.buyCalls)
	trades, err := store.GetByWallet(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestExecuteBuyPropagatesSwapFailure(t *testing.T) {
	router := &stubRouter{buyErr: errors.New("no route found")}
	executor, store := newTestExecutor(t, router, 1.0)
	ctx := context.Background()

	_, err := executor.ExecuteBuy(ctx, 1, types.Account{}, testMint, 0.1, 500, "snipe")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientBalance)

	trades, err := store.GetByWallet(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestExecuteSellRecordsTrade(t *testing.T) {
	executor, store := newTestExecutor(t, &stubRouter{}, 1.0)
	ctx := context.Background()

	result, err := executor.ExecuteSell(ctx, 3, types.Account{}, testMint, 50.0, 500, "bulk_sell")
	require.NoError(t, err)
	assert.Equal(t, "sell-signature", result.Signature)

	record, err := store.GetByID(ctx, result.TradeID)
	require.NoError(t, err)
	assert.Equal(t, ledger.SideSell, record.Side)
	assert.Equal(t, "bulk_sell", record.StrategyTag)
}

func TestExecuteSellPropagatesFailure(t *testing.T) {
	router := &stubRouter{sellErr: errors.New("insufficient token balance")}
	executor, _ := newTestExecutor(t, router, 1.0)

	_, err := executor.ExecuteSell(context.Background(), 1, types.Account{}, testMint, 100.0, 500, "bulk_sell")
	assert.Error(t, err)
}
