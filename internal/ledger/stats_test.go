package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trade(id string, walletID int64, token, side string, amountSOL float64, at time.Time) *TradeRecord {
	return &TradeRecord{
		TradeID:      id,
		WalletID:     walletID,
		TokenAddress: token,
		Side:         side,
		AmountSOL:    amountSOL,
		Signature:    "sig-" + id,
		StrategyTag:  "snipe",
		ExecutedAt:   at,
	}
}

func TestSummarizeWalletAggregatesTrades(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	// mint-1: bought 0.5, sold for 0.8 — a win
	require.NoError(t, store.Append(ctx, trade("a", 1, "mint-1", SideBuy, 0.5, now)))
	require.NoError(t, store.Append(ctx, trade("b", 1, "mint-1", SideSell, 0.8, now.Add(time.Minute))))
	// mint-2: bought 0.5, sold for 0.2 — a loss
	require.NoError(t, store.Append(ctx, trade("c", 1, "mint-2", SideBuy, 0.5, now.Add(2*time.Minute))))
	require.NoError(t, store.Append(ctx, trade("d", 1, "mint-2", SideSell, 0.2, now.Add(3*time.Minute))))
	// mint-3: still held, must not count toward the win rate
	require.NoError(t, store.Append(ctx, trade("e", 1, "mint-3", SideBuy, 0.3, now.Add(4*time.Minute))))
	// another wallet's trade is invisible here
	require.NoError(t, store.Append(ctx, trade("f", 2, "mint-1", SideBuy, 9.9, now)))

	summary, err := SummarizeWallet(ctx, store, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), summary.WalletID)
	assert.Equal(t, 5, summary.Trades)
	assert.Equal(t, 3, summary.Buys)
	assert.Equal(t, 2, summary.Sells)
	assert.InDelta(t, 1.3, summary.BuySOL, 1e-9)
	assert.InDelta(t, 1.0, summary.SellSOL, 1e-9)
	assert.InDelta(t, -0.3, summary.NetSOL, 1e-9)
	assert.Equal(t, 3, summary.TokensTraded)
	assert.Equal(t, 1, summary.Wins)
	assert.Equal(t, 1, summary.Losses)
	assert.InDelta(t, 0.5, summary.WinRate(), 1e-9)
}

func TestSummarizeWalletEmptyLedger(t *testing.T) {
	store := NewMemoryStore()

	summary, err := SummarizeWallet(context.Background(), store, 42)
	require.NoError(t, err)

	assert.Zero(t, summary.Trades)
	assert.Zero(t, summary.TokensTraded)
	assert.Zero(t, summary.WinRate())
}

func TestSummarizeWalletBreakEvenCountsAsLoss(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Append(ctx, trade("a", 1, "mint-1", SideBuy, 0.5, now)))
	require.NoError(t, store.Append(ctx, trade("b", 1, "mint-1", SideSell, 0.5, now.Add(time.Minute))))

	summary, err := SummarizeWallet(ctx, store, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Wins)
	assert.Equal(t, 1, summary.Losses)
}
