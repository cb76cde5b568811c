package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, walletID int64, token string, at time.Time) *TradeRecord {
	return &TradeRecord{
		TradeID:      id,
		WalletID:     walletID,
		TokenAddress: token,
		Side:         SideBuy,
		AmountSOL:    0.1,
		Signature:    "sig-" + id,
		StrategyTag:  "snipe",
		ExecutedAt:   at,
	}
}

func TestMemoryStoreAppendAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Append(ctx, record("a", 1, "mint-1", now)))

	got, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.TradeID)
	assert.Equal(t, int64(1), got.WalletID)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRejectsDuplicates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Append(ctx, record("a", 1, "mint-1", now)))
	assert.ErrorIs(t, store.Append(ctx, record("a", 2, "mint-2", now)), ErrDuplicateKey)
}

func TestMemoryStoreRejectsInvalidInput(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Append(ctx, nil), ErrInvalidInput)
	assert.ErrorIs(t, store.Append(ctx, &TradeRecord{}), ErrInvalidInput)
}

func TestMemoryStoreGetByWalletOrdersByTime(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, store.Append(ctx, record("late", 1, "mint-1", base.Add(2*time.Second))))
	require.NoError(t, store.Append(ctx, record("early", 1, "mint-2", base)))
	require.NoError(t, store.Append(ctx, record("other-wallet", 2, "mint-1", base.Add(time.Second))))

	trades, err := store.GetByWallet(ctx, 1)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "early", trades[0].TradeID)
	assert.Equal(t, "late", trades[1].TradeID)

	empty, err := store.GetByWallet(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStoreGetByTokenBreaksTiesByID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	at := time.Now().UTC()

	require.NoError(t, store.Append(ctx, record("b", 1, "mint-1", at)))
	require.NoError(t, store.Append(ctx, record("a", 2, "mint-1", at)))

	trades, err := store.GetByToken(ctx, "mint-1")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "a", trades[0].TradeID)
	assert.Equal(t, "b", trades[1].TradeID)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, record("a", 1, "mint-1", time.Now().UTC())))

	got, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	got.AmountSOL = 999

	again, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0.1, again.AmountSOL)
}
