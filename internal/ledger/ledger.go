package ledger

import (
	"context"
	"errors"
	"time"
)

// Trade sides
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// TradeRecord is one appended trade. AmountSOL is the cost for buys and the
// revenue for sells.
type TradeRecord struct {
	TradeID      string
	WalletID     int64
	TokenAddress string
	Side         string
	AmountSOL    float64
	Signature    string
	StrategyTag  string
	ExecutedAt   time.Time
}

// Store is the append-only trade ledger.
type Store interface {
	// Append adds a trade. Returns ErrDuplicateKey if trade_id exists.
	Append(ctx context.Context, t *TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*TradeRecord, error)

	// GetByWallet retrieves all trades for a wallet, ordered by executed_at ASC.
	GetByWallet(ctx context.Context, walletID int64) ([]*TradeRecord, error)

	// GetByToken retrieves all trades for a token, ordered by executed_at ASC.
	GetByToken(ctx context.Context, tokenAddress string) ([]*TradeRecord, error)
}
