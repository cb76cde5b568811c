package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/google/uuid"

	"sniper-suite-go/internal/config"
	"sniper-suite-go/internal/ledger"
	"sniper-suite-go/internal/logger"
	"sniper-suite-go/internal/notify"
)

// ErrInsufficientBalance marks a buy rejected before submission because the
// wallet cannot cover the trade.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Keep a little SOL behind for fees on every buy.
const feeReserveSOL = 0.01

// Router executes swaps for a single wallet.
type Router interface {
	Buy(ctx context.Context, signer types.Account, tokenMint string, solAmount float64, slippageBPS int) (string, error)
	Sell(ctx context.Context, signer types.Account, tokenMint string, percentage float64, slippageBPS int) (string, error)
}

// BalanceClient queries on-chain SOL balances.
type BalanceClient interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
}

// Result describes one executed trade.
type Result struct {
	TradeID     string
	Signature   string
	ExplorerURL string
	AmountSOL   float64
}

// Executor performs single-wallet trades: balance pre-check, swap dispatch,
// ledger append, journal entry and notification.
type Executor struct {
	router   Router
	balances BalanceClient
	store    ledger.Store
	journal  *logger.TradeJournal
	notifier notify.Notifier
	log      *logger.Logger
}

// NewExecutor wires a trade executor. journal may be nil; notifier may be
// notify.Noop{}.
func NewExecutor(router Router, balances BalanceClient, store ledger.Store, journal *logger.TradeJournal, notifier notify.Notifier, log *logger.Logger) *Executor {
	return &Executor{
		router:   router,
		balances: balances,
		store:    store,
		journal:  journal,
		notifier: notifier,
		log:      log,
	}
}

// ExecuteBuy buys solAmount worth of the token for the wallet
func (e *Executor) ExecuteBuy(ctx context.Context, walletID int64, signer types.Account, tokenMint string, solAmount float64, slippageBPS int, strategy string) (*Result, error) {
	e.log.LogTradeAttempt(ledger.SideBuy, tokenMint, solAmount, strategy)

	balance, err := e.balances.GetBalance(ctx, signer.PublicKey.String())
	if err != nil {
		return nil, fmt.Errorf("balance check failed: %w", err)
	}

	balanceSOL := config.ConvertLamportsToSOL(balance)
	if balanceSOL < solAmount+feeReserveSOL {
		err := fmt.Errorf("%w: have %.4f SOL, need %.4f SOL", ErrInsufficientBalance, balanceSOL, solAmount+feeReserveSOL)
		e.recordFailure(ctx, walletID, tokenMint, ledger.SideBuy, solAmount, slippageBPS, strategy, err)
		return nil, err
	}

	signature, err := e.router.Buy(ctx, signer, tokenMint, solAmount, slippageBPS)
	if err != nil {
		e.recordFailure(ctx, walletID, tokenMint, ledger.SideBuy, solAmount, slippageBPS, strategy, err)
		return nil, fmt.Errorf("buy failed: %w", err)
	}

	result := e.recordSuccess(ctx, walletID, tokenMint, ledger.SideBuy, solAmount, 0, slippageBPS, strategy, signature)
	return result, nil
}

// ExecuteSell sells a percentage of the wallet's token holdings
func (e *Executor) ExecuteSell(ctx context.Context, walletID int64, signer types.Account, tokenMint string, percentage float64, slippageBPS int, strategy string) (*Result, error) {
	e.log.LogTradeAttempt(ledger.SideSell, tokenMint, percentage, strategy)

	signature, err := e.router.Sell(ctx, signer, tokenMint, percentage, slippageBPS)
	if err != nil {
		e.recordSellFailure(ctx, walletID, tokenMint, percentage, slippageBPS, strategy, err)
		return nil, fmt.Errorf("sell failed: %w", err)
	}

	result := e.recordSuccess(ctx, walletID, tokenMint, ledger.SideSell, 0, percentage, slippageBPS, strategy, signature)
	return result, nil
}

func (e *Executor) recordSuccess(ctx context.Context, walletID int64, tokenMint, side string, amountSOL, percentage float64, slippageBPS int, strategy, signature string) *Result {
	result := &Result{
		TradeID:     uuid.NewString(),
		Signature:   signature,
		ExplorerURL: config.ExplorerTxURL(signature),
		AmountSOL:   amountSOL,
	}

	record := &ledger.TradeRecord{
		TradeID:      result.TradeID,
		WalletID:     walletID,
		TokenAddress: tokenMint,
		Side:         side,
		AmountSOL:    amountSOL,
		Signature:    signature,
		StrategyTag:  strategy,
		ExecutedAt:   time.Now().UTC(),
	}
	if err := e.store.Append(ctx, record); err != nil {
		e.log.LogError("executor", "ledger_append", err, map[string]interface{}{
			"trade_id": result.TradeID,
		})
	}

	if e.journal != nil {
		entry := logger.TradeLog{
			Timestamp:   record.ExecutedAt,
			TradeType:   side,
			Mint:        tokenMint,
			WalletID:    walletID,
			AmountSOL:   amountSOL,
			Percentage:  percentage,
			Signature:   signature,
			Status:      "success",
			SlippageBPS: slippageBPS,
			Strategy:    strategy,
		}
		if err := e.journal.Append(entry); err != nil {
			e.log.WithError(err).Warn("⚠️ Failed to journal trade")
		}
	}

	e.log.LogTradeSuccess(side, tokenMint, amountSOL, signature)
	e.notifier.NotifyTrade(ctx, fmt.Sprintf("✅ %s %s | %.4f SOL | %s | %s",
		side, tokenMint, amountSOL, strategy, result.ExplorerURL))

	return result
}

func (e *Executor) recordFailure(ctx context.Context, walletID int64, tokenMint, side string, amountSOL float64, slippageBPS int, strategy string, cause error) {
	e.log.LogTradeError(side, tokenMint, amountSOL, cause)

	if e.journal != nil {
		entry := logger.TradeLog{
			Timestamp:    time.Now().UTC(),
			TradeType:    side,
			Mint:         tokenMint,
			WalletID:     walletID,
			AmountSOL:    amountSOL,
			Status:       "failed",
			ErrorMessage: cause.Error(),
			SlippageBPS:  slippageBPS,
			Strategy:     strategy,
		}
		if err := e.journal.Append(entry); err != nil {
			e.log.WithError(err).Warn("⚠️ Failed to journal trade")
		}
	}

	e.notifier.NotifyTrade(ctx, fmt.Sprintf("❌ %s %s failed: %v", side, tokenMint, cause))
}

func (e *Executor) recordSellFailure(ctx context.Context, walletID int64, tokenMint string, percentage float64, slippageBPS int, strategy string, cause error) {
	e.log.LogTradeError(ledger.SideSell, tokenMint, percentage, cause)

	if e.journal != nil {
		entry := logger.TradeLog{
			Timestamp:    time.Now().UTC(),
			TradeType:    ledger.SideSell,
			Mint:         tokenMint,
			WalletID:     walletID,
			Percentage:   percentage,
			Status:       "failed",
			ErrorMessage: cause.Error(),
			SlippageBPS:  slippageBPS,
			Strategy:     strategy,
		}
		if err := e.journal.Append(entry); err != nil {
			e.log.WithError(err).Warn("⚠️ Failed to journal trade")
		}
	}

	e.notifier.NotifyTrade(ctx, fmt.Sprintf("❌ sell %s failed: %v", tokenMint, cause))
}
