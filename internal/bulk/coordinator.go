package bulk

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/sirupsen/logrus"

	"sniper-suite-go/internal/config"
	"sniper-suite-go/internal/logger"
	"sniper-suite-go/internal/notify"
	"sniper-suite-go/internal/trading"
	"sniper-suite-go/internal/wallet"
)

// Operation names
const (
	OpDistributeSOL = "distribute_sol"
	OpCollectSOL    = "collect_sol"
	OpBulkBuy       = "bulk_buy"
	OpBulkSell      = "bulk_sell"
)

// Keep a little SOL behind for transfer fees.
const transferFeeReserveSOL = 0.001

// WalletOutcome is the per-wallet result of a bulk operation.
type WalletOutcome struct {
	WalletID  int64
	Index     int
	Address   string
	AmountSOL float64
	Signature string
	Error     string
}

// Result aggregates a bulk operation. Every targeted wallet lands in exactly
// one bucket, so Total == Successful+Failed.
type Result struct {
	Operation    string
	GroupID      int64
	Total        int
	Successful   int
	Failed       int
	SumAmountSOL float64
	Outcomes     []WalletOutcome
}

// TradeExecutor runs single-wallet trades for bulk buy/sell.
type TradeExecutor interface {
	ExecuteBuy(ctx context.Context, walletID int64, signer types.Account, tokenMint string, solAmount float64, slippageBPS int, strategy string) (*trading.Result, error)
	ExecuteSell(ctx context.Context, walletID int64, signer types.Account, tokenMint string, percentage float64, slippageBPS int, strategy string) (*trading.Result, error)
}

// TransferClient moves SOL between wallets for distribute/collect.
type TransferClient interface {
	SubmitTransfer(ctx context.Context, signer types.Account, to string, lamports uint64) (string, error)
	GetBalance(ctx context.Context, address string) (uint64, error)
}

// Coordinator runs one operation across a wallet group. Wallets are processed
// sequentially; a failure on one wallet never aborts the rest. The shared
// group password is verified before any wallet is touched.
type Coordinator struct {
	directory wallet.Directory
	vault     wallet.KeyVault
	executor  TradeExecutor
	transfers TransferClient
	notifier  notify.Notifier
	log       *logger.Logger
}

// NewCoordinator wires a bulk coordinator
func NewCoordinator(directory wallet.Directory, vault wallet.KeyVault, executor TradeExecutor, transfers TransferClient, notifier notify.Notifier, log *logger.Logger) *Coordinator {
	return &Coordinator{
		directory: directory,
		vault:     vault,
		executor:  executor,
		transfers: transfers,
		notifier:  notifier,
		log:       log,
	}
}

// DistributeSOL sends amountPerWallet from the source wallet to every wallet
// in the group
func (c *Coordinator) DistributeSOL(ctx context.Context, sourceWalletID, groupID int64, amountPerWallet float64, password string) (*Result, error) {
	if amountPerWallet <= 0 {
		return nil, fmt.Errorf("amount per wallet must be positive")
	}

	source, err := c.vault.DecryptSigner(sourceWalletID, password)
	if err != nil {
		return nil, fmt.Errorf("failed to unlock source wallet: %w", err)
	}

	group, err := c.directory.Group(groupID)
	if err != nil {
		return nil, err
	}

	result := &Result{Operation: OpDistributeSOL, GroupID: groupID, Total: len(group.Wallets)}
	lamports := config.ConvertSOLToLamports(amountPerWallet)

	for i, ref := range group.Wallets {
		outcome := WalletOutcome{WalletID: ref.ID, Index: i + 1, Address: ref.Address}

		balance, err := c.transfers.GetBalance(ctx, source.PublicKey.String())
		if err != nil {
			c.fail(result, &outcome, fmt.Errorf("balance check failed: %w", err))
			continue
		}
		if config.ConvertLamportsToSOL(balance) < amountPerWallet+transferFeeReserveSOL {
			c.fail(result, &outcome, trading.ErrInsufficientBalance)
			continue
		}

		signature, err := c.transfers.SubmitTransfer(ctx, source, ref.Address, lamports)
		if err != nil {
			c.fail(result, &outcome, fmt.Errorf("transfer failed: %w", err))
			continue
		}

		outcome.AmountSOL = amountPerWallet
		outcome.Signature = signature
		c.succeed(result, &outcome)
	}

	c.finish(ctx, result)
	return result, nil
}

// CollectSOL sweeps each group wallet into the target wallet, leaving
// leaveAmountSOL behind. A wallet whose balance does not exceed the leave
// amount is a non-fatal insufficient-balance failure.
func (c *Coordinator) CollectSOL(ctx context.Context, groupID, targetWalletID int64, leaveAmountSOL float64, password string) (*Result, error) {
	if leaveAmountSOL < 0 {
		return nil, fmt.Errorf("leave amount must not be negative")
	}

	target, err := c.directory.Wallet(targetWalletID)
	if err != nil {
		return nil, err
	}

	group, err := c.directory.Group(groupID)
	if err != nil {
		return nil, err
	}
	if err := c.verifyGroupPassword(group, password); err != nil {
		return nil, err
	}

	result := &Result{Operation: OpCollectSOL, GroupID: groupID, Total: len(group.Wallets)}

	for i, ref := range group.Wallets {
		outcome := WalletOutcome{WalletID: ref.ID, Index: i + 1, Address: ref.Address}

		signer, err := c.vault.DecryptSigner(ref.ID, password)
		if err != nil {
			c.fail(result, &outcome, fmt.Errorf("failed to unlock wallet: %w", err))
			continue
		}

		balance, err := c.transfers.GetBalance(ctx, ref.Address)
		if err != nil {
			c.fail(result, &outcome, fmt.Errorf("balance check failed: %w", err))
			continue
		}

		sendSOL := config.ConvertLamportsToSOL(balance) - leaveAmountSOL - transferFeeReserveSOL
		if sendSOL <= 0 {
			c.fail(result, &outcome, trading.ErrInsufficientBalance)
			continue
		}

		signature, err := c.transfers.SubmitTransfer(ctx, signer, target.Address, config.ConvertSOLToLamports(sendSOL))
		if err != nil {
			c.fail(result, &outcome, fmt.Errorf("transfer failed: %w", err))
			continue
		}

		outcome.AmountSOL = sendSOL
		outcome.Signature = signature
		c.succeed(result, &outcome)
	}

	c.finish(ctx, result)
	return result, nil
}

// BulkBuy buys the token from every wallet in the group
func (c *Coordinator) BulkBuy(ctx context.Context, groupID int64, tokenMint string, amountPerWallet float64, slippageBPS int, password string) (*Result, error) {
	if amountPerWallet < config.MinTradeAmountSOL || amountPerWallet > config.MaxTradeAmountSOL {
		return nil, fmt.Errorf("amount %.4f SOL out of range [%.4f, %.4f]",
			amountPerWallet, config.MinTradeAmountSOL, config.MaxTradeAmountSOL)
	}

	group, err := c.directory.Group(groupID)
	if err != nil {
		return nil, err
	}
	if err := c.verifyGroupPassword(group, password); err != nil {
		return nil, err
	}

	result := &Result{Operation: OpBulkBuy, GroupID: groupID, Total: len(group.Wallets)}

	for i, ref := range group.Wallets {
		outcome := WalletOutcome{WalletID: ref.ID, Index: i + 1, Address: ref.Address}

		signer, err := c.vault.DecryptSigner(ref.ID, password)
		if err != nil {
			c.fail(result, &outcome, fmt.Errorf("failed to unlock wallet: %w", err))
			continue
		}

		trade, err := c.executor.ExecuteBuy(ctx, ref.ID, signer, tokenMint, amountPerWallet, slippageBPS, OpBulkBuy)
		if err != nil {
			c.fail(result, &outcome, err)
			continue
		}

		outcome.AmountSOL = trade.AmountSOL
		outcome.Signature = trade.Signature
		c.succeed(result, &outcome)
	}

	c.finish(ctx, result)
	return result, nil
}

// BulkSell sells a percentage of the token from every wallet in the group
func (c *Coordinator) BulkSell(ctx context.Context, groupID int64, tokenMint string, percentage float64, slippageBPS int, password string) (*Result, error) {
	if percentage <= 0 || percentage > 100 {
		return nil, fmt.Errorf("percentage %.2f out of range (0, 100]", percentage)
	}

	group, err := c.directory.Group(groupID)
	if err != nil {
		return nil, err
	}
	if err := c.verifyGroupPassword(group, password); err != nil {
		return nil, err
	}

	result := &Result{Operation: OpBulkSell, GroupID: groupID, Total: len(group.Wallets)}

	for i, ref := range group.Wallets {
		outcome := WalletOutcome{WalletID: ref.ID, Index: i + 1, Address: ref.Address}

		signer, err := c.vault.DecryptSigner(ref.ID, password)
		if err != nil {
			c.fail(result, &outcome, fmt.Errorf("failed to unlock wallet: %w", err))
			continue
		}

		trade, err := c.executor.ExecuteSell(ctx, ref.ID, signer, tokenMint, percentage, slippageBPS, OpBulkSell)
		if err != nil {
			c.fail(result, &outcome, err)
			continue
		}

		outcome.Signature = trade.Signature
		c.succeed(result, &outcome)
	}

	c.finish(ctx, result)
	return result, nil
}

// verifyGroupPassword checks the shared password against the group's first
// wallet before any work starts. A wrong password aborts the whole batch
// instead of failing wallet by wallet.
func (c *Coordinator) verifyGroupPassword(group wallet.WalletGroup, password string) error {
	if len(group.Wallets) == 0 {
		return fmt.Errorf("group %d has no wallets", group.ID)
	}
	if _, err := c.vault.DecryptSigner(group.Wallets[0].ID, password); err != nil {
		if errors.Is(err, wallet.ErrAuthentication) {
			return fmt.Errorf("group password rejected: %w", err)
		}
		return fmt.Errorf("failed to unlock group: %w", err)
	}
	return nil
}

func (c *Coordinator) succeed(result *Result, outcome *WalletOutcome) {
	result.Successful++
	result.SumAmountSOL += outcome.AmountSOL
	result.Outcomes = append(result.Outcomes, *outcome)
}

func (c *Coordinator) fail(result *Result, outcome *WalletOutcome, cause error) {
	outcome.Error = cause.Error()
	result.Failed++
	result.Outcomes = append(result.Outcomes, *outcome)

	level := c.log.WithFields(logrus.Fields{
		"operation": result.Operation,
		"wallet_id": outcome.WalletID,
		"index":     outcome.Index,
	})
	if errors.Is(cause, trading.ErrInsufficientBalance) {
		level.Info("⏭️ Wallet skipped, insufficient balance")
	} else {
		level.WithError(cause).Warn("⚠️ Wallet operation failed")
	}
}

func (c *Coordinator) finish(ctx context.Context, result *Result) {
	c.log.LogBulkSummary(result.Operation, result.Total, result.Successful, result.Failed, result.SumAmountSOL)
	c.notifier.NotifyTrade(ctx, fmt.Sprintf("📦 %s done | %d wallets | ✅ %d | ❌ %d | %.4f SOL",
		result.Operation, result.Total, result.Successful, result.Failed, result.SumAmountSOL))
}
