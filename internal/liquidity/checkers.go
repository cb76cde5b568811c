package liquidity

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"

	"sniper-suite-go/internal/config"
	"sniper-suite-go/internal/monitor"
	"sniper-suite-go/internal/solana"
)

// Raydium AMM v4 liquidity state layout
const (
	raydiumPoolAccountLen  = 752
	raydiumBaseMintOffset  = 400
	raydiumQuoteMintOffset = 432
)

// Orca whirlpool account layout
const (
	orcaPoolAccountLen    = 653
	orcaTokenMintAOffset  = 101
	orcaTokenMintBOffset  = 181
)

// PoolChecker answers whether a tradable pool exists for a token on one
// platform. Checkers are probed in priority order each polling tick.
type PoolChecker interface {
	Name() string
	PoolExists(ctx context.Context, tokenMint string) (bool, error)
}

// RaydiumChecker looks for an AMM v4 pool holding the mint on either side
// of the pair.
type RaydiumChecker struct {
	client *solana.Client
}

func NewRaydiumChecker(client *solana.Client) *RaydiumChecker {
	return &RaydiumChecker{client: client}
}

func (c *RaydiumChecker) Name() string { return monitor.PlatformRaydium }

func (c *RaydiumChecker) PoolExists(ctx context.Context, tokenMint string) (bool, error) {
	for _, offset := range []int{raydiumBaseMintOffset, raydiumQuoteMintOffset} {
		filters := []interface{}{
			solana.DataSizeFilter(raydiumPoolAccountLen),
			solana.MemcmpFilter(offset, tokenMint),
		}
		accounts, err := c.client.GetProgramAccounts(ctx, config.RaydiumAMMProgramAddress, filters)
		if err != nil {
			return false, fmt.Errorf("raydium pool lookup failed: %w", err)
		}
		if len(accounts) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// PumpFunChecker derives the mint's bonding curve address and checks whether
// the account has been created.
type PumpFunChecker struct {
	client *solana.Client
}

func NewPumpFunChecker(client *solana.Client) *PumpFunChecker {
	return &PumpFunChecker{client: client}
}

func (c *PumpFunChecker) Name() string { return monitor.PlatformPumpFun }

func (c *PumpFunChecker) PoolExists(ctx context.Context, tokenMint string) (bool, error) {
	mint := common.PublicKeyFromString(tokenMint)
	program := common.PublicKeyFromString(config.PumpFunProgramAddress)

	curve, _, err := common.FindProgramAddress([][]byte{
		[]byte("bonding-curve"),
		mint.Bytes(),
	}, program)
	if err != nil {
		return false, fmt.Errorf("failed to derive bonding curve address: %w", err)
	}

	info, err := c.client.GetAccountInfo(ctx, curve.ToBase58())
	if err != nil {
		return false, fmt.Errorf("bonding curve lookup failed: %w", err)
	}

	return info != nil, nil
}

// OrcaChecker looks for a whirlpool holding the mint on either side of the
// pair.
type OrcaChecker struct {
	client *solana.Client
}

func NewOrcaChecker(client *solana.Client) *OrcaChecker {
	return &OrcaChecker{client: client}
}

func (c *OrcaChecker) Name() string { return monitor.PlatformOrca }

func (c *OrcaChecker) PoolExists(ctx context.Context, tokenMint string) (bool, error) {
	for _, offset := range []int{orcaTokenMintAOffset, orcaTokenMintBOffset} {
		filters := []interface{}{
			solana.DataSizeFilter(orcaPoolAccountLen),
			solana.MemcmpFilter(offset, tokenMint),
		}
		accounts, err := c.client.GetProgramAccounts(ctx, config.OrcaWhirlpoolProgramAddress, filters)
		if err != nil {
			return false, fmt.Errorf("orca pool lookup failed: %w", err)
		}
		if len(accounts) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// DefaultCheckers returns the platform checkers in detection priority order
func DefaultCheckers(client *solana.Client) []PoolChecker {
	return []PoolChecker{
		NewRaydiumChecker(client),
		NewPumpFunChecker(client),
		NewOrcaChecker(client),
	}
}
