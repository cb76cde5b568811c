package safety

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"sniper-suite-go/internal/solana"
)

// Scoring weights. Four equally weighted checks: mint authority, freeze
// authority, top-holder concentration, top-10 concentration.
const (
	scoreMintRenounced   = 25
	scoreFreezeRenounced = 25
	scoreTopHolder       = 25
	scoreTopTen          = 25

	maxTopHolderPct = 30.0
	maxTopTenPct    = 60.0
)

// SPL mint account layout offsets
const (
	mintAccountLen           = 82
	mintAuthorityOptionOff   = 0
	freezeAuthorityOptionOff = 46
)

// RPCOracle derives a safety report from on-chain mint and holder data.
type RPCOracle struct {
	client *solana.Client
	logger *logrus.Logger
}

// NewRPCOracle creates an oracle over the given RPC client
func NewRPCOracle(client *solana.Client, logger *logrus.Logger) *RPCOracle {
	return &RPCOracle{client: client, logger: logger}
}

// Analyze inspects the mint account and largest holders
func (o *RPCOracle) Analyze(ctx context.Context, tokenAddress string) (*Report, error) {
	report := &Report{TokenAddress: tokenAddress}

	mintRenounced, freezeRenounced, err := o.checkAuthorities(ctx, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("authority check failed: %w", err)
	}
	report.MintRenounced = mintRenounced
	report.FreezeRenounced = freezeRenounced

	topPct, topTenPct, err := o.holderConcentration(ctx, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("holder check failed: %w", err)
	}
	report.TopHolderPct = topPct

	score := 0
	if mintRenounced {
		score += scoreMintRenounced
	}
	if freezeRenounced {
		score += scoreFreezeRenounced
	}
	if topPct <= maxTopHolderPct {
		score += scoreTopHolder
	}
	if topTenPct <= maxTopTenPct {
		score += scoreTopTen
	}
	report.SafetyScore = score

	o.logger.WithFields(logrus.Fields{
		"mint":             tokenAddress,
		"score":            score,
		"mint_renounced":   mintRenounced,
		"freeze_renounced": freezeRenounced,
		"top_holder_pct":   topPct,
	}).Debug("Token safety analyzed")

	return report, nil
}

// checkAuthorities parses the SPL mint account. The authority option flags
// are little-endian u32 values; zero means the authority was renounced.
func (o *RPCOracle) checkAuthorities(ctx context.Context, mint string) (bool, bool, error) {
	info, err := o.client.GetAccountInfo(ctx, mint)
	if err != nil {
		return false, false, err
	}
	if info == nil {
		return false, false, fmt.Errorf("mint account %s not found", mint)
	}

	data, err := info.DataBytes()
	if err != nil {
		return false, false, err
	}
	if len(data) < mintAccountLen {
		return false, false, fmt.Errorf("mint account data too short: %d bytes", len(data))
	}

	mintOption := binary.LittleEndian.Uint32(data[mintAuthorityOptionOff:])
	freezeOption := binary.LittleEndian.Uint32(data[freezeAuthorityOptionOff:])

	return mintOption == 0, freezeOption == 0, nil
}

// holderConcentration returns the largest holder's share and the top-10
// cumulative share, in percent of total supply.
func (o *RPCOracle) holderConcentration(ctx context.Context, mint string) (float64, float64, error) {
	supply, err := o.client.GetTokenSupply(ctx, mint)
	if err != nil {
		return 0, 0, err
	}

	total, err := strconv.ParseFloat(supply.Amount, 64)
	if err != nil || total <= 0 {
		return 0, 0, fmt.Errorf("invalid token supply %q", supply.Amount)
	}

	holders, err := o.client.GetTokenLargestAccounts(ctx, mint)
	if err != nil {
		return 0, 0, err
	}
	if len(holders) == 0 {
		return 0, 0, nil
	}

	var topPct, cumulative float64
	for i, h := range holders {
		amount, err := strconv.ParseFloat(h.Amount, 64)
		if err != nil {
			continue
		}
		pct := amount / total * 100
		if i == 0 {
			topPct = pct
		}
		if i < 10 {
			cumulative += pct
		}
	}

	return topPct, cumulative, nil
}

var _ Oracle = (*RPCOracle)(nil)
