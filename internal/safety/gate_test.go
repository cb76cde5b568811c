package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sniper-suite-go/internal/config"
)

func strictConfig() config.SniperConfig {
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

func cleanReport() Report {
	return Report{
		TokenAddress:    "So11111111111111111111111111111111111111112",
		MintRenounced:   true,
		FreezeRenounced: true,
		SafetyScore:     80,
		BuyTaxPercent:   0,
	}
}

func TestEvaluateAcceptsCleanToken(t *testing.T) {
	decision := Evaluate(cleanReport(), strictConfig())

	assert.True(t, decision.Accept)
	assert.Empty(t, decision.Reason)
}

func TestEvaluateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Report)
		reason string
	}{
		{
			name:   "active mint authority",
			mutate: func(r *Report) { r.MintRenounced = false },
			reason: ReasonMintAuthorityActive,
		},
		{
			name:   "active freeze authority",
			mutate: func(r *Report) { r.FreezeRenounced = false },
			reason: ReasonFreezeAuthorityActive,
		},
		{
			name:   "score below threshold",
			mutate: func(r *Report) { r.SafetyScore = 69 },
			reason: ReasonLowSafetyScore,
		},
		{
			name:   "buy tax above limit",
			mutate: func(r *Report) { r.BuyTaxPercent = 15.0 },
			reason: ReasonHighBuyTax,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := cleanReport()
			tt.mutate(&report)

			decision := Evaluate(report, strictConfig())

			assert.False(t, decision.Accept)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}
}

// Mint authority wins when several checks would fail: checks run in a fixed
// order and the first failure is the reported reason.
func TestEvaluateReasonOrdering(t *testing.T) {
	report := cleanReport()
	report.MintRenounced = false
	report.FreezeRenounced = false
	report.SafetyScore = 0

	decision := Evaluate(report, strictConfig())

	assert.Equal(t, ReasonMintAuthorityActive, decision.Reason)
}

func TestEvaluateScoreBoundaryIsInclusive(t *testing.T) {
	report := cleanReport()
	report.SafetyScore = 70

	decision := Evaluate(report, strictConfig())

	assert.True(t, decision.Accept)
}

func TestEvaluateOptionalChecksDisabled(t *testing.T) {
	cfg := strictConfig()
	cfg.RequireMintRenounced = false
	cfg.RequireFreezeRenounced = false
	cfg.MaxBuyTaxPercent = 0 // tax check disabled

	report := cleanReport()
	report.MintRenounced = false
	report.FreezeRenounced = false
	report.BuyTaxPercent = 99.0

	decision := Evaluate(report, cfg)

	assert.True(t, decision.Accept)
}
