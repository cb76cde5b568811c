package safety

import (
	"sniper-suite-go/internal/config"
)

// Rejection reasons reported by Evaluate
const (
	ReasonMintAuthorityActive   = "mint_authority_active"
	ReasonFreezeAuthorityActive = "freeze_authority_active"
	ReasonLowSafetyScore        = "low_safety_score"
	ReasonHighBuyTax            = "high_buy_tax"
)

// Decision is the outcome of a gate evaluation.
type Decision struct {
	Accept bool
	Reason string
	Report Report
}

// Evaluate applies the configured thresholds to an oracle report. Pure and
// deterministic: no side effects, no network calls.
func Evaluate(report Report, cfg config.SniperConfig) Decision {
	if cfg.RequireMintRenounced && !report.MintRenounced {
		return Decision{Reason: ReasonMintAuthorityActive, Report: report}
	}
	if cfg.RequireFreezeRenounced && !report.FreezeRenounced {
		return Decision{Reason: ReasonFreezeAuthorityActive, Report: report}
	}
	if report.SafetyScore < cfg.MinSafetyScore {
		return Decision{Reason: ReasonLowSafetyScore, Report: report}
	}
	if cfg.MaxBuyTaxPercent > 0 && report.BuyTaxPercent > cfg.MaxBuyTaxPercent {
		return Decision{Reason: ReasonHighBuyTax, Report: report}
	}
	return Decision{Accept: true, Report: report}
}
