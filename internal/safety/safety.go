package safety

import "context"

// Report is the oracle's view of one token.
type Report struct {
	TokenAddress    string
	MintRenounced   bool
	FreezeRenounced bool
	SafetyScore     int // 0-100
	TopHolderPct    float64
	BuyTaxPercent   float64
}

// Oracle analyzes a token and produces a Report.
type Oracle interface {
	Analyze(ctx context.Context, tokenAddress string) (*Report, error)
}
