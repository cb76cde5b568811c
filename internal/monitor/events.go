package monitor

import (
	"time"

	"sniper-suite-go/internal/config"
)

// Platform names
const (
	PlatformRaydium = "raydium"
	PlatformPumpFun = "pumpfun"
	PlatformOrca    = "orca"
)

// PoolEvent is one normalized pool-creation notification. Produced by an
// EventSource, consumed exactly once by a session.
type PoolEvent struct {
	Platform     string
	TokenAddress string
	PoolAddress  string
	TokenSymbol  string
	LiquiditySOL float64
	Signature    string
	Slot         uint64
	DetectedAt   time.Time
}

// Platform binds a platform name to its on-chain program
type Platform struct {
	Name      string
	ProgramID string
}

// DefaultPlatforms returns the watched pool platforms in priority order
func DefaultPlatforms() []Platform {
	return []Platform{
		{Name: PlatformRaydium, ProgramID: config.RaydiumAMMProgramAddress},
		{Name: PlatformPumpFun, ProgramID: config.PumpFunProgramAddress},
		{Name: PlatformOrca, ProgramID: config.OrcaWhirlpoolProgramAddress},
	}
}
