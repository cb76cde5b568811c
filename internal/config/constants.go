package config

import "github.com/mr-tron/base58"

// Solana network constants
const (
	SolanaMainnetRPC = "https://api.mainnet-beta.solana.com"
	SolanaDevnetRPC  = "https://api.devnet.solana.com"

	// WebSocket endpoints
	SolanaMainnetWS = "wss://api.mainnet-beta.solana.com"
	SolanaDevnetWS  = "wss://api.devnet.solana.com"

	// Jupiter aggregator endpoints
	JupiterQuoteURL = "https://quote-api.jup.ag/v6/quote"
	JupiterSwapURL  = "https://quote-api.jup.ag/v6/swap"
	JupiterPriceURL = "https://price.jup.ag/v4/price"

	// CoinGecko fallback for SOL/USD
	CoinGeckoSOLPriceURL = "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd"

	// Solana constants
	LamportsPerSol = 1_000_000_000

	// Transaction constants
	MaxRetries        = 3
	RetryDelayMs      = 2000
	ConfirmTimeoutSec = 30
)

// Pool platform program addresses
var (
	// Raydium AMM v4 (primary DEX)
	RaydiumAMMProgramID = mustDecodeBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

	// pump.fun bonding curve program (launch platform)
	PumpFunProgramID = mustDecodeBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

	// Orca Whirlpool (secondary DEX)
	OrcaWhirlpoolProgramID = mustDecodeBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")

	// System program
	SystemProgramID = mustDecodeBase58("11111111111111111111111111111111")

	// Token program
	TokenProgramID = mustDecodeBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// Associated Token program
	AssociatedTokenProgramID = mustDecodeBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	// Native SOL mint (wrapped SOL)
	NativeSOLMint = mustDecodeBase58("So11111111111111111111111111111111111111112")
)

// Base58 string forms for RPC params and swap requests
const (
	RaydiumAMMProgramAddress    = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	PumpFunProgramAddress       = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	OrcaWhirlpoolProgramAddress = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
	TokenProgramAddress         = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	NativeSOLMintAddress        = "So11111111111111111111111111111111111111112"
)

// Trading constants
const (
	// Default slippage in basis points (1% = 100 bp)
	DefaultSlippageBPS = 500 // 5%

	// Minimum SOL amount for trades
	MinTradeAmountSOL = 0.0001

	// Maximum SOL amount for a single sniper buy
	MaxTradeAmountSOL = 10.0

	// Default buy amount in SOL
	DefaultBuyAmountSOL = 0.1

	// Default liquidity poll interval
	DefaultPollIntervalMs = 2000
)

// Key vault constants
const (
	// PBKDF2-SHA256 iteration count for key derivation
	VaultKDFIterations = 100_000

	// Salt length prepended to every ciphertext
	VaultSaltLen = 16
)

// Helper function to decode base58 addresses and panic on error
// Used for compile-time constant addresses that should never fail
func mustDecodeBase58(addr string) []byte {
	decoded, err := base58.Decode(addr)
	if err != nil {
		panic("Invalid base58 address: " + addr + ", error: " + err.Error())
	}
	return decoded
}

// GetRPCEndpoint returns RPC endpoint based on network
func GetRPCEndpoint(network string) string {
	switch network {
	case "mainnet":
		return SolanaMainnetRPC
	case "devnet":
		return SolanaDevnetRPC
	default:
		return SolanaMainnetRPC
	}
}

// GetWSEndpoint returns WebSocket endpoint based on network
func GetWSEndpoint(network string) string {
	switch network {
	case "mainnet":
		return SolanaMainnetWS
	case "devnet":
		return SolanaDevnetWS
	default:
		return SolanaMainnetWS
	}
}

// ConvertSOLToLamports converts SOL to lamports
func ConvertSOLToLamports(sol float64) uint64 {
	return uint64(sol * LamportsPerSol)
}

// ConvertLamportsToSOL converts lamports to SOL
func ConvertLamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSol
}

// ExplorerTxURL returns the Solscan link for a transaction signature
func ExplorerTxURL(signature string) string {
	return "https://solscan.io/tx/" + signature
}
