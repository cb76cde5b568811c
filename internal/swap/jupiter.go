package swap

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/sirupsen/logrus"

	"sniper-suite-go/internal/config"
	"sniper-suite-go/internal/solana"
)

// Router executes buys and sells through the Jupiter aggregator:
// quote -> swap transaction -> sign -> submit, with bounded retries.
type Router struct {
	quoteURL   string
	swapURL    string
	rpc        *solana.Client
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *logrus.Logger
}

// RouterConfig contains router construction parameters
type RouterConfig struct {
	QuoteURL   string
	SwapURL    string
	MaxRetries int
	RetryDelay time.Duration
}

// NewRouter creates a Jupiter swap router
func NewRouter(cfg RouterConfig, rpc *solana.Client, logger *logrus.Logger) *Router {
	if cfg.QuoteURL == "" {
		cfg.QuoteURL = config.JupiterQuoteURL
	}
	if cfg.SwapURL == "" {
		cfg.SwapURL = config.JupiterSwapURL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = config.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = config.RetryDelayMs * time.Millisecond
	}

	return &Router{
		quoteURL:   cfg.QuoteURL,
		swapURL:    cfg.SwapURL,
		rpc:        rpc,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
}

// Buy swaps solAmount SOL into the token and returns the signature
func (r *Router) Buy(ctx context.Context, signer types.Account, tokenMint string, solAmount float64, slippageBPS int) (string, error) {
	lamports := config.ConvertSOLToLamports(solAmount)
	if lamports == 0 {
		return "", fmt.Errorf("buy amount too small: %f SOL", solAmount)
	}

	return r.executeSwap(ctx, signer, config.NativeSOLMintAddress, tokenMint, lamports, slippageBPS)
}

// Sell swaps a percentage of the wallet's token holdings back into SOL
func (r *Router) Sell(ctx context.Context, signer types.Account, tokenMint string, percentage float64, slippageBPS int) (string, error) {
	if percentage <= 0 || percentage > 100 {
		return "", fmt.Errorf("sell percentage must be in (0, 100], got %f", percentage)
	}

	balance, err := r.rpc.GetTokenBalance(ctx, signer.PublicKey.String(), tokenMint)
	if err != nil {
		return "", fmt.Errorf("failed to get token balance: %w", err)
	}

	amount := uint64(float64(balance) * percentage / 100)
	if amount == 0 {
		return "", fmt.Errorf("no token balance to sell")
	}

	return r.executeSwap(ctx, signer, tokenMint, config.NativeSOLMintAddress, amount, slippageBPS)
}

// executeSwap runs the full quote/build/sign/submit cycle with retries
func (r *Router) executeSwap(ctx context.Context, signer types.Account, inputMint, outputMint string, amount uint64, slippageBPS int) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		signature, err := r.trySwap(ctx, signer, inputMint, outputMint, amount, slippageBPS)
		if err == nil {
			return signature, nil
		}
		lastErr = err

		r.logger.WithError(err).WithFields(logrus.Fields{
			"attempt":     attempt,
			"max_retries": r.maxRetries,
			"input_mint":  inputMint,
			"output_mint": outputMint,
		}).Warn("⚠️ Swap attempt failed")

		if attempt < r.maxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}
	}

	return "", fmt.Errorf("swap failed after %d attempts: %w", r.maxRetries, lastErr)
}

func (r *Router) trySwap(ctx context.Context, signer types.Account, inputMint, outputMint string, amount uint64, slippageBPS int) (string, error) {
	quote, err := r.fetchQuote(ctx, inputMint, outputMint, amount, slippageBPS)
	if err != nil {
		return "", err
	}

	rawTx, err := r.fetchSwapTransaction(ctx, signer.PublicKey.String(), quote)
	if err != nil {
		return "", err
	}

	signed, err := signTransaction(signer, rawTx)
	if err != nil {
		return "", err
	}

	signature, err := r.rpc.SendTransaction(ctx, signed)
	if err != nil {
		return "", err
	}

	if err := r.rpc.WaitForConfirmation(ctx, signature, config.ConfirmTimeoutSec*time.Second); err != nil {
		return "", fmt.Errorf("swap %s not confirmed: %w", signature, err)
	}

	return signature, nil
}

// fetchQuote asks Jupiter for the best route
func (r *Router) fetchQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBPS int) (json.RawMessage, error) {
	url := fmt.Sprintf("%s?inputMint=%s&outputMint=%s&amount=%d&slippageBps=%d",
		r.quoteURL, inputMint, outputMint, amount, slippageBPS)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote HTTP error %d: %s", resp.StatusCode, string(body))
	}

	// Sanity-check the route before passing it on
	var quote struct {
		OutAmount string `json:"outAmount"`
	}
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("failed to parse quote: %w", err)
	}
	if out, err := strconv.ParseUint(quote.OutAmount, 10, 64); err != nil || out == 0 {
		return nil, fmt.Errorf("quote returned no output amount")
	}

	return body, nil
}

// fetchSwapTransaction exchanges a quote for an unsigned transaction
func (r *Router) fetchSwapTransaction(ctx context.Context, userPublicKey string, quote json.RawMessage) ([]byte, error) {
	payload := map[string]interface{}{
		"quoteResponse":    quote,
		"userPublicKey":    userPublicKey,
		"wrapAndUnwrapSol": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.swapURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("swap request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read swap response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("swap HTTP error %d: %s", resp.StatusCode, string(respBody))
	}

	var swapResp struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := json.Unmarshal(respBody, &swapResp); err != nil {
		return nil, fmt.Errorf("failed to parse swap response: %w", err)
	}
	if swapResp.SwapTransaction == "" {
		return nil, fmt.Errorf("swap response missing transaction")
	}

	rawTx, err := base64.StdEncoding.DecodeString(swapResp.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("failed to decode swap transaction: %w", err)
	}

	return rawTx, nil
}

// signTransaction signs the aggregator-built transaction and re-encodes it
func signTransaction(signer types.Account, rawTx []byte) (string, error) {
	tx, err := types.TransactionDeserialize(rawTx)
	if err != nil {
		return "", fmt.Errorf("failed to deserialize swap transaction: %w", err)
	}

	msgBytes, err := tx.Message.Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize message: %w", err)
	}

	tx.Signatures = []types.Signature{ed25519.Sign(signer.PrivateKey, msgBytes)}

	signedBytes, err := tx.Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize signed transaction: %w", err)
	}

	return base64.StdEncoding.EncodeToString(signedBytes), nil
}
