package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Client represents a Solana RPC client
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// ClientConfig contains configuration for Solana client
type ClientConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// RPCRequest represents a JSON-RPC request
type RPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// RPCResponse represents a JSON-RPC response
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface
func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// AccountInfo represents Solana account information
type AccountInfo struct {
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
}

// DataBytes decodes the base64-encoded account data
func (ai *AccountInfo) DataBytes() ([]byte, error) {
	if len(ai.Data) == 0 {
		return nil, fmt.Errorf("account has no data")
	}
	decoded, err := base64.StdEncoding.DecodeString(ai.Data[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode account data: %w", err)
	}
	return decoded, nil
}

// AccountInfoResponse represents the response for getAccountInfo
type AccountInfoResponse struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value *AccountInfo `json:"value"`
}

// TokenAccountBalance is one entry of getTokenLargestAccounts
type TokenAccountBalance struct {
	Address  string  `json:"address"`
	Amount   string  `json:"amount"`
	Decimals int     `json:"decimals"`
	UIAmount float64 `json:"uiAmount"`
}

// TokenSupply is the result of getTokenSupply
type TokenSupply struct {
	Amount   string  `json:"amount"`
	Decimals int     `json:"decimals"`
	UIAmount float64 `json:"uiAmount"`
}

// NewClient creates a new Solana RPC client
func NewClient(config ClientConfig, logger *logrus.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		endpoint: config.Endpoint,
		apiKey:   config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// makeRequest makes a JSON-RPC request to Solana
func (c *Client) makeRequest(ctx context.Context, method string, params interface{}) (*RPCResponse, error) {
	request := RPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"endpoint": c.endpoint,
	}).Debug("Making RPC request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(responseBody))
	}

	var rpcResponse RPCResponse
	if err := json.Unmarshal(responseBody, &rpcResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if rpcResponse.Error != nil {
		return nil, rpcResponse.Error
	}

	return &rpcResponse, nil
}

// GetAccountInfo gets account information, nil when the account does not exist
func (c *Client) GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	params := []interface{}{
		address,
		map[string]interface{}{
			"encoding": "base64",
		},
	}

	resp, err := c.makeRequest(ctx, "getAccountInfo", params)
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo failed: %w", err)
	}

	var accountResponse AccountInfoResponse
	resultBytes, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(resultBytes, &accountResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account info: %w", err)
	}

	return accountResponse.Value, nil
}

// GetLatestBlockhash gets the latest blockhash
func (c *Client) GetLatestBlockhash(ctx context.Context) (string, error) {
	params := []interface{}{}
	resp, err := c.makeRequest(ctx, "getLatestBlockhash", params)
	if err != nil {
		return "", fmt.Errorf("getLatestBlockhash failed: %w", err)
	}

	type blockhashResponse struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Blockhash     string `json:"blockhash"`
			LastValidSlot uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}

	var bhResp blockhashResponse
	resultBytes, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(resultBytes, &bhResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal blockhash: %w", err)
	}

	return bhResp.Value.Blockhash, nil
}

// SendTransaction sends a base64-encoded signed transaction to the network
func (c *Client) SendTransaction(ctx context.Context, transaction string) (string, error) {
	params := []interface{}{
		transaction,
		map[string]interface{}{
			"encoding": "base64",
		},
	}

	resp, err := c.makeRequest(ctx, "sendTransaction", params)
	if err != nil {
		return "", fmt.Errorf("sendTransaction failed: %w", err)
	}

	signature, ok := resp.Result.(string)
	if !ok {
		return "", fmt.Errorf("invalid response format for sendTransaction")
	}

	return signature, nil
}

// ConfirmTransaction checks whether a transaction reached confirmed commitment
func (c *Client) ConfirmTransaction(ctx context.Context, signature string) error {
	params := []interface{}{
		[]string{signature},
		map[string]interface{}{
			"searchTransactionHistory": false,
		},
	}

	resp, err := c.makeRequest(ctx, "getSignatureStatuses", params)
	if err != nil {
		return fmt.Errorf("getSignatureStatuses failed: %w", err)
	}

	type signatureStatus struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value []*struct {
			Slot               uint64      `json:"slot"`
			Confirmations      *int        `json:"confirmations"`
			Err                interface{} `json:"err"`
			ConfirmationStatus string      `json:"confirmationStatus"`
		} `json:"value"`
	}

	var status signatureStatus
	resultBytes, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(resultBytes, &status); err != nil {
		return fmt.Errorf("failed to unmarshal signature status: %w", err)
	}

	if len(status.Value) == 0 || status.Value[0] == nil {
		return fmt.Errorf("transaction not found")
	}
	if status.Value[0].Err != nil {
		return fmt.Errorf("transaction failed: %v", status.Value[0].Err)
	}

	return nil
}

// WaitForConfirmation polls the signature status until confirmed or timeout
func (c *Client) WaitForConfirmation(ctx context.Context, signature string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.ConfirmTransaction(ctx, signature); err == nil {
				return nil
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("transaction %s not confirmed within %s", signature, timeout)
			}
		}
	}
}

// GetBalance gets account balance in lamports
func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	params := []interface{}{address}

	resp, err := c.makeRequest(ctx, "getBalance", params)
	if err != nil {
		return 0, fmt.Errorf("getBalance failed: %w", err)
	}

	type balanceResponse struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value uint64 `json:"value"`
	}

	var balResp balanceResponse
	resultBytes, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(resultBytes, &balResp); err != nil {
		return 0, fmt.Errorf("failed to unmarshal balance: %w", err)
	}

	return balResp.Value, nil
}

// GetTokenLargestAccounts returns the largest token accounts for a mint
func (c *Client) GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAccountBalance, error) {
	params := []interface{}{mint}

	resp, err := c.makeRequest(ctx, "getTokenLargestAccounts", params)
	if err != nil {
		return nil, fmt.Errorf("getTokenLargestAccounts failed: %w", err)
	}

	type largestResponse struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value []TokenAccountBalance `json:"value"`
	}

	var largest largestResponse
	resultBytes, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(resultBytes, &largest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal largest accounts: %w", err)
	}

	return largest.Value, nil
}

// GetTokenSupply returns the total supply of a mint
func (c *Client) GetTokenSupply(ctx context.Context, mint string) (*TokenSupply, error) {
	params := []interface{}{mint}

	resp, err := c.makeRequest(ctx, "getTokenSupply", params)
	if err != nil {
		return nil, fmt.Errorf("getTokenSupply failed: %w", err)
	}

	type supplyResponse struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value TokenSupply `json:"value"`
	}

	var supply supplyResponse
	resultBytes, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(resultBytes, &supply); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token supply: %w", err)
	}

	return &supply.Value, nil
}

// HasTokenAccountsByOwner reports whether any token accounts exist for the
// owner under the given token program
func (c *Client) HasTokenAccountsByOwner(ctx context.Context, owner, programID string) (bool, error) {
	params := []interface{}{
		owner,
		map[string]interface{}{
			"programId": programID,
		},
		map[string]interface{}{
			"encoding": "base64",
		},
	}

	resp, err := c.makeRequest(ctx, "getTokenAccountsByOwner", params)
	if err != nil {
		return false, fmt.Errorf("getTokenAccountsByOwner failed: %w", err)
	}

	type accountsResponse struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value []interface{} `json:"value"`
	}

	var accounts accountsResponse
	resultBytes, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(resultBytes, &accounts); err != nil {
		return false, fmt.Errorf("failed to unmarshal token accounts: %w", err)
	}

	return len(accounts.Value) > 0, nil
}

// GetTokenBalance returns the owner's raw token balance for a mint, summed
// across all of the owner's token accounts
func (c *Client) GetTokenBalance(ctx context.Context, owner, mint string) (uint64, error) {
	params := []interface{}{
		owner,
		map[string]interface{}{
			"mint": mint,
		},
		map[string]interface{}{
			"encoding": "jsonParsed",
		},
	}

	resp, err := c.makeRequest(ctx, "getTokenAccountsByOwner", params)
	if err != nil {
		return 0, fmt.Errorf("getTokenAccountsByOwner failed: %w", err)
	}

	type parsedAccounts struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							TokenAmount struct {
								Amount string `json:"amount"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}

	var accounts parsedAccounts
	resultBytes, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(resultBytes, &accounts); err != nil {
		return 0, fmt.Errorf("failed to unmarshal token accounts: %w", err)
	}

	var total uint64
	for _, acc := range accounts.Value {
		amount, err := strconv.ParseUint(acc.Account.Data.Parsed.Info.TokenAmount.Amount, 10, 64)
		if err != nil {
			continue
		}
		total += amount
	}

	return total, nil
}

// ProgramAccount is one entry returned by getProgramAccounts
type ProgramAccount struct {
	Pubkey string `json:"pubkey"`
}

// GetProgramAccounts returns the addresses of program-owned accounts that
// match the given RPC filters. Account data is sliced away since callers
// only need existence and addresses.
func (c *Client) GetProgramAccounts(ctx context.Context, programID string, filters []interface{}) ([]ProgramAccount, error) {
	params := []interface{}{
		programID,
		map[string]interface{}{
			"encoding": "base64",
			"dataSlice": map[string]interface{}{
				"offset": 0,
				"length": 0,
			},
			"filters": filters,
		},
	}

	resp, err := c.makeRequest(ctx, "getProgramAccounts", params)
	if err != nil {
		return nil, fmt.Errorf("getProgramAccounts failed: %w", err)
	}

	var accounts []ProgramAccount
	resultBytes, _ := json.Marshal(resp.Result)
	if err := json.Unmarshal(resultBytes, &accounts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal program accounts: %w", err)
	}

	return accounts, nil
}

// MemcmpFilter builds a base58 memcmp filter for getProgramAccounts
func MemcmpFilter(offset int, base58Value string) interface{} {
	return map[string]interface{}{
		"memcmp": map[string]interface{}{
			"offset": offset,
			"bytes":  base58Value,
		},
	}
}

// DataSizeFilter builds a dataSize filter for getProgramAccounts
func DataSizeFilter(size int) interface{} {
	return map[string]interface{}{
		"dataSize": size,
	}
}

// GetSlot gets current slot
func (c *Client) GetSlot(ctx context.Context) (uint64, error) {
	resp, err := c.makeRequest(ctx, "getSlot", nil)
	if err != nil {
		return 0, fmt.Errorf("getSlot failed: %w", err)
	}

	slot, ok := resp.Result.(float64)
	if !ok {
		return 0, fmt.Errorf("invalid response format for getSlot")
	}

	return uint64(slot), nil
}
