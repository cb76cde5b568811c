package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TradeLog represents a single trade journal entry
type TradeLog struct {
	Timestamp    time.Time `json:"timestamp"`
	TradeType    string    `json:"trade_type"` // "buy" or "sell"
	Mint         string    `json:"mint"`
	WalletID     int64     `json:"wallet_id"`
	AmountSOL    float64   `json:"amount_sol"`
	Percentage   float64   `json:"percentage,omitempty"` // sell size, percent of holdings
	Signature    string    `json:"signature"`
	Status       string    `json:"status"` // "success" or "failed"
	ErrorMessage string    `json:"error_message,omitempty"`
	SlippageBPS  int       `json:"slippage_bps"`
	Strategy     string    `json:"strategy"`
}

// TradeJournal appends trade entries to daily JSONL files.
type TradeJournal struct {
	mu      sync.Mutex
	baseDir string
	logger  *Logger
}

// NewTradeJournal creates a journal writing under baseDir
func NewTradeJournal(baseDir string, logger *Logger) (*TradeJournal, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trade log directory: %w", err)
	}

	return &TradeJournal{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// Append writes one trade as a JSON line to today's file
func (tj *TradeJournal) Append(trade TradeLog) error {
	tj.logger.WithFields(map[string]interface{}{
		"event":      "trade_logged",
		"trade_type": trade.TradeType,
		"mint":       trade.Mint,
		"wallet_id":  trade.WalletID,
		"amount_sol": trade.AmountSOL,
		"signature":  trade.Signature,
		"status":     trade.Status,
		"strategy":   trade.Strategy,
	}).Info("Trade logged")

	filename := fmt.Sprintf("trades_%s.jsonl", time.Now().Format("2006-01-02"))
	path := filepath.Join(tj.baseDir, filename)

	tj.mu.Lock()
	defer tj.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open trade log file: %w", err)
	}
	defer file.Close()

	tradeBytes, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}

	if _, err := file.Write(append(tradeBytes, '\n')); err != nil {
		return fmt.Errorf("failed to write trade to file: %w", err)
	}

	return nil
}
