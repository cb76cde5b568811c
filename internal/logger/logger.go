package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger represents the application logger
type Logger struct {
	*logrus.Logger
	config LogConfig
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level       string
	Format      string // "json" or "text"
	LogToFile   bool
	LogFilePath string
	TradeLogDir string
}

// NewLogger creates a new logger instance
func NewLogger(config LogConfig) (*Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	log.SetLevel(level)

	log.SetOutput(os.Stdout)

	switch strings.ToLower(config.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
			ForceColors:     true,
			DisableQuote:    true,
		})
	default:
		log.SetFormatter(&CustomFormatter{})
	}

	if config.TradeLogDir != "" {
		if err := os.MkdirAll(config.TradeLogDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create trade log directory %s: %w", config.TradeLogDir, err)
		}
	}

	if config.LogToFile && config.LogFilePath != "" {
		logDir := filepath.Dir(config.LogFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	return &Logger{
		Logger: log,
		config: config,
	}, nil
}

// CustomFormatter provides a clean, timestamped format for console output
type CustomFormatter struct{}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	level := strings.ToUpper(entry.Level.String())

	var levelColor string
	switch entry.Level {
	case logrus.DebugLevel:
		levelColor = "\033[36m" // Cyan
	case logrus.InfoLevel:
		levelColor = "\033[32m" // Green
	case logrus.WarnLevel:
		levelColor = "\033[33m" // Yellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelColor = "\033[31m" // Red
	default:
		levelColor = "\033[0m" // Reset
	}

	resetColor := "\033[0m"

	msg := fmt.Sprintf("%s [%s%s%s] %s",
		timestamp,
		levelColor,
		level,
		resetColor,
		entry.Message)

	if len(entry.Data) > 0 {
		msg += " |"
		for key, value := range entry.Data {
			msg += fmt.Sprintf(" %s=%v", key, value)
		}
	}

	msg += "\n"
	return []byte(msg), nil
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithError adds an error field to the logger
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.WithField("component", component)
}

// WithToken returns a logger with token context
func (l *Logger) WithToken(mint string) *logrus.Entry {
	return l.WithField("mint", mint)
}

// Sniper-specific logging methods

// LogPoolDetected logs a newly detected liquidity pool
func (l *Logger) LogPoolDetected(platform, mint, pool string, liquiditySOL float64) {
	l.WithFields(logrus.Fields{
		"event":         "pool_detected",
		"platform":      platform,
		"mint":          mint,
		"pool":          pool,
		"liquidity_sol": liquiditySOL,
		"timestamp":     time.Now().Format(time.RFC3339),
	}).Info("🔍 New pool detected")
}

// LogTokenSkipped logs a rejected pool event with its reason
func (l *Logger) LogTokenSkipped(mint, reason string) {
	l.WithFields(logrus.Fields{
		"event":     "token_skipped",
		"mint":      mint,
		"reason":    reason,
		"timestamp": time.Now().Format(time.RFC3339),
	}).Info("✗ Token skipped")
}

// LogTradeAttempt logs when a trade attempt is made
func (l *Logger) LogTradeAttempt(tradeType, mint string, amount float64, strategy string) {
	l.WithFields(logrus.Fields{
		"event":     "trade_attempt",
		"type":      tradeType,
		"mint":      mint,
		"amount":    amount,
		"strategy":  strategy,
		"timestamp": time.Now().Format(time.RFC3339),
	}).Info("💰 Trade attempt initiated")
}

// LogTradeSuccess logs when a trade is successful
func (l *Logger) LogTradeSuccess(tradeType, mint string, amount float64, signature string) {
	l.WithFields(logrus.Fields{
		"event":     "trade_success",
		"type":      tradeType,
		"mint":      mint,
		"amount":    amount,
		"signature": signature,
		"timestamp": time.Now().Format(time.RFC3339),
	}).Info("✅ Trade successful")
}

// LogTradeError logs when a trade fails
func (l *Logger) LogTradeError(tradeType, mint string, amount float64, err error) {
	l.WithFields(logrus.Fields{
		"event":     "trade_error",
		"type":      tradeType,
		"mint":      mint,
		"amount":    amount,
		"timestamp": time.Now().Format(time.RFC3339),
	}).WithError(err).Error("❌ Trade failed")
}

// LogMonitorEvent logs liquidity-monitor lifecycle changes
func (l *Logger) LogMonitorEvent(mint string, walletID int64, status string) {
	l.WithFields(logrus.Fields{
		"event":     "monitor_" + status,
		"mint":      mint,
		"wallet_id": walletID,
		"timestamp": time.Now().Format(time.RFC3339),
	}).Info("👁️ Liquidity monitor " + status)
}

// LogBulkSummary logs the aggregate outcome of a bulk operation
func (l *Logger) LogBulkSummary(operation string, total, successful, failed int, sumAmount float64) {
	l.WithFields(logrus.Fields{
		"event":      "bulk_" + operation,
		"total":      total,
		"successful": successful,
		"failed":     failed,
		"sum_amount": sumAmount,
		"timestamp":  time.Now().Format(time.RFC3339),
	}).Info("📦 Bulk operation finished")
}

// LogWebSocketEvent logs WebSocket events
func (l *Logger) LogWebSocketEvent(eventType string, data interface{}) {
	l.WithFields(logrus.Fields{
		"event":     "websocket_" + eventType,
		"data":      data,
		"timestamp": time.Now().Format(time.RFC3339),
	}).Debug("🔌 WebSocket event")
}

// LogError logs general errors with context
func (l *Logger) LogError(component, operation string, err error, fields logrus.Fields) {
	logFields := logrus.Fields{
		"event":     "error",
		"component": component,
		"operation": operation,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	for k, v := range fields {
		logFields[k] = v
	}

	l.WithFields(logFields).WithError(err).Error("💥 Component error")
}

// LogStartup logs application startup information
func (l *Logger) LogStartup(version, network, rpcUrl string) {
	l.WithFields(logrus.Fields{
		"event":     "startup",
		"version":   version,
		"network":   network,
		"rpc_url":   rpcUrl,
		"timestamp": time.Now().Format(time.RFC3339),
	}).Info("🚀 Sniper suite starting up")
}

// LogShutdown logs application shutdown information
func (l *Logger) LogShutdown(reason string) {
	l.WithFields(logrus.Fields{
		"event":     "shutdown",
		"reason":    reason,
		"timestamp": time.Now().Format(time.RFC3339),
	}).Info("🛑 Sniper suite shutting down")
}

// LogBalance logs wallet balance information
func (l *Logger) LogBalance(address string, balanceSOL float64) {
	l.WithFields(logrus.Fields{
		"event":       "balance_check",
		"address":     address,
		"balance_sol": balanceSOL,
		"timestamp":   time.Now().Format(time.RFC3339),
	}).Info("💰 Wallet balance")
}
