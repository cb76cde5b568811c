package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"sniper-suite-go/internal/config"
)

const cacheTTL = 30 * time.Second

// Feed provides the SOL/USD price with a short-lived cache. Jupiter's price
// API is preferred; CoinGecko is the fallback; a stale cached value is the
// last resort.
type Feed struct {
	priceURL   string
	httpClient *http.Client
	logger     *logrus.Logger

	mu        sync.Mutex
	cached    float64
	fetchedAt time.Time
}

// NewFeed creates a price feed using the given Jupiter price endpoint
func NewFeed(priceURL string, logger *logrus.Logger) *Feed {
	if priceURL == "" {
		priceURL = config.JupiterPriceURL
	}
	return &Feed{
		priceURL: priceURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// SOLPrice returns the current SOL/USD price
func (f *Feed) SOLPrice(ctx context.Context) (float64, error) {
	f.mu.Lock()
	if f.cached > 0 && time.Since(f.fetchedAt) < cacheTTL {
		price := f.cached
		f.mu.Unlock()
		return price, nil
	}
	f.mu.Unlock()

	price, err := f.fetchJupiter(ctx)
	if err != nil {
		f.logger.WithError(err).Debug("Jupiter price fetch failed, trying CoinGecko")
		price, err = f.fetchCoinGecko(ctx)
	}

	if err != nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.cached > 0 {
			f.logger.WithError(err).Warn("⚠️ Price feeds unavailable, serving stale price")
			return f.cached, nil
		}
		return 0, fmt.Errorf("all price sources failed: %w", err)
	}

	f.mu.Lock()
	f.cached = price
	f.fetchedAt = time.Now()
	f.mu.Unlock()

	return price, nil
}

func (f *Feed) fetchJupiter(ctx context.Context) (float64, error) {
	url := f.priceURL + "?ids=SOL"
	body, err := f.get(ctx, url)
	if err != nil {
		return 0, err
	}

	var parsed struct {
		Data map[string]struct {
			Price float64 `json:"price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse Jupiter price response: %w", err)
	}

	entry, ok := parsed.Data["SOL"]
	if !ok || entry.Price <= 0 {
		return 0, fmt.Errorf("Jupiter returned no SOL price")
	}
	return entry.Price, nil
}

func (f *Feed) fetchCoinGecko(ctx context.Context) (float64, error) {
	body, err := f.get(ctx, config.CoinGeckoSOLPriceURL)
	if err != nil {
		return 0, err
	}

	var parsed struct {
		Solana struct {
			USD float64 `json:"usd"`
		} `json:"solana"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse CoinGecko response: %w", err)
	}

	if parsed.Solana.USD <= 0 {
		return 0, fmt.Errorf("CoinGecko returned no SOL price")
	}
	return parsed.Solana.USD, nil
}

func (f *Feed) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
