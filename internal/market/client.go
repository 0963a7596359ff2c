package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/moneysignalai/breakpoint-engine/internal/metrics"
)

// ErrNotFound is returned when the data provider has no resource for the
// requested symbol or expiry.
var ErrNotFound = fmt.Errorf("market: resource not found")

// ClientConfig configures the market data client.
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     uint64
	RequestsPerSec float64
	Timezone       *time.Location
}

// Client fetches bars, daily snapshots, and option chains from a
// Polygon-style REST data provider.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a market data client with retry and rate limiting.
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RequestsPerSec == 0 {
		cfg.RequestsPerSec = 10
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), int(cfg.RequestsPerSec)),
		logger:     logger.With().Str("component", "market_client").Logger(),
	}
}

// GetBars fetches the most recent intraday bars for a symbol, oldest first.
func (c *Client) GetBars(ctx context.Context, symbol, timeframe string, limit int) ([]Bar, error) {
	params := url.Values{}
	params.Set("timeframe", timeframe)
	params.Set("limit", strconv.Itoa(limit))

	var payload struct {
		Bars []struct {
			Timestamp int64   `json:"t"`
			Open      float64 `json:"o"`
			High      float64 `json:"h"`
			Low       float64 `json:"l"`
			Close     float64 `json:"c"`
			Volume    float64 `json:"v"`
		} `json:"bars"`
	}
	path := fmt.Sprintf("/v1/markets/%s/bars", url.PathEscape(symbol))
	if err := c.getJSON(ctx, path, params, &payload); err != nil {
		return nil, fmt.Errorf("fetching bars for %s: %w", symbol, err)
	}

	bars := make([]Bar, len(payload.Bars))
	for i, raw := range payload.Bars {
		bars[i] = Bar{
			Timestamp: time.UnixMilli(raw.Timestamp).In(c.cfg.Timezone),
			Open:      raw.Open,
			High:      raw.High,
			Low:       raw.Low,
			Close:     raw.Close,
			Volume:    raw.Volume,
		}
	}
	return bars, nil
}

// GetDailySnapshot fetches daily-level stats for a symbol.
func (c *Client) GetDailySnapshot(ctx context.Context, symbol string) (*DailySnapshot, error) {
	var snap DailySnapshot
	path := fmt.Sprintf("/v1/markets/%s/snapshot", url.PathEscape(symbol))
	if err := c.getJSON(ctx, path, nil, &snap); err != nil {
		return nil, fmt.Errorf("fetching daily snapshot for %s: %w", symbol, err)
	}
	snap.Symbol = symbol
	return &snap, nil
}

// GetExpirations lists available option expiry dates for a symbol.
func (c *Client) GetExpirations(ctx context.Context, symbol string) ([]time.Time, error) {
	var payload struct {
		Expirations []string `json:"expirations"`
	}
	path := fmt.Sprintf("/v1/options/%s/expirations", url.PathEscape(symbol))
	if err := c.getJSON(ctx, path, nil, &payload); err != nil {
		return nil, fmt.Errorf("fetching expirations for %s: %w", symbol, err)
	}

	expiries := make([]time.Time, 0, len(payload.Expirations))
	for _, raw := range payload.Expirations {
		exp, err := time.ParseInLocation("2006-01-02", raw, c.cfg.Timezone)
		if err != nil {
			c.logger.Warn().Str("symbol", symbol).Str("expiry", raw).Msg("Skipping unparseable expiry")
			continue
		}
		expiries = append(expiries, exp)
	}
	return expiries, nil
}

// GetOptionChain fetches contract quotes for one expiry.
func (c *Client) GetOptionChain(ctx context.Context, symbol string, expiry time.Time) ([]OptionQuote, error) {
	params := url.Values{}
	params.Set("expiry", expiry.Format("2006-01-02"))

	var payload struct {
		Contracts []struct {
			Symbol       string   `json:"symbol"`
			Strike       float64  `json:"strike"`
			Type         string   `json:"type"`
			Bid          float64  `json:"bid"`
			Ask          float64  `json:"ask"`
			Volume       int64    `json:"volume"`
			OpenInterest int64    `json:"open_interest"`
			Delta        *float64 `json:"delta"`
			IV           *float64 `json:"iv"`
			IVPercentile *float64 `json:"iv_percentile"`
		} `json:"contracts"`
	}
	path := fmt.Sprintf("/v1/options/%s/chain", url.PathEscape(symbol))
	if err := c.getJSON(ctx, path, params, &payload); err != nil {
		return nil, fmt.Errorf("fetching option chain for %s: %w", symbol, err)
	}

	quotes := make([]OptionQuote, 0, len(payload.Contracts))
	for _, raw := range payload.Contracts {
		right := Call
		if len(raw.Type) > 0 && (raw.Type[0] == 'P' || raw.Type[0] == 'p') {
			right = Put
		}
		quotes = append(quotes, OptionQuote{
			ContractSymbol: raw.Symbol,
			Expiry:         expiry,
			Strike:         raw.Strike,
			Right:          right,
			Bid:            raw.Bid,
			Ask:            raw.Ask,
			Volume:         raw.Volume,
			OpenInterest:   raw.OpenInterest,
			Delta:          raw.Delta,
			IV:             raw.IV,
			IVPercentile:   raw.IVPercentile,
		})
	}
	return quotes, nil
}

// GetChainSnapshot fetches chains for every expiry inside the DTE window and
// merges them into a single snapshot.
func (c *Client) GetChainSnapshot(ctx context.Context, symbol string, now time.Time, minDTE, maxDTE int) (*ChainSnapshot, error) {
	expiries, err := c.GetExpirations(ctx, symbol)
	if err != nil {
		return nil, err
	}

	snap := &ChainSnapshot{Symbol: symbol, FetchedAt: now}
	for _, exp := range expiries {
		dte := int(exp.Sub(now).Hours() / 24)
		if dte < minDTE || dte > maxDTE {
			continue
		}
		quotes, err := c.GetOptionChain(ctx, symbol, exp)
		if err != nil {
			return nil, err
		}
		snap.Quotes = append(snap.Quotes, quotes...)
	}
	return snap, nil
}

// getJSON performs a GET with rate limiting and exponential-backoff retries
// on transport errors, 429s, and 5xx responses.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.cfg.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.MarketRequests.WithLabelValues("transport_error").Inc()
			c.logger.Warn().Err(err).Str("path", path).Msg("Request failed, will retry")
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		c.logger.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Dur("elapsed", time.Since(start)).
			Msg("Provider request")

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(body, out); err != nil {
				metrics.MarketRequests.WithLabelValues("parse_error").Inc()
				return backoff.Permanent(fmt.Errorf("parsing response: %w", err))
			}
			metrics.MarketRequests.WithLabelValues("ok").Inc()
			return nil
		case resp.StatusCode == http.StatusNotFound:
			metrics.MarketRequests.WithLabelValues("not_found").Inc()
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			metrics.MarketRequests.WithLabelValues("retried").Inc()
			return fmt.Errorf("provider returned %d: %s", resp.StatusCode, truncate(string(body), 200))
		default:
			metrics.MarketRequests.WithLabelValues("client_error").Inc()
			return backoff.Permanent(fmt.Errorf("provider returned %d: %s", resp.StatusCode, truncate(string(body), 200)))
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.cfg.MaxRetries),
		ctx,
	)
	return backoff.Retry(operation, policy)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
