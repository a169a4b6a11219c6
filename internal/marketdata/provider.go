// Package marketdata fetches OHLCV bars from an aggregates HTTP API and
// caches whole downloads on disk so repeated runs stay offline.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/mhorta/tfpulse/config"
	"github.com/mhorta/tfpulse/internal/domain/models"
)

// maxLimit caps results per aggregates request.
const maxLimit = 50000

// Provider fetches bars for one symbol at a native resolution.
type Provider interface {
	FetchBars(ctx context.Context, symbol string, tf models.Timeframe, from, to time.Time) ([]models.Bar, error)
}

// barRaw mirrors one result entry of the aggregates payload.
type barRaw struct {
	Timestamp int64   `json:"t"` // Unix milliseconds
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

type aggregatesResponse struct {
	Ticker       string   `json:"ticker"`
	ResultsCount int      `json:"resultsCount"`
	Results      []barRaw `json:"results"`
	Status       string   `json:"status"`
	NextURL      string   `json:"next_url,omitempty"`
}

// HTTPProvider talks to a range-aggregates endpoint
// (/v2/aggs/ticker/{symbol}/range/{mult}/{timespan}/{from}/{to})
// and throttles itself with a shared token bucket.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	client  *http.Client
}

// NewHTTPProvider builds a provider from configuration.
func NewHTTPProvider(cfg config.ProviderConfig) *HTTPProvider {
	return &HTTPProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 10),
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// FetchBars downloads bars for [from, to] in ascending order.
//
// The limiter is awaited before the request goes out, so concurrent
// fetches across symbols share one budget.
func (p *HTTPProvider) FetchBars(ctx context.Context, symbol string, tf models.Timeframe, from, to time.Time) ([]models.Bar, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	timespan, err := timespanFor(tf)
	if err != nil {
		return nil, err
	}

	requestURL := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%d/%d",
		p.baseURL, url.PathEscape(symbol), tf.N, timespan, from.UnixMilli(), to.UnixMilli())
	u, err := url.Parse(requestURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("adjusted", "true")
	q.Set("sort", "asc")
	q.Set("limit", strconv.Itoa(maxLimit))
	q.Set("apiKey", p.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", symbol, resp.StatusCode, string(body))
	}

	var payload aggregatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fetch %s: decode: %w", symbol, err)
	}
	if payload.Status != "OK" {
		return nil, fmt.Errorf("fetch %s: provider status %q", symbol, payload.Status)
	}

	bars := make([]models.Bar, 0, len(payload.Results))
	for _, r := range payload.Results {
		bars = append(bars, models.Bar{
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return bars, nil
}

// timespanFor maps a timeframe unit to the aggregates path segment.
func timespanFor(tf models.Timeframe) (string, error) {
	switch tf.Unit {
	case models.UnitMinute:
		return "minute", nil
	case models.UnitDay:
		return "day", nil
	case models.UnitWeek:
		return "week", nil
	case models.UnitMonth:
		return "month", nil
	case models.UnitYear:
		return "year", nil
	}
	return "", fmt.Errorf("%w: %v", models.ErrUnsupportedTimeframe, tf)
}
