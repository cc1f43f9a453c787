// Package goldapi is a thin client for the GoldAPI spot-price service.
// Each call is one stateless GET; there is no retry, caching or rate
// limiting here, the tool layer composes this client as-is.
package goldapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://www.goldapi.io/api"
	defaultTimeout = 15 * time.Second
)

// Supported metal symbols, the fixed four-symbol set.
const (
	SymbolGold      = "XAU"
	SymbolSilver    = "XAG"
	SymbolPlatinum  = "XPT"
	SymbolPalladium = "XPD"
)

var validSymbols = map[string]bool{
	SymbolGold: true, SymbolSilver: true, SymbolPlatinum: true, SymbolPalladium: true,
}

// NormalizeSymbol maps a symbol or common metal name to its XAU-style
// symbol, or returns an error for anything outside the supported set.
func NormalizeSymbol(s string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	switch upper {
	case "GOLD":
		upper = SymbolGold
	case "SILVER":
		upper = SymbolSilver
	case "PLATINUM":
		upper = SymbolPlatinum
	case "PALLADIUM":
		upper = SymbolPalladium
	}
	if !validSymbols[upper] {
		return "", fmt.Errorf("unsupported metal %q (supported: XAU, XAG, XPT, XPD)", s)
	}
	return upper, nil
}

// Quote is the normalized view of one upstream price response. Raw carries
// the provider's payload untouched for transparency.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Currency      string  `json:"currency"`
	Price         float64 `json:"price"`
	Ask           float64 `json:"ask,omitempty"`
	Bid           float64 `json:"bid,omitempty"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Unit          string  `json:"unit"`
	Timestamp     int64   `json:"timestamp"`

	// Per-gram prices by gold karat. For non-gold metals only the 24k
	// (pure) field is populated by the provider.
	GramPrices map[string]float64 `json:"gramPrices,omitempty"`

	Raw json.RawMessage `json:"raw,omitempty"`
}

// PricePerGram returns the per-gram price for the given karat ("24k",
// "18k", ...). Non-gold metals always price at the pure per-gram field.
func (q *Quote) PricePerGram(karat string) (float64, error) {
	key := strings.ToLower(strings.TrimSpace(karat))
	if key == "" || q.Symbol != SymbolGold {
		key = "24k"
	}
	p, ok := q.GramPrices[key]
	if !ok {
		return 0, fmt.Errorf("no per-gram price for karat %q", karat)
	}
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("upstream per-gram price for karat %s is not a positive finite number", key)
	}
	return p, nil
}

// Client issues authenticated requests against the pricing service.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the upstream endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a pricing client. The API key is required; its absence
// is a configuration error surfaced at construction, not at first call.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("pricing API key cannot be empty")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// upstream response shape; field names follow the provider's JSON.
type apiResponse struct {
	Price        float64 `json:"price"`
	Ask          float64 `json:"ask"`
	Bid          float64 `json:"bid"`
	Ch           float64 `json:"ch"`
	Chp          float64 `json:"chp"`
	Timestamp    int64   `json:"timestamp"`
	Currency     string  `json:"currency"`
	Metal        string  `json:"metal"`
	PriceGram24k float64 `json:"price_gram_24k"`
	PriceGram22k float64 `json:"price_gram_22k"`
	PriceGram21k float64 `json:"price_gram_21k"`
	PriceGram20k float64 `json:"price_gram_20k"`
	PriceGram18k float64 `json:"price_gram_18k"`
	PriceGram16k float64 `json:"price_gram_16k"`
	PriceGram14k float64 `json:"price_gram_14k"`
	PriceGram10k float64 `json:"price_gram_10k"`
	ErrorMessage string  `json:"error"`
}

// Fetch retrieves the spot price for symbol in currency. date is optional;
// when set (YYYYMMDD) the provider returns the closing price for that day.
func (c *Client) Fetch(ctx context.Context, symbol, currency, date string) (*Quote, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if cur == "" {
		cur = "USD"
	}

	url := fmt.Sprintf("%s/%s/%s", c.baseURL, sym, cur)
	if date != "" {
		url = fmt.Sprintf("%s/%s", url, date)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create pricing request: %w", err)
	}
	req.Header.Set("x-access-token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pricing API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pricing API error: %s", strings.TrimSpace(resp.Status))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse pricing response: %w", err)
	}
	if parsed.ErrorMessage != "" {
		return nil, fmt.Errorf("pricing API error: %s", parsed.ErrorMessage)
	}
	if parsed.Price <= 0 || math.IsNaN(parsed.Price) || math.IsInf(parsed.Price, 0) {
		return nil, fmt.Errorf("pricing API returned no usable price for %s/%s", sym, cur)
	}

	quote := &Quote{
		Symbol:        sym,
		Currency:      cur,
		Price:         parsed.Price,
		Ask:           parsed.Ask,
		Bid:           parsed.Bid,
		Change:        parsed.Ch,
		ChangePercent: parsed.Chp,
		Unit:          "troy ounce",
		Timestamp:     parsed.Timestamp,
		GramPrices:    gramPrices(&parsed),
		Raw:           json.RawMessage(body),
	}
	return quote, nil
}

func gramPrices(r *apiResponse) map[string]float64 {
	out := make(map[string]float64, 8)
	for karat, price := range map[string]float64{
		"24k": r.PriceGram24k, "22k": r.PriceGram22k, "21k": r.PriceGram21k,
		"20k": r.PriceGram20k, "18k": r.PriceGram18k, "16k": r.PriceGram16k,
		"14k": r.PriceGram14k, "10k": r.PriceGram10k,
	} {
		if price > 0 {
			out[karat] = price
		}
	}
	return out
}
