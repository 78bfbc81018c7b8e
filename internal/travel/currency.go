package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	baseCurrency  = "CNY"
	rateCacheTTL  = time.Hour
	exchangeRates = "https://open.er-api.com/v6/latest/"
)

// Units of each currency per one CNY, used when the live API is unreachable.
var fallbackRates = map[string]float64{
	"CNY": 1.0,
	"USD": 0.14,
	"EUR": 0.12,
	"GBP": 0.10,
	"JPY": 20.65,
	"INR": 11.50,
	"CAD": 0.19,
	"AUD": 0.21,
	"CHF": 0.12,
	"SGD": 0.19,
}

var currencySymbols = map[string]string{
	"CNY": "¥", "USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥",
	"INR": "₹", "CAD": "C$", "AUD": "A$", "CHF": "Fr", "SGD": "S$",
}

// CurrencyConverter converts CNY-based estimates into other currencies.
// Live rates are cached for an hour; the static table covers outages.
type CurrencyConverter struct {
	httpClient *http.Client
	logger     *zap.Logger
	static     bool

	mu        sync.RWMutex
	rates     map[string]float64 // units per 1 CNY
	fetchedAt time.Time
}

// NewCurrencyConverter creates a converter seeded with the fallback table.
func NewCurrencyConverter(logger *zap.Logger) *CurrencyConverter {
	rates := make(map[string]float64, len(fallbackRates))
	for k, v := range fallbackRates {
		rates[k] = v
	}
	return &CurrencyConverter{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		rates:      rates,
	}
}

// NewCurrencyConverterStatic creates a converter that only ever uses the
// fallback table. Used offline and in tests.
func NewCurrencyConverterStatic(logger *zap.Logger) *CurrencyConverter {
	cc := NewCurrencyConverter(logger)
	cc.static = true
	return cc
}

// Convert converts an amount between two currencies, pivoting through CNY.
func (cc *CurrencyConverter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount, nil
	}
	cc.refresh(ctx)

	cc.mu.RLock()
	defer cc.mu.RUnlock()
	fromRate, ok := cc.rates[from]
	if !ok || fromRate == 0 {
		return 0, fmt.Errorf("unsupported currency %q", from)
	}
	toRate, ok := cc.rates[to]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %q", to)
	}
	inBase := amount / fromRate
	return inBase * toRate, nil
}

// Format renders an amount with its currency symbol.
func (cc *CurrencyConverter) Format(amount float64, currency string) string {
	currency = strings.ToUpper(currency)
	if sym, ok := currencySymbols[currency]; ok {
		return fmt.Sprintf("%s%.2f", sym, amount)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}

// View converts a CNY amount into each requested currency with formatting.
func (cc *CurrencyConverter) View(ctx context.Context, amountCNY float64, currencies []string) map[string]string {
	out := make(map[string]string, len(currencies)+1)
	out[baseCurrency] = cc.Format(amountCNY, baseCurrency)
	for _, cur := range currencies {
		converted, err := cc.Convert(ctx, amountCNY, baseCurrency, cur)
		if err != nil {
			continue
		}
		out[strings.ToUpper(cur)] = cc.Format(converted, cur)
	}
	return out
}

type ratesResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func (cc *CurrencyConverter) refresh(ctx context.Context) {
	if cc.static {
		return
	}
	cc.mu.RLock()
	fresh := time.Since(cc.fetchedAt) < rateCacheTTL && !cc.fetchedAt.IsZero()
	cc.mu.RUnlock()
	if fresh {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exchangeRates+baseCurrency, nil)
	if err != nil {
		return
	}
	resp, err := cc.httpClient.Do(req)
	if err != nil {
		cc.logger.Debug("rate fetch failed, keeping cached rates", zap.Error(err))
		cc.touch()
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		cc.touch()
		return
	}

	var parsed ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || parsed.Result != "success" {
		cc.touch()
		return
	}

	cc.mu.Lock()
	for code, rate := range parsed.Rates {
		if rate > 0 {
			cc.rates[code] = rate
		}
	}
	cc.fetchedAt = time.Now()
	cc.mu.Unlock()
}

// touch delays the next fetch attempt after a failure.
func (cc *CurrencyConverter) touch() {
	cc.mu.Lock()
	cc.fetchedAt = time.Now()
	cc.mu.Unlock()
}
