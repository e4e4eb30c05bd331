// Package currency converts amounts using a rates API of the
// exchangerate-api family (GET {base}/{CODE} returning a rate table).
package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

var (
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrRatesUnavailable = errors.New("exchange rates unavailable")
)

type Rates map[string]decimal.Decimal

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Converter fetches one rate table per source currency and caches it, so a
// burst of conversions costs a single upstream call.
type Converter struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	rates   *cache.LRUCache[Rates]
	group   singleflight.Group
	logger  *slog.Logger
}

func NewConverter(cfg Config, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &Converter{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		timeout: cfg.Timeout,
		rates:   cache.NewLRUCache[Rates](64, cfg.CacheTTL),
		logger:  logger,
	}
}

// Cache exposes the rate cache for registration with a cache.Manager.
func (c *Converter) Cache() *cache.LRUCache[Rates] {
	return c.rates
}

func normalize(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("%q: %w", code, ErrUnknownCurrency)
	}
	return code, nil
}

// Rate returns how many units of to one unit of from buys.
func (c *Converter) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, err := normalize(from)
	if err != nil {
		return decimal.Decimal{}, err
	}
	to, err = normalize(to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	table, err := c.table(ctx, from)
	if err != nil {
		return decimal.Decimal{}, err
	}
	rate, ok := table[to]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", to, ErrUnknownCurrency)
	}
	return rate, nil
}

// Convert rounds the result half-up to cents.
func (c *Converter) Convert(ctx context.Context, amount core.Money, from, to string) (core.Money, error) {
	rate, err := c.Rate(ctx, from, to)
	if err != nil {
		return core.Money{}, err
	}
	converted, err := core.MoneyFromDecimal(amount.Decimal().Mul(rate))
	if err != nil {
		return core.Money{}, fmt.Errorf("convert %s %s to %s: %w", amount, from, to, err)
	}
	return converted, nil
}

func (c *Converter) table(ctx context.Context, base string) (Rates, error) {
	if r, ok := c.rates.Get(base); ok {
		return r, nil
	}
	// The shared fetch outlives any single caller; each waiter still
	// gives up when its own context ends.
	ch := c.group.DoChan(base, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		r, err := c.fetch(fetchCtx, base)
		if err != nil {
			return nil, err
		}
		c.rates.Set(base, r)
		return r, nil
	})

	var (
		v   any
		err error
	)
	select {
	case res := <-ch:
		v, err = res.Val, res.Err
	case <-ctx.Done():
		err = fmt.Errorf("%w: %v", ErrRatesUnavailable, ctx.Err())
	}
	if err != nil {
		c.logger.WarnContext(ctx, "Exchange rate lookup failed",
			log.NewFields().
				WithComponent(log.ComponentCurrency).
				WithOperation(log.OpConvert).
				WithErrorType(log.ErrorTypeNetwork).
				WithError(err).
				ToSlice()...)
		return nil, err
	}
	return v.(Rates), nil
}

type ratesResponse struct {
	Result          string                     `json:"result"`
	Rates           map[string]decimal.Decimal `json:"rates"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

func (c *Converter) fetch(ctx context.Context, base string) (Rates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+base, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRatesUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d", ErrRatesUnavailable, resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrRatesUnavailable, err)
	}
	if body.Result != "" && body.Result != "success" {
		return nil, fmt.Errorf("%w: result %q", ErrRatesUnavailable, body.Result)
	}

	raw := body.Rates
	if len(raw) == 0 {
		raw = body.ConversionRates
	}
	out := make(Rates, len(raw))
	for code, rate := range raw {
		if rate.IsPositive() {
			out[strings.ToUpper(code)] = rate
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty rate table for %s", ErrRatesUnavailable, base)
	}
	return out, nil
}
