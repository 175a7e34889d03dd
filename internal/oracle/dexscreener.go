// Package oracle provides cached market data for the tracked token.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"solana-buy-alert/internal/domain"
	"solana-buy-alert/internal/observability"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.dexscreener.com"
	DefaultTTL     = 10 * time.Second
	DefaultTimeout = 10 * time.Second
)

// DefaultSOLUSDCPair is the SOL/USDC pair used when the ratio-derived SOL price is implausible.
const DefaultSOLUSDCPair = "8sLbNZoA1cfnvMJLPfp98ZLAnFSYCFApfJKMbiXNLwxj"

// maxPlausibleSOLPrice bounds the ratio-derived SOL/USD rate.
var maxPlausibleSOLPrice = decimal.NewFromInt(1000)

// ErrNoPair is returned when the response carries no pair object.
var ErrNoPair = errors.New("pair not found in response")

// Config configures the DexScreener oracle.
type Config struct {
	BaseURL     string        // API origin, default DefaultBaseURL
	PairAddress string        // token pair address
	SOLUSDCPair string        // fallback SOL/USDC pair address
	TTL         time.Duration // cache lifetime, default DefaultTTL
	Timeout     time.Duration // per-request timeout, default DefaultTimeout
	HTTPClient  *http.Client
	Logger      logrus.FieldLogger
	Now         func() time.Time
}

// Oracle serves MarketSnapshots from DexScreener with a TTL cache.
// A failed refresh returns the last good snapshot.
type Oracle struct {
	baseURL     string
	pairAddress string
	solUSDCPair string
	ttl         time.Duration
	client      *http.Client
	log         logrus.FieldLogger
	now         func() time.Time

	mu     sync.Mutex
	cached *domain.MarketSnapshot
}

// New creates a new Oracle.
func New(cfg Config) *Oracle {
	o := &Oracle{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		pairAddress: cfg.PairAddress,
		solUSDCPair: cfg.SOLUSDCPair,
		ttl:         cfg.TTL,
		client:      cfg.HTTPClient,
		log:         cfg.Logger,
		now:         cfg.Now,
	}
	if o.baseURL == "" {
		o.baseURL = DefaultBaseURL
	}
	if o.solUSDCPair == "" {
		o.solUSDCPair = DefaultSOLUSDCPair
	}
	if o.ttl <= 0 {
		o.ttl = DefaultTTL
	}
	if o.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		o.client = &http.Client{Timeout: timeout}
	}
	if o.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.log = l
	}
	if o.now == nil {
		o.now = time.Now
	}
	o.log = o.log.WithField("component", "oracle")
	return o
}

// Snapshot returns a snapshot no older than the TTL when the API is reachable,
// the previous snapshot when it is not, or nil when nothing was ever fetched.
func (o *Oracle) Snapshot(ctx context.Context) *domain.MarketSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	if o.cached != nil && o.cached.Age(now) < o.ttl {
		observability.UpdateSnapshotAge(o.cached.Age(now).Seconds())
		return o.cached
	}

	snap, err := o.fetch(ctx, now)
	if err != nil {
		observability.RecordOracleFetch("pair", "error")
		o.log.WithError(err).Warn("market data refresh failed, serving cached snapshot")
		if o.cached != nil {
			observability.UpdateSnapshotAge(o.cached.Age(now).Seconds())
		}
		return o.cached
	}

	observability.RecordOracleFetch("pair", "ok")
	observability.UpdatePrices(snap.PriceUSD.InexactFloat64(), snap.SOLPriceUSD.InexactFloat64())
	observability.UpdateSnapshotAge(0)
	o.cached = snap
	return snap
}

// Latest returns the cached snapshot without refreshing it.
func (o *Oracle) Latest() *domain.MarketSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cached
}

func (o *Oracle) fetch(ctx context.Context, now time.Time) (*domain.MarketSnapshot, error) {
	pair, err := o.fetchPair(ctx, o.pairAddress)
	if err != nil {
		return nil, err
	}

	priceUSD := pair.PriceUSD.Decimal
	if priceUSD.IsNegative() {
		return nil, fmt.Errorf("negative price %s", priceUSD)
	}

	var solPrice decimal.Decimal
	if native := pair.PriceNative.Decimal; native.IsPositive() {
		solPrice = priceUSD.Div(native)
	}
	if !solPrice.IsPositive() || solPrice.GreaterThan(maxPlausibleSOLPrice) {
		solPrice = o.fallbackSOLPrice(ctx)
	}

	snap := &domain.MarketSnapshot{
		PriceUSD:     priceUSD,
		MarketCapUSD: pair.FDV.Decimal,
		SOLPriceUSD:  solPrice,
		FetchedAt:    now,
	}
	if pair.Liquidity != nil {
		snap.LiquidityUSD = pair.Liquidity.USD.Decimal
	}
	return snap, nil
}

// fallbackSOLPrice reads SOL/USD from the SOL/USDC pair. Zero on any failure.
func (o *Oracle) fallbackSOLPrice(ctx context.Context) decimal.Decimal {
	pair, err := o.fetchPair(ctx, o.solUSDCPair)
	if err != nil {
		observability.RecordOracleFetch("sol_usdc", "error")
		o.log.WithError(err).Warn("SOL price fallback failed")
		return decimal.Zero
	}
	observability.RecordOracleFetch("sol_usdc", "ok")

	price := pair.PriceUSD.Decimal
	if !price.IsPositive() {
		return decimal.Zero
	}
	return price
}

func (o *Oracle) fetchPair(ctx context.Context, address string) (*pairData, error) {
	url := o.baseURL + "/latest/dex/pairs/solana/" + address

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body pairResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Pair == nil {
		return nil, ErrNoPair
	}
	return body.Pair, nil
}

// pairResponse is the DexScreener /latest/dex/pairs response.
type pairResponse struct {
	Pair *pairData `json:"pair"`
}

// pairData holds the pair fields read by the oracle. DexScreener sends
// prices as strings and fdv/liquidity as numbers; both decode into decimals.
type pairData struct {
	PriceUSD    decimal.NullDecimal `json:"priceUsd"`
	PriceNative decimal.NullDecimal `json:"priceNative"`
	FDV         decimal.NullDecimal `json:"fdv"`
	Liquidity   *struct {
		USD decimal.NullDecimal `json:"usd"`
	} `json:"liquidity"`
}
