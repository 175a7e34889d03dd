package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPair    = "tokenpair"
	testSOLPair = "solusdcpair"
)

// fakeClock is a manually advanced clock.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

type pairServer struct {
	tokenCalls atomic.Int32
	solCalls   atomic.Int32
	tokenBody  atomic.Value // string
	tokenCode  atomic.Int32
	solBody    atomic.Value // string
}

func newPairServer(t *testing.T, tokenBody string) (*pairServer, *httptest.Server) {
	t.Helper()
	ps := &pairServer{}
	ps.tokenBody.Store(tokenBody)
	ps.solBody.Store(`{"pair":{"priceUsd":"151.25"}}`)
	ps.tokenCode.Store(http.StatusOK)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/latest/dex/pairs/solana/"+testPair):
			ps.tokenCalls.Add(1)
			w.WriteHeader(int(ps.tokenCode.Load()))
			w.Write([]byte(ps.tokenBody.Load().(string)))
		case strings.HasSuffix(r.URL.Path, "/latest/dex/pairs/solana/"+testSOLPair):
			ps.solCalls.Add(1)
			w.Write([]byte(ps.solBody.Load().(string)))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return ps, srv
}

func newTestOracle(srv *httptest.Server, clock *fakeClock) *Oracle {
	return New(Config{
		BaseURL:     srv.URL,
		PairAddress: testPair,
		SOLUSDCPair: testSOLPair,
		Now:         clock.Now,
	})
}

func TestOracle_Snapshot(t *testing.T) {
	_, srv := newPairServer(t, `{"pair":{"priceUsd":"0.002","priceNative":"0.0000133333","fdv":2000000,"liquidity":{"usd":150000.5}}}`)
	clock := newClock()
	o := newTestOracle(srv, clock)

	snap := o.Snapshot(context.Background())
	require.NotNil(t, snap)

	assert.True(t, snap.PriceUSD.Equal(decimal.RequireFromString("0.002")))
	assert.True(t, snap.MarketCapUSD.Equal(decimal.NewFromInt(2000000)))
	assert.True(t, snap.LiquidityUSD.Equal(decimal.RequireFromString("150000.5")))
	assert.True(t, snap.HasSOLPrice())
	assert.InDelta(t, 150.0, snap.SOLPriceUSD.InexactFloat64(), 0.01)
	assert.Equal(t, clock.Now(), snap.FetchedAt)
}

func TestOracle_CacheWithinTTL(t *testing.T) {
	ps, srv := newPairServer(t, `{"pair":{"priceUsd":"0.002","priceNative":"0.00001"}}`)
	clock := newClock()
	o := newTestOracle(srv, clock)

	first := o.Snapshot(context.Background())
	clock.Advance(9 * time.Second)
	second := o.Snapshot(context.Background())

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), ps.tokenCalls.Load())

	clock.Advance(2 * time.Second)
	third := o.Snapshot(context.Background())
	require.NotNil(t, third)
	assert.NotSame(t, first, third)
	assert.Equal(t, int32(2), ps.tokenCalls.Load())
}

func TestOracle_StaleOnFailure(t *testing.T) {
	ps, srv := newPairServer(t, `{"pair":{"priceUsd":"0.002","priceNative":"0.00001","fdv":1000}}`)
	clock := newClock()
	o := newTestOracle(srv, clock)

	good := o.Snapshot(context.Background())
	require.NotNil(t, good)

	ps.tokenCode.Store(http.StatusInternalServerError)
	clock.Advance(time.Minute)

	stale := o.Snapshot(context.Background())
	assert.Same(t, good, stale)
	assert.True(t, stale.PriceUSD.Equal(decimal.RequireFromString("0.002")))
	assert.Equal(t, int32(2), ps.tokenCalls.Load())
}

func TestOracle_FailureModes(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
	}{
		{"non-200", http.StatusTooManyRequests, `{}`},
		{"malformed json", http.StatusOK, `{"pair":`},
		{"missing pair", http.StatusOK, `{"pair":null}`},
		{"negative price", http.StatusOK, `{"pair":{"priceUsd":"-1","priceNative":"1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, srv := newPairServer(t, tt.body)
			ps.tokenCode.Store(int32(tt.code))
			o := newTestOracle(srv, newClock())

			assert.Nil(t, o.Snapshot(context.Background()))
			assert.Nil(t, o.Latest())
		})
	}
}

func TestOracle_SOLPriceFallback(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
		fallback bool
	}{
		{
			name:     "ratio in range",
			body:     `{"pair":{"priceUsd":"0.003","priceNative":"0.00002"}}`,
			expected: "150",
		},
		{
			name:     "zero native price",
			body:     `{"pair":{"priceUsd":"0.003","priceNative":"0"}}`,
			expected: "151.25",
			fallback: true,
		},
		{
			name:     "implausible ratio",
			body:     `{"pair":{"priceUsd":"5","priceNative":"0.001"}}`,
			expected: "151.25",
			fallback: true,
		},
		{
			name:     "missing native price",
			body:     `{"pair":{"priceUsd":"0.003"}}`,
			expected: "151.25",
			fallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, srv := newPairServer(t, tt.body)
			o := newTestOracle(srv, newClock())

			snap := o.Snapshot(context.Background())
			require.NotNil(t, snap)
			assert.True(t, snap.SOLPriceUSD.Equal(decimal.RequireFromString(tt.expected)),
				"expected %s, got %s", tt.expected, snap.SOLPriceUSD)

			wantCalls := int32(0)
			if tt.fallback {
				wantCalls = 1
			}
			assert.Equal(t, wantCalls, ps.solCalls.Load())
		})
	}
}

func TestOracle_FallbackFailureYieldsUnknownSOLPrice(t *testing.T) {
	ps, srv := newPairServer(t, `{"pair":{"priceUsd":"0.003","priceNative":"0"}}`)
	ps.solBody.Store(`{"pair":null}`)
	o := newTestOracle(srv, newClock())

	snap := o.Snapshot(context.Background())
	require.NotNil(t, snap)
	assert.False(t, snap.HasSOLPrice())
	assert.True(t, snap.SOLPriceUSD.IsZero())
}

func TestOracle_MissingOptionalFields(t *testing.T) {
	_, srv := newPairServer(t, `{"pair":{"priceUsd":"0.002","priceNative":"0.00001","fdv":null}}`)
	o := newTestOracle(srv, newClock())

	snap := o.Snapshot(context.Background())
	require.NotNil(t, snap)
	assert.True(t, snap.MarketCapUSD.IsZero())
	assert.True(t, snap.LiquidityUSD.IsZero())
}
