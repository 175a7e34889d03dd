package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketSnapshot is a point-in-time view of the token market taken from the
// market-data API. A snapshot is never mutated; a newer one replaces it.
type MarketSnapshot struct {
	PriceUSD     decimal.Decimal // token price in USD, >= 0
	MarketCapUSD decimal.Decimal // FDV used as market cap proxy
	LiquidityUSD decimal.Decimal // pool liquidity in USD
	SOLPriceUSD  decimal.Decimal // zero means unknown
	FetchedAt    time.Time
}

// HasSOLPrice reports whether the SOL/USD rate is known.
func (s *MarketSnapshot) HasSOLPrice() bool {
	return s != nil && s.SOLPriceUSD.IsPositive()
}

// Age returns how old the snapshot is relative to now.
func (s *MarketSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}
