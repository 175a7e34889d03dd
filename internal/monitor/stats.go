package monitor

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stats is a point-in-time view of a monitor, served on /status.
type Stats struct {
	State              string          `json:"state"`
	Processed          int             `json:"processed"`
	Cooldowns          int             `json:"cooldowns"`
	Iterations         int64           `json:"iterations"`
	LastPoll           *time.Time      `json:"last_poll,omitempty"`
	AlertsSent         int64           `json:"alerts_sent"`
	PendingRetractions int             `json:"pending_retractions"`
	Destinations       int             `json:"destinations"`
	Snapshot           *SnapshotStatus `json:"snapshot,omitempty"`
}

// SnapshotStatus is the cached market snapshot as reported on /status.
type SnapshotStatus struct {
	PriceUSD     decimal.Decimal `json:"price_usd"`
	MarketCapUSD decimal.Decimal `json:"market_cap_usd"`
	LiquidityUSD decimal.Decimal `json:"liquidity_usd"`
	SOLPriceUSD  decimal.Decimal `json:"sol_price_usd"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

// Stats returns the current monitor statistics.
func (h *Handle) Stats() Stats {
	es := h.engine.Stats()
	s := Stats{
		State:              h.State().String(),
		Processed:          es.Processed,
		Cooldowns:          es.Cooldowns,
		Iterations:         h.iterations.Load(),
		AlertsSent:         h.dispatcher.Sent(),
		PendingRetractions: h.retractor.Pending(),
		Destinations:       h.destinations,
	}
	if ns := h.lastPoll.Load(); ns != 0 {
		t := time.Unix(0, ns).UTC()
		s.LastPoll = &t
	}
	if snap := h.prices.Latest(); snap != nil {
		s.Snapshot = &SnapshotStatus{
			PriceUSD:     snap.PriceUSD,
			MarketCapUSD: snap.MarketCapUSD,
			LiquidityUSD: snap.LiquidityUSD,
			SOLPriceUSD:  snap.SOLPriceUSD,
			FetchedAt:    snap.FetchedAt,
		}
	}
	return s
}
