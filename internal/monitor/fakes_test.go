package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"solana-buy-alert/internal/alert"
	"solana-buy-alert/internal/discovery"
	"solana-buy-alert/internal/domain"
	"solana-buy-alert/internal/solana"
)

const (
	testMint = "CY1P83KnKwFYostvjQcoR2HJLyEJWRBRaVQmYyyD3cR8"
	walletA  = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	walletB  = "So11111111111111111111111111111111111111112"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testSignature(n byte) string {
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = n + byte(i)
	}
	return base58.Encode(raw)
}

// buyTx builds a Raydium swap in which buyer spends lamports and receives tokens of testMint.
func buyTx(sig, buyer string, preLamports, postLamports uint64, tokens string) *solana.Transaction {
	blockTime := testNow.Unix()
	return &solana.Transaction{
		Signature: sig,
		BlockTime: &blockTime,
		Meta: &solana.TransactionMeta{
			PreBalances:  []uint64{preLamports, 0},
			PostBalances: []uint64{postLamports, 0},
			PostTokenBalances: []solana.TokenBalance{{
				Mint:          testMint,
				Owner:         buyer,
				UITokenAmount: solana.UITokenAmount{UIAmountString: tokens},
			}},
		},
		Message: &solana.TransactionMessage{AccountKeys: []string{buyer, discovery.RaydiumAMMV4}},
	}
}

type fakePrices struct {
	mu   sync.Mutex
	snap *domain.MarketSnapshot
}

func newFakePrices(price, solPrice string) *fakePrices {
	return &fakePrices{snap: &domain.MarketSnapshot{
		PriceUSD:     decimal.RequireFromString(price),
		MarketCapUSD: decimal.NewFromInt(2000000),
		LiquidityUSD: decimal.NewFromInt(150000),
		SOLPriceUSD:  decimal.RequireFromString(solPrice),
		FetchedAt:    testNow,
	}}
}

func (p *fakePrices) Snapshot(context.Context) *domain.MarketSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *fakePrices) Latest() *domain.MarketSnapshot {
	return p.Snapshot(context.Background())
}

type fakeSink struct {
	mu      sync.Mutex
	nextID  int
	sent    []int64
	deleted []alert.MessageRef
}

func (s *fakeSink) Send(_ context.Context, destination int64, _ string, _ alert.Image) (alert.MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.sent = append(s.sent, destination)
	return alert.MessageRef{Destination: destination, MessageID: s.nextID}, nil
}

func (s *fakeSink) Delete(_ context.Context, ref alert.MessageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, ref)
	return nil
}

func (s *fakeSink) Sent() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.sent...)
}

// fakeWS hands out a notification channel the test writes to.
type fakeWS struct {
	mu      sync.Mutex
	ch      chan solana.LogNotification
	filter  solana.LogsFilter
	closed  bool
	failSub error
}

func newFakeWS() *fakeWS {
	return &fakeWS{ch: make(chan solana.LogNotification, 8)}
}

func (w *fakeWS) SubscribeLogs(_ context.Context, filter solana.LogsFilter) (<-chan solana.LogNotification, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failSub != nil {
		return nil, w.failSub
	}
	w.filter = filter
	return w.ch, nil
}

func (w *fakeWS) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWS) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// timerRecorder captures retraction delays and never fires.
type timerRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *timerRecorder) After(d time.Duration) <-chan time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return make(chan time.Time)
}

func (r *timerRecorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// panicRPC blows up on every call.
type panicRPC struct{}

func (panicRPC) GetTransaction(context.Context, string) (*solana.Transaction, error) {
	panic("unexpected response shape")
}

func (panicRPC) GetSignaturesForAddress(context.Context, string, *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	panic("unexpected response shape")
}
