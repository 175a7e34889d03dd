// Package monitor runs the buy-alert poll loop: fetch signatures, extract
// buys, decide and dispatch.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"solana-buy-alert/internal/alert"
	"solana-buy-alert/internal/decision"
	"solana-buy-alert/internal/discovery"
	"solana-buy-alert/internal/domain"
	"solana-buy-alert/internal/ingestion"
	"solana-buy-alert/internal/observability"
	"solana-buy-alert/internal/solana"
	"solana-buy-alert/internal/storage"
)

// DefaultPollInterval is the pause between poll iterations.
const DefaultPollInterval = 5 * time.Second

// MarketData is the cached price source shared by extraction and dispatch.
type MarketData interface {
	// Snapshot refreshes the cache when stale and returns the current snapshot.
	Snapshot(ctx context.Context) *domain.MarketSnapshot

	// Latest returns the cached snapshot without refreshing it.
	Latest() *domain.MarketSnapshot
}

// Options contains everything a monitor needs to run.
type Options struct {
	Mint         string
	RPC          solana.RPCClient
	WS           solana.WSClient // optional wake trigger, closed on Stop
	Prices       MarketData
	Sink         alert.Sink
	Destinations storage.DestinationStore
	Alerts       storage.AlertStore    // optional audit log
	BuyEvents    storage.BuyEventStore // optional analytics sink

	Decision           *decision.Config // nil means decision.DefaultConfig()
	Programs           []string         // DEX allow-list, default discovery.DefaultPrograms
	SkipOffCurveOwners bool
	PageSize           int

	Symbol           string
	Image            alert.Image
	DeleteDelay      time.Duration // zero disables retraction
	AwaitRetractions bool          // Stop waits for pending retractions instead of abandoning them

	PollInterval time.Duration
	Logger       logrus.FieldLogger
	Now          func() time.Time
	After        func(time.Duration) <-chan time.Time // retraction timers, default time.After
}

func (o *Options) validate() error {
	switch {
	case o.Mint == "":
		return errors.New("mint is required")
	case o.RPC == nil:
		return errors.New("rpc client is required")
	case o.Prices == nil:
		return errors.New("market data source is required")
	case o.Sink == nil:
		return errors.New("notification sink is required")
	case o.Destinations == nil:
		return errors.New("destination registry is required")
	}
	return nil
}

// Handle controls a running monitor. It is safe for concurrent use.
type Handle struct {
	log          logrus.FieldLogger
	mint         string
	rpc          solana.RPCClient
	ws           solana.WSClient
	prices       MarketData
	buyEvents    storage.BuyEventStore
	fetcher      *ingestion.Fetcher
	extractor    *discovery.Extractor
	engine       *decision.Engine
	dispatcher   *alert.Dispatcher
	retractor    *alert.Retractor
	interval     time.Duration
	now          func() time.Time
	await        bool
	destinations int

	state      atomic.Int32
	iterations atomic.Int64
	lastPoll   atomic.Int64 // unix nanos, zero before the first poll

	cursor string // touched only by the loop goroutine

	stop     chan struct{}
	done     chan struct{}
	cancel   context.CancelFunc
	stopOnce sync.Once
	stopErr  error
}

// Start validates opts, reads the destination registry once and launches
// the poll loop. It returns ErrNoDestinations when the registry is empty.
// ctx bounds startup only; the loop runs until Stop.
func Start(ctx context.Context, opts Options) (*Handle, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	dests, err := opts.Destinations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	if len(dests) == 0 {
		return nil, ErrNoDestinations
	}

	h := newHandle(opts, dests)
	h.state.Store(int32(StateStarting))
	h.log.WithFields(logrus.Fields{
		"mint":         h.mint,
		"min_buy_usd":  h.engine.Config().MinBuyUSD.String(),
		"destinations": len(dests),
	}).Info("starting buy alert monitor")

	wake := h.subscribe(ctx)

	runCtx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.state.Store(int32(StateRunning))
	go h.run(runCtx, wake)

	return h, nil
}

func newHandle(opts Options, dests []int64) *Handle {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	cfg := decision.DefaultConfig()
	if opts.Decision != nil {
		cfg = *opts.Decision
	}

	retractor := alert.NewRetractor(opts.Sink, alert.RetractorOptions{
		Delay:  opts.DeleteDelay,
		Logger: log,
		Now:    now,
		After:  opts.After,
	})

	return &Handle{
		log:       log.WithField("component", "monitor"),
		mint:      opts.Mint,
		rpc:       opts.RPC,
		ws:        opts.WS,
		prices:    opts.Prices,
		buyEvents: opts.BuyEvents,
		fetcher: ingestion.NewFetcher(opts.RPC, ingestion.FetcherOptions{
			Address:  opts.Mint,
			PageSize: opts.PageSize,
			Logger:   log,
		}),
		extractor: discovery.NewExtractor(discovery.NewClassifier(opts.Programs), opts.Prices, discovery.ExtractorOptions{
			Mint:               opts.Mint,
			SkipOffCurveOwners: opts.SkipOffCurveOwners,
			Logger:             log,
			Now:                now,
		}),
		engine: decision.NewEngine(cfg),
		dispatcher: alert.NewDispatcher(opts.Sink, dests, alert.Options{
			Symbol:    opts.Symbol,
			Image:     opts.Image,
			Retractor: retractor,
			Alerts:    opts.Alerts,
			Logger:    log,
			Now:       now,
		}),
		retractor:    retractor,
		interval:     interval,
		now:          now,
		await:        opts.AwaitRetractions,
		destinations: len(dests),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// subscribe opens the optional logs subscription. Failure leaves the
// monitor on plain polling.
func (h *Handle) subscribe(ctx context.Context) <-chan solana.LogNotification {
	if h.ws == nil {
		return nil
	}
	ch, err := h.ws.SubscribeLogs(ctx, solana.LogsFilter{Mentions: []string{h.mint}})
	if err != nil {
		h.log.WithError(err).Warn("logs subscription failed, polling only")
		return nil
	}
	h.log.Info("subscribed to mint logs")
	return ch
}

// run is the poll loop. Iterations never overlap; a wake notification only
// moves the next one forward.
func (h *Handle) run(ctx context.Context, wake <-chan solana.LogNotification) {
	defer close(h.done)

	h.iterate(ctx, "start")

	timer := time.NewTimer(h.interval)
	defer timer.Stop()

	for {
		trigger := "timer"
		select {
		case <-h.stop:
			return
		case <-timer.C:
		case _, ok := <-wake:
			if !ok {
				wake = nil
				continue
			}
			observability.RecordWake()
			drainWake(wake)
			trigger = "wake"
		}

		h.iterate(ctx, trigger)
		timer.Reset(h.interval)
	}
}

// drainWake discards notifications queued behind the first one; a single
// iteration covers them all.
func drainWake(wake <-chan solana.LogNotification) {
	for {
		select {
		case _, ok := <-wake:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// iterate runs one poll. Nothing inside it stops the loop; a panic is
// recovered and counted.
func (h *Handle) iterate(ctx context.Context, trigger string) {
	start := h.now()
	defer func() {
		if r := recover(); r != nil {
			observability.RecordIterationPanic()
			h.log.WithField("panic", r).Error("poll iteration panicked")
		}
	}()

	candidates := h.fetcher.FetchRecent(ctx, h.cursor)

	var records []*domain.BuyRecord
	for _, c := range candidates {
		if h.stopping() {
			break
		}
		if h.engine.Seen(c.Signature) {
			observability.RecordSkipped()
			continue
		}
		if rec := h.process(ctx, c.Signature); rec != nil {
			records = append(records, rec)
		}
	}

	if len(candidates) > 0 {
		h.cursor = candidates[0].Signature
	}

	h.saveBuys(ctx, records)

	end := h.now()
	if pruned := h.engine.PruneCooldowns(end); pruned > 0 {
		h.log.WithField("pruned", pruned).Debug("pruned expired wallet cooldowns")
	}
	stats := h.engine.Stats()
	observability.UpdateDecisionSizes(stats.Processed, stats.Cooldowns)
	observability.RecordPoll(trigger, end.Sub(start).Seconds(), len(candidates))
	observability.RecordSuccessfulPoll(end.Unix())

	h.iterations.Add(1)
	h.lastPoll.Store(end.UnixNano())
}

// process evaluates one unseen signature and marks it processed whatever
// the outcome. It returns the analytics row for an extracted buy.
func (h *Handle) process(ctx context.Context, sig string) *domain.BuyRecord {
	tx := h.fetcher.FetchTransaction(ctx, sig)
	buy := h.extractor.Extract(ctx, tx, sig)

	now := h.now()
	verdict := h.engine.Evaluate(buy, now)
	h.engine.MarkProcessed(sig)
	observability.RecordVerdict(verdict.String())

	if buy == nil {
		return nil
	}

	log := h.log.WithFields(logrus.Fields{
		"signature": sig,
		"wallet":    buy.ShortWallet(),
		"usd":       buy.USDValue.StringFixed(2),
	})

	switch verdict {
	case domain.VerdictAlert:
		log.Info("large buy detected")
		h.dispatcher.Dispatch(ctx, buy, h.prices.Snapshot(ctx))
		h.engine.Record(buy, now)
	case domain.VerdictCooldown:
		log.Info("skipping buy, wallet cooldown")
	default:
		log.Debug("buy below threshold")
	}

	return &domain.BuyRecord{Buy: *buy, Verdict: verdict}
}

func (h *Handle) saveBuys(ctx context.Context, records []*domain.BuyRecord) {
	if h.buyEvents == nil || len(records) == 0 {
		return
	}
	if err := h.buyEvents.InsertBulk(ctx, records); err != nil {
		h.log.WithError(err).WithField("count", len(records)).Warn("failed to store buy events")
	}
}

func (h *Handle) stopping() bool {
	select {
	case <-h.stop:
		return true
	default:
		return false
	}
}

// Stop asks the loop to finish its current step, waits for it, tears down
// the network session and settles pending retractions. If ctx expires first
// the in-flight calls are cancelled. Calling Stop again returns the first
// result.
func (h *Handle) Stop(ctx context.Context) error {
	h.stopOnce.Do(func() {
		h.stopErr = h.shutdown(ctx)
	})
	return h.stopErr
}

func (h *Handle) shutdown(ctx context.Context) error {
	close(h.stop)

	var err error
	select {
	case <-h.done:
	case <-ctx.Done():
		h.log.Warn("poll iteration did not finish in time, cancelling")
		err = ctx.Err()
	}
	h.cancel()
	<-h.done

	if h.ws != nil {
		if cerr := h.ws.Close(); cerr != nil {
			h.log.WithError(cerr).Warn("close websocket")
		}
	}
	if c, ok := h.rpc.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}

	if h.await && err == nil {
		if werr := h.retractor.Wait(ctx); werr != nil {
			h.log.WithField("pending", h.retractor.Pending()).Warn("abandoned retractions at shutdown")
			err = werr
		}
	} else {
		h.retractor.Abandon()
	}

	h.state.Store(int32(StateStopped))
	h.log.Info("buy alert monitor stopped")
	return err
}

// Done is closed when the poll loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	return State(h.state.Load())
}
