package alert

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"solana-buy-alert/internal/domain"
	"solana-buy-alert/internal/observability"
	"solana-buy-alert/internal/storage"
)

// Options configures a Dispatcher.
type Options struct {
	Symbol    string             // header token symbol, default DefaultSymbol
	Image     Image              // picture attached to every alert
	Retractor *Retractor         // nil disables retraction
	Alerts    storage.AlertStore // optional audit log
	Logger    logrus.FieldLogger
	Now       func() time.Time
}

// Delivery is the outcome for one destination.
type Delivery struct {
	Destination int64
	Ref         MessageRef
	RetractAt   time.Time // zero when no retraction was scheduled
	Err         error
}

// Result summarizes one Dispatch call.
type Result struct {
	Deliveries []Delivery
	Delivered  int
	Failed     int
	Skipped    bool // no market data, nothing was sent
}

// Dispatcher sends buy alerts to a fixed set of destinations.
type Dispatcher struct {
	sink         Sink
	destinations []int64
	symbol       string
	image        Image
	retractor    *Retractor
	alerts       storage.AlertStore
	log          logrus.FieldLogger
	now          func() time.Time

	sent atomic.Int64
}

// NewDispatcher creates a Dispatcher. destinations is copied; it is read once
// at monitor start and not refreshed.
func NewDispatcher(sink Sink, destinations []int64, opts Options) *Dispatcher {
	d := &Dispatcher{
		sink:         sink,
		destinations: append([]int64(nil), destinations...),
		symbol:       opts.Symbol,
		image:        opts.Image,
		retractor:    opts.Retractor,
		alerts:       opts.Alerts,
		log:          opts.Logger,
		now:          opts.Now,
	}
	if d.symbol == "" {
		d.symbol = DefaultSymbol
	}
	if d.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		d.log = l
	}
	if d.now == nil {
		d.now = time.Now
	}
	d.log = d.log.WithField("component", "dispatcher")
	return d
}

// Destinations returns the destination IDs this dispatcher sends to.
func (d *Dispatcher) Destinations() []int64 {
	return append([]int64(nil), d.destinations...)
}

// Sent returns the number of alerts delivered to at least one destination.
func (d *Dispatcher) Sent() int64 {
	return d.sent.Load()
}

// Dispatch sends the alert for buy to every destination. A failure for one
// destination is logged and does not stop the others. Nothing is sent when
// snap is nil.
func (d *Dispatcher) Dispatch(ctx context.Context, buy *domain.BuyEvent, snap *domain.MarketSnapshot) Result {
	log := d.log.WithFields(logrus.Fields{
		"signature": buy.Signature,
		"wallet":    buy.ShortWallet(),
		"usd":       buy.USDValue.StringFixed(2),
	})

	if snap == nil {
		log.Warn("skipping alert, no market data available")
		return Result{Skipped: true}
	}

	caption := FormatCaption(d.symbol, buy, snap)
	res := Result{Deliveries: make([]Delivery, 0, len(d.destinations))}

	for _, dest := range d.destinations {
		del := Delivery{Destination: dest}

		ref, err := d.sink.Send(ctx, dest, caption, d.image)
		if err != nil {
			del.Err = err
			res.Failed++
			res.Deliveries = append(res.Deliveries, del)
			log.WithError(err).WithField("chat_id", dest).Warn("failed to send alert")
			continue
		}

		del.Ref = ref
		res.Delivered++
		if d.retractor != nil {
			if due, ok := d.retractor.Schedule(ref); ok {
				del.RetractAt = due
			}
		}
		res.Deliveries = append(res.Deliveries, del)
		log.WithField("chat_id", dest).Info("alert sent")
	}

	observability.RecordDispatch(res.Delivered, res.Failed)
	if res.Delivered > 0 {
		d.sent.Add(1)
		d.audit(ctx, buy, res)
	}
	return res
}

func (d *Dispatcher) audit(ctx context.Context, buy *domain.BuyEvent, res Result) {
	if d.alerts == nil {
		return
	}

	rec := &domain.AlertRecord{
		Signature:      buy.Signature,
		BuyerWallet:    buy.BuyerWallet,
		USDValue:       buy.USDValue,
		SOLSpent:       buy.SOLSpent,
		TokensReceived: buy.TokensReceived,
		Destinations:   len(d.destinations),
		Delivered:      res.Delivered,
		SentAt:         d.now().UTC(),
	}
	if err := d.alerts.Insert(ctx, rec); err != nil {
		l := d.log.WithError(err).WithField("signature", buy.Signature)
		if errors.Is(err, storage.ErrDuplicateKey) {
			l.Debug("alert already logged")
			return
		}
		l.Warn("failed to write alert log")
	}
}
