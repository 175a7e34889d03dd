package alert

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"solana-buy-alert/internal/observability"
)

// DefaultDeleteDelay is how long an alert stays visible before it is retracted.
const DefaultDeleteDelay = 120 * time.Second

// deleteTimeout bounds a single Delete call.
const deleteTimeout = 10 * time.Second

// RetractorOptions configures a Retractor.
type RetractorOptions struct {
	Delay  time.Duration // zero disables retraction
	Logger logrus.FieldLogger
	Now    func() time.Time
	After  func(time.Duration) <-chan time.Time
}

// Retractor deletes delivered alerts after a fixed delay. Each scheduled
// retraction is a goroutine owned by the Retractor; the owner either waits
// for them (Wait) or cancels them (Abandon) at shutdown.
type Retractor struct {
	sink  Sink
	delay time.Duration
	log   logrus.FieldLogger
	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending int
	closed  bool
}

// NewRetractor creates a Retractor that deletes through sink.
func NewRetractor(sink Sink, opts RetractorOptions) *Retractor {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Retractor{
		sink:   sink,
		delay:  opts.Delay,
		log:    opts.Logger,
		now:    opts.Now,
		after:  opts.After,
		ctx:    ctx,
		cancel: cancel,
	}
	if r.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		r.log = l
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.after == nil {
		r.after = time.After
	}
	r.log = r.log.WithField("component", "retractor")
	return r
}

// Delay returns the configured retraction delay.
func (r *Retractor) Delay() time.Duration {
	return r.delay
}

// Schedule arranges for ref to be deleted after the delay and returns the
// due time. It returns false when retraction is disabled or the Retractor
// is shutting down.
func (r *Retractor) Schedule(ref MessageRef) (time.Time, bool) {
	if r.delay <= 0 {
		return time.Time{}, false
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return time.Time{}, false
	}
	r.pending++
	observability.UpdatePendingRetractions(r.pending)
	r.wg.Add(1)
	r.mu.Unlock()

	due := r.now().Add(r.delay)
	timer := r.after(r.delay)

	go func() {
		defer r.wg.Done()
		defer r.done()

		select {
		case <-timer:
		case <-r.ctx.Done():
			observability.RecordRetraction("abandoned")
			return
		}

		ctx, cancel := context.WithTimeout(r.ctx, deleteTimeout)
		defer cancel()

		log := r.log.WithFields(logrus.Fields{"chat_id": ref.Destination, "message_id": ref.MessageID})
		if err := r.sink.Delete(ctx, ref); err != nil {
			observability.RecordRetraction("error")
			log.WithError(err).Warn("failed to retract alert")
			return
		}
		observability.RecordRetraction("ok")
		log.Debug("alert retracted")
	}()

	return due, true
}

func (r *Retractor) done() {
	r.mu.Lock()
	r.pending--
	observability.UpdatePendingRetractions(r.pending)
	r.mu.Unlock()
}

// Pending returns the number of retractions not yet finished.
func (r *Retractor) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Wait stops accepting new retractions and blocks until the scheduled ones
// complete or ctx is done. On ctx expiry the remaining ones are abandoned.
func (r *Retractor) Wait(ctx context.Context) error {
	r.close()

	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		r.Abandon()
		return ctx.Err()
	}
}

// Abandon cancels every pending retraction and waits for their goroutines to exit.
func (r *Retractor) Abandon() {
	r.close()
	r.cancel()
	r.wg.Wait()
}

func (r *Retractor) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}
