// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Monitor metrics
	PollIterations    *prometheus.CounterVec
	PollDuration      prometheus.Histogram
	SignaturesFetched prometheus.Counter
	SignaturesSkipped prometheus.Counter
	IterationPanics   prometheus.Counter
	WakeNotifications prometheus.Counter

	// Decision metrics
	Verdicts          *prometheus.CounterVec
	ProcessedSetSize  prometheus.Gauge
	CooldownTableSize prometheus.Gauge

	// Alert metrics
	AlertsDispatched  prometheus.Counter
	DeliveriesTotal   *prometheus.CounterVec
	RetractionsTotal  *prometheus.CounterVec
	PendingRetraction prometheus.Gauge

	// Oracle metrics
	OracleFetches  *prometheus.CounterVec
	TokenPriceUSD  prometheus.Gauge
	SOLPriceUSD    prometheus.Gauge
	SnapshotAgeSec prometheus.Gauge

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPoll prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "buy_alert"
	}

	return &Metrics{
		// Monitor metrics
		PollIterations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "poll_iterations_total",
			Help:      "Total number of poll iterations by trigger",
		}, []string{"trigger"}),
		PollDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "poll_duration_seconds",
			Help:      "Duration of one poll iteration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SignaturesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "signatures_fetched_total",
			Help:      "Total number of candidate signatures returned by the RPC",
		}),
		SignaturesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "signatures_skipped_total",
			Help:      "Total number of signatures skipped as already processed",
		}),
		IterationPanics: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "iteration_panics_total",
			Help:      "Total number of recovered panics inside a poll iteration",
		}),
		WakeNotifications: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "wake_notifications_total",
			Help:      "Total number of websocket notifications that woke the poll loop",
		}),

		// Decision metrics
		Verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "verdicts_total",
			Help:      "Total number of evaluated transactions by verdict",
		}, []string{"verdict"}),
		ProcessedSetSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "processed_set_size",
			Help:      "Current number of signatures in the processed set",
		}),
		CooldownTableSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "cooldown_table_size",
			Help:      "Current number of wallets in the cooldown table",
		}),

		// Alert metrics
		AlertsDispatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "dispatched_total",
			Help:      "Total number of buy alerts dispatched",
		}),
		DeliveriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "deliveries_total",
			Help:      "Total number of per-destination deliveries by status",
		}, []string{"status"}),
		RetractionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "retractions_total",
			Help:      "Total number of alert retractions by status",
		}, []string{"status"}),
		PendingRetraction: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "pending_retractions",
			Help:      "Number of scheduled retractions not yet run",
		}),

		// Oracle metrics
		OracleFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "fetches_total",
			Help:      "Total number of market data fetches by source and status",
		}, []string{"source", "status"}),
		TokenPriceUSD: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "token_price_usd",
			Help:      "Latest token price in USD",
		}),
		SOLPriceUSD: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "sol_price_usd",
			Help:      "Latest SOL price in USD",
		}),
		SnapshotAgeSec: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "snapshot_age_seconds",
			Help:      "Age of the snapshot served on the last read",
		}),

		// Latency metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Solana RPC calls",
		}, []string{"method"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulPoll: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_poll_timestamp",
			Help:      "Unix timestamp of last poll that reached the RPC",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPoll records one finished poll iteration.
func RecordPoll(trigger string, seconds float64, fetched int) {
	DefaultMetrics.PollIterations.WithLabelValues(trigger).Inc()
	DefaultMetrics.PollDuration.Observe(seconds)
	DefaultMetrics.SignaturesFetched.Add(float64(fetched))
}

// RecordSuccessfulPoll updates the last successful poll gauge.
func RecordSuccessfulPoll(unix int64) {
	DefaultMetrics.LastSuccessfulPoll.Set(float64(unix))
}

// RecordSkipped increments the already-processed counter.
func RecordSkipped() {
	DefaultMetrics.SignaturesSkipped.Inc()
}

// RecordIterationPanic increments the recovered panic counter.
func RecordIterationPanic() {
	DefaultMetrics.IterationPanics.Inc()
}

// RecordWake increments the wake notification counter.
func RecordWake() {
	DefaultMetrics.WakeNotifications.Inc()
}

// RecordVerdict records a decision verdict.
func RecordVerdict(verdict string) {
	DefaultMetrics.Verdicts.WithLabelValues(verdict).Inc()
}

// UpdateDecisionSizes updates the processed set and cooldown table gauges.
func UpdateDecisionSizes(processed, cooldowns int) {
	DefaultMetrics.ProcessedSetSize.Set(float64(processed))
	DefaultMetrics.CooldownTableSize.Set(float64(cooldowns))
}

// RecordDispatch records one dispatched alert and its per-destination outcome.
func RecordDispatch(delivered, failed int) {
	DefaultMetrics.AlertsDispatched.Inc()
	DefaultMetrics.DeliveriesTotal.WithLabelValues("delivered").Add(float64(delivered))
	DefaultMetrics.DeliveriesTotal.WithLabelValues("failed").Add(float64(failed))
}

// RecordRetraction records a retraction outcome.
func RecordRetraction(status string) {
	DefaultMetrics.RetractionsTotal.WithLabelValues(status).Inc()
}

// UpdatePendingRetractions sets the pending retraction gauge.
func UpdatePendingRetractions(n int) {
	DefaultMetrics.PendingRetraction.Set(float64(n))
}

// RecordOracleFetch records a market data fetch.
func RecordOracleFetch(source, status string) {
	DefaultMetrics.OracleFetches.WithLabelValues(source, status).Inc()
}

// UpdatePrices sets the latest price gauges.
func UpdatePrices(tokenUSD, solUSD float64) {
	DefaultMetrics.TokenPriceUSD.Set(tokenUSD)
	DefaultMetrics.SOLPriceUSD.Set(solUSD)
}

// UpdateSnapshotAge sets the served snapshot age gauge.
func UpdateSnapshotAge(seconds float64) {
	DefaultMetrics.SnapshotAgeSec.Set(seconds)
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordRPCCall records RPC call latency and failures.
func RecordRPCCall(method string, seconds float64, err error) {
	RecordRPCLatency(method, seconds)
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
