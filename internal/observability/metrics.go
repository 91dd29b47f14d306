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
	// Trade metrics
	TradesTotal    *prometheus.CounterVec
	AttemptsTotal  *prometheus.CounterVec
	RotationsTotal *prometheus.CounterVec
	CyclesTotal    *prometheus.CounterVec
	TradeLatency   *prometheus.HistogramVec

	// Session metrics
	TradesPerMinute         prometheus.Gauge
	SessionRemainingSeconds prometheus.Gauge
	SessionsTotal           *prometheus.CounterVec

	// Liquidation metrics
	LiquidationsTotal *prometheus.CounterVec

	// Solana RPC metrics
	RPCCallLatency *prometheus.HistogramVec

	// Journal metrics
	JournalErrors *prometheus.CounterVec

	// Health metrics
	LastSuccessfulTrade prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a new Metrics instance registered with reg.
func NewMetricsWith(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "razor"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Trade metrics
		TradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trade",
			Name:      "legs_total",
			Help:      "Total number of finished trade legs by direction and result",
		}, []string{"direction", "result"}),
		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trade",
			Name:      "attempts_total",
			Help:      "Total number of trade attempts by direction and outcome",
		}, []string{"direction", "outcome"}),
		RotationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "endpoint",
			Name:      "rotations_total",
			Help:      "Total number of RPC endpoint rotations by triggering outcome",
		}, []string{"reason"}),
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "cycles_total",
			Help:      "Total number of buy/sell cycles by result",
		}, []string{"result"}),
		TradeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trade",
			Name:      "api_latency_seconds",
			Help:      "Trade API call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"direction"}),

		// Session metrics
		TradesPerMinute: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "trades_per_minute",
			Help:      "Trades per minute over the running session",
		}),
		SessionRemainingSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "remaining_seconds",
			Help:      "Seconds left in the running session",
		}),
		SessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "runs_total",
			Help:      "Total number of finished sessions by end reason",
		}, []string{"end"}),

		// Liquidation metrics
		LiquidationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquidation",
			Name:      "sells_total",
			Help:      "Total number of liquidation sells by result",
		}, []string{"result"}),

		// Solana RPC metrics
		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Journal metrics
		JournalErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "write_errors_total",
			Help:      "Total number of failed journal writes by store",
		}, []string{"store"}),

		// Health metrics
		LastSuccessfulTrade: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_trade_timestamp",
			Help:      "Unix timestamp of last successful trade leg",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HealthHandler returns an HTTP handler for the /health endpoint.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
}

// NewServeMux returns a mux serving /metrics and /health.
func NewServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.Handle("/health", HealthHandler())
	return mux
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordAttempt records one classified trade attempt and its API latency.
func RecordAttempt(direction, outcome string, seconds float64) {
	DefaultMetrics.AttemptsTotal.WithLabelValues(direction, outcome).Inc()
	DefaultMetrics.TradeLatency.WithLabelValues(direction).Observe(seconds)
}

// RecordRotation records an endpoint rotation triggered by outcome.
func RecordRotation(outcome string) {
	DefaultMetrics.RotationsTotal.WithLabelValues(outcome).Inc()
}

// RecordTrade records a finished trade leg.
func RecordTrade(direction string, success bool, unixSeconds float64) {
	DefaultMetrics.TradesTotal.WithLabelValues(direction, resultLabel(success)).Inc()
	if success {
		DefaultMetrics.LastSuccessfulTrade.Set(unixSeconds)
	}
}

// RecordCycle records a finished buy/sell cycle.
func RecordCycle(success bool) {
	DefaultMetrics.CyclesTotal.WithLabelValues(resultLabel(success)).Inc()
}

// UpdateSessionProgress updates the trades-per-minute and remaining-time gauges.
func UpdateSessionProgress(tradesPerMinute, remainingSeconds float64) {
	DefaultMetrics.TradesPerMinute.Set(tradesPerMinute)
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	DefaultMetrics.SessionRemainingSeconds.Set(remainingSeconds)
}

// RecordSessionEnd records a finished session.
func RecordSessionEnd(interrupted bool) {
	end := "completed"
	if interrupted {
		end = "interrupted"
	}
	DefaultMetrics.SessionsTotal.WithLabelValues(end).Inc()
	DefaultMetrics.SessionRemainingSeconds.Set(0)
}

// RecordLiquidation records one liquidation sell.
func RecordLiquidation(success bool) {
	DefaultMetrics.LiquidationsTotal.WithLabelValues(resultLabel(success)).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordJournalError records a failed journal write.
func RecordJournalError(store string) {
	DefaultMetrics.JournalErrors.WithLabelValues(store).Inc()
}
