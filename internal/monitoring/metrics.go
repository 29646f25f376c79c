package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/polymarket-risk/internal/risk"
)

var (
	// Breaker and filter metrics
	breakerTripsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_breaker_trips_total",
			Help: "Total number of circuit breaker trips",
		},
		[]string{"reason"},
	)

	filterRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_filter_rejections_total",
			Help: "Total number of candidates rejected by a pre-trade filter",
		},
		[]string{"reason"},
	)

	// Trade outcome metrics
	tradesRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_trades_recorded_total",
			Help: "Total number of resolved trades reported to the risk manager",
		},
		[]string{"outcome"},
	)

	consecutiveLosses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_consecutive_losses",
			Help: "Current consecutive loss streak",
		},
	)

	pauseUntilSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_pause_until_seconds",
			Help: "Unix time the active pause ends, 0 when not paused",
		},
	)

	// Sizing metrics
	positionNotional = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "risk_position_notional_usd",
			Help:    "Distribution of sized position notionals in USD",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	sizingFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "risk_sizing_fallbacks_total",
			Help: "Total number of sizings that used the fallback risk distance",
		},
	)
)

func init() {
	prometheus.MustRegister(breakerTripsTotal)
	prometheus.MustRegister(filterRejectionsTotal)
	prometheus.MustRegister(tradesRecordedTotal)
	prometheus.MustRegister(consecutiveLosses)
	prometheus.MustRegister(pauseUntilSeconds)
	prometheus.MustRegister(positionNotional)
	prometheus.MustRegister(sizingFallbacksTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RiskRecorder feeds risk manager events into the Prometheus collectors.
type RiskRecorder struct{}

var _ risk.Observer = RiskRecorder{}

// NewRiskRecorder creates a recorder
func NewRiskRecorder() RiskRecorder {
	return RiskRecorder{}
}

func (RiskRecorder) BreakerTripped(reason risk.Reason) {
	breakerTripsTotal.WithLabelValues(string(reason)).Inc()
}

func (RiskRecorder) FilterRejected(reason risk.Reason) {
	filterRejectionsTotal.WithLabelValues(string(reason)).Inc()
}

func (RiskRecorder) TradeRecorded(success bool, losses int) {
	outcome := "loss"
	if success {
		outcome = "win"
	}
	tradesRecordedTotal.WithLabelValues(outcome).Inc()
	consecutiveLosses.Set(float64(losses))
}

func (RiskRecorder) PauseChanged(until *time.Time) {
	if until == nil {
		pauseUntilSeconds.Set(0)
		return
	}
	pauseUntilSeconds.Set(float64(until.Unix()))
}

func (RiskRecorder) PositionSized(notional decimal.Decimal, fallback bool) {
	positionNotional.Observe(notional.InexactFloat64())
	if fallback {
		sizingFallbacksTotal.Inc()
	}
}

func (RiskRecorder) SessionReset() {
	consecutiveLosses.Set(0)
	pauseUntilSeconds.Set(0)
}
