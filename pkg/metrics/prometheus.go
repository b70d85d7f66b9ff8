package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal      prometheus.Counter
	cycleDuration    prometheus.Histogram
	fetchErrors      *prometheus.CounterVec
	signalsTotal     *prometheus.CounterVec
	alertsTotal      *prometheus.CounterVec
	gateWaitDuration prometheus.Histogram
	universeSize     prometheus.Gauge
	lastPrice        *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stockpulse_scan_cycles_total",
				Help: "Total number of completed scan cycles",
			},
		),
		cycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockpulse_scan_cycle_duration_seconds",
				Help:    "Duration of full scan cycles in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_fetch_errors_total",
				Help: "Total number of market data fetch errors",
			},
			[]string{"endpoint"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_signals_total",
				Help: "Total number of generated signals by type",
			},
			[]string{"type"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_alerts_total",
				Help: "Total number of alerts delivered by channel",
			},
			[]string{"channel"},
		),
		gateWaitDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockpulse_gate_wait_seconds",
				Help:    "Time spent waiting for a request slot",
				Buckets: prometheus.DefBuckets,
			},
		),
		universeSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockpulse_universe_size",
				Help: "Number of instruments in the scan universe",
			},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpulse_last_price",
				Help: "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordCycle records a completed scan cycle and its duration.
func (r *Recorder) RecordCycle(d time.Duration) {
	r.cyclesTotal.Inc()
	r.cycleDuration.Observe(d.Seconds())
}

// RecordFetchError records a market data fetch failure.
func (r *Recorder) RecordFetchError(endpoint string) {
	r.fetchErrors.WithLabelValues(endpoint).Inc()
}

// RecordSignal records a generated signal by type.
func (r *Recorder) RecordSignal(signalType string) {
	r.signalsTotal.WithLabelValues(signalType).Inc()
}

// RecordAlert records an alert delivered on a channel.
func (r *Recorder) RecordAlert(channel string) {
	r.alertsTotal.WithLabelValues(channel).Inc()
}

// RecordGateWait records time spent waiting for a request slot.
func (r *Recorder) RecordGateWait(d time.Duration) {
	r.gateWaitDuration.Observe(d.Seconds())
}

// SetUniverseSize sets the current scan universe size.
func (r *Recorder) SetUniverseSize(n int) {
	r.universeSize.Set(float64(n))
}

// RecordLastPrice records the last observed price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}
