// Package metrics exposes the Prometheus vocabulary for the execution
// pipeline (SPEC_FULL §13), grounded on internal/bot/metrics.go's
// promauto Namespace/Subsystem convention. The namespace is `solexec`;
// subsystems split by pipeline stage rather than by CEX concern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============ streaming ============

var StreamConnected = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "solexec",
		Subsystem: "streaming",
		Name:      "connected",
		Help:      "Stream connection status (1=connected, 0=disconnected)",
	},
	[]string{"stream"}, // geyser, shred
)

var StreamReconnects = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "solexec",
		Subsystem: "streaming",
		Name:      "reconnects_total",
		Help:      "Total number of stream reconnect attempts",
	},
	[]string{"stream"},
)

var StreamUpdates = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "solexec",
		Subsystem: "streaming",
		Name:      "updates_total",
		Help:      "Total number of account/slot updates received",
	},
	[]string{"stream", "kind"},
)

var StreamErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "solexec",
		Subsystem: "streaming",
		Name:      "errors_total",
		Help:      "Total number of stream errors by kind",
	},
	[]string{"stream", "kind"},
)

var StreamLastUpdateAge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "solexec",
		Subsystem: "streaming",
		Name:      "last_update_age_seconds",
		Help:      "Seconds since the last update was received on a stream",
	},
	[]string{"stream"},
)

// ============ cache ============

var BlockhashAge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "solexec",
		Subsystem: "cache",
		Name:      "blockhash_age_slots",
		Help:      "Slots elapsed since the cached blockhash was observed",
	},
)

var PoolStaleness = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "solexec",
		Subsystem: "cache",
		Name:      "pool_staleness_slots",
		Help:      "Slots since a pool's reserves were last updated",
	},
	[]string{"pool"},
)

var TipFloor = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "solexec",
		Subsystem: "cache",
		Name:      "tip_floor_lamports",
		Help:      "Current tip-floor percentile snapshot in lamports",
	},
	[]string{"percentile"},
)

// ============ detect ============

var ScanLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "solexec",
		Subsystem: "detect",
		Name:      "scan_latency_ms",
		Help:      "Time to scan all monitored pairs for an opportunity",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50},
	},
)

var OpportunitiesDetected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "solexec",
		Subsystem: "detect",
		Name:      "opportunities_detected_total",
		Help:      "Number of opportunities detected by kind and outcome",
	},
	[]string{"kind", "triggered"}, // kind: arb, snipe; triggered: yes, no
)

var SpreadObserved = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "solexec",
		Subsystem: "detect",
		Name:      "spread_observed_percent",
		Help:      "Observed cross-venue spread values in percent",
		Buckets:   []float64{-1, -0.5, 0, 0.1, 0.2, 0.3, 0.5, 1, 2, 5},
	},
	[]string{"pair"},
)

// ============ router ============

var MethodChosen = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "solexec",
		Subsystem: "router",
		Name:      "method_chosen_total",
		Help:      "Swap route chosen per attempt",
	},
	[]string{"method"}, // raydium_direct, orca_sidecar, aggregator_fallback, failed
)

var BuildLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "solexec",
		Subsystem: "router",
		Name:      "build_latency_ms",
		Help:      "Time to build a swap instruction by method",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250},
	},
	[]string{"method"},
)

// ============ exec ============

var BundleSubmitLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "solexec",
		Subsystem: "exec",
		Name:      "bundle_submit_latency_ms",
		Help:      "Time to submit a bundle to the relay",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000},
	},
)

var LegCount = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "solexec",
		Subsystem: "exec",
		Name:      "leg_count",
		Help:      "Number of legs per submitted bundle",
		Buckets:   []float64{1, 2, 3, 4, 5},
	},
)

var StrikeResult = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "solexec",
		Subsystem: "exec",
		Name:      "strike_result_total",
		Help:      "Total strikes by result",
	},
	[]string{"result"}, // success, failure
)

// ============ sniper ============

var SniperDetections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "solexec",
		Subsystem: "sniper",
		Name:      "detections_total",
		Help:      "New-token detections by mode",
	},
	[]string{"mode"}, // graduated, fast
)

var CircuitBreakerTrips = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "solexec",
		Subsystem: "sniper",
		Name:      "circuit_breaker_trips_total",
		Help:      "Number of times the sniper circuit breaker tripped",
	},
)

var HFTPositions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "solexec",
		Subsystem: "sniper",
		Name:      "hft_positions",
		Help:      "Current number of open fast-mode positions",
	},
)

var AutoSellReason = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "solexec",
		Subsystem: "sniper",
		Name:      "auto_sell_total",
		Help:      "Auto-sell exits by reason",
	},
	[]string{"reason"}, // take_profit, stop_loss, deadline
)

// ============ whale ============

var WhaleSwapsDetected = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "solexec",
		Subsystem: "whale",
		Name:      "swaps_detected_total",
		Help:      "Large-notional swaps detected on registered pools",
	},
)

// ============ helpers ============

// RecordStreamUpdate records a received update and resets the
// last-update-age gauge for stream.
func RecordStreamUpdate(stream, kind string) {
	StreamUpdates.WithLabelValues(stream, kind).Inc()
	StreamLastUpdateAge.WithLabelValues(stream).Set(0)
}

// RecordStreamError records a stream error by kind.
func RecordStreamError(stream, kind string) {
	StreamErrors.WithLabelValues(stream, kind).Inc()
}

// SetStreamConnected sets the connected gauge for stream.
func SetStreamConnected(stream string, connected bool) {
	if connected {
		StreamConnected.WithLabelValues(stream).Set(1)
	} else {
		StreamConnected.WithLabelValues(stream).Set(0)
	}
}

// RecordOpportunity records a detection attempt and whether it triggered.
func RecordOpportunity(kind string, triggered bool) {
	t := "no"
	if triggered {
		t = "yes"
	}
	OpportunitiesDetected.WithLabelValues(kind, t).Inc()
}

// RecordStrike records a strike's terminal result.
func RecordStrike(success bool) {
	if success {
		StrikeResult.WithLabelValues("success").Inc()
	} else {
		StrikeResult.WithLabelValues("failure").Inc()
	}
}
