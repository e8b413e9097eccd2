// Package metrics exposes decoding counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DecodeMetrics counts what an index load saw. It implements index.Recorder.
type DecodeMetrics struct {
	incarnationsTotal prometheus.Counter
	valuesTotal       *prometheus.CounterVec
	anomaliesTotal    *prometheus.CounterVec
	bytesTotal        prometheus.Counter
	loadsTotal        *prometheus.CounterVec
}

// NewDecodeMetrics creates the decode metrics and registers them with reg.
func NewDecodeMetrics(reg prometheus.Registerer) *DecodeMetrics {
	factory := promauto.With(reg)

	return &DecodeMetrics{
		incarnationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wpilog_incarnations_total",
				Help: "Total number of channel incarnations opened",
			},
		),

		valuesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wpilog_values_total",
				Help: "Total number of values stored, by channel type",
			},
			[]string{"type"},
		),

		anomaliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wpilog_anomalies_total",
				Help: "Total number of non-fatal decoding anomalies",
			},
			[]string{"kind"},
		),

		bytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wpilog_bytes_total",
				Help: "Total number of log bytes decoded",
			},
		),

		loadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wpilog_loads_total",
				Help: "Total number of log loads",
			},
			[]string{"status"},
		),
	}
}

// Incarnation records a channel being opened.
func (m *DecodeMetrics) Incarnation() {
	m.incarnationsTotal.Inc()
}

// Value records a stored value of the given channel type.
func (m *DecodeMetrics) Value(typ string) {
	m.valuesTotal.WithLabelValues(typ).Inc()
}

// Anomaly records a non-fatal anomaly.
func (m *DecodeMetrics) Anomaly(kind string) {
	m.anomaliesTotal.WithLabelValues(kind).Inc()
}

// RecordLoad records a finished load and the bytes it consumed.
func (m *DecodeMetrics) RecordLoad(bytes int64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.loadsTotal.WithLabelValues(status).Inc()
	m.bytesTotal.Add(float64(bytes))
}
