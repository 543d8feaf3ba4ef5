// Package telemetry exports decoder state to Prometheus and, optionally,
// publishes resolved positions and pitch readings to an MQTT broker.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors a decode session updates on
// every polling tick.
type Metrics struct {
	position  *prometheus.GaugeVec
	pitch     *prometheus.GaugeVec
	alive     *prometheus.GaugeVec
	validBits *prometheus.GaugeVec
}

// NewMetrics creates and registers the decoder's Prometheus collectors,
// labeled by session so several decoders can share one registry.
func NewMetrics() *Metrics {
	return &Metrics{
		position: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "timecoder_position_samples",
				Help: "Resolved position on the control record, as a wave-cycle index counted from the record's zero mark.",
			},
			[]string{"session"},
		),
		pitch: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "timecoder_pitch_ratio",
				Help: "Estimated playback speed relative to nominal (1.0 = nominal, negative = reverse).",
			},
			[]string{"session"},
		),
		alive: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "timecoder_signal_alive",
				Help: "1 if the decoder currently sees a signal above the liveness threshold, else 0.",
			},
			[]string{"session"},
		),
		validBits: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "timecoder_valid_bits",
				Help: "Consecutive bits read that matched the variant's LFSR prediction, stepped forward or in reverse with the playback direction.",
			},
			[]string{"session"},
		),
	}
}

// Observe records a single polling snapshot for the given session label.
// pos and pitch may be nil when the corresponding reading is not
// currently available; the gauge is left at its last value in that case.
func (m *Metrics) Observe(session string, positionSamples *int64, pitch *float32, alive bool, validBits int) {
	aliveValue := 0.0
	if alive {
		aliveValue = 1.0
	}
	m.alive.WithLabelValues(session).Set(aliveValue)
	m.validBits.WithLabelValues(session).Set(float64(validBits))

	if positionSamples != nil {
		m.position.WithLabelValues(session).Set(float64(*positionSamples))
	}
	if pitch != nil {
		m.pitch.WithLabelValues(session).Set(float64(*pitch))
	}
}
