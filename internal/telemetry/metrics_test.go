package telemetry

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

var (
	sharedMetricsOnce sync.Once
	sharedMetrics     *Metrics
)

// testMetrics returns one Metrics shared by every test in the package.
// NewMetrics registers its collectors with the global Prometheus
// registry, which panics on a second registration of the same names;
// the tests keep their readings apart by session label instead.
func testMetrics() *Metrics {
	sharedMetricsOnce.Do(func() { sharedMetrics = NewMetrics() })
	return sharedMetrics
}

func gaugeValue(t *testing.T, g *prometheus.GaugeVec, session string) float64 {
	t.Helper()
	pb := &dto.Metric{}
	if err := g.WithLabelValues(session).Write(pb); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return pb.GetGauge().GetValue()
}

func TestObserveSetsAliveAndValidBits(t *testing.T) {
	m := testMetrics()

	m.Observe("s1", nil, nil, true, 24)

	if got := gaugeValue(t, m.alive, "s1"); got != 1 {
		t.Errorf("alive = %v, want 1", got)
	}
	if got := gaugeValue(t, m.validBits, "s1"); got != 24 {
		t.Errorf("validBits = %v, want 24", got)
	}
}

func TestObserveLeavesPositionAndPitchUnsetWhenNil(t *testing.T) {
	m := testMetrics()

	pos := int64(1000)
	pitch := float32(1.0)
	m.Observe("s2", &pos, &pitch, true, 30)
	if got := gaugeValue(t, m.position, "s2"); got != 1000 {
		t.Errorf("position = %v, want 1000", got)
	}
	if got := gaugeValue(t, m.pitch, "s2"); got != 1.0 {
		t.Errorf("pitch = %v, want 1.0", got)
	}

	m.Observe("s2", nil, nil, false, 0)
	if got := gaugeValue(t, m.position, "s2"); got != 1000 {
		t.Errorf("position = %v after nil observe, want unchanged 1000", got)
	}
	if got := gaugeValue(t, m.pitch, "s2"); got != 1.0 {
		t.Errorf("pitch = %v after nil observe, want unchanged 1.0", got)
	}
	if got := gaugeValue(t, m.alive, "s2"); got != 0 {
		t.Errorf("alive = %v, want 0", got)
	}
}
