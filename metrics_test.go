package qtensor

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given a backend that has done some work", t, func() {
		b := newTestBackend()
		state := applyAll(b, b.ZeroState(2), 2, H(0), CNOT(0, 1))
		_, err := b.CollapseState(NewMeasurement(0), state, 2)
		So(err, ShouldBeNil)
		_, err = b.SampleShots([]float64{0.5, 0.5}, 25)
		So(err, ShouldBeNil)

		Convey("When counting operations", func() {
			Convey("Then every call is recorded by name", func() {
				So(b.Metrics().Count("apply_gate"), ShouldEqual, int64(2))
				So(b.Metrics().Count("collapse_state"), ShouldEqual, int64(1))
				So(b.Metrics().Count("unknown"), ShouldEqual, int64(0))
			})
		})

		Convey("When exporting", func() {
			exported := b.Metrics().ExportMetrics()

			Convey("Then the counters are present", func() {
				So(exported, ShouldContainKey, "operations")
				So(exported, ShouldContainKey, "p99_latency")
				So(exported["collapses"], ShouldEqual, int64(1))
				So(exported["shots_sampled"], ShouldEqual, int64(26))
				So(exported["op_count"], ShouldBeGreaterThanOrEqualTo, int64(3))
			})
		})
	})

	Convey("Given a Prometheus registry", t, func() {
		b := newTestBackend()
		applyAll(b, b.ZeroState(1), 1, H(0))

		registry := prometheus.NewRegistry()
		So(registry.Register(b.Metrics()), ShouldBeNil)

		Convey("When gathering", func() {
			families, err := registry.Gather()
			So(err, ShouldBeNil)

			totals := make(map[string]float64)
			for _, family := range families {
				for _, metric := range family.GetMetric() {
					totals[family.GetName()] += metric.GetCounter().GetValue()
				}
			}

			Convey("Then the backend counters are exposed", func() {
				So(totals["qtensor_operations_total"], ShouldEqual, 1.0)
				So(totals, ShouldContainKey, "qtensor_shots_sampled_total")
				So(totals, ShouldContainKey, "qtensor_operation_latency_seconds")
			})
		})
	})

	Convey("Given fresh metrics", t, func() {
		m := NewMetrics()

		Convey("When nothing has been recorded", func() {
			avg, p95, p99 := m.Latency()

			Convey("Then every latency is zero", func() {
				So(avg, ShouldEqual, time.Duration(0))
				So(p95, ShouldEqual, time.Duration(0))
				So(p99, ShouldEqual, time.Duration(0))
			})
		})

		Convey("When a hundred latencies are recorded", func() {
			for i := 1; i <= 100; i++ {
				m.recordDuration("op", time.Duration(i)*time.Millisecond)
			}
			avg, p95, p99 := m.Latency()

			Convey("Then the percentiles are read from the sorted window", func() {
				So(avg, ShouldEqual, 50500*time.Microsecond)
				So(p95, ShouldEqual, 96*time.Millisecond)
				So(p99, ShouldEqual, 100*time.Millisecond)
			})
		})

		Convey("When more latencies are recorded than the window holds", func() {
			for i := 1; i <= 1200; i++ {
				m.recordDuration("op", time.Duration(i)*time.Millisecond)
			}
			_, p95, _ := m.Latency()

			Convey("Then only the most recent ones count", func() {
				So(len(m.latencies), ShouldEqual, latencyWindow)
				So(m.Count("op"), ShouldEqual, int64(1200))
				So(p95, ShouldEqual, 1151*time.Millisecond)
			})
		})

		Convey("When operations are timed from a start instant", func() {
			m.recordOperation("op", time.Now())

			Convey("Then they are counted", func() {
				So(m.Count("op"), ShouldEqual, int64(1))
			})
		})
	})
}
