package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func value(m prometheus.Metric) float64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		return -1
	}
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	return -1
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "udrf")
				So(manager.subsystem, ShouldEqual, "engine")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "udrf")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When review mutations are recorded", func() {
			before := value(globalManager.reviewMutations.WithLabelValues("review.lock", "ok"))
			RecordReviewMutation("review.lock", "ok")
			RecordReviewMutation("review.lock", "ok")

			Convey("Then the labelled counter grows", func() {
				after := value(globalManager.reviewMutations.WithLabelValues("review.lock", "ok"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateQueueSize(12)
			UpdateCacheSize(40)
			UpdateReviewsTotal(7)
			UpdateSystemGoroutineCount(9)
			UpdateSystemMemoryUsage(1024)

			Convey("Then they hold the last value", func() {
				So(value(globalManager.queueSize), ShouldEqual, 12)
				So(value(globalManager.cacheSize), ShouldEqual, 40)
				So(value(globalManager.reviewsTotal), ShouldEqual, 7)
				So(value(globalManager.goroutineCount), ShouldEqual, 9)
				So(value(globalManager.memoryUsage), ShouldEqual, 1024)
			})
		})

		Convey("When every recorder is called", func() {
			So(func() {
				RecordScoreComputed()
				RecordScoringLatency(1.5)
				RecordScoringError()
				RecordCacheHit()
				RecordCacheMiss()
				RecordLockConflict()
				RecordDuplicateRequest()
				RecordRanking(25)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.12)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(1)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordHTTPRequest("/rankings", "GET", "200")
				RecordHTTPRequestDuration("/rankings", "GET", "200", 4.2)
				RecordError("review", "conflict")
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("Then the registry gathers the service metrics", func() {
			RecordScoreComputed()
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			names := make(map[string]bool)
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["udrf_engine_scores_computed_total"], ShouldBeTrue)
			So(names["udrf_engine_review_mutations_total"], ShouldBeTrue)
		})
	})
}
