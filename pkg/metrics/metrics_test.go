package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "skillswap")
				So(manager.subsystem, ShouldEqual, "recommendations")
				So(manager.enabled, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("engine"),
				WithHistogramBuckets([]float64{1, 2}),
				WithMetricsEnabled(false),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "engine")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 2})
				So(manager.enabled, ShouldBeFalse)
			})
		})

		Convey("When empty values are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "skillswap")
				So(manager.subsystem, ShouldEqual, "recommendations")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})

		Convey("When buckets are not strictly increasing", func() {
			manager := NewManager(
				WithHistogramBuckets([]float64{5, 5, 10}),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the default buckets are kept", func() {
				So(manager.histogramBuckets[0], ShouldEqual, 0.5)
			})
		})

		Convey("When valid buckets are passed", func() {
			manager := NewManager(
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then they replace the defaults", func() {
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 10, 100})
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording engine metrics", func() {
			before := testutil.ToFloat64(globalManager.recommendationsServed.WithLabelValues("offering"))
			RecordRecommendationServed("offering")
			RecordCandidatesScored(3)
			RecordCandidatesScored(0)
			RecordRecommendationEmpty()
			RecordTrendingServed()
			RecordEngineLatency("recommend", 1.5)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.recommendationsServed.WithLabelValues("offering")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.candidatesScored), ShouldBeGreaterThanOrEqualTo, 3)
				So(testutil.ToFloat64(globalManager.recommendationsEmpty), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.trendingServed), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording provider and breaker metrics", func() {
			RecordProviderError("candidates")
			RecordProviderLatency("candidates", 4)
			UpdateBreakerState("facts", 2)
			RecordBreakerTransition("facts", "closed", "open")

			Convey("Then they are exposed", func() {
				So(testutil.ToFloat64(globalManager.breakerState.WithLabelValues("facts")), ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.providerErrors.WithLabelValues("candidates")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.breakerChanges.WithLabelValues("facts", "closed", "open")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When updating process and store gauges", func() {
			UpdateSystemMemoryUsage(4096)
			UpdateSystemGoroutineCount(12)
			UpdateStoreRecords("users", 3)

			Convey("Then the gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.systemMemoryUsage), ShouldEqual, 4096)
				So(testutil.ToFloat64(globalManager.systemGoroutines), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.storeRecords.WithLabelValues("users")), ShouldEqual, 3)
			})
		})

		Convey("When recording HTTP metrics", func() {
			RecordHTTPRequest("/api/v1/recommendations/trending", "GET", "200")
			RecordHTTPRequestDuration("/api/v1/recommendations/trending", "GET", "200", 12)
			RecordErrorByEndpoint("/api/v1/recommendations/{userId}", "GET", "forbidden")

			Convey("Then the registry gathers them under the service namespace", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				joined := strings.Join(names, ",")
				So(joined, ShouldContainSubstring, "skillswap_recommendations_http_requests_total")
				So(joined, ShouldContainSubstring, "skillswap_recommendations_errors_by_endpoint_total")
			})
		})
	})
}

func TestMetricsDisabled(t *testing.T) {
	Convey("Given a disabled global manager", t, func() {
		saved := globalManager
		globalManager = NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
		defer func() { globalManager = saved }()

		RecordTrendingServed()

		Convey("Then recorders are no-ops", func() {
			So(testutil.ToFloat64(globalManager.trendingServed), ShouldEqual, 0)
		})
	})
}
