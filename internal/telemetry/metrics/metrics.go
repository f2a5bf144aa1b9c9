// Package metrics registers the prometheus collectors exported by teamdash.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pomerium/teamdash/internal/tripper"
)

const namespace = "teamdash"

// Sign-in results.
const (
	SignInSuccess  = "success"
	SignInFallback = "fallback"
	SignInRejected = "rejected"
	SignInNetwork  = "network_error"
	SignInFailed   = "error"
)

var (
	registry = prometheus.NewRegistry()

	gateUnauthorized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gate",
		Name:      "unauthorized_total",
		Help:      "Number of outbound responses rejected with 401 Unauthorized.",
	})
	signIns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_in_total",
		Help:      "Number of sign-in attempts by result.",
	}, []string{"result"})
	directoryFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "directory",
		Name:      "fallback_total",
		Help:      "Number of directory fetches served from local content.",
	})
	httpClientRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http_client",
		Name:      "requests_total",
		Help:      "Number of outbound HTTP requests by client and status code.",
	}, []string{"client", "code"})
	httpClientDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http_client",
		Name:      "request_duration_seconds",
		Help:      "Latency of outbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"client"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		gateUnauthorized,
		signIns,
		directoryFallbacks,
		httpClientRequests,
		httpClientDuration,
	)
}

// Handler returns an http handler exposing the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// RecordGateUnauthorized counts a 401 observed by the request gate.
func RecordGateUnauthorized() {
	gateUnauthorized.Inc()
}

// RecordSignIn counts a sign-in attempt.
func RecordSignIn(result string) {
	signIns.WithLabelValues(result).Inc()
}

// RecordDirectoryFallback counts a directory fetch that fell back to local content.
func RecordDirectoryFallback() {
	directoryFallbacks.Inc()
}

// HTTPMetricsRoundTripper returns a middleware that records request counts
// and latency for the named client. Transport failures are recorded with
// the code "error".
func HTTPMetricsRoundTripper(client string) tripper.Constructor {
	return func(next http.RoundTripper) http.RoundTripper {
		return tripper.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			res, err := next.RoundTrip(req)
			httpClientDuration.WithLabelValues(client).Observe(time.Since(start).Seconds())
			code := "error"
			if err == nil {
				code = strconv.Itoa(res.StatusCode)
			}
			httpClientRequests.WithLabelValues(client, code).Inc()
			return res, err
		})
	}
}
