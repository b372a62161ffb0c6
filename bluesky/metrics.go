package bluesky

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bskyrss_upstream_requests_total",
		Help: "The total number of XRPC calls made to the AppView",
	}, []string{"method", "outcome"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bskyrss_upstream_request_duration_seconds",
		Help:    "Duration of XRPC calls made to the AppView",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // Start at 10ms, double each bucket, 10 buckets
	}, []string{"method"})
)

func observe(method string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	upstreamRequests.WithLabelValues(method, outcome).Inc()
	upstreamDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
