package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VendorMetrics counts outbound supplier and provider API calls.
type VendorMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewVendorMetrics(reg prometheus.Registerer) *VendorMetrics {
	if reg == nil {
		return &VendorMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_requests_total",
		Help:      "Outbound vendor API requests by outcome.",
	}, []string{"vendor", "operation", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "vendor_request_duration_seconds",
		Help:      "Latency of outbound vendor API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"vendor", "operation"})
	reg.MustRegister(requests, latency)
	return &VendorMetrics{requests: requests, latency: latency}
}

// Observe records one call. A nil receiver is a no-op so clients can be built without metrics.
func (v *VendorMetrics) Observe(vendor, operation string, started time.Time, err error) {
	if v == nil || v.requests == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	vendor = normalizeLabel(vendor)
	operation = normalizeLabel(operation)
	v.requests.WithLabelValues(vendor, operation, outcome).Inc()
	v.latency.WithLabelValues(vendor, operation).Observe(time.Since(started).Seconds())
}
