package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendorMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewVendorMetrics(reg)

	m.Observe("cj", "create_order", time.Now().Add(-time.Second), nil)
	m.Observe("cj", "create_order", time.Now(), errors.New("boom"))
	m.Observe("zendrop", "", time.Now(), nil)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "dropship_vendor_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			key := ""
			for _, l := range metric.GetLabel() {
				key += l.GetName() + "=" + l.GetValue() + ";"
			}
			counts[key] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, counts["operation=create_order;outcome=success;vendor=cj;"])
	assert.Equal(t, 1.0, counts["operation=create_order;outcome=error;vendor=cj;"])
	assert.Equal(t, 1.0, counts["operation=unknown;outcome=success;vendor=zendrop;"])

	sum := histogramSum(t, mfs, "dropship_vendor_request_duration_seconds", "vendor", "cj")
	assert.Greater(t, sum, 0.0)
}

func TestVendorMetricsNilSafe(t *testing.T) {
	var m *VendorMetrics
	m.Observe("cj", "x", time.Now(), nil)
	NewVendorMetrics(nil).Observe("cj", "x", time.Now(), nil)
}
