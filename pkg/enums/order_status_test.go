package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		ok   bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPaid, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusShipped, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusPaid, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform("zendrop")
	require.NoError(t, err)
	assert.Equal(t, PlatformZendrop, p)
	assert.True(t, p.IsVendor())
	assert.False(t, PlatformLocal.IsVendor())
	assert.True(t, PlatformAppScenic.CanBeActive())
	assert.False(t, PlatformCJ.CanBeActive())

	_, err = ParsePlatform("shopify")
	require.Error(t, err)
	assert.Len(t, Platforms(), 4)
}

func TestCarrierDisplayName(t *testing.T) {
	assert.Equal(t, "SMSA Express", CarrierSMSA.DisplayName())
	assert.Equal(t, "custom", Carrier("custom").DisplayName())
	assert.Len(t, Carriers(), 9)
}
