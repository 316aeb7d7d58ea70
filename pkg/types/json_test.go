package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippingAddressValidate(t *testing.T) {
	addr := ShippingAddress{FirstName: "Sara", Address1: "1 Main St", City: "Riyadh", PostalCode: "12211", Country: "SA"}
	require.NoError(t, addr.Validate())
	assert.Equal(t, "Sara", addr.FullName())

	err := ShippingAddress{FirstName: "Sara"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address1, city, postal_code, country")
}

func TestShippingAddressScanAcceptsBytesAndNil(t *testing.T) {
	var addr ShippingAddress
	require.NoError(t, addr.Scan([]byte(`{"first_name":"Omar","city":"Jeddah"}`)))
	assert.Equal(t, "Omar", addr.FirstName)
	assert.Equal(t, "Jeddah", addr.City)

	require.NoError(t, addr.Scan(nil))
	assert.Equal(t, ShippingAddress{}, addr)

	assert.Error(t, addr.Scan(42))
}

func TestStringListNilValue(t *testing.T) {
	var list StringList
	v, err := list.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	require.NoError(t, list.Scan(`["a","b"]`))
	assert.Equal(t, StringList{"a", "b"}, list)
}
