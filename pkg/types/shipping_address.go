package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is the customer delivery address persisted as JSONB on
// orders and fulfillment snapshots.
type ShippingAddress struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name"`
	Address1   string `json:"address1" validate:"required"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone,omitempty"`
}

// FullName joins first and last name.
func (a ShippingAddress) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Validate checks the fields every supplier requires.
func (a ShippingAddress) Validate() error {
	missing := []string{}
	if strings.TrimSpace(a.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(a.Address1) == "" {
		missing = append(missing, "address1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		missing = append(missing, "postal_code")
	}
	if strings.TrimSpace(a.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return fmt.Errorf("shipping address: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Value marshals the address into JSON.
func (a ShippingAddress) Value() (driver.Value, error) {
	buf, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes JSONB into the address.
func (a *ShippingAddress) Scan(value any) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	var out ShippingAddress
	if err := scanJSON(value, &out, "shipping address"); err != nil {
		return err
	}
	*a = out
	return nil
}
