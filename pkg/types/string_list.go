package types

import (
	"database/sql/driver"
	"encoding/json"
)

// StringList is a JSON encoded list of strings. It replaces text[] so the same
// models work against Postgres and SQLite.
type StringList []string

// Value marshals the list into JSON.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	buf, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes a JSON array.
func (s *StringList) Scan(value any) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	out := []string{}
	if err := scanJSON(value, &out, "string list"); err != nil {
		return err
	}
	*s = out
	return nil
}

// JSONMap stores free-form attributes as a JSON object.
type JSONMap map[string]any

// Value marshals the map into JSON.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	buf, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes a JSON object.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	out := map[string]any{}
	if err := scanJSON(value, &out, "json map"); err != nil {
		return err
	}
	*m = out
	return nil
}
