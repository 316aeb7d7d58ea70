package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
)

// ParseQueryInt reads an integer query parameter within [min, max].
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a whole number", key).
			WithDetails(map[string]string{key: "must be a whole number"})
	}
	if v < min || v > max {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be between %d and %d", key, min, max).
			WithDetails(map[string]any{key: "out of range", "min": min, "max": max})
	}
	return v, nil
}

// ParseQueryBool returns nil when key is absent so callers can tell "not
// filtered" from false.
func ParseQueryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be true or false", key).
			WithDetails(map[string]string{key: "must be true or false"})
	}
	return &v, nil
}
