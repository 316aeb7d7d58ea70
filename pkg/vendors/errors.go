// Package vendors holds the plumbing shared by the supplier API clients.
package vendors

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
)

// ErrMissingCredentials is returned when a client is built without its API key.
var ErrMissingCredentials = errors.New("vendor credentials are required")

// APIError describes a non-success answer from a supplier API.
type APIError struct {
	Vendor     string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return fmt.Sprintf("%s request failed: status %d", e.Vendor, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed: status %d: %s", e.Vendor, e.StatusCode, msg)
}

// NewAPIError wraps an APIError in a dependency error so handlers map it to 503.
func NewAPIError(vendor string, statusCode int, message string) error {
	apiErr := &APIError{Vendor: vendor, StatusCode: statusCode, Message: strings.TrimSpace(message)}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, apiErr, apiErr.Error())
}

// AsAPIError extracts the APIError from err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Message returns the most useful human readable text carried by err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}
