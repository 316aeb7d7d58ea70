package enums

import "fmt"

type CommunicationStatus string

const (
	CommunicationStatusQueued    CommunicationStatus = "queued"
	CommunicationStatusSent      CommunicationStatus = "sent"
	CommunicationStatusDelivered CommunicationStatus = "delivered"
	CommunicationStatusFailed    CommunicationStatus = "failed"
)

var validCommunicationStatuses = []CommunicationStatus{
	CommunicationStatusQueued,
	CommunicationStatusSent,
	CommunicationStatusDelivered,
	CommunicationStatusFailed,
}

// String implements fmt.Stringer.
func (v CommunicationStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CommunicationStatus.
func (v CommunicationStatus) IsValid() bool {
	for _, candidate := range validCommunicationStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCommunicationStatus converts raw input into a CommunicationStatus.
func ParseCommunicationStatus(value string) (CommunicationStatus, error) {
	for _, candidate := range validCommunicationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid communication status %q", value)
}
