package enums

import "fmt"

// CommunicationChannel is the channel recorded on a communication log entry.
type CommunicationChannel string

const (
	CommunicationChannelSMS      CommunicationChannel = "sms"
	CommunicationChannelEmail    CommunicationChannel = "email"
	CommunicationChannelInternal CommunicationChannel = "internal"
)

var validCommunicationChannels = []CommunicationChannel{
	CommunicationChannelSMS,
	CommunicationChannelEmail,
	CommunicationChannelInternal,
}

// String implements fmt.Stringer.
func (v CommunicationChannel) String() string {
	return string(v)
}

// IsValid reports whether the value is a known CommunicationChannel.
func (v CommunicationChannel) IsValid() bool {
	for _, candidate := range validCommunicationChannels {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseCommunicationChannel converts raw input into a CommunicationChannel.
func ParseCommunicationChannel(value string) (CommunicationChannel, error) {
	for _, candidate := range validCommunicationChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid communication channel %q", value)
}
