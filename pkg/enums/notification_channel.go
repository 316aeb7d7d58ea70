package enums

import "fmt"

// NotificationChannel selects where a template is delivered.
type NotificationChannel string

const (
	NotificationChannelSMS   NotificationChannel = "sms"
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelBoth  NotificationChannel = "both"
)

var validNotificationChannels = []NotificationChannel{
	NotificationChannelSMS,
	NotificationChannelEmail,
	NotificationChannelBoth,
}

// String implements fmt.Stringer.
func (v NotificationChannel) String() string {
	return string(v)
}

// IsValid reports whether the value is a known NotificationChannel.
func (v NotificationChannel) IsValid() bool {
	for _, candidate := range validNotificationChannels {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseNotificationChannel converts raw input into a NotificationChannel.
func ParseNotificationChannel(value string) (NotificationChannel, error) {
	for _, candidate := range validNotificationChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification channel %q", value)
}
