package enums

import "fmt"

// NotificationSeverity classifies transient user-facing messages.
type NotificationSeverity string

const (
	NotificationSeveritySuccess NotificationSeverity = "success"
	NotificationSeverityError   NotificationSeverity = "error"
	NotificationSeverityInfo    NotificationSeverity = "info"
)

var validNotificationSeverities = []NotificationSeverity{
	NotificationSeveritySuccess,
	NotificationSeverityError,
	NotificationSeverityInfo,
}

// IsValid checks whether the severity matches the canonical enum.
func (s NotificationSeverity) IsValid() bool {
	for _, candidate := range validNotificationSeverities {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseNotificationSeverity converts raw strings into NotificationSeverity.
func ParseNotificationSeverity(value string) (NotificationSeverity, error) {
	for _, candidate := range validNotificationSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification severity %q", value)
}
