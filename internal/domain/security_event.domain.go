package domain

import "time"

const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

const (
	EventPasswordChanged    = "PASSWORD_CHANGED"
	EventPasswordSet        = "PASSWORD_SET"
	EventStepUpChallenged   = "STEPUP_CHALLENGED"
	EventStepUpVerified     = "STEPUP_VERIFIED"
	EventStepUpFailed       = "STEPUP_FAILED"
	EventProviderLinked     = "PROVIDER_LINKED"
	EventProviderUnlinked   = "PROVIDER_UNLINKED"
	EventProviderLinkFailed = "PROVIDER_LINK_FAILED"
)

type SecurityEvent struct {
	ID        string
	UserID    string
	DeviceID  *string
	EventType string
	Severity  string
	IPAddress *string
	UserAgent *string
	Metadata  map[string]string
	CreatedAt time.Time
}
