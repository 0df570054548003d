package domain

import "time"

// DeviceSession is one signed-in device. LastVerifiedAt drives the
// step-up grace window: a session verified within the window may perform
// sensitive actions without a fresh challenge.
type DeviceSession struct {
	ID             string
	UserID         string
	DeviceID       string
	IPAddress      *string
	UserAgent      *string
	LastVerifiedAt *time.Time
	IsActive       bool
	CreatedAt      time.Time
}
