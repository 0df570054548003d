package domain

import "time"

const (
	MethodTOTP       = "totp"
	MethodBackupCode = "backup_code"
	MethodPassword   = "password"
)

// VerificationFactor is a registered second-authentication method.
// Secret holds the base32 TOTP seed for method "totp".
type VerificationFactor struct {
	ID        string
	UserID    string
	Method    string
	Secret    string
	IsEnabled bool
	CreatedAt time.Time
}

type BackupCode struct {
	FactorID string
	CodeHash string
	UsedAt   *time.Time
}
