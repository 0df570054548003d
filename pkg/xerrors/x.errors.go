package xerrors

import "errors"

import "github.com/jackc/pgx/v5/pgconn"

func ParsePGErrorCode(err error) string {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
)

// Users / credentials
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordNotSet     = errors.New("password not set")
	ErrPasswordAlreadySet = errors.New("password already set")
	ErrInvalidOldPassword = errors.New("invalid current password")
	ErrPasswordRequired   = errors.New("current password required")
)

// Step-up verification
var (
	ErrReauthRequired       = errors.New("re-authentication required")
	ErrInvalidOrExpiredTOTP = errors.New("invalid or expired totp code")
	ErrInvalidBackupCode    = errors.New("invalid backup code")
	Err2FANotEnabled        = errors.New("2FA not enabled for this method")
	ErrUnsupportedMethod    = errors.New("unsupported verification method")
	ErrMissingVerification  = errors.New("missing verification code")
)

// Sessions
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionRevoked  = errors.New("session revoked")
	ErrInvalidToken    = errors.New("invalid token")
)

// Social linking
var (
	ErrUnknownProvider       = errors.New("unknown provider")
	ErrProviderAlreadyLinked = errors.New("provider already linked to this account")
	ErrIdentityInUse         = errors.New("identity already linked to another account")
	ErrLastSignInMethod      = errors.New("cannot remove the last sign-in method")
	ErrLinkStateNotFound     = errors.New("link state expired or not found")
)

// Integrations
var (
	ErrInvalidApplePEM = errors.New("invalid PEM for Apple private key")
)
