package domain

import "time"

const (
	ProviderGoogle = "google"
	ProviderApple  = "apple"
	ProviderGitHub = "github"
)

func KnownProvider(p string) bool {
	switch p {
	case ProviderGoogle, ProviderApple, ProviderGitHub:
		return true
	}
	return false
}

// LinkedAccount ties a provider identity to a local user.
type LinkedAccount struct {
	ID           string
	UserID       string
	Provider     string
	ProviderUID  string
	Email        *string
	AccessToken  *string
	RefreshToken *string
	ExpiresAt    *time.Time
	Scope        *string
	LinkedAt     time.Time
	UpdatedAt    *time.Time
}

// LinkState is the short-lived nonce payload stored in redis between
// the connect call and the provider callback.
type LinkState struct {
	UserID    string `json:"user_id"`
	DeviceID  string `json:"device_id"`
	Provider  string `json:"provider"`
	CreatedAt int64  `json:"created_at"`
}
