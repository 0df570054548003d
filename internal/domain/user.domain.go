package domain

import "time"

type User struct {
	ID              string
	Email           *string
	PasswordHash    *string
	IsEmailVerified bool
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// HasPassword reports whether a local credential exists. Social-only
// accounts carry a NULL hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
