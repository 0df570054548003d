// usecase/credential_usecase.go
package usecase

import (
	"context"
	"fmt"

	"account-security-service/pkg/utils"
	"account-security-service/pkg/xerrors"
)

// ============================================
// PASSWORD MANAGEMENT
// ============================================

// UpdatePassword updates a user's password with validation.
func (uc *UserUsecase) UpdatePassword(ctx context.Context, userID, newPassword string, requireOld bool, oldPassword string) error {
	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	// If old password required (for password change vs reset)
	if requireOld {
		if !user.HasPassword() {
			return xerrors.ErrPasswordNotSet
		}
		if !utils.CheckPasswordHash(oldPassword, *user.PasswordHash) {
			return xerrors.ErrInvalidOldPassword
		}
	}

	// Validate new password
	if valid, err := utils.ValidatePassword(newPassword); !valid {
		return err
	}

	// Hash new password
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Update password (credential_history is appended by a DB trigger)
	return uc.users.UpdatePassword(ctx, userID, hash)
}

// ChangePassword is a convenience method for password changes (requires old password).
func (uc *UserUsecase) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	return uc.UpdatePassword(ctx, userID, newPassword, true, oldPassword)
}

// SetInitialPassword sets a password for accounts that don't have one (e.g., social accounts).
func (uc *UserUsecase) SetInitialPassword(ctx context.Context, userID, password string) error {
	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	if user.HasPassword() {
		return xerrors.ErrPasswordAlreadySet
	}

	if valid, err := utils.ValidatePassword(password); !valid {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return uc.users.UpdatePassword(ctx, userID, hash)
}
