package repository

import (
	"context"
	"fmt"
)

// UpdatePassword writes a new bcrypt hash. credential_history rows are
// appended by a DB trigger, not here.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no user updated for id %s", userID)
	}

	return nil
}
