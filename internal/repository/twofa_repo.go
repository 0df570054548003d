package repository

import (
	"context"
	"errors"
	"fmt"

	"account-security-service/internal/domain"
	"account-security-service/pkg/utils"
	"account-security-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
)

// ================================
// VERIFICATION FACTOR OPERATIONS
// ================================

// GetFactor fetches a user's factor for a method. ErrNotFound when absent.
func (r *UserRepository) GetFactor(ctx context.Context, userID, method string) (*domain.VerificationFactor, error) {
	query := `
		SELECT id, user_id, method, secret, is_enabled, created_at
		FROM verification_factors
		WHERE user_id = $1 AND method = $2
		LIMIT 1
	`

	f := &domain.VerificationFactor{}
	err := r.db.QueryRow(ctx, query, userID, method).Scan(
		&f.ID,
		&f.UserID,
		&f.Method,
		&f.Secret,
		&f.IsEnabled,
		&f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get factor: %w", err)
	}

	return f, nil
}

// GetEnabledFactors lists enabled factors for a user.
func (r *UserRepository) GetEnabledFactors(ctx context.Context, userID string) ([]*domain.VerificationFactor, error) {
	query := `
		SELECT id, user_id, method, secret, is_enabled, created_at
		FROM verification_factors
		WHERE user_id = $1 AND is_enabled = TRUE
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list factors: %w", err)
	}
	defer rows.Close()

	var factors []*domain.VerificationFactor
	for rows.Next() {
		f := &domain.VerificationFactor{}
		if err := rows.Scan(&f.ID, &f.UserID, &f.Method, &f.Secret, &f.IsEnabled, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan factor: %w", err)
		}
		factors = append(factors, f)
	}

	return factors, rows.Err()
}

// VerifyAndConsumeBackupCode checks the plaintext code against the unused
// hashes for a factor and marks the match used. Single-use.
func (r *UserRepository) VerifyAndConsumeBackupCode(ctx context.Context, factorID, code string) (bool, error) {
	query := `
		SELECT code_hash
		FROM factor_backup_codes
		WHERE factor_id = $1 AND used_at IS NULL
	`

	rows, err := r.db.Query(ctx, query, factorID)
	if err != nil {
		return false, fmt.Errorf("failed to load backup codes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return false, fmt.Errorf("failed to scan backup code: %w", err)
		}
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	for _, h := range hashes {
		if utils.CheckPasswordHash(code, h) {
			consume := `
				UPDATE factor_backup_codes
				SET used_at = NOW()
				WHERE factor_id = $1 AND code_hash = $2 AND used_at IS NULL
			`
			if _, err := r.db.Exec(ctx, consume, factorID, h); err != nil {
				return false, fmt.Errorf("failed to consume backup code: %w", err)
			}
			return true, nil
		}
	}

	return false, nil
}
