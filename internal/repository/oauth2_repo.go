package repository

import (
	"context"
	"errors"
	"fmt"

	"account-security-service/internal/domain"
	"account-security-service/pkg/xerrors"

	"github.com/jackc/pgx/v5"
)

// ================================
// LINKED ACCOUNT OPERATIONS
// ================================

// CreateLinkedAccount creates a new provider account link.
func (r *UserRepository) CreateLinkedAccount(ctx context.Context, acc *domain.LinkedAccount) error {
	query := `
		INSERT INTO linked_accounts (
			id, user_id, provider, provider_uid, email, access_token,
			refresh_token, expires_at, scope, linked_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`

	_, err := r.db.Exec(ctx, query,
		acc.ID,
		acc.UserID,
		acc.Provider,
		acc.ProviderUID,
		acc.Email,
		acc.AccessToken,
		acc.RefreshToken,
		acc.ExpiresAt,
		acc.Scope,
	)
	if err != nil {
		return fmt.Errorf("failed to create linked account: %w", err)
	}

	return nil
}

// FindByProviderUID finds a link by provider and provider user ID.
// Not found is returned as (nil, nil).
func (r *UserRepository) FindByProviderUID(ctx context.Context, provider, providerUID string) (*domain.LinkedAccount, error) {
	query := `
		SELECT
			id, user_id, provider, provider_uid, email, access_token,
			refresh_token, expires_at, scope, linked_at, updated_at
		FROM linked_accounts
		WHERE provider = $1 AND provider_uid = $2
		LIMIT 1
	`

	acc := &domain.LinkedAccount{}
	err := r.db.QueryRow(ctx, query, provider, providerUID).Scan(
		&acc.ID,
		&acc.UserID,
		&acc.Provider,
		&acc.ProviderUID,
		&acc.Email,
		&acc.AccessToken,
		&acc.RefreshToken,
		&acc.ExpiresAt,
		&acc.Scope,
		&acc.LinkedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find linked account: %w", err)
	}

	return acc, nil
}

// GetLinkedAccountsByUserID retrieves all provider links for a user.
func (r *UserRepository) GetLinkedAccountsByUserID(ctx context.Context, userID string) ([]*domain.LinkedAccount, error) {
	query := `
		SELECT
			id, user_id, provider, provider_uid, email, access_token,
			refresh_token, expires_at, scope, linked_at, updated_at
		FROM linked_accounts
		WHERE user_id = $1
		ORDER BY linked_at
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.LinkedAccount
	for rows.Next() {
		acc := &domain.LinkedAccount{}
		if err := rows.Scan(
			&acc.ID,
			&acc.UserID,
			&acc.Provider,
			&acc.ProviderUID,
			&acc.Email,
			&acc.AccessToken,
			&acc.RefreshToken,
			&acc.ExpiresAt,
			&acc.Scope,
			&acc.LinkedAt,
			&acc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan linked account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	return accounts, rows.Err()
}

// DeleteLinkedAccount removes a provider link for a user.
func (r *UserRepository) DeleteLinkedAccount(ctx context.Context, userID, provider string) error {
	query := `DELETE FROM linked_accounts WHERE user_id = $1 AND provider = $2`

	tag, err := r.db.Exec(ctx, query, userID, provider)
	if err != nil {
		return fmt.Errorf("failed to delete linked account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}
