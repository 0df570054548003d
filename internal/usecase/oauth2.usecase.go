package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"account-security-service/internal/config"
	"account-security-service/internal/domain"
	oauth2svc "account-security-service/internal/service/oauth2"
	"account-security-service/pkg/id"
	"account-security-service/pkg/utils"
	"account-security-service/pkg/xerrors"
)

const (
	linkStateNamespace = "oauth_link_state"
	linkStateTTL       = 10 * time.Minute
)

type LinkStore interface {
	CreateLinkedAccount(ctx context.Context, acc *domain.LinkedAccount) error
	FindByProviderUID(ctx context.Context, provider, providerUID string) (*domain.LinkedAccount, error)
	GetLinkedAccountsByUserID(ctx context.Context, userID string) ([]*domain.LinkedAccount, error)
	DeleteLinkedAccount(ctx context.Context, userID, provider string) error
}

// OAuth2Usecase drives the provider linking flow: issue an authorization
// URL bound to a nonce, then resolve the callback into a linked_accounts
// row for the user who started the flow.
type OAuth2Usecase struct {
	links     LinkStore
	users     UserStore
	cache     Cache
	providers *oauth2svc.Providers
	cfg       config.AppConfig
	sf        *id.Snowflake
}

func NewOAuth2Usecase(
	links LinkStore,
	users UserStore,
	cache Cache,
	providers *oauth2svc.Providers,
	cfg config.AppConfig,
	sf *id.Snowflake,
) *OAuth2Usecase {
	return &OAuth2Usecase{
		links:     links,
		users:     users,
		cache:     cache,
		providers: providers,
		cfg:       cfg,
		sf:        sf,
	}
}

// BeginLink stores a nonce-keyed state record and returns the provider
// authorization URL. The nonce travels as the oauth2 state parameter.
func (uc *OAuth2Usecase) BeginLink(ctx context.Context, userID, deviceID, provider string) (string, error) {
	if !domain.KnownProvider(provider) {
		return "", xerrors.ErrUnknownProvider
	}

	// Reject early if this account already carries the provider.
	existing, err := uc.links.GetLinkedAccountsByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, acc := range existing {
		if acc.Provider == provider {
			return "", xerrors.ErrProviderAlreadyLinked
		}
	}

	nonce, err := utils.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}

	state := domain.LinkState{
		UserID:    userID,
		DeviceID:  deviceID,
		Provider:  provider,
		CreatedAt: time.Now().Unix(),
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	if err := uc.cache.Set(ctx, linkStateNamespace, nonce, payload, linkStateTTL); err != nil {
		return "", fmt.Errorf("failed to store link state: %w", err)
	}

	url, err := uc.providers.AuthCodeURL(provider, nonce)
	if err != nil {
		return "", err
	}
	return url, nil
}

// takeLinkState consumes the nonce. Single use: the record is deleted
// before the state is returned, so a replayed callback fails.
func (uc *OAuth2Usecase) takeLinkState(ctx context.Context, nonce string) (*domain.LinkState, error) {
	raw, err := uc.cache.Get(ctx, linkStateNamespace, nonce)
	if err != nil {
		return nil, xerrors.ErrLinkStateNotFound
	}
	if err := uc.cache.Delete(ctx, linkStateNamespace, nonce); err != nil {
		log.Printf("[OAuth2] failed to delete link state %s: %v", nonce, err)
	}

	var state domain.LinkState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, xerrors.ErrLinkStateNotFound
	}
	return &state, nil
}

// CompleteLink exchanges the authorization code, resolves the provider
// identity, and records the link. Returns the state so the handler knows
// which user the flow belongs to.
func (uc *OAuth2Usecase) CompleteLink(ctx context.Context, provider, nonce, code string) (*domain.LinkState, *domain.LinkedAccount, error) {
	state, err := uc.takeLinkState(ctx, nonce)
	if err != nil {
		return nil, nil, err
	}
	if state.Provider != provider {
		return state, nil, xerrors.ErrLinkStateNotFound
	}

	conf, err := uc.providers.Config(provider)
	if err != nil {
		return state, nil, err
	}
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return state, nil, fmt.Errorf("code exchange failed: %w", err)
	}

	uid, email, err := uc.resolveIdentity(ctx, provider, token.AccessToken, extraString(token, "id_token"))
	if err != nil {
		return state, nil, err
	}

	// The same provider identity must not belong to two accounts.
	if existing, err := uc.links.FindByProviderUID(ctx, provider, uid); err != nil {
		return state, nil, err
	} else if existing != nil {
		if existing.UserID == state.UserID {
			return state, nil, xerrors.ErrProviderAlreadyLinked
		}
		return state, nil, xerrors.ErrIdentityInUse
	}

	acc := &domain.LinkedAccount{
		ID:          uc.sf.Generate(),
		UserID:      state.UserID,
		Provider:    provider,
		ProviderUID: uid,
	}
	if email != "" {
		acc.Email = &email
	}
	if token.AccessToken != "" {
		acc.AccessToken = &token.AccessToken
	}
	if token.RefreshToken != "" {
		acc.RefreshToken = &token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		acc.ExpiresAt = &expiry
	}
	if scope := extraString(token, "scope"); scope != "" {
		acc.Scope = &scope
	}

	if err := uc.links.CreateLinkedAccount(ctx, acc); err != nil {
		if xerrors.ParsePGErrorCode(errors.Unwrap(err)) == "23505" {
			return state, nil, xerrors.ErrIdentityInUse
		}
		return state, nil, err
	}

	return state, acc, nil
}

// resolveIdentity turns provider tokens into (stable uid, email).
func (uc *OAuth2Usecase) resolveIdentity(ctx context.Context, provider, accessToken, idToken string) (string, string, error) {
	switch provider {
	case domain.ProviderGoogle:
		if idToken == "" {
			return "", "", fmt.Errorf("google response missing id_token")
		}
		gu, err := oauth2svc.VerifyGoogleToken(ctx, idToken, uc.cfg.Google.ClientID)
		if err != nil {
			return "", "", err
		}
		return gu.Sub, gu.Email, nil

	case domain.ProviderApple:
		if idToken == "" {
			return "", "", fmt.Errorf("apple response missing id_token")
		}
		au, err := oauth2svc.VerifyAppleIDToken(ctx, idToken, uc.cfg.Apple.ServiceID)
		if err != nil {
			return "", "", err
		}
		return au.Sub, au.Email, nil

	case domain.ProviderGitHub:
		gh, err := oauth2svc.FetchGitHubUser(ctx, accessToken)
		if err != nil {
			return "", "", err
		}
		return gh.ID, gh.Email, nil
	}
	return "", "", xerrors.ErrUnknownProvider
}

// ListLinks returns the user's provider links.
func (uc *OAuth2Usecase) ListLinks(ctx context.Context, userID string) ([]*domain.LinkedAccount, error) {
	return uc.links.GetLinkedAccountsByUserID(ctx, userID)
}

// Unlink removes a provider link. A passwordless account may not drop
// its last link, that would lock the user out.
func (uc *OAuth2Usecase) Unlink(ctx context.Context, userID, provider string) error {
	if !domain.KnownProvider(provider) {
		return xerrors.ErrUnknownProvider
	}

	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasPassword() {
		links, err := uc.links.GetLinkedAccountsByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if len(links) <= 1 {
			return xerrors.ErrLastSignInMethod
		}
	}

	return uc.links.DeleteLinkedAccount(ctx, userID, provider)
}

func extraString(token interface{ Extra(string) interface{} }, key string) string {
	if v, ok := token.Extra(key).(string); ok {
		return v
	}
	return ""
}
