package usecase

import (
	"context"
	"time"

	"account-security-service/internal/domain"
	"account-security-service/pkg/id"
)

type UserStore interface {
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type SessionStore interface {
	GetSession(ctx context.Context, userID, deviceID string) (*domain.DeviceSession, error)
	TouchLastVerified(ctx context.Context, userID, deviceID string, at time.Time) error
	RevokeOtherSessions(ctx context.Context, userID, keepDeviceID string) (int64, error)
}

type FactorStore interface {
	GetFactor(ctx context.Context, userID, method string) (*domain.VerificationFactor, error)
	GetEnabledFactors(ctx context.Context, userID string) ([]*domain.VerificationFactor, error)
	VerifyAndConsumeBackupCode(ctx context.Context, factorID, code string) (bool, error)
}

// Cache is the subset of the redis cache util the usecases need.
type Cache interface {
	Set(ctx context.Context, namespace, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, namespace, key string) (string, error)
	Delete(ctx context.Context, namespace, key string) error
	GetTTL(ctx context.Context, namespace, key string) (time.Duration, error)
}

type UserUsecase struct {
	users    UserStore
	sessions SessionStore
	factors  FactorStore
	cache    Cache
	Sf       *id.Snowflake

	gracePeriod time.Duration
}

func NewUserUsecase(
	users UserStore,
	sessions SessionStore,
	factors FactorStore,
	cache Cache,
	sf *id.Snowflake,
	gracePeriod time.Duration,
) *UserUsecase {
	return &UserUsecase{
		users:       users,
		sessions:    sessions,
		factors:     factors,
		cache:       cache,
		Sf:          sf,
		gracePeriod: gracePeriod,
	}
}

func (uc *UserUsecase) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetUserByID(ctx, userID)
}

// RevokeOtherSessions deactivates every device session but the acting one.
func (uc *UserUsecase) RevokeOtherSessions(ctx context.Context, userID, keepDeviceID string) (int64, error) {
	return uc.sessions.RevokeOtherSessions(ctx, userID, keepDeviceID)
}
