// Step-up verification gate for sensitive account actions.
//
// A device session that verified recently (password, TOTP or backup code)
// sits inside the grace window and may act without a fresh challenge.
// Outside the window the caller gets a challenge naming the methods it can
// satisfy. The redis marker is the fast path; last_verified_at on the
// session row is authoritative when redis has no answer.
package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"account-security-service/internal/domain"
	"account-security-service/pkg/utils"
	"account-security-service/pkg/xerrors"

	"github.com/pquerna/otp/totp"
)

const stepUpNamespace = "stepup_verified"

type StepUpState int

const (
	// StepUpSatisfied: inside the grace window, proceed.
	StepUpSatisfied StepUpState = iota
	// StepUpChallenge: caller must verify through one of Methods first.
	StepUpChallenge
	// StepUpDenied: no verification method available; a fresh login is
	// the only way forward.
	StepUpDenied
)

type StepUpDecision struct {
	State     StepUpState
	FactorID  string
	Methods   []string
	ExpiresAt time.Time // only set when satisfied
}

func stepUpKey(userID, deviceID string) string {
	return userID + ":" + deviceID
}

// EvaluateStepUp decides whether (user, device) may perform a sensitive
// action right now.
func (uc *UserUsecase) EvaluateStepUp(ctx context.Context, userID, deviceID string) (*StepUpDecision, error) {
	now := time.Now()

	// Fast path: redis marker with the grace window as TTL.
	if ttl, err := uc.cache.GetTTL(ctx, stepUpNamespace, stepUpKey(userID, deviceID)); err == nil && ttl > 0 {
		return &StepUpDecision{State: StepUpSatisfied, ExpiresAt: now.Add(ttl)}, nil
	}

	// Authoritative fallback: the session row. Redis loss must never
	// widen the gate, only this check can re-open it.
	sess, err := uc.sessions.GetSession(ctx, userID, deviceID)
	if err != nil {
		return nil, err
	}
	if sess.LastVerifiedAt != nil {
		expires := sess.LastVerifiedAt.Add(uc.gracePeriod)
		if now.Before(expires) {
			// Re-seed the marker with the remaining window.
			if err := uc.cache.Set(ctx, stepUpNamespace, stepUpKey(userID, deviceID), "1", expires.Sub(now)); err != nil {
				log.Printf("[StepUp] failed to re-seed grace marker for user %s: %v", userID, err)
			}
			return &StepUpDecision{State: StepUpSatisfied, ExpiresAt: expires}, nil
		}
	}

	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	factors, err := uc.factors.GetEnabledFactors(ctx, userID)
	if err != nil {
		return nil, err
	}

	return buildChallenge(user, factors), nil
}

// buildChallenge maps the account's credentials onto a challenge.
func buildChallenge(user *domain.User, factors []*domain.VerificationFactor) *StepUpDecision {
	var methods []string
	var factorID string

	for _, f := range factors {
		if f.Method == domain.MethodTOTP {
			if factorID == "" {
				factorID = f.ID
			}
			methods = append(methods, domain.MethodTOTP, domain.MethodBackupCode)
		}
	}
	if user.HasPassword() {
		methods = append(methods, domain.MethodPassword)
	}

	if len(methods) == 0 {
		return &StepUpDecision{State: StepUpDenied}
	}

	return &StepUpDecision{
		State:    StepUpChallenge,
		FactorID: factorID,
		Methods:  methods,
	}
}

// HasSecondFactor reports whether the user carries an enabled TOTP factor.
func (uc *UserUsecase) HasSecondFactor(ctx context.Context, userID string) (bool, *domain.VerificationFactor, error) {
	factor, err := uc.factors.GetFactor(ctx, userID, domain.MethodTOTP)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}
	if !factor.IsEnabled {
		return false, nil, nil
	}
	return true, factor, nil
}

// VerifyStepUp checks the supplied proof and, on success, opens the grace
// window for this device.
func (uc *UserUsecase) VerifyStepUp(
	ctx context.Context,
	userID, deviceID string,
	method, code, backupCode, password string,
) (time.Time, error) {
	switch method {
	case domain.MethodTOTP:
		if code == "" {
			return time.Time{}, xerrors.ErrMissingVerification
		}
		factor, err := uc.factors.GetFactor(ctx, userID, domain.MethodTOTP)
		if err != nil {
			if errors.Is(err, xerrors.ErrNotFound) {
				return time.Time{}, xerrors.Err2FANotEnabled
			}
			return time.Time{}, err
		}
		if !factor.IsEnabled {
			return time.Time{}, xerrors.Err2FANotEnabled
		}
		if !totp.Validate(code, factor.Secret) {
			return time.Time{}, xerrors.ErrInvalidOrExpiredTOTP
		}

	case domain.MethodBackupCode:
		if backupCode == "" {
			return time.Time{}, xerrors.ErrMissingVerification
		}
		factor, err := uc.factors.GetFactor(ctx, userID, domain.MethodTOTP)
		if err != nil {
			if errors.Is(err, xerrors.ErrNotFound) {
				return time.Time{}, xerrors.Err2FANotEnabled
			}
			return time.Time{}, err
		}
		ok, err := uc.factors.VerifyAndConsumeBackupCode(ctx, factor.ID, backupCode)
		if err != nil {
			return time.Time{}, err
		}
		if !ok {
			return time.Time{}, xerrors.ErrInvalidBackupCode
		}

	case domain.MethodPassword:
		if password == "" {
			return time.Time{}, xerrors.ErrMissingVerification
		}
		user, err := uc.users.GetUserByID(ctx, userID)
		if err != nil {
			return time.Time{}, err
		}
		if !user.HasPassword() {
			return time.Time{}, xerrors.ErrPasswordNotSet
		}
		if !utils.CheckPasswordHash(password, *user.PasswordHash) {
			return time.Time{}, xerrors.ErrInvalidCredentials
		}

	default:
		return time.Time{}, xerrors.ErrUnsupportedMethod
	}

	return uc.RecordVerification(ctx, userID, deviceID)
}

// RecordVerification stamps the session and seeds the redis marker.
// The DB write is the source of truth; a redis failure is logged only.
func (uc *UserUsecase) RecordVerification(ctx context.Context, userID, deviceID string) (time.Time, error) {
	now := time.Now()

	if err := uc.sessions.TouchLastVerified(ctx, userID, deviceID, now); err != nil {
		return time.Time{}, err
	}

	if err := uc.cache.Set(ctx, stepUpNamespace, stepUpKey(userID, deviceID), "1", uc.gracePeriod); err != nil {
		log.Printf("[StepUp] failed to set grace marker for user %s: %v", userID, err)
	}

	return now.Add(uc.gracePeriod), nil
}
