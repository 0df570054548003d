package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"account-security-service/internal/domain"
	"account-security-service/internal/usecase"
	"account-security-service/pkg/response"
	"account-security-service/pkg/utils"
	"account-security-service/pkg/xerrors"
)

// HandleChangePassword gates the change behind the step-up window.
//
// Accounts with a password must present the current one. If 2FA is
// enabled and the device is outside the grace window, the handler
// answers with a challenge instead of changing anything; the client
// verifies through step-up/verify and resubmits. Passwordless accounts
// may set a first password only inside the window.
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, deviceID, ok := identity(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NewPassword == "" {
		response.Error(w, http.StatusBadRequest, "new password is required")
		return
	}

	ctx := r.Context()

	user, err := h.uc.GetUserByID(ctx, userID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to load account")
		return
	}

	if user.HasPassword() {
		h.changeExistingPassword(w, r, user, deviceID, req)
		return
	}
	h.setFirstPassword(w, r, user, deviceID, req)
}

func (h *AuthHandler) changeExistingPassword(w http.ResponseWriter, r *http.Request, user *domain.User, deviceID string, req ChangePasswordRequest) {
	ctx := r.Context()

	if req.CurrentPassword == "" {
		response.Error(w, http.StatusBadRequest, xerrors.ErrPasswordRequired.Error())
		return
	}
	if !utils.CheckPasswordHash(req.CurrentPassword, *user.PasswordHash) {
		response.Error(w, http.StatusBadRequest, xerrors.ErrInvalidOldPassword.Error())
		return
	}

	// Knowing the password is not enough when a second factor exists:
	// the device must also sit inside the grace window.
	has2FA, factor, err := h.uc.HasSecondFactor(ctx, user.ID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to check verification factors")
		return
	}
	if has2FA {
		decision, err := h.uc.EvaluateStepUp(ctx, user.ID, deviceID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "failed to evaluate verification state")
			return
		}
		if decision.State != usecase.StepUpSatisfied {
			h.recordEvent(r, user.ID, deviceID, domain.EventStepUpChallenged, domain.SeverityInfo,
				map[string]string{"action": "change_password"})
			response.JSON(w, http.StatusOK, map[string]interface{}{
				"requiresTwoFactor": true,
				"factorId":          factor.ID,
				"availableMethods":  decision.Methods,
				"newPassword":       req.NewPassword,
			})
			return
		}
	}

	if err := h.uc.ChangePassword(ctx, user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writePasswordError(w, err)
		return
	}

	h.finishPasswordUpdate(r, user, deviceID, domain.EventPasswordChanged)
	response.JSON(w, http.StatusOK, map[string]interface{}{})
}

func (h *AuthHandler) setFirstPassword(w http.ResponseWriter, r *http.Request, user *domain.User, deviceID string, req ChangePasswordRequest) {
	ctx := r.Context()

	decision, err := h.uc.EvaluateStepUp(ctx, user.ID, deviceID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to evaluate verification state")
		return
	}

	switch decision.State {
	case usecase.StepUpSatisfied:
		if err := h.uc.SetInitialPassword(ctx, user.ID, req.NewPassword); err != nil {
			h.writePasswordError(w, err)
			return
		}
		h.finishPasswordUpdate(r, user, deviceID, domain.EventPasswordSet)
		response.JSON(w, http.StatusOK, map[string]interface{}{})

	case usecase.StepUpChallenge:
		h.recordEvent(r, user.ID, deviceID, domain.EventStepUpChallenged, domain.SeverityInfo,
			map[string]string{"action": "set_password"})
		response.JSON(w, http.StatusOK, map[string]interface{}{
			"requiresTwoFactor": true,
			"factorId":          decision.FactorID,
			"availableMethods":  decision.Methods,
			"newPassword":       req.NewPassword,
		})

	default:
		response.Error(w, http.StatusUnauthorized, xerrors.ErrReauthRequired.Error())
	}
}

func (h *AuthHandler) writePasswordError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrInvalidOldPassword),
		errors.Is(err, xerrors.ErrPasswordNotSet),
		errors.Is(err, xerrors.ErrPasswordAlreadySet):
		response.Error(w, http.StatusBadRequest, err.Error())
	case utils.IsPasswordPolicyError(err):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrUserNotFound):
		response.Error(w, http.StatusUnauthorized, err.Error())
	default:
		response.Error(w, http.StatusInternalServerError, "failed to update password")
	}
}

// finishPasswordUpdate runs the post-change side effects: refresh the
// grace window for this device, revoke every other session, record the
// event and queue the alert email. All best-effort off the request path.
func (h *AuthHandler) finishPasswordUpdate(r *http.Request, user *domain.User, deviceID, eventType string) {
	ip := extractClientIP(r)
	userAgent := r.UserAgent()

	go func() {
		ctx, cancel := contextWithTimeout()
		defer cancel()

		if _, err := h.uc.RecordVerification(ctx, user.ID, deviceID); err != nil {
			log.Printf("[Password] failed to refresh grace window for user %s: %v", user.ID, err)
		}

		revoked, err := h.uc.RevokeOtherSessions(ctx, user.ID, deviceID)
		if err != nil {
			log.Printf("[Password] failed to revoke sessions for user %s: %v", user.ID, err)
		} else if revoked > 0 {
			log.Printf("[Password] revoked %d other sessions for user %s", revoked, user.ID)
		}

		email := safeString(user.Email)

		var meta map[string]string
		if email != "" {
			meta = map[string]string{"email": maskEmail(email)}
		}
		h.events.Record(ctx, &domain.SecurityEvent{
			UserID:    user.ID,
			DeviceID:  toPtr(deviceID),
			EventType: eventType,
			Severity:  domain.SeverityWarning,
			IPAddress: toPtr(ip),
			UserAgent: toPtr(userAgent),
			Metadata:  meta,
		})

		if email != "" {
			h.events.SendAlertEmail(ctx, user.ID, email, "password_changed",
				"Your password was changed", map[string]string{
					"ip":         ip,
					"user_agent": userAgent,
				})
		}
	}()
}

// recordEvent is the fire-and-forget audit write used on non-mutating paths.
func (h *AuthHandler) recordEvent(r *http.Request, userID, deviceID, eventType, severity string, metadata map[string]string) {
	ip := extractClientIP(r)
	userAgent := r.UserAgent()

	go func() {
		ctx, cancel := contextWithTimeout()
		defer cancel()

		h.events.Record(ctx, &domain.SecurityEvent{
			UserID:    userID,
			DeviceID:  toPtr(deviceID),
			EventType: eventType,
			Severity:  severity,
			IPAddress: toPtr(ip),
			UserAgent: toPtr(userAgent),
			Metadata:  metadata,
		})
	}()
}
