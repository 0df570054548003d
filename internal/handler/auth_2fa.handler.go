package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"account-security-service/internal/domain"
	"account-security-service/internal/usecase"
	"account-security-service/pkg/response"
	"account-security-service/pkg/xerrors"
)

// HandleVerifyStepUp checks a TOTP code, backup code or password and
// opens the grace window for the calling device.
func (h *AuthHandler) HandleVerifyStepUp(w http.ResponseWriter, r *http.Request) {
	userID, deviceID, ok := identity(w, r)
	if !ok {
		return
	}

	var req StepUpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Method == "" {
		response.Error(w, http.StatusBadRequest, "verification method is required")
		return
	}

	expiresAt, err := h.uc.VerifyStepUp(r.Context(), userID, deviceID,
		req.Method, req.TOTPCode, req.BackupCode, req.CurrentPassword)
	if err != nil {
		h.recordEvent(r, userID, deviceID, domain.EventStepUpFailed, domain.SeverityWarning,
			map[string]string{"method": req.Method})
		switch {
		case errors.Is(err, xerrors.ErrInvalidOrExpiredTOTP),
			errors.Is(err, xerrors.ErrInvalidBackupCode),
			errors.Is(err, xerrors.ErrInvalidCredentials):
			response.Error(w, http.StatusUnauthorized, err.Error())
		case errors.Is(err, xerrors.ErrUnsupportedMethod),
			errors.Is(err, xerrors.ErrMissingVerification),
			errors.Is(err, xerrors.Err2FANotEnabled),
			errors.Is(err, xerrors.ErrPasswordNotSet):
			response.Error(w, http.StatusBadRequest, err.Error())
		default:
			response.Error(w, http.StatusInternalServerError, "verification failed")
		}
		return
	}

	h.recordEvent(r, userID, deviceID, domain.EventStepUpVerified, domain.SeverityInfo,
		map[string]string{"method": req.Method})

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"verified":   true,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

// HandleStepUpStatus reports whether the device sits inside the grace
// window and which methods could satisfy a challenge.
func (h *AuthHandler) HandleStepUpStatus(w http.ResponseWriter, r *http.Request) {
	userID, deviceID, ok := identity(w, r)
	if !ok {
		return
	}

	decision, err := h.uc.EvaluateStepUp(r.Context(), userID, deviceID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to evaluate verification state")
		return
	}

	if decision.State == usecase.StepUpSatisfied {
		response.JSON(w, http.StatusOK, map[string]interface{}{
			"verified":   true,
			"expires_at": decision.ExpiresAt.UTC().Format(time.RFC3339),
		})
		return
	}

	methods := decision.Methods
	if methods == nil {
		methods = []string{}
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"verified":         false,
		"availableMethods": methods,
	})
}
