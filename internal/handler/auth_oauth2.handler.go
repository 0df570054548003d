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

	"github.com/go-chi/chi/v5"
)

// HandleSocialConnect starts a provider link. The step-up gate runs
// first: a device outside the grace window gets a verification challenge
// (or a 401 when the account has nothing to verify with), never a URL.
func (h *AuthHandler) HandleSocialConnect(w http.ResponseWriter, r *http.Request) {
	userID, deviceID, ok := identity(w, r)
	if !ok {
		return
	}

	var req SocialConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.KnownProvider(req.Provider) {
		response.Error(w, http.StatusBadRequest, xerrors.ErrUnknownProvider.Error())
		return
	}

	ctx := r.Context()

	decision, err := h.uc.EvaluateStepUp(ctx, userID, deviceID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to evaluate verification state")
		return
	}
	switch decision.State {
	case usecase.StepUpChallenge:
		h.recordEvent(r, userID, deviceID, domain.EventStepUpChallenged, domain.SeverityInfo,
			map[string]string{"action": "social_connect", "provider": req.Provider})
		response.JSON(w, http.StatusOK, map[string]interface{}{
			"requiresVerification": true,
			"availableMethods":     decision.Methods,
		})
		return
	case usecase.StepUpDenied:
		response.Error(w, http.StatusUnauthorized, xerrors.ErrReauthRequired.Error())
		return
	}

	url, err := h.oauth.BeginLink(ctx, userID, deviceID, req.Provider)
	if err != nil {
		if errors.Is(err, xerrors.ErrProviderAlreadyLinked) {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		response.Error(w, http.StatusInternalServerError, "failed to start provider link")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"url": url})
}

// HandleSocialCallback finishes the link started by HandleSocialConnect.
// The provider redirects the browser here, so identity comes from the
// state nonce rather than a bearer token.
func (h *AuthHandler) HandleSocialCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	// Apple posts the result (response_mode=form_post)
	if state == "" && r.Method == http.MethodPost {
		_ = r.ParseForm()
		state = r.PostFormValue("state")
		code = r.PostFormValue("code")
	}

	if !domain.KnownProvider(provider) {
		response.Error(w, http.StatusBadRequest, xerrors.ErrUnknownProvider.Error())
		return
	}
	if state == "" || code == "" {
		response.Error(w, http.StatusBadRequest, "missing state or code")
		return
	}

	linkState, acc, err := h.oauth.CompleteLink(r.Context(), provider, state, code)
	if err != nil {
		if linkState != nil {
			h.recordEvent(r, linkState.UserID, linkState.DeviceID, domain.EventProviderLinkFailed,
				domain.SeverityWarning, map[string]string{"provider": provider, "reason": err.Error()})
		}
		switch {
		case errors.Is(err, xerrors.ErrLinkStateNotFound),
			errors.Is(err, xerrors.ErrProviderAlreadyLinked),
			errors.Is(err, xerrors.ErrIdentityInUse):
			response.Error(w, http.StatusBadRequest, err.Error())
		default:
			response.Error(w, http.StatusInternalServerError, "failed to complete provider link")
		}
		return
	}

	h.recordEvent(r, linkState.UserID, linkState.DeviceID, domain.EventProviderLinked,
		domain.SeverityWarning, map[string]string{"provider": provider})
	h.sendLinkAlert(r, linkState.UserID, provider)

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"linked":   true,
		"provider": provider,
		"email":    safeString(acc.Email),
	})
}

// HandleListConnections lists the caller's linked providers.
func (h *AuthHandler) HandleListConnections(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := identity(w, r)
	if !ok {
		return
	}

	links, err := h.oauth.ListLinks(r.Context(), userID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to list connections")
		return
	}

	type connection struct {
		Provider string `json:"provider"`
		Email    string `json:"email,omitempty"`
		LinkedAt string `json:"linked_at"`
	}
	out := make([]connection, 0, len(links))
	for _, l := range links {
		out = append(out, connection{
			Provider: l.Provider,
			Email:    safeString(l.Email),
			LinkedAt: l.LinkedAt.UTC().Format(time.RFC3339),
		})
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"connections": out})
}

// HandleSocialDisconnect removes a provider link, gated like connect.
func (h *AuthHandler) HandleSocialDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, deviceID, ok := identity(w, r)
	if !ok {
		return
	}

	var req SocialDisconnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.KnownProvider(req.Provider) {
		response.Error(w, http.StatusBadRequest, xerrors.ErrUnknownProvider.Error())
		return
	}

	ctx := r.Context()

	decision, err := h.uc.EvaluateStepUp(ctx, userID, deviceID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "failed to evaluate verification state")
		return
	}
	switch decision.State {
	case usecase.StepUpChallenge:
		h.recordEvent(r, userID, deviceID, domain.EventStepUpChallenged, domain.SeverityInfo,
			map[string]string{"action": "social_disconnect", "provider": req.Provider})
		response.JSON(w, http.StatusOK, map[string]interface{}{
			"requiresVerification": true,
			"availableMethods":     decision.Methods,
		})
		return
	case usecase.StepUpDenied:
		response.Error(w, http.StatusUnauthorized, xerrors.ErrReauthRequired.Error())
		return
	}

	if err := h.oauth.Unlink(ctx, userID, req.Provider); err != nil {
		switch {
		case errors.Is(err, xerrors.ErrLastSignInMethod), errors.Is(err, xerrors.ErrNotFound):
			response.Error(w, http.StatusBadRequest, err.Error())
		default:
			response.Error(w, http.StatusInternalServerError, "failed to disconnect provider")
		}
		return
	}

	h.recordEvent(r, userID, deviceID, domain.EventProviderUnlinked, domain.SeverityWarning,
		map[string]string{"provider": req.Provider})

	response.JSON(w, http.StatusOK, map[string]interface{}{})
}

func (h *AuthHandler) sendLinkAlert(r *http.Request, userID, provider string) {
	ip := extractClientIP(r)

	go func() {
		ctx, cancel := contextWithTimeout()
		defer cancel()

		user, err := h.uc.GetUserByID(ctx, userID)
		if err != nil || user.Email == nil {
			return
		}
		h.events.SendAlertEmail(ctx, userID, *user.Email, "provider_linked",
			"A new sign-in method was added", map[string]string{
				"provider": provider,
				"ip":       ip,
			})
	}()
}
