package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"account-security-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleSocialConnect_InsideGrace(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Sup3r$ecret")
	now := time.Now()
	env.addSession("u1", "d1", &now)

	req := authedRequest(t, http.MethodPost, "/api/auth/social/connect", "u1", "d1",
		SocialConnectRequest{Provider: domain.ProviderGitHub})
	rec := httptest.NewRecorder()
	env.handler.HandleSocialConnect(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	url, _ := body["url"].(string)
	assert.Contains(t, url, "github.com/login/oauth/authorize")
	assert.Contains(t, url, "state=")
}

func TestHandleSocialConnect_ChallengeOutsideGrace(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Sup3r$ecret")
	env.addSession("u1", "d1", nil)
	env.addTOTPFactor("u1", "f1")

	req := authedRequest(t, http.MethodPost, "/api/auth/social/connect", "u1", "d1",
		SocialConnectRequest{Provider: domain.ProviderGitHub})
	rec := httptest.NewRecorder()
	env.handler.HandleSocialConnect(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["requiresVerification"])
	assert.Contains(t, body["availableMethods"], "totp")
	assert.NotContains(t, body, "url")
}

func TestHandleSocialConnect_DeniedWithoutFactors(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "")
	env.addSession("u1", "d1", nil)

	req := authedRequest(t, http.MethodPost, "/api/auth/social/connect", "u1", "d1",
		SocialConnectRequest{Provider: domain.ProviderGitHub})
	rec := httptest.NewRecorder()
	env.handler.HandleSocialConnect(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleSocialConnect_UnknownProvider(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Sup3r$ecret")
	now := time.Now()
	env.addSession("u1", "d1", &now)

	req := authedRequest(t, http.MethodPost, "/api/auth/social/connect", "u1", "d1",
		SocialConnectRequest{Provider: "myspace"})
	rec := httptest.NewRecorder()
	env.handler.HandleSocialConnect(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSocialConnect_AlreadyLinked(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Sup3r$ecret")
	now := time.Now()
	env.addSession("u1", "d1", &now)
	env.links.links = append(env.links.links, &domain.LinkedAccount{
		ID: "l1", UserID: "u1", Provider: domain.ProviderGitHub, ProviderUID: "999",
	})

	req := authedRequest(t, http.MethodPost, "/api/auth/social/connect", "u1", "d1",
		SocialConnectRequest{Provider: domain.ProviderGitHub})
	rec := httptest.NewRecorder()
	env.handler.HandleSocialConnect(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListConnections(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Sup3r$ecret")
	email := "u@example.com"
	env.links.links = append(env.links.links, &domain.LinkedAccount{
		ID: "l1", UserID: "u1", Provider: domain.ProviderGoogle, ProviderUID: "g-1",
		Email: &email, LinkedAt: time.Now(),
	})

	req := authedRequest(t, http.MethodGet, "/api/auth/social/connections", "u1", "d1", nil)
	rec := httptest.NewRecorder()
	env.handler.HandleListConnections(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	conns, ok := body["connections"].([]interface{})
	require.True(t, ok)
	require.Len(t, conns, 1)
	first := conns[0].(map[string]interface{})
	assert.Equal(t, "google", first["provider"])
	assert.Equal(t, email, first["email"])
}

func TestHandleSocialDisconnect(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Sup3r$ecret")
	now := time.Now()
	env.addSession("u1", "d1", &now)
	env.links.links = append(env.links.links, &domain.LinkedAccount{
		ID: "l1", UserID: "u1", Provider: domain.ProviderGoogle, ProviderUID: "g-1",
	})

	req := authedRequest(t, http.MethodPost, "/api/auth/social/disconnect", "u1", "d1",
		SocialDisconnectRequest{Provider: domain.ProviderGoogle})
	rec := httptest.NewRecorder()
	env.handler.HandleSocialDisconnect(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.links.links)
}

func TestHandleSocialDisconnect_LastSignInMethod(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "")
	now := time.Now()
	env.addSession("u1", "d1", &now)
	env.links.links = append(env.links.links, &domain.LinkedAccount{
		ID: "l1", UserID: "u1", Provider: domain.ProviderGoogle, ProviderUID: "g-1",
	})

	req := authedRequest(t, http.MethodPost, "/api/auth/social/disconnect", "u1", "d1",
		SocialDisconnectRequest{Provider: domain.ProviderGoogle})
	rec := httptest.NewRecorder()
	env.handler.HandleSocialDisconnect(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, env.links.links, 1)
}

func TestHandleSocialCallback_BadState(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/social/callback/github?state=bogus&code=abc", nil)
	req = withChiParam(req, "provider", "github")
	rec := httptest.NewRecorder()
	env.handler.HandleSocialCallback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSocialCallback_MissingParams(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/social/callback/github", nil)
	req = withChiParam(req, "provider", "github")
	rec := httptest.NewRecorder()
	env.handler.HandleSocialCallback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
