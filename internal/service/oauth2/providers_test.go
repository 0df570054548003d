package oauth2svc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"account-security-service/internal/config"
	"account-security-service/pkg/xerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applePEM(t *testing.T) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func testConfig(t *testing.T) config.AppConfig {
	return config.AppConfig{
		Google: config.ProviderConfig{ClientID: "google-client", ClientSecret: "gs", RedirectURI: "https://app.example.com/cb/google"},
		GitHub: config.ProviderConfig{ClientID: "github-client", ClientSecret: "hs", RedirectURI: "https://app.example.com/cb/github"},
		Apple: config.AppleConfig{
			TeamID:        "TEAM123",
			KeyID:         "KEY456",
			ServiceID:     "com.example.web",
			RedirectURI:   "https://app.example.com/cb/apple",
			PrivateKeyPEM: applePEM(t),
		},
	}
}

func TestProvidersConfig(t *testing.T) {
	p := NewProviders(testConfig(t))

	google, err := p.Config("google")
	require.NoError(t, err)
	assert.Equal(t, "google-client", google.ClientID)
	assert.Contains(t, google.Scopes, "openid")

	github, err := p.Config("github")
	require.NoError(t, err)
	assert.Equal(t, "github-client", github.ClientID)

	apple, err := p.Config("apple")
	require.NoError(t, err)
	assert.Equal(t, "com.example.web", apple.ClientID)
	// The client secret is a freshly minted JWT
	assert.Len(t, strings.Split(apple.ClientSecret, "."), 3)

	_, err = p.Config("myspace")
	assert.ErrorIs(t, err, xerrors.ErrUnknownProvider)
}

func TestAuthCodeURL(t *testing.T) {
	p := NewProviders(testConfig(t))

	url, err := p.AuthCodeURL("google", "nonce-1")
	require.NoError(t, err)
	assert.Contains(t, url, "accounts.google.com")
	assert.Contains(t, url, "state=nonce-1")
	assert.Contains(t, url, "access_type=offline")

	appleURL, err := p.AuthCodeURL("apple", "nonce-2")
	require.NoError(t, err)
	assert.Contains(t, appleURL, "appleid.apple.com")
	assert.Contains(t, appleURL, "response_mode=form_post")
}

func TestGenerateClientSecret(t *testing.T) {
	secret, err := GenerateClientSecret(ClientSecretParams{
		TeamID:        "TEAM123",
		KeyID:         "KEY456",
		ServiceID:     "com.example.web",
		PrivateKeyPEM: applePEM(t),
		TTL:           time.Minute,
	})
	require.NoError(t, err)
	assert.Len(t, strings.Split(secret, "."), 3)
}

func TestGenerateClientSecret_BadPEM(t *testing.T) {
	_, err := GenerateClientSecret(ClientSecretParams{
		TeamID:        "TEAM123",
		KeyID:         "KEY456",
		ServiceID:     "com.example.web",
		PrivateKeyPEM: "not a pem",
		TTL:           time.Minute,
	})
	assert.ErrorIs(t, err, xerrors.ErrInvalidApplePEM)
}
