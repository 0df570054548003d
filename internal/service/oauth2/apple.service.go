package oauth2svc

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"account-security-service/pkg/xerrors"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	appleKeysURL   = "https://appleid.apple.com/auth/keys"
	appleSecretTTL = 5 * time.Minute
)

type ClientSecretParams struct {
	TeamID        string
	KeyID         string
	ServiceID     string // client_id (Service ID) from the Apple developer console
	PrivateKeyPEM string
	TTL           time.Duration // max 6 months
}

func GenerateClientSecret(p ClientSecretParams) (string, error) {
	block, _ := pem.Decode([]byte(p.PrivateKeyPEM))
	if block == nil {
		return "", xerrors.ErrInvalidApplePEM
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Some keys are PKCS1
		if k, err2 := x509.ParsePKCS1PrivateKey(block.Bytes); err2 == nil {
			priv = k
		} else {
			return "", err
		}
	}

	now := time.Now()
	tok, err := jwt.NewBuilder().
		Issuer(p.TeamID).
		IssuedAt(now).
		Expiration(now.Add(p.TTL)).
		Audience([]string{"https://appleid.apple.com"}).
		Subject(p.ServiceID).
		Build()
	if err != nil {
		return "", err
	}

	// Set the `kid` in protected headers
	hdrs := jws.NewHeaders()
	if err := hdrs.Set(jws.KeyIDKey, p.KeyID); err != nil {
		return "", err
	}

	signed, err := jwt.Sign(tok,
		jwt.WithKey(jwa.ES256, priv, jws.WithProtectedHeaders(hdrs)),
	)
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

type AppleUser struct {
	Sub           string
	Email         string
	EmailVerified bool
}

// VerifyAppleIDToken validates signature + standard claims against Apple's
// JWKS, then checks the audience.
func VerifyAppleIDToken(ctx context.Context, idToken, clientID string) (*AppleUser, error) {
	keyset, err := jwk.Fetch(ctx, appleKeysURL)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	t, err := jwt.ParseString(idToken, jwt.WithKeySet(keyset), jwt.WithValidate(true))
	if err != nil {
		return nil, fmt.Errorf("parse/validate id_token: %w", err)
	}

	// aud must contain the client_id (ServiceID)
	found := false
	for _, aud := range t.Audience() {
		if aud == clientID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("invalid audience")
	}

	email, _ := t.Get("email")
	ev, _ := t.Get("email_verified")

	return &AppleUser{
		Sub:           t.Subject(),
		Email:         str(email),
		EmailVerified: boolVal(ev),
	}, nil
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func boolVal(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	if s, ok := v.(string); ok {
		return s == "true"
	}
	return false
}
