package oauth2svc

import (
	"account-security-service/internal/config"
	"account-security-service/internal/domain"
	"account-security-service/pkg/xerrors"

	"golang.org/x/oauth2"
)

var (
	googleEndpoint = oauth2.Endpoint{
		AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	}
	appleEndpoint = oauth2.Endpoint{
		AuthURL:  "https://appleid.apple.com/auth/authorize",
		TokenURL: "https://appleid.apple.com/auth/token",
	}
	githubEndpoint = oauth2.Endpoint{
		AuthURL:  "https://github.com/login/oauth/authorize",
		TokenURL: "https://github.com/login/oauth/access_token",
	}
)

// Providers builds the oauth2 configs for every enabled provider.
// Apple's client secret is a short-lived ES256 JWT minted on demand, so
// its config is rebuilt per call rather than cached.
type Providers struct {
	cfg config.AppConfig
}

func NewProviders(cfg config.AppConfig) *Providers {
	return &Providers{cfg: cfg}
}

func (p *Providers) Config(provider string) (*oauth2.Config, error) {
	switch provider {
	case domain.ProviderGoogle:
		return &oauth2.Config{
			ClientID:     p.cfg.Google.ClientID,
			ClientSecret: p.cfg.Google.ClientSecret,
			RedirectURL:  p.cfg.Google.RedirectURI,
			Endpoint:     googleEndpoint,
			Scopes:       []string{"openid", "email", "profile"},
		}, nil
	case domain.ProviderGitHub:
		return &oauth2.Config{
			ClientID:     p.cfg.GitHub.ClientID,
			ClientSecret: p.cfg.GitHub.ClientSecret,
			RedirectURL:  p.cfg.GitHub.RedirectURI,
			Endpoint:     githubEndpoint,
			Scopes:       []string{"read:user", "user:email"},
		}, nil
	case domain.ProviderApple:
		secret, err := GenerateClientSecret(ClientSecretParams{
			TeamID:        p.cfg.Apple.TeamID,
			KeyID:         p.cfg.Apple.KeyID,
			ServiceID:     p.cfg.Apple.ServiceID,
			PrivateKeyPEM: p.cfg.Apple.PrivateKeyPEM,
			TTL:           appleSecretTTL,
		})
		if err != nil {
			return nil, err
		}
		return &oauth2.Config{
			ClientID:     p.cfg.Apple.ServiceID,
			ClientSecret: secret,
			RedirectURL:  p.cfg.Apple.RedirectURI,
			Endpoint:     appleEndpoint,
			Scopes:       []string{"name", "email"},
		}, nil
	}
	return nil, xerrors.ErrUnknownProvider
}

// AuthCodeURL builds the provider authorization URL for a link attempt.
func (p *Providers) AuthCodeURL(provider, state string) (string, error) {
	conf, err := p.Config(provider)
	if err != nil {
		return "", err
	}

	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if provider == domain.ProviderApple {
		// Apple requires form_post when name/email scopes are requested
		opts = append(opts, oauth2.SetAuthURLParam("response_mode", "form_post"))
	}

	return conf.AuthCodeURL(state, opts...), nil
}
