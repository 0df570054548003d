package config

import (
	"os"
	"strings"
	"time"
)

type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type AppleConfig struct {
	TeamID        string // Apple Developer Team ID
	KeyID         string // Key ID for the .p8 private key
	ServiceID     string // "Client ID" (Web: Service ID)
	RedirectURI   string // Must match the one configured in Apple Console
	PrivateKeyPEM string // Contents of AuthKey_XXXXXX.p8 (keep safe!)
}

type AppConfig struct {
	HTTPAddr  string
	RedisAddr string
	RedisPass string

	JWTPublicKeyPath string
	JWTIssuer        string
	JWTAudience      string

	// Window after a successful verification during which sensitive
	// actions skip re-verification.
	StepUpGracePeriod time.Duration

	KafkaBrokers []string

	Google ProviderConfig
	GitHub ProviderConfig
	Apple  AppleConfig
}

func Load() AppConfig {
	return AppConfig{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8001"),
		RedisAddr: getEnv("REDIS_ADDR", "redis:6379"),
		RedisPass: getEnv("REDIS_PASS", ""),

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "secrets/jwt_public.pem"),
		JWTIssuer:        getEnv("JWT_ISSUER", "auth-service"),
		JWTAudience:      getEnv("JWT_AUDIENCE", "web-clients"),

		StepUpGracePeriod: getEnvDuration("STEPUP_GRACE_PERIOD", 10*time.Minute),

		KafkaBrokers: getEnvSlice("KAFKA_BROKERS", []string{"kafka-service:9092"}),

		Google: ProviderConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
		},
		GitHub: ProviderConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("GITHUB_REDIRECT_URI", ""),
		},
		Apple: AppleConfig{
			TeamID:        getEnv("APPLE_TEAM_ID", ""),
			KeyID:         getEnv("APPLE_KEY_ID", ""),
			ServiceID:     getEnv("APPLE_SERVICE_ID", ""),
			RedirectURI:   getEnv("APPLE_REDIRECT_URI", ""),
			PrivateKeyPEM: getEnv("APPLE_PRIVATE_KEY_PEM", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
