package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"account-security-service/pkg/jwtutil"
	"account-security-service/pkg/response"
	"account-security-service/pkg/xerrors"
)

// SessionValidator confirms that the (user, device) pair named in the token
// still maps to an active device session.
type SessionValidator interface {
	ValidateSession(ctx context.Context, userID, deviceID string) error
}

type AuthMiddleware struct {
	Verifier *jwtutil.Verifier
	Sessions SessionValidator
}

func NewAuthMiddleware(verifier *jwtutil.Verifier, sessions SessionValidator) *AuthMiddleware {
	return &AuthMiddleware{
		Verifier: verifier,
		Sessions: sessions,
	}
}

// Require rejects requests without a valid bearer token and live session.
func (am *AuthMiddleware) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				response.Error(w, http.StatusUnauthorized, "No token provided")
				return
			}

			claims, err := am.Verifier.ParseAndValidate(token)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			if claims.UserID == "" || claims.Device == "" {
				response.Error(w, http.StatusUnauthorized, "Invalid token claims")
				return
			}

			if err := am.Sessions.ValidateSession(r.Context(), claims.UserID, claims.Device); err != nil {
				switch {
				case errors.Is(err, xerrors.ErrSessionNotFound):
					response.Error(w, http.StatusUnauthorized, "Session not found")
				case errors.Is(err, xerrors.ErrSessionRevoked):
					response.Error(w, http.StatusUnauthorized, "Session revoked")
				default:
					log.Printf("[Auth] Session validation error for user %s: %v", claims.UserID, err)
					response.Error(w, http.StatusUnauthorized, "Session validation failed")
				}
				return
			}

			next.ServeHTTP(w, setContextValues(r, claims, token))
		})
	}
}
