package handler

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"account-security-service/pkg/middleware"
	"account-security-service/pkg/response"
)

// contextWithTimeout backs the fire-and-forget side effects; the request
// context is gone by the time they run.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// identity pulls (userID, deviceID) set by the auth middleware. Writes
// the 401 itself so handlers can bail with a bare return.
func identity(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok || userID == "" {
		response.Error(w, http.StatusUnauthorized, "unauthorized")
		return "", "", false
	}
	deviceID, _ := middleware.GetDeviceID(r.Context())
	return userID, deviceID, true
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func toPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func safeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// maskEmail keeps the first character and the domain: j***@example.com.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 1 {
		return email
	}
	return email[:1] + "***" + email[at:]
}
