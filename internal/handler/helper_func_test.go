package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", maskEmail("john@example.com"))
	assert.Equal(t, "a@b.co", maskEmail("a@b.co"))
	assert.Equal(t, "not-an-email", maskEmail("not-an-email"))
}

func TestExtractClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:4567"
	assert.Equal(t, "10.1.2.3", extractClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", extractClientIP(req))
}

func TestToPtrAndSafeString(t *testing.T) {
	assert.Nil(t, toPtr(""))
	p := toPtr("x")
	assert.Equal(t, "x", *p)
	assert.Equal(t, "x", safeString(p))
	assert.Equal(t, "", safeString(nil))
}
