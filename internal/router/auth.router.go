package router

import (
	"net/http"
	"time"

	"account-security-service/internal/handler"
	"account-security-service/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes wires the auth surface. The provider callback stays outside
// the bearer group: browsers arrive there on a redirect from the provider
// and carry only the state nonce.
func SetupRoutes(h *handler.AuthHandler, auth *middleware.AuthMiddleware, rdb *redis.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.RateLimiter(rdb, 100, time.Minute, 5*time.Minute, "auth:rl:global"))

	r.Get("/api/auth/health", h.Health)
	r.Get("/api/auth/social/callback/{provider}", h.HandleSocialCallback)
	r.Post("/api/auth/social/callback/{provider}", h.HandleSocialCallback)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.Require())

		// Sensitive mutations get a tighter budget than reads.
		pr.Group(func(sr chi.Router) {
			sr.Use(middleware.RateLimiter(rdb, 10, time.Minute, 10*time.Minute, "auth:rl:sensitive"))
			sr.Post("/api/auth/change-password", h.HandleChangePassword)
			sr.Post("/api/auth/social/connect", h.HandleSocialConnect)
			sr.Post("/api/auth/social/disconnect", h.HandleSocialDisconnect)
			sr.Post("/api/auth/step-up/verify", h.HandleVerifyStepUp)
		})

		pr.Get("/api/auth/social/connections", h.HandleListConnections)
		pr.Get("/api/auth/step-up/status", h.HandleStepUpStatus)
	})

	return r
}
