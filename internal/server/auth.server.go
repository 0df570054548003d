package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"account-security-service/internal/config"
	"account-security-service/internal/handler"
	"account-security-service/internal/repository"
	"account-security-service/internal/router"
	oauth2svc "account-security-service/internal/service/oauth2"
	"account-security-service/internal/usecase"
	"account-security-service/pkg/cache"
	"account-security-service/pkg/id"
	"account-security-service/pkg/jwtutil"
	"account-security-service/pkg/kafka"
	"account-security-service/pkg/middleware"

	"github.com/redis/go-redis/v9"
)

// NewServer wires storage, redis, kafka and the HTTP surface. A SIGTERM
// drains the listener and then closes the producer, redis and the pool.
func NewServer(cfg config.AppConfig) (*http.Server, error) {
	db, err := config.ConnectDB()
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("[Redis] ping failed (continuing, limiter fails open): %v", err)
	}
	redisCache := cache.NewCache([]string{cfg.RedisAddr}, cfg.RedisPass, false)

	producer, err := kafka.NewSecurityEventProducer(cfg.KafkaBrokers)
	if err != nil {
		// Events degrade to DB-only; the bus is not on the request path.
		log.Printf("[Kafka] producer unavailable: %v", err)
		producer = nil
	}

	sf, err := id.NewSnowflake(1)
	if err != nil {
		return nil, fmt.Errorf("snowflake: %w", err)
	}

	pub, err := jwtutil.LoadRSAPublicKeyFromPEM(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("jwt public key: %w", err)
	}
	verifier := jwtutil.NewVerifier(pub, cfg.JWTIssuer, cfg.JWTAudience)

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	events := repository.NewEventRepository(db)

	providers := oauth2svc.NewProviders(cfg)

	userUC := usecase.NewUserUsecase(users, sessions, users, redisCache, sf, cfg.StepUpGracePeriod)
	oauthUC := usecase.NewOAuth2Usecase(users, users, redisCache, providers, cfg, sf)
	eventUC := usecase.NewSecurityEventUsecase(events, producer)

	h := handler.NewAuthHandler(userUC, oauthUC, eventUC)
	auth := middleware.NewAuthMiddleware(verifier, sessions)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router.SetupRoutes(h, auth, rdb),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		log.Println("[Server] shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("[Server] shutdown error: %v", err)
		}

		if producer != nil {
			if err := producer.Close(); err != nil {
				log.Printf("[Kafka] close error: %v", err)
			}
		}
		if err := rdb.Close(); err != nil {
			log.Printf("[Redis] close error: %v", err)
		}
		db.Close()
	}()

	return srv, nil
}
