package main

import (
	"errors"
	"log"
	"net/http"

	"account-security-service/internal/config"
	"account-security-service/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] No .env file found, relying on environment")
	}

	cfg := config.Load()

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("[Server] failed to start: %v", err)
	}

	log.Printf("[Server] listening on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[Server] error: %v", err)
	}
}
