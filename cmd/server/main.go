package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wheelio-backend/internal/config"
	"wheelio-backend/internal/httpserver"
	"wheelio-backend/internal/security"
	"wheelio-backend/internal/service"
	"wheelio-backend/internal/store"
	"wheelio-backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	stores, err := store.Open(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer stores.Close()

	tokenSvc := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	passwordHasher := security.NewPasswordHasher(0)

	// The hub is the process-local registry; with NATS configured, events
	// take a round trip through the shared subject so every process's hub
	// delivers them.
	hub := ws.NewHub()
	var broadcaster service.Broadcaster = hub
	if cfg.NATSURL != "" {
		bridge, err := ws.NewNatsBridge(cfg.NATSURL, hub)
		if err != nil {
			log.Fatalf("failed to connect broadcast bridge: %v", err)
		}
		defer bridge.Close()
		broadcaster = bridge
	}

	router := httpserver.NewRouter(cfg, stores, hub, broadcaster, tokenSvc, passwordHasher)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Wheelio server on %s\n", cfg.HTTPAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
