package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"roomboard-gateway/config"
	"roomboard-gateway/internal/api"
	"roomboard-gateway/internal/db"
	"roomboard-gateway/internal/roomapi"
	"roomboard-gateway/internal/store"
	"roomboard-gateway/internal/watch"
)

func main() {
	logger := log.New(os.Stdout, "roomboard ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	upstream := roomapi.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	logger.Printf("upstream room API: %s", cfg.Upstream.BaseURL)

	// Freed-slot notifications only run when VAPID keys are configured; the
	// booking workflow itself does not depend on them.
	var watchSvc *watch.Service
	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := watch.NewPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		pool.Start(ctx)
		watchSvc = watch.NewService(appStore, pool)
		logger.Println("slot watch notifications enabled")
	} else {
		logger.Println("VAPID keys not configured; slot watch notifications disabled")
	}

	sessionTTL := time.Duration(cfg.Server.SessionTTLMinutes) * time.Minute
	handler := api.NewHandler(upstream, appStore, watchSvc, webpushOptions, sessionTTL)
	router := api.NewRouter(&cfg.Server, handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
