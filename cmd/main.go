// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"eventledger/internal/cache"
	"eventledger/internal/database"
	"eventledger/internal/handler"
	"eventledger/internal/notify"
	"eventledger/internal/repository"
	"eventledger/internal/service"
)

func main() {
	ctx := context.Background()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// ── 1. Connect to PostgreSQL and bootstrap the schema ─────────────────
	pool, err := database.NewPool(ctx, database.ConfigFromEnv())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("connected to PostgreSQL")

	// ── 2. Cache: redis when configured, in-process otherwise ─────────────
	var engineCache service.Cache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		engineCache = cache.NewRedis(client)
		log.Printf("using redis cache at %s", addr)
	} else {
		engineCache = cache.NewMemory()
	}

	// ── 3. Wire up layers ─────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	formRepo := repository.NewFormRepository(pool)
	merchRepo := repository.NewMerchandiseRepository(pool)
	batchRepo := repository.NewBatchRepository(pool)
	cohortRepo := repository.NewCohortRepository(pool)

	notifier := notify.NewLogNotifier(logger)

	eventSvc := service.NewEventService(eventRepo)
	coordinator := service.NewBatchCollectionCoordinator(eventRepo, batchRepo, cohortRepo, notifier, engineCache)
	regSvc := service.NewRegistrationService(eventRepo, regRepo, formRepo, coordinator, service.NewFeeCalculator())
	cartSvc := service.NewMerchandiseCart(eventRepo, regRepo, merchRepo)

	api := handler.New(eventSvc, regSvc, cartSvc, coordinator, formRepo, merchRepo, cohortRepo)

	// ── 4. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.Logger(logger))
	r.Use(handler.CORS)

	api.Routes(r)

	// ── 5. Start server with graceful shutdown ────────────────────────────
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
