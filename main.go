package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tuanhandsomes/web-upload-image/config"
	"github.com/tuanhandsomes/web-upload-image/database"
	"github.com/tuanhandsomes/web-upload-image/events"
	"github.com/tuanhandsomes/web-upload-image/handlers"
	"github.com/tuanhandsomes/web-upload-image/middleware"
	"github.com/tuanhandsomes/web-upload-image/services"
	"github.com/tuanhandsomes/web-upload-image/store"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Create context with timeout for initial connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ds, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open data store:", err)
	}
	defer ds.Close()

	var publisher events.Publisher = events.Nop{}
	if cfg.KafkaBroker != "" {
		publisher = events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		log.Printf("Publishing photo events to %s (topic %s)", cfg.KafkaBroker, cfg.KafkaTopic)
	}
	defer publisher.Close()

	accounts := services.NewAccountService(ds, services.NewPasswordHasher(cfg.BcryptCost))
	projects := services.NewProjectService(ds)
	photos := services.NewPhotoService(ds, projects, publisher)

	if seed := cfg.SeedAdmin; seed.Username != "" {
		created, err := accounts.EnsureAdmin(ctx, seed.Username, seed.Email, seed.Password)
		if err != nil {
			log.Fatal("Failed to seed admin account:", err)
		}
		if created {
			log.Printf("Seeded admin account: %s", seed.Username)
		}
	}

	r := handlers.NewRouter(handlers.Deps{
		Accounts:       accounts,
		Projects:       projects,
		Photos:         photos,
		Stats:          services.NewStatsService(ds),
		Tokens:         middleware.NewTokens(cfg.JWTSecret, cfg.SessionTTLDuration()),
		AllowedOrigins: cfg.AllowedOrigins,
		LoginRate:      cfg.LoginRate,
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		log.Printf("Server starting on %s (store=%s)", cfg.ServerAddr, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.DataStore, error) {
	switch cfg.StoreBackend {
	case config.BackendLocal:
		return store.NewLocal(cfg.LocalStorePath)
	case config.BackendRemote:
		return store.NewRemote(cfg.RemoteStoreURL, cfg.RemoteTimeoutDuration())
	case config.BackendPostgres:
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
