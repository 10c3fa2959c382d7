package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dpushkar26/Panchkarma-sutra/internal/config"
	"github.com/dpushkar26/Panchkarma-sutra/internal/database"
	"github.com/dpushkar26/Panchkarma-sutra/internal/repository"
	"github.com/dpushkar26/Panchkarma-sutra/internal/services"
)

// The sweeper is deployed as a single instance. Its status updates are CAS
// guarded, so an accidental second instance is wasteful but not harmful.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	notificationRepo := repository.NewNotificationRepository(database.DB)
	sessionRepo := repository.NewSessionRepository(database.DB)
	notifier := services.NewNotificationService(
		services.NewInAppSender(notificationRepo),
		services.NewLogSender(services.ChannelEmail),
		services.NewLogSender(services.ChannelSMS),
	)
	sweeper := services.NewSweepService(sessionRepo, notifier, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Sweeper starting, interval %s", cfg.SweepInterval)
	sweeper.RunOnce(ctx)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sweeper shutting down")
			os.Exit(0)
		case <-ticker.C:
			sweeper.RunOnce(ctx)
		}
	}
}
