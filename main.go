package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adivish/vidtube-be/internal/api"
	"github.com/adivish/vidtube-be/internal/auth"
	"github.com/adivish/vidtube-be/internal/config"
	"github.com/adivish/vidtube-be/internal/database"
	"github.com/adivish/vidtube-be/internal/logger"
	"github.com/adivish/vidtube-be/internal/media"
	"github.com/adivish/vidtube-be/internal/monitoring"
	"github.com/adivish/vidtube-be/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)

	// Ensure the static and upload staging directories exist
	if err := os.MkdirAll(cfg.StaticDir, 0755); err != nil {
		log.Fatalf("Failed to create static directory: %v", err)
	}
	if err := os.MkdirAll(cfg.UploadTempDir, 0755); err != nil {
		log.Fatalf("Failed to create upload staging directory: %v", err)
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply database migrations: %v", err)
	}

	// Set up the media uploader
	uploader, err := media.NewS3Uploader(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize media uploader: %v", err)
	}

	// Set up services
	userStore := database.NewUserStore(db)
	tokenService := auth.NewTokenService(cfg)
	sessionService := services.NewSessionService(userStore, tokenService, uploader)

	// Set up and run the background upload janitor
	janitor, err := monitoring.NewUploadJanitor(cfg.UploadTempDir, cfg.UploadSweepSchedule, cfg.UploadMaxAge)
	if err != nil {
		log.Fatalf("Failed to initialize upload janitor: %v", err)
	}
	go janitor.Run()

	// Set up router
	router := api.NewRouter(cfg, tokenService, sessionService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on port %d\n", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
