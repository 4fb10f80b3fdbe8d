// Package main provides the entry point for the YouTube grab service.
// @title YouTube Grab API
// @version 1.0
// @description A Go-based service that exposes YouTube video metadata, format catalogs and a streaming download proxy.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3001
// @BasePath /

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/ytgrab/ytgrab/docs" // Import for swagger docs
	"github.com/ytgrab/ytgrab/internal/api/handlers"
	"github.com/ytgrab/ytgrab/internal/api/router"
	"github.com/ytgrab/ytgrab/internal/config"
	"github.com/ytgrab/ytgrab/internal/database"
	"github.com/ytgrab/ytgrab/internal/services/history"
	"github.com/ytgrab/ytgrab/internal/services/metadata"
	"github.com/ytgrab/ytgrab/internal/services/youtube"
	"github.com/ytgrab/ytgrab/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.GetLogger()
	logger.Info("Starting YouTube grab service")

	// Initialize extraction and metadata clients
	extractor := youtube.NewClient()
	metadataClient := metadata.NewClient(&cfg.YouTube)
	if !metadataClient.Configured() {
		logger.Warn("YOUTUBE_API_KEY is not set - metadata requests will fail until it is configured")
	}

	// Initialize download history repository
	var historyRepo history.Repository
	var db *database.PostgresDB
	if cfg.History.Driver == "postgres" {
		db, err = database.NewPostgresDB(&cfg.History.Postgres)
		if err != nil {
			logger.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		historyRepo = db
		logger.Info("Download history backed by PostgreSQL")
	} else {
		historyRepo = history.NewMemoryRepository()
		logger.Info("Download history kept in memory")
	}

	// Initialize handlers
	videoHandler := handlers.NewVideoHandler(extractor, metadataClient, cfg.Download.ExtractTimeout)
	downloadHandler := handlers.NewDownloadHandler(extractor, historyRepo, cfg.Download.ExtractTimeout)
	historyHandler := handlers.NewHistoryHandler(historyRepo)
	healthHandler := handlers.NewHealthHandler(metadataClient.Configured(), db)

	// Initialize router
	r := router.NewRouter(cfg, videoHandler, downloadHandler, historyHandler, healthHandler)

	// Start server
	go func() {
		logger.Infof("Starting server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := r.Start(); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if db != nil {
		db.Close()
	}

	logger.Info("Server shutdown complete")
}
