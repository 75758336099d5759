// Package main provides the entry point for the file converter server
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

	"github.com/convertfile/converter/internal/api"
	"github.com/convertfile/converter/internal/command"
	"github.com/convertfile/converter/internal/config"
	"github.com/convertfile/converter/internal/constants"
	"github.com/convertfile/converter/internal/conversion"
	"github.com/convertfile/converter/internal/download"
	"github.com/convertfile/converter/internal/filestore"
	"github.com/convertfile/converter/internal/middleware"
	"github.com/convertfile/converter/internal/models"
)

// version is set during build time using ldflags
var version string = "dev"

// tempFilePrefixes are the prefixes this server gives its temp artifacts.
// The periodic sweep only ever touches these.
var tempFilePrefixes = []string{"in_", "conv_", "youtube_", "spotify_"}

func main() {
	conf := config.New()

	if err := filestore.EnsureDirectoryExists(conf.TempDir); err != nil {
		log.Fatalf("Failed to ensure temp directory %s exists: %v", conf.TempDir, err)
	}

	middleware.InitCORS(conf.AllowedOrigins)

	runner := command.NewExecRunner()
	media := conversion.NewMediaConverter(runner)
	fetcher := download.NewFetcher(runner, conf.DownloadTimeout)

	handler := api.NewHandler(conf, media, fetcher)

	mux := http.NewServeMux()
	handler.SetupRoutes(mux)

	server := &http.Server{
		Addr:         ":" + conf.Port,
		Handler:      middleware.CORS(mux),
		ReadTimeout:  constants.HTTPReadTimeout,
		WriteTimeout: constants.HTTPWriteTimeout,
		IdleTimeout:  constants.HTTPIdleTimeout,
	}

	go setupFileCleanup(conf)

	// Graceful shutdown setup
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Printf("File Converter Server version: %s\n", version)
		fmt.Printf("Server starting on http://localhost:%s\n", conf.Port)
		fmt.Println("Allowed Origins:", conf.AllowedOrigins)
		fmt.Println("Make sure ffmpeg and yt-dlp are installed and accessible in your PATH.")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	<-stop // Wait for interrupt signal

	// Initiate graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	fmt.Println("Server shutting down...")
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	fmt.Println("Server gracefully stopped")
}

// setupFileCleanup schedules periodic cleanup of orphaned temp artifacts.
// Requests remove their own files; the sweep only catches leftovers from
// crashes or kills.
func setupFileCleanup(conf models.Config) {
	initialDelay := constants.FileCleanupInitialDelay
	cleanupInterval := constants.FileCleanupInterval

	log.Printf("Scheduling initial temp file cleanup in %v...", initialDelay)
	time.AfterFunc(initialDelay, func() {
		cleanupFiles(conf)
		ticker := time.NewTicker(cleanupInterval)
		log.Printf("Starting periodic cleanup task (every %v)...", cleanupInterval)
		for range ticker.C {
			cleanupFiles(conf)
		}
	})
}

// cleanupFiles removes old temp artifacts from the configured temp directory.
func cleanupFiles(conf models.Config) {
	removed := filestore.CleanupOldFiles(conf.TempDir, constants.FileMaxAge, tempFilePrefixes)
	if removed > 0 {
		log.Printf("Temp file cleanup finished. Removed %d orphaned files.", removed)
	} else {
		log.Println("Temp file cleanup finished. No old files needed removal.")
	}
}
