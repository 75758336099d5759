// Package config handles loading and managing application configuration
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/convertfile/converter/internal/constants"
	"github.com/convertfile/converter/internal/models"
)

// New loads configuration from the environment (and an optional .env file)
// and returns a Config struct.
func New() models.Config {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration overrides from .env")
	}

	var config models.Config

	config.Port = getEnv("PORT", constants.DefaultPort)

	maxFileSizeMB := parseIntEnv("MAX_FILE_SIZE_MB", constants.DefaultMaxFileSizeMB)
	config.MaxFileSize = int64(maxFileSizeMB) * 1024 * 1024 // Convert MB to bytes

	config.TempDir = getEnv("TEMP_DIR", os.TempDir())

	timeoutSeconds := parseIntEnv("DOWNLOAD_TIMEOUT_SECONDS", constants.DefaultDownloadTimeoutSeconds)
	if timeoutSeconds < 1 {
		log.Printf("Warning: Invalid DOWNLOAD_TIMEOUT_SECONDS %d, using default %d", timeoutSeconds, constants.DefaultDownloadTimeoutSeconds)
		timeoutSeconds = constants.DefaultDownloadTimeoutSeconds
	}
	config.DownloadTimeout = time.Duration(timeoutSeconds) * time.Second

	allowedOriginsStr := getEnv("ALLOWED_ORIGINS", "")
	if allowedOriginsStr == "" {
		log.Println("Warning: ALLOWED_ORIGINS not set. Allowing all origins ('*'). THIS IS INSECURE FOR PRODUCTION.")
		config.AllowedOrigins = []string{"*"}
	} else {
		origins := strings.Split(allowedOriginsStr, ",")
		config.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				config.AllowedOrigins = append(config.AllowedOrigins, trimmed)
			}
		}
	}

	log.Printf("Configuration loaded: Port=%s, MaxFileSize=%dMB, TempDir=%s, DownloadTimeout=%s, AllowedOrigins=%v",
		config.Port, maxFileSizeMB, config.TempDir, config.DownloadTimeout, config.AllowedOrigins)

	return config
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// parseIntEnv retrieves an integer environment variable or returns a default.
func parseIntEnv(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s ('%s'), using default %d", key, valueStr, fallback)
		return fallback
	}
	return value
}
