// Package models contains data structures used across the application
package models

import "time"

// Config holds application configuration settings.
type Config struct {
	Port            string
	MaxFileSize     int64
	TempDir         string
	AllowedOrigins  []string
	DownloadTimeout time.Duration
}

// APIResponse is the standard JSON response structure for errors and messages.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// URLDownloadRequest is the payload for the URL download endpoints.
type URLDownloadRequest struct {
	URL     string `json:"url"`
	Format  string `json:"format,omitempty"`
	Quality string `json:"quality,omitempty"`
}

// FormatsResponse lists the allowed conversion targets per media category.
type FormatsResponse struct {
	Image []string `json:"image"`
	Audio []string `json:"audio"`
	Video []string `json:"video"`
}
