// Package constants defines application-wide constant values
package constants

import (
	"os"
	"time"
)

// HTTP Server Configuration
const (
	// DefaultPort is the default server port
	DefaultPort = "5000"

	// HTTPReadTimeout is the maximum duration for reading the entire request
	HTTPReadTimeout = 120 * time.Second

	// HTTPWriteTimeout is the maximum duration before timing out writes of the response.
	// Must exceed the download timeout since fetched bytes stream back inside the same request.
	HTTPWriteTimeout = 15 * time.Minute

	// HTTPIdleTimeout is the maximum amount of time to wait for the next request
	HTTPIdleTimeout = 180 * time.Second

	// ShutdownTimeout is the graceful shutdown timeout
	ShutdownTimeout = 30 * time.Second
)

// Request Size Limits
const (
	// MaxJSONRequestSize is the maximum size for JSON request bodies
	MaxJSONRequestSize = 1 * 1024 * 1024 // 1 MB

	// MultipartMemoryLimit is the maximum memory used for multipart form parsing
	MultipartMemoryLimit = 32 << 20 // 32 MB

	// UploadSizeBuffer is extra buffer added to MaxFileSize for upload handling
	UploadSizeBuffer = 1 * 1024 * 1024 // 1 MB
)

// External Tool Configuration
const (
	// FFmpegTool is the transcoding binary looked up on PATH
	FFmpegTool = "ffmpeg"

	// YtdlpTool is the downloader binary looked up on PATH
	YtdlpTool = "yt-dlp"

	// FFmpegErrorExcerptLimit caps the ffmpeg stderr excerpt surfaced to clients
	FFmpegErrorExcerptLimit = 200

	// YtdlpErrorExcerptLimit caps the yt-dlp stderr excerpt surfaced to clients
	YtdlpErrorExcerptLimit = 300

	// DefaultDownloadTimeoutSeconds is the hard ceiling for a single yt-dlp invocation
	DefaultDownloadTimeoutSeconds = 600
)

// Image Conversion Configuration
const (
	// ImageQuality is the fixed encoder quality for lossy image targets
	ImageQuality = 90
)

// Temp File Cleanup Configuration
const (
	// FileCleanupInitialDelay is the delay before the first cleanup run
	FileCleanupInitialDelay = 5 * time.Minute

	// FileCleanupInterval is the interval between cleanup runs
	FileCleanupInterval = 1 * time.Hour

	// FileMaxAge is the maximum age of orphaned temp artifacts before cleanup
	FileMaxAge = 6 * time.Hour
)

// File System Configuration
const (
	// DirectoryPermissions is the default permission mode for created directories
	DirectoryPermissions os.FileMode = 0755

	// MaxFilenameLength is the maximum length for sanitized filenames
	MaxFilenameLength = 100
)

// Default Configuration Values
const (
	// DefaultMaxFileSizeMB is the default maximum upload size in megabytes
	DefaultMaxFileSizeMB = 500
)
