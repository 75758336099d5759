// Package filestore handles temp artifact allocation, cleanup and filename
// sanitization.
package filestore

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/convertfile/converter/internal/constants"
)

var (
	filenameSanitizeRegex   = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
	multipleUnderscoreRegex = regexp.MustCompile(`_+`)
)

// EnsureDirectoryExists ensures the specified directory exists
func EnsureDirectoryExists(dirPath string) error {
	if dirPath == "" {
		return fmt.Errorf("empty directory path")
	}
	// Use MkdirAll which is idempotent and creates parent dirs if needed
	if err := os.MkdirAll(dirPath, constants.DirectoryPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// NewTempPath allocates a unique path inside dir for a temp artifact.
// The random name avoids collisions between concurrent requests. The file
// itself is not created. ext is appended verbatim and may be a yt-dlp
// output template suffix such as ".%(ext)s".
func NewTempPath(dir, prefix, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", prefix, uuid.New().String(), ext))
}

// TempSet tracks temp artifacts owned by a single request so they can be
// removed on every exit path with one deferred Cleanup call.
type TempSet struct {
	paths []string
}

// Add registers a path for cleanup. Empty paths are ignored.
func (ts *TempSet) Add(path string) {
	if path != "" {
		ts.paths = append(ts.paths, path)
	}
}

// AddGlob registers every existing file matching pattern. Used for external
// tools that rename their output or produce multiple files from one request.
func (ts *TempSet) AddGlob(pattern string) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		log.Printf("WARN: Invalid cleanup glob pattern %q: %v", pattern, err)
		return
	}
	for _, match := range matches {
		ts.Add(match)
	}
}

// Cleanup removes all registered artifacts. Missing files are not an error;
// removal failures are logged and never surfaced to the request.
func (ts *TempSet) Cleanup() {
	for _, path := range ts.paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("WARN: Failed to remove temp artifact %s: %v", path, err)
		}
	}
	ts.paths = nil
}

// SanitizeFilename sanitizes a filename to be safe for file system operations
// and Content-Disposition headers.
func SanitizeFilename(fileName string) string {
	if fileName == "" {
		return fallbackFilename()
	}

	baseName := filepath.Base(fileName)
	sanitized := filenameSanitizeRegex.ReplaceAllString(baseName, "_")
	sanitized = multipleUnderscoreRegex.ReplaceAllString(sanitized, "_")
	sanitized = strings.Trim(sanitized, "._")

	// Limit length
	if len(sanitized) > constants.MaxFilenameLength {
		ext := filepath.Ext(sanitized)
		baseRunes := []rune(strings.TrimSuffix(sanitized, ext))
		maxBaseLen := constants.MaxFilenameLength - len(ext)

		if maxBaseLen < 0 {
			// Extension is longer than max length, truncate the whole string
			sanitizedRunes := []rune(sanitized)
			maxLen := constants.MaxFilenameLength
			if len(sanitizedRunes) < maxLen {
				maxLen = len(sanitizedRunes)
			}
			sanitized = string(sanitizedRunes[:maxLen])
		} else if len(baseRunes) > maxBaseLen {
			// Base name is too long, truncate it and append extension
			sanitized = string(baseRunes[:maxBaseLen]) + ext
		}
	}

	if sanitized == "" || sanitized == "." || sanitized == ".." {
		// Fallback for edge cases where sanitization results in an invalid name
		return fallbackFilename()
	}
	return sanitized
}

func fallbackFilename() string {
	return fmt.Sprintf("sanitized_fallback_%d", time.Now().UnixNano())
}

// CleanupOldFiles removes files older than maxAge from the specified
// directory. It only touches files carrying one of the given prefixes so a
// shared temp directory is never swept wholesale.
func CleanupOldFiles(dirPath string, maxAge time.Duration, prefixes []string) int {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if !os.IsNotExist(err) { // Log only if it's not a "directory not found" error
			log.Printf("Error reading directory %s for cleanup: %v", dirPath, err)
		}
		return 0 // Directory doesn't exist or error reading, nothing removed
	}

	now := time.Now()
	removedCount := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue // Skip subdirectories
		}
		if !hasAnyPrefix(entry.Name(), prefixes) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Printf("Error getting info for file %s in %s during cleanup: %v", entry.Name(), dirPath, err)
			continue
		}

		if now.Sub(info.ModTime()) > maxAge {
			filePath := filepath.Join(dirPath, entry.Name())
			err := os.Remove(filePath)
			if err != nil && !os.IsNotExist(err) { // Avoid logging errors for files already deleted
				log.Printf("Error removing old file %s: %v", filePath, err)
			} else if err == nil {
				removedCount++
			}
		}
	}

	if removedCount > 0 {
		log.Printf("Removed %d old files from %s", removedCount, dirPath)
	}
	return removedCount
}

func hasAnyPrefix(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
