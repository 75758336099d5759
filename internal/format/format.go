// Package format classifies file extensions into media categories and
// validates conversion targets against per-category allow lists.
package format

import (
	"path/filepath"
	"sort"
	"strings"
)

// Category is the media category of a file extension.
type Category string

const (
	Image   Category = "image"
	Audio   Category = "audio"
	Video   Category = "video"
	Unknown Category = "unknown"
)

// Recognized input extensions per category. Some extensions are accepted as
// sources but deliberately absent from the target tables below (tif, wma,
// flv, wmv, m4v).
var (
	imageExtensions = map[string]bool{
		"jpg": true, "jpeg": true, "png": true, "webp": true,
		"gif": true, "bmp": true, "tiff": true, "tif": true,
	}
	audioExtensions = map[string]bool{
		"mp3": true, "wav": true, "ogg": true, "flac": true,
		"aac": true, "m4a": true, "wma": true, "opus": true,
	}
	videoExtensions = map[string]bool{
		"mp4": true, "avi": true, "mov": true, "mkv": true,
		"webm": true, "flv": true, "wmv": true, "m4v": true,
	}
)

// Allowed conversion targets per category.
var (
	imageTargets = map[string]bool{
		"jpg": true, "jpeg": true, "png": true, "webp": true,
		"gif": true, "bmp": true, "tiff": true,
	}
	audioTargets = map[string]bool{
		"mp3": true, "wav": true, "ogg": true, "flac": true,
		"aac": true, "m4a": true, "opus": true,
	}
	videoTargets = map[string]bool{
		"mp4": true, "avi": true, "mov": true, "webm": true, "mkv": true,
	}
)

var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
	"aac":  "audio/aac",
	"m4a":  "audio/mp4",
	"opus": "audio/opus",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"mkv":  "video/x-matroska",
}

// Extension returns the lowercased extension of a filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Classify maps an extension to its media category. It is case-insensitive
// and returns Unknown for anything not in the recognized sets.
func Classify(ext string) Category {
	ext = strings.ToLower(ext)
	switch {
	case imageExtensions[ext]:
		return Image
	case audioExtensions[ext]:
		return Audio
	case videoExtensions[ext]:
		return Video
	default:
		return Unknown
	}
}

// ValidTarget reports whether target is an allowed conversion target for the
// given category.
func ValidTarget(category Category, target string) bool {
	target = strings.ToLower(target)
	switch category {
	case Image:
		return imageTargets[target]
	case Audio:
		return audioTargets[target]
	case Video:
		return videoTargets[target]
	default:
		return false
	}
}

// Targets returns the allowed conversion targets for a category in sorted
// order. Unknown categories yield an empty slice.
func Targets(category Category) []string {
	var set map[string]bool
	switch category {
	case Image:
		set = imageTargets
	case Audio:
		set = audioTargets
	case Video:
		set = videoTargets
	default:
		return nil
	}

	targets := make([]string, 0, len(set))
	for target := range set {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}

// MIMEType returns the MIME type for a target format, falling back to
// application/octet-stream for unmapped formats.
func MIMEType(target string) string {
	if mime, ok := mimeTypes[strings.ToLower(target)]; ok {
		return mime
	}
	return "application/octet-stream"
}
