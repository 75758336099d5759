// Package download fetches remote media via yt-dlp.
package download

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/convertfile/converter/internal/command"
	"github.com/convertfile/converter/internal/constants"
)

// videoQualitySelectors maps quality tiers to yt-dlp format selector
// expressions with explicit height ceilings.
var videoQualitySelectors = map[string]string{
	"1080p": "bestvideo[height<=1080][ext=mp4]+bestaudio[ext=m4a]/best[height<=1080][ext=mp4]",
	"720p":  "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/best[height<=720][ext=mp4]",
	"480p":  "bestvideo[height<=480][ext=mp4]+bestaudio[ext=m4a]/best[height<=480][ext=mp4]",
	"360p":  "bestvideo[height<=360][ext=mp4]+bestaudio[ext=m4a]/best[height<=360][ext=mp4]",
}

// bestVideoSelector is used when no height cap is requested.
const bestVideoSelector = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"

// DownloadError indicates yt-dlp exited non-zero. Output carries a truncated
// excerpt of the tool's stderr.
type DownloadError struct {
	Output string
	Err    error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("yt-dlp error: %s", e.Output)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// TimeoutError indicates the download exceeded the configured hard timeout.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("download timed out after %s", e.Timeout)
}

// ResultNotFoundError indicates yt-dlp exited zero but no file matching the
// requested output template was found on disk.
type ResultNotFoundError struct {
	Stem string
}

func (e *ResultNotFoundError) Error() string {
	return fmt.Sprintf("no downloaded file found for %s", e.Stem)
}

// Options configures a single fetch.
type Options struct {
	URL string

	// OutputTemplate is the requested output path. Its stem anchors result
	// resolution; the suffix may be a yt-dlp template such as ".%(ext)s".
	OutputTemplate string

	// Format selects audio extraction ("mp3") or video download ("mp4").
	Format string

	// Quality is the video quality tier (best, 1080p, 720p, 480p, 360p).
	// Unrecognized tiers fall back to an unconstrained "best" selector.
	Quality string

	// AllowPlaylist permits playlist expansion; off by default.
	AllowPlaylist bool
}

// Fetcher downloads remote media via yt-dlp.
type Fetcher struct {
	runner  command.Runner
	timeout time.Duration
}

// NewFetcher creates a Fetcher. A non-positive timeout falls back to the
// default download timeout.
func NewFetcher(runner command.Runner, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = constants.DefaultDownloadTimeoutSeconds * time.Second
	}
	return &Fetcher{runner: runner, timeout: timeout}
}

// Fetch downloads opts.URL and returns the resolved on-disk path of the
// result. yt-dlp may append or change the extension of the requested output,
// so the actual file is located by globbing for the template's stem.
// Playlist downloads can match several files; the lexically first one is
// returned.
func (f *Fetcher) Fetch(ctx context.Context, opts Options) (string, error) {
	if _, err := f.runner.LookPath(constants.YtdlpTool); err != nil {
		return "", &command.ToolNotFoundError{Tool: constants.YtdlpTool}
	}

	args := []string{"-o", opts.OutputTemplate}
	if !opts.AllowPlaylist {
		args = append(args, "--no-playlist")
	}

	switch opts.Format {
	case "mp3":
		args = append(args, "-x", "--audio-format", "mp3", "--audio-quality", "0")
	case "mp4":
		if opts.Quality == "best" {
			args = append(args, "-f", bestVideoSelector)
		} else {
			selector, ok := videoQualitySelectors[opts.Quality]
			if !ok {
				selector = "best"
			}
			args = append(args, "-f", selector)
		}
	}
	args = append(args, opts.URL)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	log.Printf("Executing yt-dlp: %s", strings.Join(args, " "))
	_, stderr, err := f.runner.Run(ctx, constants.YtdlpTool, args...)
	if ctx.Err() == context.DeadlineExceeded {
		return "", &TimeoutError{Timeout: f.timeout}
	}
	if err != nil {
		excerpt := command.Truncate(stderr, constants.YtdlpErrorExcerptLimit)
		log.Printf("ERROR: yt-dlp failed for %s: %v: %s", opts.URL, err, excerpt)
		return "", &DownloadError{Output: excerpt, Err: err}
	}

	return resolveResult(opts.OutputTemplate)
}

// resolveResult locates the file yt-dlp actually produced. Matches are
// sorted so the choice among multiple playlist files is deterministic.
func resolveResult(outputTemplate string) (string, error) {
	base := filepath.Base(outputTemplate)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(outputTemplate), stem+"*"))
	if err != nil {
		return "", fmt.Errorf("failed to search for downloaded file: %w", err)
	}
	if len(matches) == 0 {
		return "", &ResultNotFoundError{Stem: stem}
	}

	sort.Strings(matches)
	return matches[0], nil
}
