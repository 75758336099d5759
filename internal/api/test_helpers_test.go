package api

import (
	"context"
	"os"
	"testing"

	"github.com/convertfile/converter/internal/download"
	"github.com/convertfile/converter/internal/format"
	"github.com/convertfile/converter/internal/models"
)

// stubMedia is a MediaConverter double. On success it writes a placeholder
// output file the way ffmpeg would.
type stubMedia struct {
	err   error
	calls int
}

func (s *stubMedia) Convert(ctx context.Context, sourcePath, targetPath, targetFormat string, sourceCategory format.Category) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(targetPath, []byte("converted media"), 0o644)
}

// stubFetcher is a Fetcher double. On success it writes the output template
// path as the downloaded file, unless produce overrides the behavior.
type stubFetcher struct {
	err     error
	produce func(opts download.Options) (string, error)
	calls   []download.Options
}

func (s *stubFetcher) Fetch(ctx context.Context, opts download.Options) (string, error) {
	s.calls = append(s.calls, opts)
	if s.err != nil {
		return "", s.err
	}
	if s.produce != nil {
		return s.produce(opts)
	}
	if err := os.WriteFile(opts.OutputTemplate, []byte("downloaded media"), 0o644); err != nil {
		return "", err
	}
	return opts.OutputTemplate, nil
}

type handlerTestEnv struct {
	handler *Handler
	media   *stubMedia
	fetcher *stubFetcher
	tempDir string
}

func newHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()

	tempDir := t.TempDir()
	config := models.Config{
		Port:        "5000",
		MaxFileSize: 100 * 1024 * 1024,
		TempDir:     tempDir,
	}

	media := &stubMedia{}
	fetcher := &stubFetcher{}

	return &handlerTestEnv{
		handler: NewHandler(config, media, fetcher),
		media:   media,
		fetcher: fetcher,
		tempDir: tempDir,
	}
}

// tempDirEntries lists the temp dir so tests can assert the cleanup
// invariant: no artifacts survive a completed request.
func (env *handlerTestEnv) tempDirEntries(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(env.tempDir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}
