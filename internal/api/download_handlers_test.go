package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convertfile/converter/internal/download"
	"github.com/convertfile/converter/internal/models"
)

func jsonRequest(t *testing.T, route string, payload interface{}) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, route, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestYoutubeHandler(t *testing.T) {
	t.Run("success with defaults", func(t *testing.T) {
		env := newHandlerTestEnv(t)

		req := jsonRequest(t, RouteYoutube, models.URLDownloadRequest{URL: "https://www.youtube.com/watch?v=abc"})
		res := httptest.NewRecorder()

		env.handler.YoutubeHandler(res, req)

		require.Equal(t, http.StatusOK, res.Code, res.Body.String())
		assert.Equal(t, "audio/mpeg", res.Header().Get("Content-Type"))
		assert.Contains(t, res.Header().Get("Content-Disposition"), "youtube_download.mp3")
		assert.Equal(t, "downloaded media", res.Body.String())

		require.Len(t, env.fetcher.calls, 1)
		opts := env.fetcher.calls[0]
		assert.Equal(t, "mp3", opts.Format)
		assert.Equal(t, "best", opts.Quality)
		assert.False(t, opts.AllowPlaylist)
		assert.True(t, strings.HasPrefix(filepath.Base(opts.OutputTemplate), "youtube_"))

		assert.Empty(t, env.tempDirEntries(t), "downloaded artifacts must be cleaned up after streaming")
	})

	t.Run("mp4 with quality tier", func(t *testing.T) {
		env := newHandlerTestEnv(t)

		req := jsonRequest(t, RouteYoutube, models.URLDownloadRequest{
			URL:     "https://youtu.be/abc",
			Format:  "mp4",
			Quality: "720p",
		})
		res := httptest.NewRecorder()

		env.handler.YoutubeHandler(res, req)

		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "video/mp4", res.Header().Get("Content-Type"))

		require.Len(t, env.fetcher.calls, 1)
		assert.Equal(t, "mp4", env.fetcher.calls[0].Format)
		assert.Equal(t, "720p", env.fetcher.calls[0].Quality)
	})

	t.Run("renamed download is still cleaned up", func(t *testing.T) {
		env := newHandlerTestEnv(t)
		env.fetcher.produce = func(opts download.Options) (string, error) {
			// Simulate yt-dlp appending an extension.
			actual := strings.TrimSuffix(opts.OutputTemplate, ".mp3") + ".opus.mp3"
			if err := os.WriteFile(actual, []byte("downloaded media"), 0o644); err != nil {
				return "", err
			}
			return actual, nil
		}

		req := jsonRequest(t, RouteYoutube, models.URLDownloadRequest{URL: "https://youtu.be/abc"})
		res := httptest.NewRecorder()

		env.handler.YoutubeHandler(res, req)

		require.Equal(t, http.StatusOK, res.Code)
		assert.Empty(t, env.tempDirEntries(t), "stem glob cleanup must catch renamed outputs")
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name          string
			payload       models.URLDownloadRequest
			expectedError string
		}{
			{"missing url", models.URLDownloadRequest{}, "URL not provided"},
			{"wrong host", models.URLDownloadRequest{URL: "https://example.com/video"}, "Invalid YouTube URL"},
			{"bad format", models.URLDownloadRequest{URL: "https://youtu.be/abc", Format: "flac"}, "Format must be mp3 or mp4"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := newHandlerTestEnv(t)

				req := jsonRequest(t, RouteYoutube, tt.payload)
				res := httptest.NewRecorder()

				env.handler.YoutubeHandler(res, req)

				assert.Equal(t, http.StatusBadRequest, res.Code)

				var payload models.APIResponse
				require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
				assert.Contains(t, payload.Error, tt.expectedError)
				assert.Empty(t, env.fetcher.calls)
				assert.Empty(t, env.tempDirEntries(t))
			})
		}
	})

	t.Run("download failure", func(t *testing.T) {
		env := newHandlerTestEnv(t)
		env.fetcher.err = &download.DownloadError{Output: "boom", Err: errors.New("exit status 1")}

		req := jsonRequest(t, RouteYoutube, models.URLDownloadRequest{URL: "https://youtu.be/abc"})
		res := httptest.NewRecorder()

		env.handler.YoutubeHandler(res, req)

		assert.Equal(t, http.StatusInternalServerError, res.Code)

		var payload models.APIResponse
		require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
		assert.Contains(t, payload.Error, "boom")
		assert.Empty(t, env.tempDirEntries(t), "no temp artifacts may survive a failed download")
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		env := newHandlerTestEnv(t)

		req := httptest.NewRequest(http.MethodPost, RouteYoutube, strings.NewReader("{not json"))
		res := httptest.NewRecorder()

		env.handler.YoutubeHandler(res, req)

		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestSpotifyHandler(t *testing.T) {
	t.Run("track download", func(t *testing.T) {
		env := newHandlerTestEnv(t)

		req := jsonRequest(t, RouteSpotify, models.URLDownloadRequest{URL: "https://open.spotify.com/track/xyz789"})
		res := httptest.NewRecorder()

		env.handler.SpotifyHandler(res, req)

		require.Equal(t, http.StatusOK, res.Code, res.Body.String())
		assert.Equal(t, "audio/mpeg", res.Header().Get("Content-Type"))
		assert.Contains(t, res.Header().Get("Content-Disposition"), "spotify_xyz789.mp3")

		require.Len(t, env.fetcher.calls, 1)
		opts := env.fetcher.calls[0]
		assert.Equal(t, "mp3", opts.Format)
		assert.False(t, opts.AllowPlaylist)
		assert.True(t, strings.HasSuffix(opts.OutputTemplate, ".mp3"))

		assert.Empty(t, env.tempDirEntries(t))
	})

	t.Run("playlist uses extension template and allows playlists", func(t *testing.T) {
		env := newHandlerTestEnv(t)
		env.fetcher.produce = func(opts download.Options) (string, error) {
			actual := strings.TrimSuffix(opts.OutputTemplate, ".%(ext)s") + ".mp3"
			if err := os.WriteFile(actual, []byte("downloaded media"), 0o644); err != nil {
				return "", err
			}
			return actual, nil
		}

		req := jsonRequest(t, RouteSpotify, models.URLDownloadRequest{URL: "https://open.spotify.com/playlist/abc123"})
		res := httptest.NewRecorder()

		env.handler.SpotifyHandler(res, req)

		require.Equal(t, http.StatusOK, res.Code)

		require.Len(t, env.fetcher.calls, 1)
		opts := env.fetcher.calls[0]
		assert.True(t, opts.AllowPlaylist)
		assert.True(t, strings.HasSuffix(opts.OutputTemplate, ".%(ext)s"))

		assert.Empty(t, env.tempDirEntries(t))
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name          string
			payload       models.URLDownloadRequest
			expectedError string
		}{
			{"missing url", models.URLDownloadRequest{}, "URL not provided"},
			{"wrong host", models.URLDownloadRequest{URL: "https://youtube.com/watch?v=abc"}, "Invalid Spotify URL"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := newHandlerTestEnv(t)

				req := jsonRequest(t, RouteSpotify, tt.payload)
				res := httptest.NewRecorder()

				env.handler.SpotifyHandler(res, req)

				assert.Equal(t, http.StatusBadRequest, res.Code)
				assert.Empty(t, env.fetcher.calls)
			})
		}
	})
}
