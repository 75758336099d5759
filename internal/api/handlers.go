package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/convertfile/converter/internal/constants"
	"github.com/convertfile/converter/internal/conversion"
	"github.com/convertfile/converter/internal/download"
	"github.com/convertfile/converter/internal/filestore"
	"github.com/convertfile/converter/internal/format"
	"github.com/convertfile/converter/internal/models"
	"github.com/convertfile/converter/internal/utils"
)

// MediaConverter re-encodes audio and video files.
type MediaConverter interface {
	Convert(ctx context.Context, sourcePath, targetPath, targetFormat string, sourceCategory format.Category) error
}

// Fetcher downloads remote media and returns the resolved on-disk path.
type Fetcher interface {
	Fetch(ctx context.Context, opts download.Options) (string, error)
}

// ImageConverter re-encodes an image file in-process.
type ImageConverter func(sourcePath, targetPath, targetFormat string) error

// Handler encapsulates dependencies for API handlers.
type Handler struct {
	Config       models.Config
	Media        MediaConverter
	Fetcher      Fetcher
	ConvertImage ImageConverter
}

// NewHandler creates a new API handler.
func NewHandler(config models.Config, media MediaConverter, fetcher Fetcher) *Handler {
	return &Handler{
		Config:       config,
		Media:        media,
		Fetcher:      fetcher,
		ConvertImage: conversion.ConvertImage,
	}
}

// SetupRoutes configures the HTTP routes.
func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc(RouteConvert, h.ConvertHandler)
	mux.HandleFunc(RouteYoutube, h.YoutubeHandler)
	mux.HandleFunc(RouteSpotify, h.SpotifyHandler)
	mux.HandleFunc(RouteFormats, h.FormatsHandler)
	mux.HandleFunc(RouteIndex, h.IndexHandler)
}

// ConvertHandler accepts a multipart file upload plus a target format and
// responds with the converted file. Temp artifacts are removed on every exit
// path by the deferred cleanup.
func (h *Handler) ConvertHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxUploadSize := h.Config.MaxFileSize + constants.UploadSizeBuffer
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(constants.MultipartMemoryLimit); err != nil {
		if errors.Is(err, http.ErrMissingBoundary) {
			h.sendErrorResponse(w, "Invalid request: Missing multipart boundary", http.StatusBadRequest)
		} else if errors.Is(err, http.ErrNotMultipart) {
			h.sendErrorResponse(w, "Invalid request: Not a multipart request", http.StatusBadRequest)
		} else if strings.Contains(err.Error(), "request body too large") {
			h.sendErrorResponse(w, fmt.Sprintf("Upload failed: File exceeds maximum allowed size (%s)", utils.FormatBytesToMB(h.Config.MaxFileSize)), http.StatusRequestEntityTooLarge)
		} else {
			errMsg := fmt.Sprintf("Failed to parse multipart form: %v", err)
			log.Printf("WARN: %s", errMsg)
			h.sendErrorResponse(w, errMsg, http.StatusBadRequest)
		}
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			log.Printf("WARN: Error removing multipart temp files: %v", err)
		}
	}()

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.sendErrorResponse(w, "Missing 'file' part in form data", http.StatusBadRequest)
		} else {
			errMsg := fmt.Sprintf("Failed to get file from form: %v", err)
			log.Printf("WARN: %s", errMsg)
			h.sendErrorResponse(w, errMsg, http.StatusBadRequest)
		}
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("WARN: Error closing uploaded file handle: %v", closeErr)
		}
	}()

	if fileHeader.Filename == "" {
		h.sendErrorResponse(w, "No file selected", http.StatusBadRequest)
		return
	}

	targetFormat := strings.ToLower(strings.TrimSpace(r.FormValue("to_format")))
	if targetFormat == "" {
		h.sendErrorResponse(w, "Missing required field: to_format", http.StatusBadRequest)
		return
	}

	ext := format.Extension(fileHeader.Filename)
	category := format.Classify(ext)
	if category == format.Unknown {
		h.sendErrorResponse(w, "Unsupported file type", http.StatusBadRequest)
		return
	}
	if !format.ValidTarget(category, targetFormat) {
		h.sendErrorResponse(w, fmt.Sprintf("Invalid target format %q for %s", targetFormat, category), http.StatusBadRequest)
		return
	}

	temps := &filestore.TempSet{}
	defer temps.Cleanup()

	inputPath := filestore.NewTempPath(h.Config.TempDir, "in", "."+ext)
	temps.Add(inputPath)
	if ok := h.saveUpload(w, file, inputPath); !ok {
		return
	}

	outputPath := filestore.NewTempPath(h.Config.TempDir, "conv", "."+targetFormat)
	temps.Add(outputPath)

	log.Printf("Converting %s (%s) to %s", fileHeader.Filename, category, targetFormat)
	if category == format.Image {
		err = h.ConvertImage(inputPath, outputPath, targetFormat)
	} else {
		err = h.Media.Convert(r.Context(), inputPath, outputPath, targetFormat, category)
	}
	if err != nil {
		log.Printf("ERROR: Conversion failed for %s: %v", fileHeader.Filename, err)
		h.sendErrorResponse(w, fmt.Sprintf("Conversion failed: %v", err), http.StatusInternalServerError)
		return
	}

	sanitized := filestore.SanitizeFilename(fileHeader.Filename)
	baseName := strings.TrimSuffix(sanitized, filepath.Ext(sanitized))
	downloadName := fmt.Sprintf("%s_converted.%s", baseName, targetFormat)
	h.serveFile(w, r, outputPath, downloadName, format.MIMEType(targetFormat))
}

// YoutubeHandler downloads a YouTube video as MP4 or extracts its audio as MP3.
func (h *Handler) YoutubeHandler(w http.ResponseWriter, r *http.Request) {
	request, ok := h.decodeDownloadRequest(w, r)
	if !ok {
		return
	}

	url := strings.TrimSpace(request.URL)
	if url == "" {
		h.sendErrorResponse(w, "URL not provided", http.StatusBadRequest)
		return
	}
	if !strings.Contains(url, "youtube.com") && !strings.Contains(url, "youtu.be") {
		h.sendErrorResponse(w, "Invalid YouTube URL", http.StatusBadRequest)
		return
	}

	formatType := strings.ToLower(strings.TrimSpace(request.Format))
	if formatType == "" {
		formatType = "mp3"
	}
	if formatType != "mp3" && formatType != "mp4" {
		h.sendErrorResponse(w, "Format must be mp3 or mp4", http.StatusBadRequest)
		return
	}

	quality := strings.ToLower(strings.TrimSpace(request.Quality))
	if quality == "" {
		quality = "best"
	}

	outputTemplate := filestore.NewTempPath(h.Config.TempDir, "youtube", "."+formatType)
	temps := &filestore.TempSet{}
	defer func() {
		// yt-dlp may rename or multiply the output, so sweep by stem.
		temps.AddGlob(stemGlob(outputTemplate))
		temps.Cleanup()
	}()

	resolvedPath, err := h.Fetcher.Fetch(r.Context(), download.Options{
		URL:            url,
		OutputTemplate: outputTemplate,
		Format:         formatType,
		Quality:        quality,
	})
	if err != nil {
		log.Printf("ERROR: YouTube download failed for %s: %v", url, err)
		h.sendErrorResponse(w, fmt.Sprintf("YouTube download failed: %v", err), http.StatusInternalServerError)
		return
	}

	downloadName := "youtube_download." + formatType
	h.serveFile(w, r, resolvedPath, downloadName, format.MIMEType(formatType))
}

// SpotifyHandler downloads a Spotify track or playlist as MP3.
func (h *Handler) SpotifyHandler(w http.ResponseWriter, r *http.Request) {
	request, ok := h.decodeDownloadRequest(w, r)
	if !ok {
		return
	}

	url := strings.TrimSpace(request.URL)
	if url == "" {
		h.sendErrorResponse(w, "URL not provided", http.StatusBadRequest)
		return
	}
	if !strings.Contains(url, "spotify.com") {
		h.sendErrorResponse(w, "Invalid Spotify URL", http.StatusBadRequest)
		return
	}

	// Playlist URLs produce several files; use a yt-dlp extension template
	// and let result resolution pick the first file.
	isPlaylist := strings.Contains(strings.ToLower(url), "playlist")
	suffix := ".mp3"
	if isPlaylist {
		suffix = ".%(ext)s"
	}

	outputTemplate := filestore.NewTempPath(h.Config.TempDir, "spotify", suffix)
	temps := &filestore.TempSet{}
	defer func() {
		temps.AddGlob(stemGlob(outputTemplate))
		temps.Cleanup()
	}()

	resolvedPath, err := h.Fetcher.Fetch(r.Context(), download.Options{
		URL:            url,
		OutputTemplate: outputTemplate,
		Format:         "mp3",
		AllowPlaylist:  isPlaylist,
	})
	if err != nil {
		log.Printf("ERROR: Spotify download failed for %s: %v", url, err)
		h.sendErrorResponse(w, fmt.Sprintf("Spotify download failed: %v", err), http.StatusInternalServerError)
		return
	}

	downloadName := spotifyDownloadName(url)
	h.serveFile(w, r, resolvedPath, downloadName, format.MIMEType("mp3"))
}

// FormatsHandler lists the allowed conversion targets per media category.
func (h *Handler) FormatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := models.FormatsResponse{
		Image: format.Targets(format.Image),
		Audio: format.Targets(format.Audio),
		Video: format.Targets(format.Video),
	}
	h.sendJSONResponse(w, response, http.StatusOK)
}

// IndexHandler serves a minimal HTML description of the API.
func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != RouteIndex {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		h.sendErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<html>
<body style="font-family: sans-serif; padding: 2rem;">
<h1>File Converter API</h1>
<ul>
<li><code>POST /api/convert</code> - Convert an uploaded file (image, audio, video)</li>
<li><code>POST /api/youtube</code> - Download from YouTube (MP3 or MP4)</li>
<li><code>POST /api/spotify</code> - Download from Spotify (MP3)</li>
<li><code>GET /api/formats</code> - List supported target formats</li>
</ul>
</body>
</html>
`)
}

// decodeDownloadRequest parses the JSON body shared by the URL download
// endpoints. It writes the error response itself when parsing fails.
func (h *Handler) decodeDownloadRequest(w http.ResponseWriter, r *http.Request) (models.URLDownloadRequest, bool) {
	var request models.URLDownloadRequest

	if r.Method != http.MethodPost {
		h.sendErrorResponse(w, "Method not allowed", http.StatusMethodNotAllowed)
		return request, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxJSONRequestSize)
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		errMsg := fmt.Sprintf("Failed to parse request: %v", err)
		log.Printf("WARN: %s", errMsg)
		h.sendErrorResponse(w, errMsg, http.StatusBadRequest)
		return request, false
	}
	return request, true
}

// saveUpload streams the uploaded file to inputPath, enforcing the size cap
// a second time in case the multipart parser buffered to disk. Reports
// whether the caller may proceed; error responses are already written.
func (h *Handler) saveUpload(w http.ResponseWriter, file io.Reader, inputPath string) bool {
	outFile, err := os.Create(inputPath)
	if err != nil {
		errMsg := fmt.Sprintf("Failed to create file for saving upload: %v", err)
		log.Printf("ERROR: %s", errMsg)
		h.sendErrorResponse(w, errMsg, http.StatusInternalServerError)
		return false
	}
	defer func() {
		if closeErr := outFile.Close(); closeErr != nil {
			log.Printf("WARN: Error closing saved upload file %s: %v", inputPath, closeErr)
		}
	}()

	limitedReader := &io.LimitedReader{R: file, N: h.Config.MaxFileSize + 1}
	if _, err := io.Copy(outFile, limitedReader); err != nil {
		errMsg := fmt.Sprintf("Failed to save uploaded file: %v", err)
		log.Printf("ERROR: %s", errMsg)
		h.sendErrorResponse(w, errMsg, http.StatusInternalServerError)
		return false
	}
	if limitedReader.N <= 0 {
		h.sendErrorResponse(w, fmt.Sprintf("Upload failed: File exceeds maximum allowed size (%s)", utils.FormatBytesToMB(h.Config.MaxFileSize)), http.StatusRequestEntityTooLarge)
		return false
	}
	return true
}

// serveFile streams a converted or downloaded file as an attachment.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, path, downloadName, contentType string) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		log.Printf("ERROR: Result file missing before streaming %s: %v", path, err)
		h.sendErrorResponse(w, "Result file not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(fileInfo.Size(), 10))
	http.ServeFile(w, r, path)
}

// stemGlob builds a glob covering every file sharing a temp path's stem.
func stemGlob(outputTemplate string) string {
	base := filepath.Base(outputTemplate)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(outputTemplate), stem+"*")
}

// spotifyDownloadName derives a suggested filename from the last URL path
// segment, falling back to a generic name.
func spotifyDownloadName(url string) string {
	segment := url
	if idx := strings.LastIndex(segment, "/"); idx >= 0 {
		segment = segment[idx+1:]
	}
	if idx := strings.Index(segment, "?"); idx >= 0 {
		segment = segment[:idx]
	}
	if segment == "" {
		return "spotify_download.mp3"
	}
	return "spotify_" + filestore.SanitizeFilename(segment) + ".mp3"
}

// sendJSONResponse sends a JSON response with appropriate headers.
func (h *Handler) sendJSONResponse(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// sendErrorResponse sends a standardized JSON error response.
func (h *Handler) sendErrorResponse(w http.ResponseWriter, errMsg string, statusCode int) {
	response := models.APIResponse{
		Success: false,
		Error:   errMsg,
	}
	log.Printf("WARN: Sending error response (status %d): %s", statusCode, errMsg)
	h.sendJSONResponse(w, response, statusCode)
}
