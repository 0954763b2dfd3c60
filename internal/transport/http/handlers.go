package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"

	appdownload "vidq/internal/application/download"
	downloaddomain "vidq/internal/domain/download"
	"vidq/internal/infrastructure/jobstore"
)

var (
	allowedQualities = map[string]struct{}{
		"4k": {}, "1440p": {}, "1080p": {}, "720p": {}, "480p": {}, "360p": {},
	}
	allowedFormats = map[string]struct{}{
		"mp4": {}, "webm": {}, "mp3": {}, "wav": {}, "m4a": {}, "aac": {}, "flac": {}, "ogg": {},
	}
	allowedAudioQualities = map[int]struct{}{
		96: {}, 128: {}, 192: {}, 256: {}, 320: {},
	}
)

type downloadUseCases interface {
	Create(ctx context.Context, req appdownload.CreateRequest) (downloaddomain.Download, error)
	RefreshStatus(ctx context.Context, id string) (downloaddomain.Download, error)
	FetchVideoInfo(ctx context.Context, videoURL string) (map[string]any, error)
}

// Handler exposes the download API over HTTP.
type Handler struct {
	downloads downloadUseCases
}

// NewHandler wires HTTP handlers with application use cases.
func NewHandler(downloadService downloadUseCases) *Handler {
	return &Handler{downloads: downloadService}
}

// VideoInfo handles GET /api/v1/video-info?url=...
func (h *Handler) VideoInfo(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" || !isHTTPURL(rawURL) {
		writeError(w, http.StatusBadRequest, "a valid url parameter is required")
		return
	}

	info, err := h.downloads.FetchVideoInfo(r.Context(), rawURL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    info,
	})
}

type createDownloadRequest struct {
	URL     string         `json:"url"`
	Quality string         `json:"quality"`
	Format  string         `json:"format"`
	Options map[string]any `json:"options"`
}

// CreateDownload handles POST /api/v1/download.
func (h *Handler) CreateDownload(w http.ResponseWriter, r *http.Request) {
	var req createDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" || !isHTTPURL(req.URL) {
		writeError(w, http.StatusUnprocessableEntity, "a valid url is required")
		return
	}
	if downloaddomain.DetectPlatform(req.URL) == "" {
		writeError(w, http.StatusUnprocessableEntity, "unsupported video platform")
		return
	}

	if req.Quality == "" {
		req.Quality = "1080p"
	}
	if _, ok := allowedQualities[strings.ToLower(req.Quality)]; !ok {
		writeError(w, http.StatusUnprocessableEntity, "unsupported quality")
		return
	}

	if req.Format == "" {
		req.Format = "mp4"
	}
	if _, ok := allowedFormats[strings.ToLower(req.Format)]; !ok {
		writeError(w, http.StatusUnprocessableEntity, "unsupported format")
		return
	}

	if err := validateOptions(req.Options); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	d, err := h.downloads.Create(r.Context(), appdownload.CreateRequest{
		URL:       req.URL,
		Quality:   strings.ToLower(req.Quality),
		Format:    strings.ToLower(req.Format),
		Options:   req.Options,
		ClientIP:  clientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"message": "Download request accepted",
		"data":    downloadResource(d),
	})
}

// DownloadStatus handles GET /api/v1/download-status/{id}.
func (h *Handler) DownloadStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	d, err := h.downloads.RefreshStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "download not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    downloadResource(d),
	})
}

func validateOptions(options map[string]any) error {
	if options == nil {
		return nil
	}
	if raw, ok := options["audio_quality"]; ok {
		value, ok := raw.(float64)
		if !ok {
			return errors.New("options.audio_quality must be an integer")
		}
		if _, allowed := allowedAudioQualities[int(value)]; !allowed {
			return errors.New("unsupported options.audio_quality")
		}
	}
	if raw, ok := options["audio_language"]; ok {
		value, ok := raw.(string)
		if !ok || len(value) != 2 {
			return errors.New("options.audio_language must be a two-letter code")
		}
	}
	return nil
}

func downloadResource(d downloaddomain.Download) map[string]any {
	return map[string]any{
		"download_id":   d.ID,
		"video_url":     d.VideoURL,
		"video_title":   d.Title,
		"platform":      d.Platform,
		"quality":       d.Quality,
		"format":        d.Format,
		"status":        string(d.Status),
		"storage_path":  d.StoragePath,
		"file_size":     d.FormattedSize(),
		"queued_at":     formatTime(d.QueuedAt),
		"started_at":    formatTime(d.StartedAt),
		"completed_at":  formatTime(d.CompletedAt),
		"metadata":      d.Metadata,
		"error_message": d.ErrorMessage,
	}
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
