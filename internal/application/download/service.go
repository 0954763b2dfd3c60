package download

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	downloaddomain "vidq/internal/domain/download"
	"vidq/internal/domain/provider"
	"vidq/internal/domain/quality"
)

const (
	defaultMonitorAttempts = 30
	defaultMonitorDelay    = 2 * time.Second
	defaultInfoCacheTTL    = time.Hour

	apiClientName = "video-download-api.com"
)

// ErrUnsupportedURL rejects URLs outside the supported platforms before a
// record is ever created.
var ErrUnsupportedURL = errors.New("invalid or unsupported video URL")

// Config bounds the orchestrator's monitoring behavior.
type Config struct {
	MonitorAttempts int
	MonitorDelay    time.Duration
	InfoCacheTTL    time.Duration
}

// Service drives a download from creation through submission, progress
// monitoring and finalization.
type Service struct {
	gateway   Gateway
	store     Store
	scheduler Scheduler
	cache     InfoCache
	logger    *log.Logger
	cfg       Config
}

// NewService creates the download use-case service with injected ports.
func NewService(gateway Gateway, store Store, scheduler Scheduler, cache InfoCache, logger *log.Logger, cfg Config) *Service {
	if cfg.MonitorAttempts <= 0 {
		cfg.MonitorAttempts = defaultMonitorAttempts
	}
	if cfg.MonitorDelay <= 0 {
		cfg.MonitorDelay = defaultMonitorDelay
	}
	if cfg.InfoCacheTTL <= 0 {
		cfg.InfoCacheTTL = defaultInfoCacheTTL
	}
	return &Service{
		gateway:   gateway,
		store:     store,
		scheduler: scheduler,
		cache:     cache,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateRequest carries the caller-supplied attributes of a new download.
type CreateRequest struct {
	URL       string
	Quality   string
	Format    string
	Options   map[string]any
	ClientIP  string
	UserAgent string
}

// Create allocates a record, queues it and immediately runs the first
// processing attempt. The returned record reflects the state after that
// attempt.
func (s *Service) Create(ctx context.Context, req CreateRequest) (downloaddomain.Download, error) {
	now := time.Now().UTC()
	options := req.Options
	if options == nil {
		options = map[string]any{}
	}

	d := downloaddomain.Download{
		ID:       uuid.NewString(),
		VideoURL: req.URL,
		Platform: downloaddomain.DetectPlatform(req.URL),
		Quality:  req.Quality,
		Format:   req.Format,
		Status:   downloaddomain.StatusPending,
		Metadata: downloaddomain.Metadata{
			"requested_at": now.Format(time.RFC3339),
			"api_client":   apiClientName,
			"options":      options,
		},
		IPAddress: req.ClientIP,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.UserAgent != "" {
		d.Metadata["user_agent"] = req.UserAgent
	}
	if err := s.store.Save(d); err != nil {
		return downloaddomain.Download{}, err
	}

	queuedAt := time.Now().UTC()
	d.Status = downloaddomain.StatusQueued
	d.QueuedAt = &queuedAt
	if err := s.store.Save(d); err != nil {
		return downloaddomain.Download{}, err
	}

	if err := s.Process(ctx, d.ID); err != nil {
		return downloaddomain.Download{}, err
	}

	return s.store.Get(d.ID)
}

// Process is the re-entrant orchestration entry point. It is a no-op for
// terminal records; any orchestration error forces the record into failed.
func (s *Service) Process(ctx context.Context, id string) error {
	d, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if d.IsTerminal() {
		return nil
	}

	if runErr := s.run(ctx, d); runErr != nil {
		return s.fail(id, runErr.Error())
	}
	return nil
}

func (s *Service) run(ctx context.Context, d downloaddomain.Download) error {
	apiDownloadID := d.Metadata.String("api_download_id")
	progressURL := d.Metadata.String("progress_url")
	if progressURL == "" {
		progressURL = d.Metadata.String("progress_poll_url")
	}

	// Resume: a provider job id plus a poll endpoint means submission
	// already happened. Go straight back to monitoring.
	if apiDownloadID != "" && progressURL != "" {
		if err := s.markProcessing(&d); err != nil {
			return err
		}
		return s.monitor(ctx, d.ID, apiDownloadID, progressURL)
	}

	if err := s.markProcessing(&d); err != nil {
		return err
	}

	formatCode := quality.FormatCode(d.Format)
	options := asMap(d.Metadata["options"])

	var result *provider.SubmitResult
	var err error
	if quality.IsAudioFormat(d.Format) {
		result, err = s.gateway.SubmitAudio(ctx, d.VideoURL, formatCode, audioBitrate(options), options)
	} else {
		result, err = s.gateway.SubmitVideo(ctx, d.VideoURL, formatCode, options)
	}
	if err != nil {
		return err
	}

	return s.handleSubmission(ctx, d, result)
}

func (s *Service) handleSubmission(ctx context.Context, d downloaddomain.Download, result *provider.SubmitResult) error {
	progressURL := s.gateway.ResolveProgressURL(result.ProgressURL, result.DownloadID)

	d.Metadata = d.Metadata.Merge(downloaddomain.Metadata{
		"api_download_id":           nonEmpty(result.DownloadID),
		"progress_url":              nonEmpty(progressURL),
		"progress_poll_url":         nonEmpty(progressURL),
		"download_url":              nonEmpty(result.DownloadURL),
		"content_html":              nonEmpty(result.ContentHTML),
		"alternative_download_urls": alternativesMeta(result.Alternatives),
		"api_response":              result.Payload,
	})
	if err := s.store.Save(d); err != nil {
		return err
	}

	if result.DownloadID != "" {
		return s.monitor(ctx, d.ID, result.DownloadID, progressURL)
	}

	// No provider job id: the submission response is already final.
	content := map[string]any{}
	if result.DownloadURL != "" {
		content["download_url"] = result.DownloadURL
	}
	if result.Content != "" {
		content["raw_content"] = result.Content
	}
	if result.ContentHTML != "" {
		content["content_html"] = result.ContentHTML
	}
	if alts := alternativesMeta(result.Alternatives); alts != nil {
		content["alternative_download_urls"] = alts
	}

	return s.finalize(d.ID, result.Info, content)
}

// monitor polls the progress endpoint a bounded number of times, merging
// each sample into the record. When the window elapses without completion
// the job is handed back to the scheduler for a deferred re-run.
func (s *Service) monitor(ctx context.Context, id, apiDownloadID, endpoint string) error {
	if endpoint == "" {
		endpoint = s.gateway.ProgressURL(apiDownloadID)
	}

	for attempt := 0; attempt < s.cfg.MonitorAttempts; attempt++ {
		d, err := s.store.Get(id)
		if err != nil {
			return err
		}
		if d.IsTerminal() {
			return nil
		}

		sample, err := s.gateway.CheckProgress(ctx, endpoint)
		if err != nil {
			s.logger.Printf("progress check failed: %s attempt=%d: %v", id, attempt+1, err)
			if s.wait(ctx, s.cfg.MonitorDelay) != nil {
				return nil
			}
			continue
		}

		d, err = s.applyProgress(d, sample, apiDownloadID)
		if err != nil {
			return err
		}
		if d.IsTerminal() {
			return nil
		}

		if failed, msg := remoteFailure(sample); failed {
			return s.fail(id, msg)
		}
		if progressComplete(sample) || remoteCompleted(sample) {
			return s.finalizeProgress(d, sample)
		}

		if s.wait(ctx, s.cfg.MonitorDelay) != nil {
			return nil
		}
	}

	d, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if !d.IsTerminal() {
		s.scheduler.Schedule(id, s.cfg.MonitorDelay*5)
		s.logger.Printf("monitoring window elapsed, re-queued: %s", id)
	}
	return nil
}

// RefreshStatus performs one best-effort progress check and applies it to
// the record. Records without a provider job id are returned unchanged.
func (s *Service) RefreshStatus(ctx context.Context, id string) (downloaddomain.Download, error) {
	d, err := s.store.Get(id)
	if err != nil {
		return downloaddomain.Download{}, err
	}

	apiDownloadID := d.Metadata.String("api_download_id")
	if apiDownloadID == "" || d.IsTerminal() {
		return d, nil
	}

	endpoint := d.Metadata.String("progress_url")
	if endpoint == "" {
		endpoint = apiDownloadID
	}
	sample, err := s.gateway.CheckProgress(ctx, endpoint)
	if err != nil {
		s.logger.Printf("status refresh failed: %s: %v", id, err)
		return d, nil
	}

	d, err = s.applyProgress(d, sample, apiDownloadID)
	if err != nil {
		return d, err
	}

	if failed, msg := remoteFailure(sample); failed {
		if err := s.fail(id, msg); err != nil {
			return d, err
		}
	} else if progressComplete(sample) || remoteCompleted(sample) {
		if err := s.finalizeProgress(d, sample); err != nil {
			return d, err
		}
	}

	return s.store.Get(id)
}

// Get returns the stored record without touching the provider.
func (s *Service) Get(id string) (downloaddomain.Download, error) {
	return s.store.Get(id)
}

// applyProgress merges one progress sample into the record.
func (s *Service) applyProgress(d downloaddomain.Download, sample *provider.ProgressResult, apiDownloadID string) (downloaddomain.Download, error) {
	if d.IsTerminal() {
		return d, nil
	}

	now := time.Now().UTC()
	extra := downloaddomain.Metadata{
		"progress": map[string]any{
			"raw_value":  sample.RawProgress,
			"percent":    provider.Percent(sample.RawProgress),
			"text":       sample.Text,
			"checked_at": now.Format(time.RFC3339),
			"source":     "progress_url",
			"payload":    sample.Payload,
		},
		"alternative_download_urls": alternativesMeta(sample.Alternatives),
		"api_download_id":           apiDownloadID,
	}
	if sample.DownloadURL != "" {
		d.StoragePath = sample.DownloadURL
		extra["download_url"] = sample.DownloadURL
	}

	d.Status = downloaddomain.StatusProcessing
	d.Metadata = d.Metadata.Merge(extra)
	if d.StartedAt == nil {
		d.StartedAt = &now
	}
	if err := s.store.Save(d); err != nil {
		return d, err
	}
	return s.store.Get(d.ID)
}

// finalizeProgress completes the record from a finished progress sample,
// folding the sample into the info/content captured at submission time.
func (s *Service) finalizeProgress(d downloaddomain.Download, sample *provider.ProgressResult) error {
	if d.IsTerminal() {
		return nil
	}

	info := asMap(dig(d.Metadata["api_response"], "info"))
	content := asMap(dig(d.Metadata["api_response"], "content"))

	if resultURL := sample.ResultURL(); resultURL != "" {
		content["download_url"] = resultURL
	}
	if alts := alternativesMeta(sample.Alternatives); alts != nil {
		content["alternative_download_urls"] = alts
	}
	content["progress"] = sample.RawProgress
	if sample.Text != "" {
		content["status_text"] = sample.Text
	}

	return s.finalize(d.ID, info, content)
}

// finalize is the one-time transition into completed.
func (s *Service) finalize(id string, info, content map[string]any) error {
	d, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if d.IsTerminal() {
		return nil
	}
	if info == nil {
		info = map[string]any{}
	}
	if content == nil {
		content = map[string]any{}
	}

	now := time.Now().UTC()
	d.Status = downloaddomain.StatusCompleted
	if d.CompletedAt == nil {
		d.CompletedAt = &now
	}
	if title := stringValue(info["title"]); title != "" {
		d.Title = title
	}
	if size, ok := numericSize(info["filesize"]); ok {
		d.FileSize = size
	}
	if u := stringValue(content["download_url"]); u != "" {
		d.StoragePath = u
	} else if u := stringValue(info["download_url"]); u != "" {
		d.StoragePath = u
	}

	d.Metadata = d.Metadata.Merge(downloaddomain.Metadata{
		"video_duration":            extractDuration(info),
		"info":                      info,
		"content":                   content,
		"content_html":              content["content_html"],
		"alternative_download_urls": content["alternative_download_urls"],
	})
	if err := s.store.Save(d); err != nil {
		return err
	}

	s.logger.Printf("download completed: %s", d.ID)
	return nil
}

// fail is the one-time transition into failed.
func (s *Service) fail(id, message string) error {
	d, err := s.store.Get(id)
	if err != nil {
		return err
	}
	if d.IsTerminal() {
		return nil
	}

	now := time.Now().UTC()
	d.Status = downloaddomain.StatusFailed
	d.ErrorMessage = message
	if d.CompletedAt == nil {
		d.CompletedAt = &now
	}
	d.Metadata = d.Metadata.Merge(downloaddomain.Metadata{
		"failed_at": now.Format(time.RFC3339),
	})
	if err := s.store.Save(d); err != nil {
		return err
	}

	s.logger.Printf("download failed: %s: %s", d.ID, message)
	return nil
}

func (s *Service) markProcessing(d *downloaddomain.Download) error {
	now := time.Now().UTC()
	d.Status = downloaddomain.StatusProcessing
	if d.StartedAt == nil {
		d.StartedAt = &now
	}
	return s.store.Save(*d)
}

// wait sleeps between polling attempts without blocking other jobs' tasks.
func (s *Service) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// remoteFailure maps an explicit provider-side status to a local failure.
func remoteFailure(sample *provider.ProgressResult) (bool, string) {
	if stringValue(sample.Payload["status"]) != "failed" {
		return false, ""
	}
	msg := stringValue(sample.Payload["error"])
	if msg == "" {
		msg = "Download failed."
	}
	return true, msg
}

func remoteCompleted(sample *provider.ProgressResult) bool {
	return stringValue(sample.Payload["status"]) == "completed"
}

func audioBitrate(options map[string]any) int {
	if value, ok := numericSize(options["audio_quality"]); ok && value > 0 {
		return int(value)
	}
	return quality.DefaultAudioBitrate
}

func alternativesMeta(alternatives []provider.AlternativeURL) any {
	if len(alternatives) == 0 {
		return nil
	}
	out := make([]any, 0, len(alternatives))
	for _, alt := range alternatives {
		item := map[string]any{"url": alt.URL}
		if alt.Type != "" {
			item["type"] = alt.Type
		}
		if alt.HasSSL != nil {
			item["has_ssl"] = *alt.HasSSL
		}
		out = append(out, item)
	}
	return out
}

func nonEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
