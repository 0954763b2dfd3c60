package providerapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"vidq/internal/domain/provider"
)

const (
	defaultBaseURL                = "https://p.savenow.to/ajax/download.php"
	defaultProgressEndpoint       = "https://p.savenow.to/api/progress"
	defaultLegacyProgressEndpoint = "https://p.savenow.to/ajax/progress"
	defaultTimeout                = 120 * time.Second
	defaultRetryAttempts          = 3
	defaultRetryDelay             = time.Second
)

// Config holds the provider endpoints and failure policy.
type Config struct {
	APIKey                 string
	BaseURL                string
	ProgressEndpoint       string
	LegacyProgressEndpoint string
	Timeout                time.Duration
	RetryAttempts          int
	RetryDelay             time.Duration
}

// Client is the HTTP adapter for the external video download API.
type Client struct {
	cfg    Config
	HTTP   *http.Client
	logger *log.Logger
}

// NewClient creates a provider API adapter.
func NewClient(cfg Config, logger *log.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ProgressEndpoint == "" {
		cfg.ProgressEndpoint = defaultProgressEndpoint
	}
	if cfg.LegacyProgressEndpoint == "" {
		cfg.LegacyProgressEndpoint = defaultLegacyProgressEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	return &Client{
		cfg:    cfg,
		HTTP:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// LookupInfo fetches provider metadata for a URL without starting a job.
func (c *Client) LookupInfo(ctx context.Context, videoURL string) (map[string]any, error) {
	return c.request(ctx, map[string]string{
		"url":       videoURL,
		"format":    "1080",
		"add_info":  "1",
		"info_only": "1",
	})
}

// SubmitVideo initiates a video extraction.
func (c *Client) SubmitVideo(ctx context.Context, videoURL, formatCode string, options map[string]any) (*provider.SubmitResult, error) {
	params := map[string]string{
		"url":      videoURL,
		"format":   formatCode,
		"add_info": "1",
	}
	mergeOptions(params, options)

	payload, err := c.request(ctx, params)
	if err != nil {
		return nil, err
	}
	return c.buildSubmitResult(payload), nil
}

// SubmitAudio initiates an audio extraction at the requested bitrate.
func (c *Client) SubmitAudio(ctx context.Context, videoURL, formatCode string, bitrate int, options map[string]any) (*provider.SubmitResult, error) {
	params := map[string]string{
		"url":           videoURL,
		"format":        formatCode,
		"audio_quality": strconv.Itoa(bitrate),
		"add_info":      "1",
	}
	mergeOptions(params, options)

	payload, err := c.request(ctx, params)
	if err != nil {
		return nil, err
	}
	return c.buildSubmitResult(payload), nil
}

// CheckProgress polls the progress endpoint. It accepts either a fully
// qualified poll URL or a bare provider job id; bare ids try the canonical
// endpoint, then the legacy endpoint, then a constructed fallback URL.
func (c *Client) CheckProgress(ctx context.Context, endpointOrID string) (*provider.ProgressResult, error) {
	query := neturl.Values{}
	if c.cfg.APIKey != "" {
		query.Set("apikey", c.cfg.APIKey)
	}

	if strings.HasPrefix(strings.ToLower(endpointOrID), "http") {
		return c.progressRequest(ctx, c.normalizeProgressURL(endpointOrID), query)
	}

	id := strings.TrimSpace(endpointOrID)
	if id == "" {
		return nil, errors.New("empty download identifier provided for progress lookup")
	}

	withID := neturl.Values{}
	for key, values := range query {
		withID[key] = values
	}
	withID.Set("id", id)

	attempts := []struct {
		endpoint string
		query    neturl.Values
	}{
		{c.cfg.ProgressEndpoint, withID},
		{c.cfg.LegacyProgressEndpoint, withID},
		{c.buildProgressURL(id), query},
	}

	var lastErr error
	for _, attempt := range attempts {
		result, err := c.progressRequest(ctx, attempt.endpoint, attempt.query)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// ProgressURL constructs the canonical polling URL for a provider job id.
func (c *Client) ProgressURL(downloadID string) string {
	return c.buildProgressURL(downloadID)
}

// ResolveProgressURL normalizes a reported poll URL, falling back to a URL
// constructed from the job id.
func (c *Client) ResolveProgressURL(raw, downloadID string) string {
	candidate := strings.TrimSpace(raw)
	if candidate != "" {
		return c.normalizeProgressURL(candidate)
	}
	if strings.TrimSpace(downloadID) != "" {
		return c.buildProgressURL(downloadID)
	}
	return ""
}

func (c *Client) buildProgressURL(downloadID string) string {
	downloadID = strings.TrimSpace(downloadID)
	if downloadID == "" {
		return c.cfg.ProgressEndpoint
	}
	separator := "?"
	if strings.Contains(c.cfg.ProgressEndpoint, "?") {
		separator = "&"
	}
	return c.cfg.ProgressEndpoint + separator + "id=" + neturl.QueryEscape(downloadID)
}

// normalizeProgressURL rewrites legacy progress URLs on the provider host to
// the canonical endpoint. URLs on other hosts, or already canonical, pass
// through unchanged.
func (c *Client) normalizeProgressURL(candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" || !strings.HasPrefix(strings.ToLower(trimmed), "http") {
		return c.cfg.ProgressEndpoint
	}

	parsed, err := neturl.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return trimmed
	}

	canonical, err := neturl.Parse(c.cfg.ProgressEndpoint)
	if err != nil {
		return trimmed
	}
	legacy, err := neturl.Parse(c.cfg.LegacyProgressEndpoint)
	if err != nil {
		return trimmed
	}

	if !strings.EqualFold(parsed.Host, canonical.Host) {
		return trimmed
	}
	if strings.HasPrefix(parsed.Path, canonical.Path) {
		return trimmed
	}
	if strings.HasPrefix(parsed.Path, legacy.Path) {
		values := parsed.Query()
		id := values.Get("id")
		if id == "" {
			id = values.Get("download_id")
		}
		if id != "" {
			return c.buildProgressURL(id)
		}
		if parsed.RawQuery != "" {
			return c.cfg.ProgressEndpoint + "?" + parsed.RawQuery
		}
		return c.cfg.ProgressEndpoint
	}
	return trimmed
}

// request performs a call against the base endpoint. Connection failures
// are retried with a fixed delay; an application-level failure body is
// surfaced immediately without retrying.
func (c *Client) request(ctx context.Context, params map[string]string) (map[string]any, error) {
	query := neturl.Values{}
	for key, value := range params {
		query.Set(key, value)
	}
	if c.cfg.APIKey != "" {
		query.Set("apikey", c.cfg.APIKey)
	}

	requestURL := c.cfg.BaseURL
	if strings.Contains(requestURL, "?") {
		requestURL += "&" + query.Encode()
	} else {
		requestURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.RetryAttempts; attempt++ {
		payload, retryable, err := c.doJSON(ctx, requestURL)
		if err == nil {
			if !truthy(payload["success"]) {
				message := stringField(payload, "error")
				if message == "" {
					message = "API request failed"
				}
				return nil, errors.New(message)
			}
			return payload, nil
		}
		if !retryable {
			return nil, err
		}

		lastErr = err
		c.logger.Printf("provider API connection failure: attempt=%d: %v", attempt+1, err)
		if attempt < c.cfg.RetryAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}
	}
	return nil, fmt.Errorf("connection failed after %d attempts: %w", c.cfg.RetryAttempts, lastErr)
}

func (c *Client) progressRequest(ctx context.Context, endpoint string, query neturl.Values) (*provider.ProgressResult, error) {
	requestURL := endpoint
	if encoded := query.Encode(); encoded != "" {
		if strings.Contains(requestURL, "?") {
			requestURL += "&" + encoded
		} else {
			requestURL += "?" + encoded
		}
	}

	payload, _, err := c.doJSON(ctx, requestURL)
	if err != nil {
		c.logger.Printf("progress request failed: %s: %v", endpoint, err)
		return nil, err
	}

	return c.normalizeProgressPayload(payload, query.Get("id"), requestURL)
}

// doJSON performs one GET and decodes the body. The retryable flag reports
// whether the failure is a transport-level one worth retrying.
func (c *Client) doJSON(ctx context.Context, requestURL string) (payload map[string]any, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, false, fmt.Errorf("provider API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("invalid provider response payload: %w", err)
	}
	return payload, false, nil
}

func (c *Client) buildSubmitResult(payload map[string]any) *provider.SubmitResult {
	downloadID := identifier(payload["id"])
	if downloadID == "" {
		downloadID = identifier(payload["download_id"])
	}

	progressURL := stringField(payload, "progress_url")
	if progressURL == "" && downloadID != "" {
		progressURL = c.buildProgressURL(downloadID)
	}

	content := stringField(payload, "content")

	result := &provider.SubmitResult{
		DownloadID:   downloadID,
		ProgressURL:  progressURL,
		DownloadURL:  stringField(payload, "download_url"),
		Content:      content,
		ContentHTML:  decodeContentHTML(content),
		Alternatives: normalizeAlternatives(payload["alternative_download_urls"]),
		Payload:      payload,
	}
	if info, ok := payload["info"].(map[string]any); ok {
		result.Info = info
	}
	return result
}

// normalizeProgressPayload coerces the loose progress envelope into a
// typed sample. The success flag may arrive as a bool, a number or a
// string depending on the endpoint generation.
func (c *Client) normalizeProgressPayload(payload map[string]any, downloadID, requestedURL string) (*provider.ProgressResult, error) {
	success := payload["success"]
	if success == nil {
		success = payload["status"]
	}
	if !truthy(success) {
		message := stringField(payload, "message")
		if message == "" {
			message = stringField(payload, "error")
		}
		if message == "" {
			message = "progress request failed"
		}
		return nil, errors.New(message)
	}

	id := identifier(payload["id"])
	if id == "" {
		id = identifier(payload["download_id"])
	}
	if id == "" {
		id = downloadID
	}

	rawProgress := 0
	if value, ok := payload["progress"]; ok {
		rawProgress = intValue(value)
	}

	text := stringField(payload, "text")
	if text == "" {
		text = stringField(payload, "message")
	}

	return &provider.ProgressResult{
		DownloadID:   id,
		PollURL:      requestedURL,
		RawProgress:  rawProgress,
		Percent:      provider.Percent(rawProgress),
		Text:         text,
		DownloadURL:  stringField(payload, "download_url"),
		Alternatives: normalizeAlternatives(payload["alternative_download_urls"]),
		Payload:      payload,
	}, nil
}

// normalizeAlternatives accepts a single object or a list and keeps only
// entries carrying a non-empty url.
func normalizeAlternatives(value any) []provider.AlternativeURL {
	switch v := value.(type) {
	case map[string]any:
		if alt, ok := alternativeItem(v); ok {
			return []provider.AlternativeURL{alt}
		}
	case []any:
		var out []provider.AlternativeURL
		for _, item := range v {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if alt, ok := alternativeItem(entry); ok {
				out = append(out, alt)
			}
		}
		return out
	}
	return nil
}

func alternativeItem(item map[string]any) (provider.AlternativeURL, bool) {
	url := stringField(item, "url")
	if strings.TrimSpace(url) == "" {
		return provider.AlternativeURL{}, false
	}
	alt := provider.AlternativeURL{
		Type: stringField(item, "type"),
		URL:  url,
	}
	if hasSSL, ok := item["has_ssl"].(bool); ok {
		alt.HasSSL = &hasSSL
	}
	return alt, true
}

func decodeContentHTML(content string) string {
	if content == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func mergeOptions(params map[string]string, options map[string]any) {
	for key, value := range options {
		switch v := value.(type) {
		case string:
			params[key] = v
		case bool:
			if v {
				params[key] = "1"
			} else {
				params[key] = "0"
			}
		case float64:
			params[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			params[key] = strconv.Itoa(v)
		}
	}
}

func identifier(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

func stringField(payload map[string]any, key string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}

func intValue(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// truthy interprets the provider's inconsistent success encodings.
func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v > 0
	case string:
		return strings.ToLower(strings.TrimSpace(v)) != "false" && strings.TrimSpace(v) != ""
	default:
		return false
	}
}
