package download

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	downloaddomain "vidq/internal/domain/download"
	"vidq/internal/domain/quality"
)

// FetchVideoInfo retrieves and normalizes provider metadata for a URL.
// Results are cached by a content-derived key for the configured TTL.
func (s *Service) FetchVideoInfo(ctx context.Context, videoURL string) (map[string]any, error) {
	if downloaddomain.DetectPlatform(videoURL) == "" {
		return nil, ErrUnsupportedURL
	}

	sum := md5.Sum([]byte(videoURL))
	cacheKey := "video_info_" + hex.EncodeToString(sum[:])
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached, nil
	}

	payload, err := s.gateway.LookupInfo(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	normalized := normalizeVideoInfo(payload)
	s.cache.Set(cacheKey, normalized, s.cfg.InfoCacheTTL)
	return normalized, nil
}

// normalizeVideoInfo adapts the provider's loosely shaped info payload into
// the stable structure exposed to callers.
func normalizeVideoInfo(payload map[string]any) map[string]any {
	info := asMap(payload["info"])

	title := firstNonEmpty(
		stringValue(info["title"]),
		stringValue(payload["title"]),
		stringValue(dig(payload, "data", "title")),
	)
	if title == "" {
		title = "Untitled video"
	}

	thumbnail := firstNonEmpty(
		stringValue(info["image"]),
		stringValue(info["thumbnail"]),
		stringValue(dig(info, "thumbnails", "0", "url")),
		stringValue(payload["thumbnail"]),
		stringValue(payload["image"]),
	)
	if strings.HasPrefix(thumbnail, "//") {
		thumbnail = "https:" + thumbnail
	}

	qualities := quality.ParseQualityList([]any{
		dig(payload, "video_info", "available_qualities"),
		dig(payload, "info", "available_qualities"),
		dig(payload, "data", "available_qualities"),
		payload["qualities"],
		payload["videos"],
	})
	bitrates := quality.ParseBitrateList([]any{
		dig(payload, "video_info", "available_audio_formats"),
		dig(payload, "info", "available_audio_formats"),
		payload["audio"],
		payload["audio_formats"],
	})

	return map[string]any{
		"info": map[string]any{
			"title": title,
			"duration": normalizeDuration(firstScalar(
				info["duration"],
				info["duration_seconds"],
				payload["duration"],
			)),
			"author": firstNonEmpty(
				stringValue(info["uploader"]),
				stringValue(info["author"]),
				stringValue(payload["author"]),
			),
			"upload_date": firstNonEmpty(
				stringValue(info["upload_date"]),
				stringValue(info["published"]),
				stringValue(info["published_at"]),
			),
			"image":                   thumbnail,
			"thumbnail":               thumbnail,
			"available_qualities":     qualities,
			"available_audio_formats": bitrates,
			"description": firstNonEmpty(
				stringValue(info["description"]),
				stringValue(payload["description"]),
			),
		},
		"source": payload,
	}
}

// normalizeDuration renders a duration candidate as h:mm:ss (or m:ss). A
// pre-formatted string passes through untouched.
func normalizeDuration(value any) string {
	seconds := int64(-1)
	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		seconds = int64(v)
	case int:
		seconds = int64(v)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return ""
		}
		parsed, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return trimmed
		}
		seconds = parsed
	default:
		return ""
	}

	if seconds < 0 {
		seconds = 0
	}
	return formatSeconds(seconds)
}

// extractDuration picks the duration field recorded on a completed job.
func extractDuration(info map[string]any) string {
	if value, ok := info["duration"]; ok {
		switch v := value.(type) {
		case string:
			return v
		case float64:
			return strconv.FormatInt(int64(v), 10)
		}
	}
	if value, ok := numericSize(info["duration_seconds"]); ok {
		return formatSeconds(value)
	}
	return "Unknown"
}

func formatSeconds(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	remaining := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, remaining)
	}
	return fmt.Sprintf("%d:%02d", minutes, remaining)
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func firstScalar(candidates ...any) any {
	for _, candidate := range candidates {
		switch v := candidate.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case float64, int:
			return v
		}
	}
	return nil
}

// dig walks nested maps and lists by key; list segments are decimal indexes.
func dig(value any, keys ...string) any {
	current := value
	for _, key := range keys {
		switch v := current.(type) {
		case map[string]any:
			current = v[key]
		case downloaddomain.Metadata:
			current = v[key]
		case []any:
			index, err := strconv.Atoi(key)
			if err != nil || index < 0 || index >= len(v) {
				return nil
			}
			current = v[index]
		default:
			return nil
		}
	}
	return current
}

func asMap(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return v
	case downloaddomain.Metadata:
		return map[string]any(v)
	default:
		return map[string]any{}
	}
}

func stringValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

// numericSize accepts numbers and numeric strings; anything else is
// rejected rather than coerced.
func numericSize(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
