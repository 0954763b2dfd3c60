package download

import (
	"context"
	"time"

	downloaddomain "vidq/internal/domain/download"
	"vidq/internal/domain/provider"
)

// Gateway is an application port for the external extraction provider.
type Gateway interface {
	LookupInfo(ctx context.Context, videoURL string) (map[string]any, error)
	SubmitVideo(ctx context.Context, videoURL, formatCode string, options map[string]any) (*provider.SubmitResult, error)
	SubmitAudio(ctx context.Context, videoURL, formatCode string, bitrate int, options map[string]any) (*provider.SubmitResult, error)
	CheckProgress(ctx context.Context, endpointOrID string) (*provider.ProgressResult, error)
	ResolveProgressURL(raw, downloadID string) string
	ProgressURL(downloadID string) string
}

// Store is an application port for durable download records. Save must
// persist atomically; the orchestrator performs read-modify-write cycles
// against it.
type Store interface {
	Get(id string) (downloaddomain.Download, error)
	Save(d downloaddomain.Download) error
	List() ([]downloaddomain.Download, error)
}

// Scheduler re-invokes processing for a download after a delay when a
// monitoring window elapses without reaching a terminal state.
type Scheduler interface {
	Schedule(downloadID string, delay time.Duration)
}

// InfoCache is a bounded-TTL key/value cache for video info lookups.
type InfoCache interface {
	Get(key string) (map[string]any, bool)
	Set(key string, value map[string]any, ttl time.Duration)
}
