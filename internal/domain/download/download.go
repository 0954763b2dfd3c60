package download

import (
	"fmt"
	"time"
)

// Status describes where a download sits in its lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Download is the durable record of one requested extraction.
type Download struct {
	ID           string     `json:"download_id"`
	VideoURL     string     `json:"video_url"`
	Title        string     `json:"video_title,omitempty"`
	Platform     string     `json:"platform,omitempty"`
	Quality      string     `json:"quality,omitempty"`
	Format       string     `json:"format,omitempty"`
	FileSize     int64      `json:"file_size,omitempty"`
	Status       Status     `json:"status"`
	StoragePath  string     `json:"storage_path,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Metadata     Metadata   `json:"metadata,omitempty"`
	QueuedAt     *time.Time `json:"queued_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	IPAddress    string     `json:"ip_address,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the record may no longer be mutated.
func (d *Download) IsTerminal() bool {
	return d.Status.Terminal()
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (d Download) Clone() Download {
	out := d
	out.Metadata = d.Metadata.Clone()
	out.QueuedAt = copyTime(d.QueuedAt)
	out.StartedAt = copyTime(d.StartedAt)
	out.CompletedAt = copyTime(d.CompletedAt)
	return out
}

// FormattedSize renders the resolved byte size for display, or "" when unknown.
func (d *Download) FormattedSize() string {
	if d.FileSize <= 0 {
		return ""
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(d.FileSize)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
