package provider

// AlternativeURL is one mirror entry from the provider's
// alternative_download_urls field.
type AlternativeURL struct {
	Type   string `json:"type,omitempty"`
	URL    string `json:"url"`
	HasSSL *bool  `json:"has_ssl,omitempty"`
}

// SubmitResult is the normalized outcome of initiating an extraction.
// The provider may answer with a job id plus a polling endpoint, or with a
// final result directly.
type SubmitResult struct {
	DownloadID   string
	ProgressURL  string
	DownloadURL  string
	Content      string
	ContentHTML  string
	Alternatives []AlternativeURL
	Info         map[string]any
	Payload      map[string]any
}

// ProgressResult is one normalized progress sample.
type ProgressResult struct {
	DownloadID   string
	PollURL      string
	RawProgress  int
	Percent      int
	Text         string
	DownloadURL  string
	Alternatives []AlternativeURL
	Payload      map[string]any
}

// ResultURL returns the download URL carried by the sample: the direct URL
// when present, otherwise the first alternative exposing a non-empty URL.
// An empty string means no result is resolvable yet.
func (p *ProgressResult) ResultURL() string {
	return ResolveResultURL(p.DownloadURL, p.Alternatives)
}

// ResolveResultURL picks a usable result URL from a direct candidate and a
// list of alternatives.
func ResolveResultURL(direct string, alternatives []AlternativeURL) string {
	if direct != "" {
		return direct
	}
	for _, alt := range alternatives {
		if alt.URL != "" {
			return alt.URL
		}
	}
	return ""
}

// Percent converts the provider's progress encoding into a display percent.
// Values up to 100 are percent already; values above 100 are per-mille,
// with 1000 meaning done.
func Percent(raw int) int {
	if raw <= 0 {
		return 0
	}
	if raw >= 1000 {
		return 100
	}
	if raw <= 100 {
		return raw
	}
	percent := (raw + 5) / 10
	if percent > 100 {
		percent = 100
	}
	return percent
}
