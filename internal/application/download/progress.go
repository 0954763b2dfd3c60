package download

import (
	"strings"

	"vidq/internal/domain/provider"
)

// Keywords in provider status text that signal a finished extraction.
var completionKeywords = []string{"finish", "ready", "completed", "complete", "read"}

// progressComplete decides whether a progress sample means the remote job is
// done. The provider reports percent for some platforms and per-mille for
// others: values in (100,1000) are intermediate per-mille readings, 1000 and
// above (or exactly 100) are done. A resolvable result URL always wins.
func progressComplete(sample *provider.ProgressResult) bool {
	if sample.ResultURL() != "" {
		return true
	}

	value := sample.RawProgress
	if value >= 1000 {
		return true
	}
	if value > 100 && value < 1000 {
		return false
	}
	if value >= 100 {
		return true
	}

	text := strings.ToLower(sample.Text)
	for _, keyword := range completionKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
