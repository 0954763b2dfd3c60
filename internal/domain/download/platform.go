package download

import "strings"

var platformDomains = []struct {
	name    string
	domains []string
}{
	{"youtube", []string{"youtube.com", "youtu.be"}},
	{"vimeo", []string{"vimeo.com"}},
	{"dailymotion", []string{"dailymotion.com"}},
	{"facebook", []string{"facebook.com", "fb.watch"}},
	{"instagram", []string{"instagram.com"}},
	{"tiktok", []string{"tiktok.com"}},
	{"twitter", []string{"twitter.com", "x.com"}},
	{"twitch", []string{"twitch.tv"}},
}

// DetectPlatform maps a source URL to its platform label, or "" when the
// host is not a supported platform.
func DetectPlatform(url string) string {
	lowered := strings.ToLower(url)
	for _, platform := range platformDomains {
		for _, domain := range platform.domains {
			if strings.Contains(lowered, domain) {
				return platform.name
			}
		}
	}
	return ""
}
