package download

import "testing"

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}

	active := []Status{StatusPending, StatusQueued, StatusProcessing}
	for _, s := range active {
		if s.Terminal() {
			t.Fatalf("expected %s to be non-terminal", s)
		}
	}
}

func TestDetectPlatform(t *testing.T) {
	cases := []struct {
		url      string
		platform string
	}{
		{"https://www.youtube.com/watch?v=abc", "youtube"},
		{"https://youtu.be/abc", "youtube"},
		{"https://vimeo.com/123", "vimeo"},
		{"https://x.com/user/status/1", "twitter"},
		{"https://www.twitch.tv/stream", "twitch"},
		{"https://example.com/video", ""},
	}
	for _, tc := range cases {
		if got := DetectPlatform(tc.url); got != tc.platform {
			t.Errorf("DetectPlatform(%q) = %q, want %q", tc.url, got, tc.platform)
		}
	}
}

func TestFormattedSize(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{0, ""},
		{512, "512.00 B"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
	}
	for _, tc := range cases {
		d := Download{FileSize: tc.size}
		if got := d.FormattedSize(); got != tc.want {
			t.Errorf("FormattedSize(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}
