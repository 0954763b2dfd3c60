package providerapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testClient(server *httptest.Server, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = server.URL + "/ajax/download.php"
	}
	if cfg.ProgressEndpoint == "" {
		cfg.ProgressEndpoint = server.URL + "/api/progress"
	}
	if cfg.LegacyProgressEndpoint == "" {
		cfg.LegacyProgressEndpoint = server.URL + "/ajax/progress"
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Millisecond
	}
	c := NewClient(cfg, testLogger())
	c.HTTP = server.Client()
	return c
}

func TestSubmitVideoParsesResponse(t *testing.T) {
	html := "<a href=\"https://cdn.test/x.mp4\">download</a>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("url") != "https://www.youtube.com/watch?v=abc" {
			t.Errorf("url param = %q", q.Get("url"))
		}
		if q.Get("format") != "720" {
			t.Errorf("format param = %q", q.Get("format"))
		}
		if q.Get("apikey") != "secret" {
			t.Errorf("apikey param = %q", q.Get("apikey"))
		}
		if q.Get("add_info") != "1" {
			t.Errorf("add_info param = %q", q.Get("add_info"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":     true,
			"id":          float64(42),
			"content":     base64.StdEncoding.EncodeToString([]byte(html)),
			"alternative_download_urls": map[string]any{
				"type": "mirror", "url": "https://mirror.test/x.mp4", "has_ssl": true,
			},
			"info": map[string]any{"title": "Clip"},
		})
	}))
	defer server.Close()

	client := testClient(server, Config{APIKey: "secret"})
	result, err := client.SubmitVideo(context.Background(), "https://www.youtube.com/watch?v=abc", "720", nil)
	if err != nil {
		t.Fatalf("SubmitVideo: %v", err)
	}

	if result.DownloadID != "42" {
		t.Errorf("download id = %q", result.DownloadID)
	}
	if !strings.HasPrefix(result.ProgressURL, server.URL+"/api/progress?id=42") {
		t.Errorf("progress url = %q", result.ProgressURL)
	}
	if result.ContentHTML != html {
		t.Errorf("content html = %q", result.ContentHTML)
	}
	if len(result.Alternatives) != 1 || result.Alternatives[0].URL != "https://mirror.test/x.mp4" {
		t.Errorf("alternatives = %v", result.Alternatives)
	}
	if result.Alternatives[0].HasSSL == nil || !*result.Alternatives[0].HasSSL {
		t.Error("expected has_ssl to be carried through")
	}
	if result.Info["title"] != "Clip" {
		t.Errorf("info = %v", result.Info)
	}
}

func TestSubmitAudioSendsBitrate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("format") != "mp3" {
			t.Errorf("format param = %q", q.Get("format"))
		}
		if q.Get("audio_quality") != "320" {
			t.Errorf("audio_quality param = %q", q.Get("audio_quality"))
		}
		if q.Get("audio_language") != "en" {
			t.Errorf("audio_language param = %q", q.Get("audio_language"))
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "id": "a1"})
	}))
	defer server.Close()

	client := testClient(server, Config{})
	result, err := client.SubmitAudio(context.Background(), "https://www.youtube.com/watch?v=abc", "mp3", 320,
		map[string]any{"audio_language": "en"})
	if err != nil {
		t.Fatalf("SubmitAudio: %v", err)
	}
	if result.DownloadID != "a1" {
		t.Errorf("download id = %q", result.DownloadID)
	}
}

func TestRequestDoesNotRetryApplicationFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "invalid url"})
	}))
	defer server.Close()

	client := testClient(server, Config{})
	_, err := client.SubmitVideo(context.Background(), "https://bad.example", "1080", nil)
	if err == nil || err.Error() != "invalid url" {
		t.Fatalf("err = %v, want invalid url", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on application failure)", calls)
	}
}

func TestRequestRetriesConnectionFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			// Hijack and drop the connection so the client sees a transport error.
			conn, _, err := w.(http.Hijacker).Hijack()
			if err != nil {
				t.Fatalf("hijack: %v", err)
			}
			conn.Close()
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "id": "r1"})
	}))
	defer server.Close()

	client := testClient(server, Config{RetryAttempts: 3})
	result, err := client.SubmitVideo(context.Background(), "https://www.youtube.com/watch?v=abc", "1080", nil)
	if err != nil {
		t.Fatalf("SubmitVideo: %v", err)
	}
	if result.DownloadID != "r1" {
		t.Errorf("download id = %q", result.DownloadID)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestCheckProgressByURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/progress" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("id") != "55" {
			t.Errorf("id param = %q", r.URL.Query().Get("id"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"progress":     float64(430),
			"text":         "converting",
			"download_id":  "55",
			"download_url": "",
		})
	}))
	defer server.Close()

	client := testClient(server, Config{})
	sample, err := client.CheckProgress(context.Background(), server.URL+"/api/progress?id=55")
	if err != nil {
		t.Fatalf("CheckProgress: %v", err)
	}
	if sample.RawProgress != 430 {
		t.Errorf("raw progress = %d", sample.RawProgress)
	}
	if sample.Percent != 43 {
		t.Errorf("percent = %d", sample.Percent)
	}
	if sample.Text != "converting" {
		t.Errorf("text = %q", sample.Text)
	}
	if sample.DownloadID != "55" {
		t.Errorf("download id = %q", sample.DownloadID)
	}
}

func TestCheckProgressBareIDFallsBackToLegacy(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/progress" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "progress": float64(1000)})
	}))
	defer server.Close()

	client := testClient(server, Config{})
	sample, err := client.CheckProgress(context.Background(), "77")
	if err != nil {
		t.Fatalf("CheckProgress: %v", err)
	}
	if sample.RawProgress != 1000 {
		t.Errorf("raw progress = %d", sample.RawProgress)
	}
	if len(paths) != 2 || paths[0] != "/api/progress" || paths[1] != "/ajax/progress" {
		t.Fatalf("paths tried = %v", paths)
	}
	if sample.DownloadID != "77" {
		t.Errorf("download id = %q", sample.DownloadID)
	}
}

func TestCheckProgressEmptyID(t *testing.T) {
	client := NewClient(Config{}, testLogger())
	if _, err := client.CheckProgress(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty identifier")
	}
}

func TestNormalizeProgressURL(t *testing.T) {
	client := NewClient(Config{}, testLogger())
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"canonical passes through",
			"https://p.savenow.to/api/progress?id=9",
			"https://p.savenow.to/api/progress?id=9",
		},
		{
			"legacy id rewritten",
			"https://p.savenow.to/ajax/progress?id=9",
			"https://p.savenow.to/api/progress?id=9",
		},
		{
			"legacy download_id rewritten",
			"https://p.savenow.to/ajax/progress.php?download_id=12",
			"https://p.savenow.to/api/progress?id=12",
		},
		{
			"foreign host untouched",
			"https://other.example/ajax/progress?id=9",
			"https://other.example/ajax/progress?id=9",
		},
		{
			"blank falls back to canonical",
			"",
			"https://p.savenow.to/api/progress",
		},
	}
	for _, tc := range cases {
		if got := client.normalizeProgressURL(tc.in); got != tc.want {
			t.Errorf("%s: normalizeProgressURL(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestResolveProgressURL(t *testing.T) {
	client := NewClient(Config{}, testLogger())

	if got := client.ResolveProgressURL("https://p.savenow.to/ajax/progress?id=3", ""); got != "https://p.savenow.to/api/progress?id=3" {
		t.Errorf("reported URL = %q", got)
	}
	if got := client.ResolveProgressURL("", "8"); got != "https://p.savenow.to/api/progress?id=8" {
		t.Errorf("constructed URL = %q", got)
	}
	if got := client.ResolveProgressURL("", ""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		value any
		want  bool
	}{
		{true, true},
		{false, false},
		{float64(1), true},
		{float64(0), false},
		{"ok", true},
		{"false", false},
		{"", false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := truthy(tc.value); got != tc.want {
			t.Errorf("truthy(%v) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
