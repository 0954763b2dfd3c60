package quality

import (
	"reflect"
	"testing"
)

func TestFormatCode(t *testing.T) {
	cases := []struct {
		token string
		want  string
	}{
		{"mp3", "mp3"},
		{"720p", "720"},
		{"1080p", "1080"},
		{"4k", "2160"},
		{"8k", "4320"},
		{"  FLAC ", "flac"},
		{"potato", "1080"},
		{"", "1080"},
	}
	for _, tc := range cases {
		if got := FormatCode(tc.token); got != tc.want {
			t.Errorf("FormatCode(%q) = %q, want %q", tc.token, got, tc.want)
		}
	}
}

func TestIsAudioFormat(t *testing.T) {
	if !IsAudioFormat("mp3") || !IsAudioFormat(" OGG ") {
		t.Fatal("expected audio formats to be recognized")
	}
	if IsAudioFormat("mp4") || IsAudioFormat("1080p") {
		t.Fatal("expected video formats to be rejected")
	}
}

func TestParseQualityList(t *testing.T) {
	cases := []struct {
		name      string
		candidate any
		want      []string
	}{
		{"delimited string", "1080p,720", []string{"1080p", "720p"}},
		{"bare ultra hd number", "2160", []string{"4k"}},
		{"full hd object", map[string]any{"quality": "fullhd"}, []string{"1080p"}},
		{"uhd label", "UHD", []string{"4k"}},
		{"hd prefix", "hd720", []string{"720p"}},
		{"numeric", float64(480), []string{"480p"}},
		{"list with duplicates", []any{"720p", "720", "1080p"}, []string{"720p", "1080p"}},
		{
			"nested objects",
			[]any{
				map[string]any{"label": "1080p"},
				map[string]any{"resolution": 4320},
			},
			[]string{"1080p", "8k"},
		},
		{"unparseable", "not a quality", DefaultVideoQualities},
		{"nil", nil, DefaultVideoQualities},
	}
	for _, tc := range cases {
		got := ParseQualityList(tc.candidate)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: ParseQualityList(%v) = %v, want %v", tc.name, tc.candidate, got, tc.want)
		}
	}
}

func TestParseQualityListDefaultsAreCopies(t *testing.T) {
	got := ParseQualityList(nil)
	got[0] = "mutated"
	if DefaultVideoQualities[0] != "4k" {
		t.Fatal("default quality list was mutated")
	}
}

func TestParseBitrateList(t *testing.T) {
	cases := []struct {
		name      string
		candidate any
		want      []int
	}{
		{"delimited string", "128kbps, 320", []int{320, 128}},
		{"numeric list", []any{float64(192), float64(96), float64(192)}, []int{192, 96}},
		{"object", map[string]any{"bitrate": "256"}, []int{256}},
		{"negative ignored", []any{float64(-1), float64(128)}, []int{128}},
		{"unparseable", "lossless", DefaultAudioBitrates},
		{"nil", nil, DefaultAudioBitrates},
	}
	for _, tc := range cases {
		got := ParseBitrateList(tc.candidate)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: ParseBitrateList(%v) = %v, want %v", tc.name, tc.candidate, got, tc.want)
		}
	}
}
