package quality

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Defaults returned when provider metadata yields nothing usable.
var (
	DefaultVideoQualities = []string{"4k", "1440p", "1080p", "720p", "480p", "360p"}
	DefaultAudioBitrates  = []int{320, 256, 192, 128, 96}
)

// Provider-facing format codes.
const (
	DefaultVideoFormatCode = "1080"
	DefaultAudioBitrate    = 128
)

var formatCodes = map[string]string{
	"mp3":   "mp3",
	"m4a":   "m4a",
	"wav":   "wav",
	"flac":  "flac",
	"aac":   "aac",
	"ogg":   "ogg",
	"360p":  "360",
	"480p":  "480",
	"720p":  "720",
	"1080p": "1080",
	"1440p": "1440",
	"4k":    "2160",
	"8k":    "4320",
}

var audioFormats = map[string]struct{}{
	"mp3":  {},
	"m4a":  {},
	"wav":  {},
	"flac": {},
	"aac":  {},
	"ogg":  {},
}

// FormatCode maps a user-facing quality or format token to the provider's
// format identifier. Unknown tokens fall back to the 1080p video code.
func FormatCode(token string) string {
	if code, ok := formatCodes[strings.ToLower(strings.TrimSpace(token))]; ok {
		return code
	}
	return DefaultVideoFormatCode
}

// IsAudioFormat reports whether the token names an audio extraction format.
func IsAudioFormat(token string) bool {
	_, ok := audioFormats[strings.ToLower(strings.TrimSpace(token))]
	return ok
}

var (
	tokenSplitter   = regexp.MustCompile(`[\s,|/]+`)
	labeledQuality  = regexp.MustCompile(`^(\d{3,4})p$`)
	bareQuality     = regexp.MustCompile(`^\d{3,4}$`)
	ultraHD         = regexp.MustCompile(`^(2160|4320)p?$`)
	nonDigitPattern = regexp.MustCompile(`[^0-9]`)
)

var qualityObjectKeys = []string{"quality", "label", "resolution", "format", "name", "qualities"}

// ParseQualityList extracts canonical quality tokens from an arbitrary
// provider value: a delimited string, a number, a list, or a nested object.
// It never fails; when nothing parses it returns the default quality list.
func ParseQualityList(candidate any) []string {
	seen := make(map[string]struct{})
	out := appendQualities(nil, seen, candidate)
	if len(out) == 0 {
		return append([]string(nil), DefaultVideoQualities...)
	}
	return out
}

func appendQualities(out []string, seen map[string]struct{}, candidate any) []string {
	push := func(token string, ok bool) {
		if !ok {
			return
		}
		if _, dup := seen[token]; dup {
			return
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}

	switch v := candidate.(type) {
	case nil:
	case string:
		for _, part := range tokenSplitter.Split(v, -1) {
			push(canonicalQuality(part))
		}
	case float64:
		push(canonicalQuality(formatNumber(v)))
	case int:
		push(canonicalQuality(strconv.Itoa(v)))
	case []any:
		for _, item := range v {
			out = appendQualities(out, seen, item)
		}
	case map[string]any:
		for _, key := range qualityObjectKeys {
			if nested, ok := v[key]; ok {
				out = appendQualities(out, seen, nested)
			}
		}
	}
	return out
}

// canonicalQuality normalizes one raw token into the <NNN>p shape, with
// 2160/4320 collapsing to 4k/8k and uhd/fullhd resolving to their
// resolution names.
func canonicalQuality(raw string) (string, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.ReplaceAll(value, " ", "")
	if value == "" {
		return "", false
	}

	switch value {
	case "4k", "8k":
		return value, true
	case "uhd":
		return "4k", true
	case "fullhd":
		return "1080p", true
	}

	value = strings.ReplaceAll(value, "quality", "")
	value = strings.ReplaceAll(value, "hd", "")
	if value == "" {
		return "", false
	}

	if m := ultraHD.FindStringSubmatch(value); m != nil {
		if m[1] == "2160" {
			return "4k", true
		}
		return "8k", true
	}
	if labeledQuality.MatchString(value) {
		return value, true
	}
	if bareQuality.MatchString(value) {
		return value + "p", true
	}
	return "", false
}

var bitrateObjectKeys = []string{"bitrate", "kbps", "quality"}

// ParseBitrateList extracts positive audio bitrates from an arbitrary
// provider value, deduplicated and sorted descending. When nothing parses
// it returns the default bitrate list.
func ParseBitrateList(candidate any) []int {
	seen := make(map[int]struct{})
	out := appendBitrates(nil, seen, candidate)
	if len(out) == 0 {
		return append([]int(nil), DefaultAudioBitrates...)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

func appendBitrates(out []int, seen map[int]struct{}, candidate any) []int {
	push := func(value int, ok bool) {
		if !ok || value <= 0 {
			return
		}
		if _, dup := seen[value]; dup {
			return
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}

	switch v := candidate.(type) {
	case nil:
	case string:
		for _, part := range tokenSplitter.Split(v, -1) {
			push(castBitrate(part))
		}
	case float64:
		push(int(v), v == math.Trunc(v))
	case int:
		push(v, true)
	case []any:
		for _, item := range v {
			out = appendBitrates(out, seen, item)
		}
	case map[string]any:
		for _, key := range bitrateObjectKeys {
			if nested, ok := v[key]; ok {
				out = appendBitrates(out, seen, nested)
			}
		}
	}
	return out
}

func castBitrate(raw string) (int, bool) {
	digits := nonDigitPattern.ReplaceAllString(raw, "")
	if digits == "" {
		return 0, false
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return value, true
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
