// Package validate provides input validation functions for URLs, paths,
// time windows and other values that cross a public operation boundary.
package validate

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	apperr "cursedclipper/internal/errors"
)

// YoutubeHosts are the hosts (and their subdomains) accepted as YouTube URLs.
var YoutubeHosts = []string{"youtube.com", "youtu.be"}

// AllowedVideoExtensions are the extensions accepted for a local source video.
var AllowedVideoExtensions = []string{"mp4", "mov", "mkv", "webm", "m4v", "avi", "wmv", "mpeg", "mpg"}

// filenameUnsafeChars matches characters not allowed in filenames.
var filenameUnsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// MaxTimeSeconds bounds every clamped time value (§3 invariant 4).
const MaxTimeSeconds = 36000.0

// URL validates a URL and returns the parsed value. No scheme/host
// restriction is applied here; callers layer platform-specific checks
// (see YoutubeURL) on top.
func URL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, apperr.NewWithMessage("validate.URL", apperr.ErrInvalidURL, "URL must not be empty")
	}

	rawURL = strings.TrimSpace(rawURL)

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, apperr.NewWithMessage("validate.URL", apperr.ErrInvalidURL, "URL must start with http:// or https://")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperr.NewWithMessage("validate.URL", apperr.ErrInvalidURL, "malformed URL")
	}

	if parsed.Host == "" {
		return nil, apperr.NewWithMessage("validate.URL", apperr.ErrInvalidURL, "URL has no host")
	}

	return parsed, nil
}

// YoutubeURL validates a URL per spec.md §4.G: https, no credentials, no
// custom port, host in the youtube host/subdomain allow-list.
func YoutubeURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.HasPrefix(rawURL, "https://") {
		return nil, apperr.NewWithMessage("validate.YoutubeURL", apperr.ErrInvalidURL, "URL must use https")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperr.NewWithMessage("validate.YoutubeURL", apperr.ErrInvalidURL, "malformed URL")
	}

	if parsed.User != nil {
		return nil, apperr.NewWithMessage("validate.YoutubeURL", apperr.ErrInvalidURL, "URL must not contain credentials")
	}
	if parsed.Port() != "" {
		return nil, apperr.NewWithMessage("validate.YoutubeURL", apperr.ErrInvalidURL, "URL must not specify a custom port")
	}

	host := strings.ToLower(parsed.Hostname())
	if !isYoutubeHost(host) {
		return nil, apperr.NewWithMessage("validate.YoutubeURL", apperr.ErrUnsupportedPlatform,
			fmt.Sprintf("unsupported host: %s", host))
	}

	return parsed, nil
}

func isYoutubeHost(host string) bool {
	for _, allowed := range YoutubeHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// VideoExtension validates a lowercased, dot-free extension against the
// allowed local-video set (§4.F step 3).
func VideoExtension(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range AllowedVideoExtensions {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", apperr.NewWithMessage("validate.VideoExtension", apperr.ErrMediaInvalid,
		fmt.Sprintf("unsupported video extension: %s", ext))
}

// TimeWindow clamps start/end into [0, MaxTimeSeconds] and enforces
// end > start + 0.1s (§3 invariant 4).
func TimeWindow(start, end float64) (float64, float64, error) {
	start = clamp(start, 0, MaxTimeSeconds)
	end = clamp(end, 0, MaxTimeSeconds)

	if end <= start+0.1 {
		return 0, 0, apperr.NewWithMessage("validate.TimeWindow", apperr.ErrInvalidURL,
			"clip end must be more than 0.1s after start")
	}
	return start, end, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Aspect parses a "W:H" string or bare float ratio into a float64 ratio (w/h).
func Aspect(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperr.NewWithMessage("validate.Aspect", apperr.ErrInvalidURL, "aspect must not be empty")
	}

	if w, h, ok := strings.Cut(raw, ":"); ok {
		wv, err1 := strconv.ParseFloat(strings.TrimSpace(w), 64)
		hv, err2 := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err1 != nil || err2 != nil || hv == 0 {
			return 0, apperr.NewWithMessage("validate.Aspect", apperr.ErrInvalidURL, "malformed aspect ratio")
		}
		return wv / hv, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, apperr.NewWithMessage("validate.Aspect", apperr.ErrInvalidURL, "malformed aspect ratio")
	}
	return v, nil
}

// DirectoryPath cleans and absolutizes a directory path. It does not
// enforce sandbox containment; see internal/sandbox for that.
func DirectoryPath(path string) (string, error) {
	if path == "" {
		return "", apperr.NewWithMessage("validate.DirectoryPath", apperr.ErrInvalidURL, "path must not be empty")
	}
	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return "", apperr.Wrap("validate.DirectoryPath", err)
	}
	return absPath, nil
}

// Filename sanitizes a filename to be safe for the filesystem.
func Filename(name string) string {
	if name == "" {
		return "untitled"
	}

	safe := filenameUnsafeChars.ReplaceAllString(name, "_")
	safe = strings.Trim(safe, " .")

	if len(safe) > 200 {
		safe = safe[:200]
	}
	if safe == "" {
		return "untitled"
	}

	return safe
}

// SlugName applies the project/stem sanitization rule from §4.F step 2:
// keep [A-Za-z0-9_-], map whitespace to '-', collapse runs of '-', trim
// '-', cap to maxLen, and fall back to def when the result is empty.
func SlugName(name string, maxLen int, def string) string {
	name = strings.TrimSpace(name)
	if len(name) > maxLen {
		name = name[:maxLen]
	}

	var b strings.Builder
	lastDash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '\t' || r == '\n' || r == '-':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		default:
			// drop
		}
	}

	result := strings.Trim(b.String(), "-")
	if len(result) > maxLen {
		result = strings.Trim(result[:maxLen], "-")
	}
	if result == "" {
		return def
	}
	return result
}

// QualityValue clamps a quality value to [0, 100].
func QualityValue(quality int) int {
	if quality < 0 {
		return 0
	}
	if quality > 100 {
		return 100
	}
	return quality
}

// PositiveInt ensures an integer is positive, returning a default if not.
func PositiveInt(value, defaultValue int) int {
	if value <= 0 {
		return defaultValue
	}
	return value
}

// NonEmptyString returns the string or a default if empty.
func NonEmptyString(value, defaultValue string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultValue
	}
	return value
}

// TruncateRunes caps a string to at most n runes, a common sanitization
// step for titles/descriptions/tags (§4.K step 1).
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
