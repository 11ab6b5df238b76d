// Package fetch implements the trusted, read-only HTTP client used to pull
// managed-tool binaries and checksum manifests from a small allow-list of
// hosts. It never touches a URL supplied by a clip source (that's the
// YouTube downloader's job) — only installer and manifest traffic goes
// through here.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	apperr "cursedclipper/internal/errors"
	"cursedclipper/internal/progressbus"
	"cursedclipper/internal/ratelimit"
)

// AllowedHosts is the exact-match host allow-list trusted downloads may
// target. Subdomains are not implicitly trusted.
var AllowedHosts = map[string]bool{
	"github.com":                  true,
	"objects.githubusercontent.com": true,
	"www.gyan.dev":                true,
	"gyan.dev":                    true,
}

const chunkSize = 64 * 1024

// minFinalSize rejects truncated downloads that completed the HTTP
// transaction but clearly didn't receive a real binary or archive.
const minFinalSize = 256 * 1024

// throttleInterval / throttleDelta approximate a ~7Hz progress cadence.
const throttleInterval = 140 * time.Millisecond
const throttleDelta = 0.01

var httpClient = &http.Client{
	Timeout: 10 * time.Minute,
}

// ValidateURL enforces the trusted-fetch URL contract: https only, no
// embedded credentials, no explicit port, and an exact host allow-list
// match.
func ValidateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperr.NewWithMessage("fetch.ValidateURL", apperr.ErrInvalidURL, "malformed URL")
	}
	if u.Scheme != "https" {
		return nil, apperr.NewWithMessage("fetch.ValidateURL", apperr.ErrInvalidURL, "only https URLs are trusted")
	}
	if u.User != nil {
		return nil, apperr.NewWithMessage("fetch.ValidateURL", apperr.ErrInvalidURL, "credentials are not allowed in a trusted URL")
	}
	if u.Port() != "" {
		return nil, apperr.NewWithMessage("fetch.ValidateURL", apperr.ErrInvalidURL, "explicit ports are not allowed")
	}
	if !AllowedHosts[u.Hostname()] {
		return nil, apperr.NewWithMessage("fetch.ValidateURL", apperr.ErrUnsupportedPlatform, "host is not on the trusted allow-list")
	}
	return u, nil
}

// Fetcher streams trusted downloads to disk, reporting progress on a bus.
// It shares the package-wide FetchLimiter across every Fetcher instance, so
// the allow-listed hosts see one burst budget no matter how many Fetchers
// the host app constructs.
type Fetcher struct {
	bus     *progressbus.Bus
	limiter *ratelimit.Limiter
}

// New returns a Fetcher that reports progress through bus. bus may be nil.
func New(bus *progressbus.Bus) *Fetcher {
	return &Fetcher{
		bus:     bus,
		limiter: ratelimit.FetchLimiter,
	}
}

// Result describes a completed download.
type Result struct {
	Size       int64
	SHA256Hex  string
}

// Download streams rawURL to destPath in 64 KiB chunks, hashing the
// content as it arrives, and reports throttled progress under task.
// total content-length of 0 (unknown) is reported as indeterminate
// progress (0 until completion). A final size under minFinalSize, or any
// network error, deletes destPath and returns an error.
func (f *Fetcher) Download(ctx context.Context, task, rawURL, destPath string) (Result, error) {
	return f.download(ctx, task, rawURL, destPath, minFinalSize)
}

// DownloadManifest is Download without the binary-artifact size floor, for
// the small checksum manifests (SHA2-256SUMS and similar) the installer
// fetches alongside the binaries they describe.
func (f *Fetcher) DownloadManifest(ctx context.Context, task, rawURL, destPath string) (Result, error) {
	return f.download(ctx, task, rawURL, destPath, 0)
}

func (f *Fetcher) download(ctx context.Context, task, rawURL, destPath string, minSize int64) (Result, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return Result{}, err
	}

	if f.limiter != nil && !f.limiter.Allow() {
		return Result{}, apperr.NewWithMessage("fetch.Download", apperr.ErrRateLimited, "too many trusted-fetch attempts, try again shortly")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, apperr.Wrap("fetch.Download", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return Result{}, apperr.NewWithMessage("fetch.Download", apperr.ErrDownloadFailed, "network error: "+err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, apperr.NewWithMessage("fetch.Download", apperr.ErrDownloadFailed, "unexpected HTTP status "+resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return Result{}, apperr.Wrap("fetch.Download", err)
	}

	hasher := sha256.New()
	writer := io.MultiWriter(out, hasher)

	total := resp.ContentLength
	throttle := progressbus.NewThrottle(throttleInterval, throttleDelta)
	buf := make([]byte, chunkSize)
	var downloaded int64

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := writer.Write(buf[:n]); writeErr != nil {
				out.Close()
				os.Remove(destPath)
				return Result{}, apperr.Wrap("fetch.Download", writeErr)
			}
			downloaded += int64(n)

			ratio := 0.0
			if total > 0 {
				ratio = float64(downloaded) / float64(total)
			}
			if f.bus != nil && throttle.Allow(time.Now(), ratio) {
				f.bus.Progress(task, "downloading", ratio)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			os.Remove(destPath)
			return Result{}, apperr.NewWithMessage("fetch.Download", apperr.ErrDownloadFailed, "network error: "+readErr.Error())
		}
	}
	out.Close()

	if downloaded < minSize {
		os.Remove(destPath)
		return Result{}, apperr.NewWithMessage("fetch.Download", apperr.ErrDownloadFailed, "downloaded file is too small to be valid")
	}

	return Result{Size: downloaded, SHA256Hex: hex.EncodeToString(hasher.Sum(nil))}, nil
}

// VerifyChecksum compares a computed digest against an expected hex
// digest case-insensitively, deleting path on mismatch.
func VerifyChecksum(path, actualHex, expectedHex string) error {
	if !equalFoldHex(actualHex, expectedHex) {
		os.Remove(path)
		return apperr.NewWithMessage("fetch.VerifyChecksum", apperr.ErrChecksumMismatch, "downloaded artifact failed checksum verification")
	}
	return nil
}

func equalFoldHex(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
