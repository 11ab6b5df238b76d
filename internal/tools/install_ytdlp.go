package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	apperr "cursedclipper/internal/errors"
	"cursedclipper/internal/fetch"
	"cursedclipper/internal/progressbus"
)

// ytdlpChannelBaseURL maps the supplemented self-update channel parameter
// to the GitHub release download base that actually carries it: yt-dlp
// publishes a rolling "nightly" and "master" tag alongside its tagged
// stable releases, which GitHub only aliases as "latest" through the
// special /releases/latest/download/ path (not /releases/download/latest/).
func ytdlpChannelBaseURL(channel string) string {
	switch channel {
	case "nightly":
		return "https://github.com/yt-dlp/yt-dlp/releases/download/nightly/"
	case "master":
		return "https://github.com/yt-dlp/yt-dlp/releases/download/master/"
	default:
		return "https://github.com/yt-dlp/yt-dlp/releases/latest/download/"
	}
}

func ytdlpManifestURL(channel string) string {
	return ytdlpChannelBaseURL(channel) + "SHA2-256SUMS"
}

func ytdlpReleaseURL(channel, assetName string) string {
	return ytdlpChannelBaseURL(channel) + assetName
}

func ytdlpAssetName() string {
	if runtime.GOOS == "windows" {
		return "yt-dlp.exe"
	}
	return "yt-dlp"
}

// parseSHA256Sums extracts the digest for assetName from a `sha256sum`
// style manifest: "<hex digest>  <filename>" per line, optionally
// prefixed with a "*" binary-mode marker.
func parseSHA256Sums(manifest, assetName string) (string, error) {
	scanner := bufio.NewScanner(strings.NewReader(manifest))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		digest := fields[0]
		name := strings.TrimPrefix(fields[len(fields)-1], "*")
		if name == assetName {
			return digest, nil
		}
	}
	return "", fmt.Errorf("no checksum entry found for %s", assetName)
}

// InstallYtdlp downloads and atomically installs a managed yt-dlp binary
// at targetPath, verifying its SHA2-256SUMS digest first. channel selects
// the release channel ("stable", "nightly", or "master"); any other value
// (including empty) falls back to stable.
func InstallYtdlp(ctx context.Context, fetcher *fetch.Fetcher, bus *progressbus.Bus, targetPath, channel string) (Status, error) {
	bus.Progress(progressbus.TaskYtdlp, "fetching checksum manifest", 0.05)

	manifestPath := targetPath + ".sums.tmp"
	if _, err := fetcher.DownloadManifest(ctx, progressbus.TaskYtdlp, ytdlpManifestURL(channel), manifestPath); err != nil {
		bus.Error(progressbus.TaskYtdlp, "failed to fetch checksum manifest", err.Error())
		return Status{}, err
	}
	manifestBytes, err := os.ReadFile(manifestPath)
	os.Remove(manifestPath)
	if err != nil {
		bus.Error(progressbus.TaskYtdlp, "failed to read checksum manifest", err.Error())
		return Status{}, apperr.Wrap("tools.InstallYtdlp", err)
	}

	assetName := ytdlpAssetName()
	expectedDigest, err := parseSHA256Sums(string(manifestBytes), assetName)
	if err != nil {
		bus.Error(progressbus.TaskYtdlp, "checksum entry not found", err.Error())
		return Status{}, apperr.WrapWithMessage("tools.InstallYtdlp", err, "manifest did not list a checksum for "+assetName)
	}

	tmpPath := targetPath + ".tmp"
	bus.Progress(progressbus.TaskYtdlp, "downloading yt-dlp", 0.15)
	result, err := fetcher.Download(ctx, progressbus.TaskYtdlp, ytdlpReleaseURL(channel, assetName), tmpPath)
	if err != nil {
		bus.Error(progressbus.TaskYtdlp, "download failed", err.Error())
		return Status{}, err
	}

	bus.Progress(progressbus.TaskYtdlp, "verifying checksum", 0.92)
	if err := fetch.VerifyChecksum(tmpPath, result.SHA256Hex, expectedDigest); err != nil {
		bus.Error(progressbus.TaskYtdlp, "checksum mismatch", err.Error())
		return Status{}, err
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0o755); err != nil {
			os.Remove(tmpPath)
			bus.Error(progressbus.TaskYtdlp, "failed to set executable bit", err.Error())
			return Status{}, apperr.Wrap("tools.InstallYtdlp", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		os.Remove(tmpPath)
		return Status{}, apperr.Wrap("tools.InstallYtdlp", err)
	}
	if err := os.Rename(tmpPath, targetPath); err != nil {
		os.Remove(tmpPath)
		bus.Error(progressbus.TaskYtdlp, "failed to install binary", err.Error())
		return Status{}, apperr.Wrap("tools.InstallYtdlp", err)
	}

	status := statusFor("yt-dlp", targetPath, SourceManaged)
	bus.Success(progressbus.TaskYtdlp, "yt-dlp installed")
	return status, nil
}
