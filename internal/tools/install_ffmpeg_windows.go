//go:build windows

package tools

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperr "cursedclipper/internal/errors"
	"cursedclipper/internal/fetch"
	"cursedclipper/internal/progressbus"
)

// ffmpegCandidate describes one archive source the Windows installer will
// try, in order, before giving up.
type ffmpegCandidate struct {
	label        string
	archiveURL   string
	checksumURL  string
	singleHash   bool // true: checksumURL body is one bare hex digest for archiveURL
}

var ffmpegCandidates = []ffmpegCandidate{
	{
		label:       "release-essentials",
		archiveURL:  "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip",
		checksumURL: "https://www.gyan.dev/ffmpeg/builds/ffmpeg-release-essentials.zip.sha256",
		singleHash:  true,
	},
	{
		label:       "latest-gpl",
		archiveURL:  "https://github.com/BtbN/FFmpeg-Builds/releases/download/latest/ffmpeg-master-latest-win64-gpl.zip",
		checksumURL: "https://github.com/BtbN/FFmpeg-Builds/releases/download/latest/checksums.sha256",
		singleHash:  false,
	},
}

// InstallFfmpegWindows implements §4.D's ffmpeg/ffprobe installer: try each
// candidate archive in turn, verify its checksum, extract ffmpeg.exe and
// ffprobe.exe, and atomically install both.
func InstallFfmpegWindows(ctx context.Context, fetcher *fetch.Fetcher, bus *progressbus.Bus, ffmpegTarget, ffprobeTarget string) (ffmpegStatus, ffprobeStatus Status, err error) {
	var lastErr error

	for i, cand := range ffmpegCandidates {
		base := 0.1 + float64(i)*0.4
		bus.Progress(progressbus.TaskFfmpeg, "fetching checksum for "+cand.label, base)

		archivePath := ffmpegTarget + "." + cand.label + ".zip.tmp"
		expectedHash, err := resolveCandidateChecksum(ctx, fetcher, cand)
		if err != nil {
			lastErr = err
			continue
		}

		bus.Progress(progressbus.TaskFfmpeg, "downloading "+cand.label, base+0.1)
		result, err := fetcher.Download(ctx, progressbus.TaskFfmpeg, cand.archiveURL, archivePath)
		if err != nil {
			lastErr = err
			os.Remove(archivePath)
			continue
		}

		if expectedHash != "" {
			bus.Progress(progressbus.TaskFfmpeg, "verifying "+cand.label, base+0.25)
			if err := fetch.VerifyChecksum(archivePath, result.SHA256Hex, expectedHash); err != nil {
				lastErr = err
				continue
			}
		}

		bus.Progress(progressbus.TaskFfmpeg, "extracting "+cand.label, base+0.3)
		if err := extractFfmpegArchive(archivePath, ffmpegTarget, ffprobeTarget); err != nil {
			lastErr = err
			os.Remove(archivePath)
			continue
		}
		os.Remove(archivePath)

		ffmpegStatus = statusFor("ffmpeg", ffmpegTarget, SourceManaged)
		ffprobeStatus = statusFor("ffprobe", ffprobeTarget, SourceManaged)
		bus.Success(progressbus.TaskFfmpeg, "ffmpeg installed via "+cand.label)
		return ffmpegStatus, ffprobeStatus, nil
	}

	bus.Error(progressbus.TaskFfmpeg, "all ffmpeg install candidates failed", errString(lastErr))
	return Status{}, Status{}, apperr.WrapWithMessage("tools.InstallFfmpegWindows", lastErr, "all ffmpeg install candidates failed")
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// resolveCandidateChecksum fetches cand's checksum artifact and returns the
// digest relevant to cand.archiveURL: the bare hash for a single-hash
// artifact, or the digest on the manifest line whose filename equals or
// ends with the archive's base name.
func resolveCandidateChecksum(ctx context.Context, fetcher *fetch.Fetcher, cand ffmpegCandidate) (string, error) {
	tmp := filepath.Join(os.TempDir(), "cursedclipper-ffmpeg-checksum-"+cand.label+".tmp")
	defer os.Remove(tmp)

	if _, err := fetcher.DownloadManifest(ctx, progressbus.TaskFfmpeg, cand.checksumURL, tmp); err != nil {
		return "", err
	}
	data, err := os.ReadFile(tmp)
	if err != nil {
		return "", apperr.Wrap("tools.resolveCandidateChecksum", err)
	}
	content := strings.TrimSpace(string(data))

	if cand.singleHash {
		fields := strings.Fields(content)
		if len(fields) == 0 {
			return "", apperr.NewWithMessage("tools.resolveCandidateChecksum", apperr.ErrChecksumMismatch, "empty checksum artifact")
		}
		return fields[0], nil
	}

	assetName := filepath.Base(cand.archiveURL)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := strings.TrimPrefix(fields[len(fields)-1], "*")
		if name == assetName || strings.HasSuffix(name, assetName) {
			return fields[0], nil
		}
	}
	// No manifest line names the archive: fail closed rather than guess.
	return "", apperr.NewWithMessage("tools.resolveCandidateChecksum", apperr.ErrChecksumMismatch, "no checksum entry matched "+assetName)
}

// extractFfmpegArchive pulls ffmpeg.exe and ffprobe.exe (matched by a
// normalized "/bin/<name>.exe" suffix) out of a zip archive, writing each
// to a .tmp sibling of its target before an atomic rename.
func extractFfmpegArchive(archivePath, ffmpegTarget, ffprobeTarget string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return apperr.Wrap("tools.extractFfmpegArchive", err)
	}
	defer r.Close()

	targets := map[string]string{
		"/bin/ffmpeg.exe":  ffmpegTarget,
		"/bin/ffprobe.exe": ffprobeTarget,
	}
	found := map[string]bool{}

	for _, f := range r.File {
		normalized := "/" + strings.ReplaceAll(f.Name, "\\", "/")
		for suffix, target := range targets {
			if !strings.HasSuffix(normalized, suffix) {
				continue
			}
			if err := extractZipEntry(f, target); err != nil {
				return err
			}
			found[suffix] = true
		}
	}

	for suffix := range targets {
		if !found[suffix] {
			return apperr.NewWithMessage("tools.extractFfmpegArchive", apperr.ErrDownloadFailed, "archive did not contain "+suffix)
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return apperr.Wrap("tools.extractZipEntry", err)
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return apperr.Wrap("tools.extractZipEntry", err)
	}

	tmp := target + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return apperr.Wrap("tools.extractZipEntry", err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(tmp)
		return apperr.Wrap("tools.extractZipEntry", err)
	}
	out.Close()

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return apperr.Wrap("tools.extractZipEntry", err)
	}
	return nil
}
