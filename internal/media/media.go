// Package media wraps ffprobe/ffmpeg invocations for duration/codec
// inspection and for repairing or re-encoding a file into the canonical
// H.264/AAC MP4 container every downstream clip tool assumes.
package media

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"

	apperr "cursedclipper/internal/errors"
	"cursedclipper/internal/procutil"
)

// MinDuration is the shortest duration (seconds) a canonical source is
// allowed to have; anything shorter is considered broken.
const MinDuration = 0.5

// SupportedVideoCodecs / SupportedAudioCodecs gate what counts as an
// already-canonical stream, per the pipeline's container contract.
var SupportedVideoCodecs = map[string]bool{"h264": true, "mpeg4": true, "hevc": true, "vp9": true}
var SupportedAudioCodecs = map[string]bool{"aac": true, "mp3": true, "opus": true, "none": true}

// RepairMode selects how repair() rebuilds a broken or non-canonical file.
type RepairMode string

const (
	RepairCopy     RepairMode = "copy"
	RepairReencode RepairMode = "reencode"
)

// ProbeDuration invokes ffprobe to read a file's duration in seconds. It
// returns ok=false if ffprobe failed or produced no usable number.
func ProbeDuration(ctx context.Context, ffprobePath, path string) (float64, bool) {
	cmd := procutil.Command(ctx, ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, false
	}

	line := firstLine(string(out))
	if line == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ProbePrimaryCodec reads the codec name of the first stream matching
// selector ("v:0" or "a:0"). ok=false if ffprobe failed or the selected
// stream doesn't exist (no audio stream, for instance).
func ProbePrimaryCodec(ctx context.Context, ffprobePath, path, selector string) (string, bool) {
	cmd := procutil.Command(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", selector,
		"-show_entries", "stream=codec_name",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	line := firstLine(string(out))
	if line == "" {
		return "", false
	}
	return line, true
}

func firstLine(s string) string {
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			return line
		}
	}
	return ""
}

// Repair rebuilds in into out using mode, preserving audio when
// includeAudio is true. On failure it returns a diagnostic built from up
// to four trailing non-empty stderr lines.
func Repair(ctx context.Context, ffmpegPath, in, out string, mode RepairMode, includeAudio bool) error {
	var args []string
	switch mode {
	case RepairCopy:
		args = []string{"-y", "-i", in, "-map", "0:v:0"}
		if includeAudio {
			args = append(args, "-map", "0:a:0?")
		} else {
			args = append(args, "-an")
		}
		args = append(args, "-c", "copy", "-movflags", "+faststart", out)

	case RepairReencode:
		crf := "19"
		if includeAudio {
			crf = "20"
		}
		args = []string{"-y", "-i", in, "-map", "0:v:0"}
		args = append(args, "-c:v", "libx264", "-preset", "veryfast", "-crf", crf)
		if includeAudio {
			args = append(args, "-map", "0:a:0?", "-c:a", "aac", "-b:a", "160k")
		} else {
			args = append(args, "-an")
		}
		args = append(args, "-movflags", "+faststart", out)
	}

	cmd := procutil.Command(ctx, ffmpegPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := diagnosticFromStderr(stderr.String())
		return apperr.NewWithMessage("media.Repair", apperr.ErrConversionFailed, diag)
	}
	return nil
}

// diagnosticFromStderr joins up to the last four non-empty stderr lines
// into ffmpeg's conventional "FFmpeg: A | B | C" diagnostic shape.
func diagnosticFromStderr(stderr string) string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(stderr))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	if len(lines) == 0 {
		return "FFmpeg: unknown error"
	}
	return "FFmpeg: " + strings.Join(lines, " | ")
}

func isFinite(v float64) bool {
	return v == v && v > -1e18 && v < 1e18 // NaN != NaN; ±Inf fails the numeric range check
}

// durationBroken reports whether d (as returned by ProbeDuration) fails
// the minimum-duration invariant.
func durationBroken(d float64, ok bool) bool {
	return !ok || !isFinite(d) || d < MinDuration
}

// repairIfBroken implements step 1 of the canonicalization policy: if
// path's duration is missing/non-finite/too short, try a copy-repair
// first and fall back to a full re-encode, deleting the original once a
// working replacement exists.
func repairIfBroken(ctx context.Context, ffmpegPath, ffprobePath, path string, wantAudio bool) (string, error) {
	duration, ok := ProbeDuration(ctx, ffprobePath, path)
	if !durationBroken(duration, ok) {
		return path, nil
	}

	repaired := path + "-repaired.mp4"
	if err := Repair(ctx, ffmpegPath, path, repaired, RepairCopy, wantAudio); err == nil {
		if d2, ok2 := ProbeDuration(ctx, ffprobePath, repaired); !durationBroken(d2, ok2) {
			os.Remove(path)
			return repaired, nil
		}
		os.Remove(repaired)
	}

	reencoded := path + "-reencoded.mp4"
	if err := Repair(ctx, ffmpegPath, path, reencoded, RepairReencode, wantAudio); err != nil {
		return "", apperr.WrapWithMessage("media.Canonicalize", apperr.ErrMediaInvalid, "source file is broken and could not be repaired: "+err.Error())
	}
	if d3, ok3 := ProbeDuration(ctx, ffprobePath, reencoded); durationBroken(d3, ok3) {
		os.Remove(reencoded)
		return "", apperr.NewWithMessage("media.Canonicalize", apperr.ErrMediaInvalid, "re-encoded file is still broken")
	}
	os.Remove(path)
	return reencoded, nil
}

// Canonicalize applies §4.E's three-step policy to a just-acquired file,
// returning the path of the final canonical MP4 (which may be a repaired
// or re-encoded sibling of path, with the original removed).
func Canonicalize(ctx context.Context, ffmpegPath, ffprobePath, path string, wantAudio bool) (string, error) {
	current, err := repairIfBroken(ctx, ffmpegPath, ffprobePath, path, wantAudio)
	if err != nil {
		return "", err
	}

	// Step 2: container/codec contract.
	ext := strings.ToLower(strings.TrimPrefix(extOf(current), "."))
	videoCodec, _ := ProbePrimaryCodec(ctx, ffprobePath, current, "v:0")
	audioCodec, hasAudio := ProbePrimaryCodec(ctx, ffprobePath, current, "a:0")
	if !hasAudio {
		audioCodec = "none"
	}

	needsReencode := ext != "mp4" ||
		!SupportedVideoCodecs[videoCodec] ||
		(wantAudio && (!SupportedAudioCodecs[audioCodec] || !hasAudio))

	if needsReencode {
		compat := stripExt(current) + "-compat.mp4"
		if err := Repair(ctx, ffmpegPath, current, compat, RepairReencode, wantAudio && hasAudio); err != nil {
			return "", apperr.WrapWithMessage("media.Canonicalize", apperr.ErrMediaInvalid, "failed to normalize into a canonical MP4: "+err.Error())
		}
		if current != path {
			os.Remove(current)
		}
		current = compat
	}

	// Step 3: final duration re-check.
	if finalDuration, ok := ProbeDuration(ctx, ffprobePath, current); durationBroken(finalDuration, ok) {
		return "", apperr.NewWithMessage("media.Canonicalize", apperr.ErrMediaInvalid, "final file duration is invalid")
	}

	return current, nil
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}

func stripExt(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return path
	}
	return path[:idx]
}

