package youtube

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	apperr "cursedclipper/internal/errors"
	"cursedclipper/internal/media"
	"cursedclipper/internal/procutil"
	"cursedclipper/internal/progressbus"
	"cursedclipper/internal/ratelimit"
	"cursedclipper/internal/sandbox"
	"cursedclipper/internal/validate"
)

// ansiRegex strips terminal color escape sequences from yt-dlp output.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

const (
	outputCandidateCap  = 32
	progressThrottle    = 240 * time.Millisecond
	progressMinDelta    = 0.01
	progressNearDone    = 0.995
	downloadPhaseWeight = 0.9
	mtimeFallbackWindow = 5 * time.Second
)

// Download drives a yt-dlp child process per §4.H: constructs the command,
// streams progress off a CF_PROGRESS/CF_OUTPUT protocol, resolves the
// final file once the child exits, and canonicalizes it. bus may be nil,
// in which case progress events are silently dropped.
func Download(ctx context.Context, ytdlpPath string, bus *progressbus.Bus, req DownloadRequest) (DownloadResult, error) {
	if _, err := validate.YoutubeURL(req.URL); err != nil {
		return DownloadResult{}, err
	}
	if req.FormatID == "" {
		return DownloadResult{}, apperr.NewWithMessage("youtube.Download", apperr.ErrInvalidURL, "format code is required")
	}
	if !ratelimit.YoutubeDownloadLimiter.Allow() {
		return DownloadResult{}, apperr.NewWithMessage("youtube.Download", apperr.ErrRateLimited, "too many download requests, try again shortly")
	}

	selector, err := buildFormatSelector(req.FormatID, req.FormatIsAudio, req.IncludeAudio, req.VideoOnly)
	if err != nil {
		return DownloadResult{}, err
	}

	sanitizedProject := validate.SlugName(req.ProjectName, 72, "cursed-clipper-import")
	projectDir := filepath.Join(req.ProjectsRoot, sanitizedProject)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return DownloadResult{}, apperr.Wrap("youtube.Download", err)
	}

	taskKey := req.TaskKey
	if taskKey == "" {
		taskKey = progressbus.TaskYoutubeDownload
	}

	preExisting := snapshotVideoFiles(projectDir)
	downloadStart := time.Now()

	args := buildDownloadArgs(req, selector, projectDir)
	cmd := procutil.CommandUTF8(ctx, ytdlpPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return DownloadResult{}, apperr.WrapWithMessage("youtube.Download", apperr.ErrSubprocessFailed, "failed to start: "+err.Error())
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return DownloadResult{}, apperr.WrapWithMessage("youtube.Download", apperr.ErrSubprocessFailed, "failed to start: "+err.Error())
	}

	if err := cmd.Start(); err != nil {
		return DownloadResult{}, apperr.WrapWithMessage("youtube.Download", apperr.ErrSubprocessFailed, "failed to start: "+err.Error())
	}

	if bus == nil {
		bus = progressbus.New(nil)
	}
	tracker := newProgressTracker(bus, taskKey)

	var lastErrMu sync.Mutex
	var lastStderrLine string

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanLines(stderr, func(line string) {
			lastErrMu.Lock()
			lastStderrLine = line
			lastErrMu.Unlock()
		})
	}()

	var candidates []string
	var lastStdoutLine string
	scanLines(stdout, func(line string) {
		lastStdoutLine = line
		switch {
		case strings.HasPrefix(line, "CF_OUTPUT|"):
			candidates = appendCandidate(candidates, strings.TrimPrefix(line, "CF_OUTPUT|"))
		case strings.HasPrefix(line, "CF_PROGRESS|"):
			tracker.handle(strings.TrimPrefix(line, "CF_PROGRESS|"))
		}
	})

	wg.Wait()
	waitErr := cmd.Wait()

	if waitErr != nil {
		lastErrMu.Lock()
		diag := lastStderrLine
		lastErrMu.Unlock()
		if diag == "" {
			diag = lastStdoutLine
		}
		if diag == "" {
			diag = waitErr.Error()
		}
		tracker.fail(diag)
		return DownloadResult{}, apperr.WrapWithMessage("youtube.Download", apperr.ErrSubprocessFailed, "yt-dlp: "+diag)
	}

	outputPath, err := resolveOutputPath(projectDir, candidates, preExisting, downloadStart)
	if err != nil {
		tracker.fail(err.Error())
		return DownloadResult{}, err
	}

	final, err := media.Canonicalize(ctx, req.FfmpegPath, req.FfprobePath, outputPath, req.IncludeAudio)
	if err != nil {
		tracker.fail(err.Error())
		return DownloadResult{}, err
	}

	duration, _ := media.ProbeDuration(ctx, req.FfprobePath, final)
	tracker.succeed()

	return DownloadResult{
		OutputPath:   final,
		SourceURL:    req.URL,
		FormatID:     req.FormatID,
		DurationSecs: duration,
	}, nil
}

// buildFormatSelector implements §4.H's format selector rules.
func buildFormatSelector(formatID string, formatIsAudio, includeAudio, videoOnly bool) (string, error) {
	if formatIsAudio {
		return "", apperr.NewWithMessage("youtube.buildFormatSelector", apperr.ErrInvalidURL, "audio-only format codes are not supported")
	}

	switch {
	case includeAudio && videoOnly:
		return fmt.Sprintf("%s+bestaudio[ext=m4a]/%s+bestaudio/%s/best", formatID, formatID, formatID), nil
	case includeAudio && !videoOnly:
		return fmt.Sprintf("%s/best[ext=mp4]/best", formatID), nil
	default:
		return formatID, nil
	}
}

func buildDownloadArgs(req DownloadRequest, selector, projectDir string) []string {
	sortString := "res,fps,vcodec:h264"
	if req.IncludeAudio {
		sortString = "res,fps,vcodec:h264,acodec:aac"
	}

	outputTemplate := filepath.Join(projectDir, "%(title).120B-%(id)s.%(ext)s")

	args := []string{
		"-f", selector,
		"-S", sortString,
		"-o", outputTemplate,
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--newline",
		"--progress",
		"--no-warnings",
		"--progress-template", "download:CF_PROGRESS|%(progress.downloaded_bytes)s|%(progress.total_bytes)s|%(progress.total_bytes_estimate)s|%(progress.percent)s",
		"--print", "after_move:CF_OUTPUT|%(filepath)s",
	}

	if req.FfmpegPath != "" {
		args = append(args, "--ffmpeg-location", filepath.Dir(req.FfmpegPath))
	}

	args = append(args, req.URL)
	return args
}

// progressTracker turns the CF_PROGRESS protocol into throttled,
// monotonically non-decreasing progress-bus events scaled to the
// download phase's share of the overall task.
type progressTracker struct {
	bus       *progressbus.Bus
	task      string
	mu        sync.Mutex
	lastRatio float64
	lastEmit  time.Time
	emitted   bool
}

func newProgressTracker(b *progressbus.Bus, task string) *progressTracker {
	return &progressTracker{bus: b, task: task}
}

func (t *progressTracker) handle(fields string) {
	ratio, ok := parseProgressRatio(fields)
	if !ok {
		return
	}

	t.mu.Lock()
	if ratio < t.lastRatio {
		ratio = t.lastRatio
	}
	now := time.Now()
	shouldEmit := !t.emitted
	if !shouldEmit {
		delta := ratio - t.lastRatio
		if delta < 0 {
			delta = -delta
		}
		shouldEmit = now.Sub(t.lastEmit) >= progressThrottle && delta >= progressMinDelta
		if ratio >= progressNearDone {
			shouldEmit = true
		}
	}
	if shouldEmit {
		t.lastEmit = now
		t.emitted = true
	}
	t.lastRatio = ratio
	t.mu.Unlock()

	if shouldEmit {
		t.bus.Progress(t.task, "Downloading", ratio*downloadPhaseWeight)
	}
}

func (t *progressTracker) succeed() {
	t.bus.Success(t.task, "Download complete")
}

func (t *progressTracker) fail(detail string) {
	t.bus.Error(t.task, "Download failed", detail)
}

// parseProgressRatio parses "<downloaded>|<total>|<total_estimate>|<percent>"
// into a clamped [0,1] ratio, preferring the byte counters over the percent
// hint per §4.H.
func parseProgressRatio(fields string) (float64, bool) {
	parts := strings.Split(fields, "|")
	if len(parts) < 4 {
		return 0, false
	}

	downloaded := parseFlexibleFloat(parts[0])
	total := parseFlexibleFloat(parts[1])
	totalEstimate := parseFlexibleFloat(parts[2])
	percentHint := parseFlexibleFloat(strings.TrimSuffix(strings.TrimSpace(parts[3]), "%")) / 100

	denominator := total
	if denominator <= 0 {
		denominator = totalEstimate
	}

	var ratio float64
	if denominator > 0 {
		ratio = downloaded / denominator
	} else {
		ratio = percentHint
	}

	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return ratio, true
}

func parseFlexibleFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func appendCandidate(candidates []string, path string) []string {
	candidates = append(candidates, strings.TrimSpace(path))
	if len(candidates) > outputCandidateCap {
		candidates = candidates[len(candidates)-outputCandidateCap:]
	}
	return candidates
}

// scanLines reads r line-by-line, tolerating both \r and \n terminators
// (yt-dlp rewrites progress lines with bare \r) and invalid UTF-8 byte
// sequences, handing each non-empty cleaned line to onLine.
func scanLines(r io.Reader, onLine func(line string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(splitCROrLF)

	for scanner.Scan() {
		line := ansiRegex.ReplaceAllString(scanner.Text(), "")
		line = strings.ToValidUTF8(strings.TrimSpace(line), "")
		if line != "" {
			onLine(line)
		}
	}
}

func splitCROrLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		if b == '\n' {
			return i + 1, data[:i], nil
		}
		if b == '\r' {
			if i+1 < len(data) && data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			if !atEOF {
				return 0, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// snapshotVideoFiles lists the video files already present in dir before
// the download starts, for the output-resolution fallback in §4.H step 2.
func snapshotVideoFiles(dir string) map[string]bool {
	snapshot := map[string]bool{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return snapshot
	}
	for _, e := range entries {
		if !e.IsDir() && isVideoFile(e.Name()) {
			snapshot[e.Name()] = true
		}
	}
	return snapshot
}

func isVideoFile(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, allowed := range validate.AllowedVideoExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// resolveOutputPath implements §4.H's output-path resolution priority
// chain: CF_OUTPUT candidates, then an unsnapshotted file, then an
// mtime-window fallback.
func resolveOutputPath(projectDir string, candidates []string, preExisting map[string]bool, downloadStart time.Time) (string, error) {
	sb := sandbox.New(projectDir)

	for i := len(candidates) - 1; i >= 0; i-- {
		canonical, err := sb.CheckIsFile(candidates[i])
		if err == nil {
			return canonical, nil
		}
	}

	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return "", apperr.NewWithMessage("youtube.resolveOutputPath", apperr.ErrMediaInvalid, "project directory is unreadable")
	}

	var bestUnsnapshotted string
	var bestUnsnapshottedMod time.Time
	var bestFallback string
	var bestFallbackMod time.Time

	for _, e := range entries {
		if e.IsDir() || !isVideoFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		full := filepath.Join(projectDir, e.Name())

		if !preExisting[e.Name()] && info.ModTime().After(bestUnsnapshottedMod) {
			bestUnsnapshotted = full
			bestUnsnapshottedMod = info.ModTime()
		}
		if info.ModTime().After(downloadStart.Add(-mtimeFallbackWindow)) && info.ModTime().After(bestFallbackMod) {
			bestFallback = full
			bestFallbackMod = info.ModTime()
		}
	}

	if bestUnsnapshotted != "" {
		return bestUnsnapshotted, nil
	}
	if bestFallback != "" {
		return bestFallback, nil
	}

	listed := candidates
	if len(listed) > 4 {
		listed = listed[len(listed)-4:]
	}
	return "", apperr.NewWithMessage("youtube.resolveOutputPath", apperr.ErrMediaInvalid,
		"could not resolve downloaded file; recent candidates: "+strings.Join(listed, ", "))
}

