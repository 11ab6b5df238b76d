package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cursedclipper/internal/coverart"
	apperr "cursedclipper/internal/errors"
	"cursedclipper/internal/procutil"
	"cursedclipper/internal/progressbus"
	"cursedclipper/internal/sandbox"
	"cursedclipper/internal/subtitle"
	"cursedclipper/internal/validate"
)

const manifestName = "export-manifest.json"

// Render executes a full batch export per §4.K: per-batch setup, a
// per-task render loop, and manifest finalization. Any task failure
// aborts the whole batch; artifacts already written are left in place.
func Render(ctx context.Context, tools Tools, sb *sandbox.Sandbox, bus *progressbus.Bus, projectsRoot string, req BatchRequest) (Result, error) {
	if bus == nil {
		bus = progressbus.New(nil)
	}

	if err := checkPreconditions(req); err != nil {
		return Result{}, err
	}

	sourceInfo, err := os.Stat(req.SourcePath)
	if err != nil {
		return Result{}, apperr.Wrap("export.Render", err)
	}
	if sourceInfo.IsDir() {
		return Result{}, apperr.NewWithMessage("export.Render", apperr.ErrSandboxViolation, "source path is not a file")
	}
	sourceCanonical, err := sandbox.CanonicalizeExisting(req.SourcePath)
	if err != nil {
		return Result{}, apperr.Wrap("export.Render", err)
	}

	sanitizedProject := validate.SlugName(req.ProjectName, 72, "cursed-clipper-import")
	taskKey := progressbus.ClipExportTask(sanitizedProject)

	baseDir := computeBaseDir(sb, sourceCanonical, projectsRoot, sanitizedProject)
	runDir, err := createRunDir(baseDir)
	if err != nil {
		return Result{}, apperr.Wrap("export.Render", err)
	}

	bus.Progress(taskKey, "Preparing export", 0.02)

	n := len(req.Tasks)
	artifacts := make([]Artifact, 0, n)

	for i, raw := range req.Tasks {
		label := fmt.Sprintf("Rendering clip %d of %d", i+1, n)

		artifact, err := renderTask(ctx, tools, runDir, sourceCanonical, req.Subtitles, raw)
		if err != nil {
			bus.Error(taskKey, "Export failed", err.Error())
			return Result{}, err
		}
		artifacts = append(artifacts, artifact)

		progress := 0.05 + (float64(i+1)/float64(n))*0.88
		bus.Progress(taskKey, label, progress)
	}

	manifestPath := filepath.Join(runDir, manifestName)
	if err := writeManifest(manifestPath, artifacts); err != nil {
		bus.Error(taskKey, "Failed to write manifest", err.Error())
		return Result{}, apperr.Wrap("export.Render", err)
	}

	bus.Success(taskKey, "Export complete")

	return Result{
		ProjectDir:    runDir,
		ExportedCount: len(artifacts),
		Artifacts:     artifacts,
	}, nil
}

func checkPreconditions(req BatchRequest) error {
	if len(req.Tasks) == 0 || len(req.Tasks) > maxTasksPerBatch {
		return apperr.NewWithMessage("export.Render", apperr.ErrCapacityExceeded, "batch must contain between 1 and 200 tasks")
	}

	anySubtitled := false
	for _, t := range req.Tasks {
		if t.SubtitlesEnabled {
			anySubtitled = true
			break
		}
	}
	if anySubtitled && !req.Subtitles.Enabled {
		return apperr.NewWithMessage("export.Render", apperr.ErrCapacityExceeded, "a subtitled task requires an enabled subtitle payload")
	}
	if req.Subtitles.Enabled && len(req.Subtitles.Words) > maxSubtitleWords {
		return apperr.NewWithMessage("export.Render", apperr.ErrCapacityExceeded, "subtitle payload exceeds the maximum word count")
	}
	return nil
}

// computeBaseDir implements §4.K's base_dir rule: prefer the directory
// next to the source when it already lies under an allowed root, else
// fall back to the projects root.
func computeBaseDir(sb *sandbox.Sandbox, sourceCanonical, projectsRoot, sanitizedProject string) string {
	parent := filepath.Dir(sourceCanonical)
	if sb != nil {
		for _, root := range sb.Roots() {
			if sandbox.Contains(root, parent) {
				return filepath.Join(parent, "exports")
			}
		}
	}
	return filepath.Join(projectsRoot, sanitizedProject, "exports")
}

// createRunDir creates base/batch-<unix_seconds>/, appending a numeric
// suffix if that name is already taken within the same second.
func createRunDir(baseDir string) (string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("batch-%d", time.Now().Unix())
	for n := 1; n <= 1000; n++ {
		candidate := filepath.Join(baseDir, name)
		if n > 1 {
			candidate = filepath.Join(baseDir, fmt.Sprintf("%s-%d", name, n))
		}
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			if mkErr := os.Mkdir(candidate, 0o755); mkErr == nil {
				return candidate, nil
			}
		}
	}
	return "", apperr.NewWithMessage("export.createRunDir", apperr.ErrCapacityExceeded, "could not allocate a run directory")
}

func renderTask(ctx context.Context, tools Tools, runDir, sourcePath string, payload SubtitlePayload, raw Task) (Artifact, error) {
	t := sanitizeTask(raw)

	start, end, err := validate.TimeWindow(t.Start, t.End)
	if err != nil {
		return Artifact{}, err
	}

	aspectRatio, err := validate.Aspect(t.Aspect)
	if err != nil {
		return Artifact{}, err
	}
	tw, th := resolveTargetResolution(aspectRatio, t.OutputWidth, t.OutputHeight)

	var assPath string
	if payload.Enabled && t.SubtitlesEnabled && len(payload.Words) > 0 {
		rctx := subtitle.RenderContext{
			ClipStart:         start,
			ClipEnd:           end,
			TargetW:           tw,
			TargetH:           th,
			SubtitleOffsetX:   t.SubtitleOffsetX,
			SubtitleOffsetY:   t.SubtitleOffsetY,
			SubtitleBoxWidth:  t.SubtitleBoxWidth,
			SubtitleBoxHeight: t.SubtitleBoxHeight,
			PositionOverride:  t.SubtitlePositionOverride,
		}
		ass, ok := subtitle.Render(payload.Words, payload.RenderProfile, rctx)
		if ok {
			assPath = filepath.Join(runDir, t.ClipStem+"-subs.ass")
			if err := os.WriteFile(assPath, []byte(ass), 0o644); err != nil {
				return Artifact{}, apperr.Wrap("export.renderTask", err)
			}
		}
	}

	outPath, err := resolveOutputCollision(runDir, t.ClipStem, "mp4")
	if err != nil {
		return Artifact{}, err
	}

	primary, fallback := buildVideoFilter(t.FitMode, tw, th, zoomOrDefault(t.Zoom), t.OffsetX, t.OffsetY)
	if assPath != "" {
		clause := subtitlesFilterClause(assPath)
		primary += clause
		if fallback != "" {
			fallback += clause
		}
	}

	if err := runFfmpeg(ctx, tools.FfmpegPath, sourcePath, start, end, primary, outPath); err != nil {
		if fallback == "" {
			return Artifact{}, err
		}
		if fallbackErr := runFfmpeg(ctx, tools.FfmpegPath, sourcePath, start, end, fallback, outPath); fallbackErr != nil {
			return Artifact{}, fallbackErr
		}
	}

	var coverPath string
	if t.CoverImagePath != "" {
		coverPath, err = copyCoverImage(t.CoverImagePath, runDir, t.ClipStem)
		if err != nil {
			return Artifact{}, err
		}
	}

	return Artifact{
		ClipID:      t.ClipID,
		PlatformID:  t.PlatformID,
		Title:       t.Title,
		Description: t.Description,
		Tags:        t.Tags,
		Start:       start,
		End:         end,
		OutputPath:  outPath,
		CoverPath:   coverPath,
	}, nil
}

func zoomOrDefault(z float64) float64 {
	if z < 0.35 || z > 3.0 {
		return 1.0
	}
	return z
}

func runFfmpeg(ctx context.Context, ffmpegPath, src string, start, end float64, filter, out string) error {
	dur := end - start
	args := []string{
		"-y",
		"-ss", strconv.FormatFloat(start, 'f', -1, 64),
		"-t", strconv.FormatFloat(dur, 'f', -1, 64),
		"-i", src,
		"-vf", filter,
		"-map", "0:v:0",
		"-map", "0:a:0?",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "20",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "160k",
		"-movflags", "+faststart",
		out,
	}

	cmd := procutil.Command(ctx, ffmpegPath, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return apperr.NewWithMessage("export.runFfmpeg", apperr.ErrConversionFailed, ffmpegDiagnostic(stderr.String()))
	}
	return nil
}

// ffmpegDiagnostic joins up to the last four non-empty stderr lines into
// the conventional "FFmpeg: A | B | C" shape (§7).
func ffmpegDiagnostic(stderr string) string {
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

func resolveOutputCollision(dir, stem, ext string) (string, error) {
	candidate := filepath.Join(dir, stem+"."+ext)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}
	for n := 2; n < 10000; n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d.%s", stem, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", apperr.NewWithMessage("export.resolveOutputCollision", apperr.ErrCapacityExceeded, "could not find a free output filename")
}

func copyCoverImage(src, runDir, stem string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", apperr.Wrap("export.copyCoverImage", err)
	}
	if info.IsDir() {
		return "", apperr.NewWithMessage("export.copyCoverImage", apperr.ErrSandboxViolation, "cover image path is not a file")
	}
	if _, _, err := coverart.Validate(src); err != nil {
		return "", err
	}

	ext := strings.TrimPrefix(filepath.Ext(src), ".")
	if ext == "" {
		ext = "jpg"
	}
	dst, err := resolveOutputCollision(runDir, stem+"-cover", ext)
	if err != nil {
		return "", err
	}

	in, err := os.Open(src)
	if err != nil {
		return "", apperr.Wrap("export.copyCoverImage", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", apperr.Wrap("export.copyCoverImage", err)
	}
	if _, err := out.ReadFrom(in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", apperr.Wrap("export.copyCoverImage", err)
	}
	if err := out.Close(); err != nil {
		return "", apperr.Wrap("export.copyCoverImage", err)
	}
	return dst, nil
}

func writeManifest(path string, artifacts []Artifact) error {
	data, err := json.MarshalIndent(artifacts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
