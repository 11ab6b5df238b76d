package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cursedclipper/internal/sandbox"
	"cursedclipper/internal/subtitle"
)

func TestDefaultResolution(t *testing.T) {
	tests := []struct {
		aspect  float64
		wantW   int
		wantH   int
	}{
		{9.0 / 16.0, 1080, 1920},
		{1.0, 1080, 1080},
		{16.0 / 9.0, 1920, 1080},
		{21.0 / 9.0, 1920, 1080}, // >= 1.35 rule
	}
	for _, tt := range tests {
		w, h := defaultResolution(tt.aspect)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("defaultResolution(%v) = %dx%d, want %dx%d", tt.aspect, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestResolveTargetResolution_NoOverrideUsesDefault(t *testing.T) {
	w, h := resolveTargetResolution(9.0/16.0, 0, 0)
	if w != 1080 || h != 1920 {
		t.Errorf("got %dx%d, want 1080x1920", w, h)
	}
}

func TestResolveTargetResolution_OverrideIsEvenAndClamped(t *testing.T) {
	w, h := resolveTargetResolution(16.0/9.0, 100, 9999)
	if w%2 != 0 || h%2 != 0 {
		t.Errorf("dimensions not even: %dx%d", w, h)
	}
	if w < minDimension || h > maxDimension {
		t.Errorf("dimensions out of range: %dx%d", w, h)
	}
}

func TestResolveTargetResolution_AlignsToAspect(t *testing.T) {
	w, h := resolveTargetResolution(1.0, 1920, 1080)
	ratio := float64(w) / float64(h)
	if ratio < 0.9 || ratio > 1.1 {
		t.Errorf("got %dx%d (ratio %v), want close to 1:1", w, h, ratio)
	}
}

func TestBuildVideoFilter_Contain(t *testing.T) {
	chain, fallback := buildVideoFilter(FitContain, 1080, 1920, 1.0, 0, 0)
	if !strings.Contains(chain, "force_original_aspect_ratio=decrease") {
		t.Errorf("contain filter missing decrease mode: %q", chain)
	}
	if !strings.Contains(chain, "pad=1080:1920") {
		t.Errorf("contain filter missing pad: %q", chain)
	}
	if fallback != "" {
		t.Errorf("contain mode should have no fallback, got %q", fallback)
	}
}

func TestBuildVideoFilter_CoverHasCenterFallback(t *testing.T) {
	chain, fallback := buildVideoFilter(FitCover, 1080, 1920, 1.0, 0.2, -0.3)
	if !strings.Contains(chain, "force_original_aspect_ratio=increase") {
		t.Errorf("cover filter missing increase mode: %q", chain)
	}
	if !strings.Contains(chain, "crop=1080:1920") {
		t.Errorf("cover filter missing crop: %q", chain)
	}
	if fallback == "" || !strings.Contains(fallback, "crop=1080:1920") {
		t.Errorf("cover mode should fall back to cover-center, got %q", fallback)
	}
}

func TestBuildVideoFilter_CoverCenterHasNoFallback(t *testing.T) {
	_, fallback := buildVideoFilter(FitCoverCenter, 1080, 1080, 1.0, 0, 0)
	if fallback != "" {
		t.Errorf("cover-center should not have its own fallback, got %q", fallback)
	}
}

func TestEscapeSubtitlesFilename(t *testing.T) {
	in := `C:\clips\a,b;c'd[e]f.ass`
	got := escapeSubtitlesFilename(in)
	for _, special := range []string{":", ",", ";", "'", "[", "]", `\`} {
		if !strings.Contains(got, `\`+special) {
			t.Errorf("escaped filename %q missing escape for %q", got, special)
		}
	}
}

func TestSubtitlesFilterClause_WrapsFilenameAndCharset(t *testing.T) {
	clause := subtitlesFilterClause("/tmp/a.ass")
	if !strings.HasPrefix(clause, ",subtitles=filename='") {
		t.Errorf("clause = %q", clause)
	}
	if !strings.HasSuffix(clause, "':charenc=UTF-8") {
		t.Errorf("clause = %q", clause)
	}
}

func TestSanitizeTask_TruncatesAndDerivesStem(t *testing.T) {
	t2 := sanitizeTask(Task{
		ClipID:     "clip1",
		PlatformID: "tiktok",
		Title:      strings.Repeat("x", 200),
		Tags:       []string{" fun ", ""},
	})
	if len([]rune(t2.Title)) != maxTitleLen {
		t.Errorf("title not truncated to %d: len=%d", maxTitleLen, len([]rune(t2.Title)))
	}
	if len(t2.Tags) != 1 || t2.Tags[0] != "fun" {
		t.Errorf("tags = %+v, want [\"fun\"]", t2.Tags)
	}
	if t2.ClipStem == "" {
		t.Error("expected a non-empty clip stem")
	}
}

func TestSanitizeTask_FallsBackToClipPlatformStem(t *testing.T) {
	t2 := sanitizeTask(Task{ClipID: "abc", PlatformID: "xyz"})
	if t2.ClipStem != "abc-xyz" {
		t.Errorf("clip stem = %q, want abc-xyz", t2.ClipStem)
	}
}

func TestComputeBaseDir_PrefersSourceParentWhenSandboxed(t *testing.T) {
	root := t.TempDir()
	projectDir := filepath.Join(root, "project")
	os.MkdirAll(projectDir, 0o755)
	sb := sandbox.New(root)

	got := computeBaseDir(sb, filepath.Join(projectDir, "src.mp4"), root, "proj")
	want := filepath.Join(projectDir, "exports")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestComputeBaseDir_FallsBackOutsideSandbox(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	sb := sandbox.New(root)

	got := computeBaseDir(sb, filepath.Join(outside, "src.mp4"), root, "proj")
	want := filepath.Join(root, "proj", "exports")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveOutputCollision_Suffixes(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "clip-2.mp4"), []byte("x"), 0o644)

	got, err := resolveOutputCollision(dir, "clip", "mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != filepath.Join(dir, "clip-3.mp4") {
		t.Errorf("got %q, want clip-3.mp4", got)
	}
}

func TestCreateRunDir_UniqueAcrossCalls(t *testing.T) {
	base := t.TempDir()
	dir1, err := createRunDir(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dir2, err := createRunDir(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir1 == dir2 {
		t.Errorf("expected distinct run dirs, got %q twice", dir1)
	}
	if filepath.Dir(dir1) != base || filepath.Dir(dir2) != base {
		t.Errorf("run dirs not under base: %q, %q", dir1, dir2)
	}
}

func TestWriteManifest_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, manifestName)
	artifacts := []Artifact{
		{ClipID: "a", PlatformID: "p1", Start: 10, End: 40, OutputPath: "/out/a.mp4"},
		{ClipID: "b", PlatformID: "p2", Start: 300, End: 330, OutputPath: "/out/b.mp4"},
	}
	if err := writeManifest(path, artifacts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []Artifact
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ClipID != "a" || got[1].ClipID != "b" {
		t.Errorf("got %+v", got)
	}
}

func TestFfmpegDiagnostic_KeepsLastFourLines(t *testing.T) {
	stderr := "l1\nl2\nl3\nl4\nl5\n"
	diag := ffmpegDiagnostic(stderr)
	if strings.Contains(diag, "l1") {
		t.Errorf("diagnostic should drop earlier lines: %q", diag)
	}
	if !strings.Contains(diag, "l2 | l3 | l4 | l5") {
		t.Errorf("diagnostic = %q", diag)
	}
}

func TestCheckPreconditions_RejectsSubtitledTaskWithoutPayload(t *testing.T) {
	req := BatchRequest{
		Tasks: []Task{{SubtitlesEnabled: true}},
	}
	if err := checkPreconditions(req); err == nil {
		t.Error("expected an error when a subtitled task has no enabled payload")
	}
}

func TestCheckPreconditions_RejectsOversizedBatch(t *testing.T) {
	tasks := make([]Task, 201)
	req := BatchRequest{Tasks: tasks}
	if err := checkPreconditions(req); err == nil {
		t.Error("expected an error for a batch over 200 tasks")
	}
}

func TestCheckPreconditions_RejectsOversizedSubtitlePayload(t *testing.T) {
	words := make([]subtitle.Word, maxSubtitleWords+1)
	req := BatchRequest{
		Tasks:     []Task{{}},
		Subtitles: SubtitlePayload{Enabled: true, Words: words},
	}
	if err := checkPreconditions(req); err == nil {
		t.Error("expected an error for an oversized subtitle payload")
	}
}
