// Package export implements the Batch Export Renderer: given a source
// video and a set of per-clip tasks, it builds an ffmpeg filter graph per
// task, renders each clip into a run directory, and writes a manifest
// describing the batch.
package export

import "cursedclipper/internal/subtitle"

// FitMode selects how a clip's source frame maps onto its target
// resolution.
type FitMode string

const (
	FitContain     FitMode = "contain"
	FitCover       FitMode = "cover"
	FitFree        FitMode = "free"
	FitCrop        FitMode = "crop"
	FitCoverCenter FitMode = "cover-center"
)

// Tools carries the resolved external binaries the renderer shells out to.
type Tools struct {
	FfmpegPath  string
	FfprobePath string
}

// Task is one clip×platform export, per §3's ClipExportPlatformTask.
type Task struct {
	ClipID       string
	PlatformID   string
	Title        string
	Description  string
	Tags         []string
	Start        float64
	End          float64
	Aspect       string
	OutputWidth  int
	OutputHeight int
	FitMode      FitMode
	Zoom         float64
	OffsetX      float64
	OffsetY      float64

	SubtitlesEnabled        bool
	SubtitlePositionOverride subtitle.Position
	SubtitleOffsetX          float64
	SubtitleOffsetY          float64
	SubtitleBoxWidth         float64
	SubtitleBoxHeight        float64

	CoverImagePath string
}

// SubtitlePayload is the batch-level subtitle word track, per §3's
// ClipBatchSubtitlePayload.
type SubtitlePayload struct {
	Enabled      bool
	PresetID     string
	RenderProfile subtitle.RenderProfile
	Words         []subtitle.Word
}

// BatchRequest is the whole-batch input, per §3's ClipBatchExportRequest.
type BatchRequest struct {
	SourcePath  string
	ProjectName string
	Tasks       []Task
	Subtitles   SubtitlePayload
}

// Artifact is one clip's output descriptor, per §3's ClipExportArtifact.
type Artifact struct {
	ClipID      string  `json:"clip_id"`
	PlatformID  string  `json:"platform_id"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	OutputPath  string  `json:"output_path"`
	CoverPath   string  `json:"cover_path,omitempty"`
}

// Result is the whole-batch output, per §3's ClipBatchExportResult.
type Result struct {
	ProjectDir    string
	ExportedCount int
	Artifacts     []Artifact
}

// maxTasksPerBatch and maxSubtitleWords are the capacity limits from
// §4.K's preconditions.
const maxTasksPerBatch = 200
const maxSubtitleWords = 60000
