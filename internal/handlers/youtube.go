package handlers

import (
	"context"

	"cursedclipper/internal/app"
	"cursedclipper/internal/config"
	"cursedclipper/internal/progressbus"
	"cursedclipper/internal/youtube"
)

// YouTubeHandler wraps the YouTube Adapter: probing a URL's metadata and
// formats, then driving a download into a project directory.
type YouTubeHandler struct {
	ctx            context.Context
	paths          *app.Paths
	cfg            *config.RuntimeToolsSettings
	bus            *progressbus.Bus
	resolveYtdlp   func() string
	resolveMedia   func() (ffmpeg, ffprobe string)
	consoleEmitter func(string)
}

// NewYouTubeHandler creates a YouTubeHandler. resolveYtdlp and
// resolveMedia are called per-request so a tool re-resolve or managed
// install takes effect immediately, without reconstructing the handler.
func NewYouTubeHandler(paths *app.Paths, cfg *config.RuntimeToolsSettings, bus *progressbus.Bus, resolveYtdlp func() string, resolveMedia func() (string, string)) *YouTubeHandler {
	return &YouTubeHandler{
		ctx:            context.Background(),
		paths:          paths,
		cfg:            cfg,
		bus:            bus,
		resolveYtdlp:   resolveYtdlp,
		resolveMedia:   resolveMedia,
		consoleEmitter: func(string) {},
	}
}

// SetContext sets the host runtime context.
func (h *YouTubeHandler) SetContext(ctx context.Context) {
	h.ctx = ctx
}

// SetConsoleEmitter sets the function used to surface user-facing log lines.
func (h *YouTubeHandler) SetConsoleEmitter(emitter func(string)) {
	if emitter != nil {
		h.consoleEmitter = emitter
	}
}

// ProbeFormats fetches a YouTube URL's metadata and available formats.
func (h *YouTubeHandler) ProbeFormats(rawURL string) (youtube.ProbeResult, error) {
	h.consoleEmitter("Fetching video information...")

	result, err := youtube.Probe(h.ctx, h.resolveYtdlp(), rawURL)
	if err != nil {
		h.consoleEmitter("Failed to fetch video information")
		return youtube.ProbeResult{}, err
	}

	h.consoleEmitter("Found \"" + result.Title + "\"")
	return result, nil
}

// DownloadMedia downloads a YouTube URL at the chosen format into the
// given project, streaming progress over the bus.
func (h *YouTubeHandler) DownloadMedia(req youtube.DownloadRequest) (youtube.DownloadResult, error) {
	settings := h.cfg.Get()
	if req.ProjectsRoot == "" {
		req.ProjectsRoot = settings.ProjectsRootDir
	}
	if req.ProjectsRoot == "" {
		req.ProjectsRoot = h.paths.ProjectsRoot
	}

	ffmpeg, ffprobe := h.resolveMedia()
	req.FfmpegPath = ffmpeg
	req.FfprobePath = ffprobe

	h.consoleEmitter("Downloading from YouTube...")

	result, err := youtube.Download(h.ctx, h.resolveYtdlp(), h.bus, req)
	if err != nil {
		h.consoleEmitter("YouTube download failed")
		return youtube.DownloadResult{}, err
	}

	h.consoleEmitter("Download complete")
	return result, nil
}
