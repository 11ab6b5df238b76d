package handlers

import (
	"context"

	"cursedclipper/internal/app"
	"cursedclipper/internal/config"
	"cursedclipper/internal/fetch"
	"cursedclipper/internal/progressbus"
	"cursedclipper/internal/tools"
)

// validYtdlpChannels is the allow-list for the supplemented self-update
// channel parameter on install_or_update_managed_ytdlp.
var validYtdlpChannels = map[string]bool{"stable": true, "nightly": true, "master": true}

// ToolsHandler encapsulates the Tool Resolver and Managed Installer
// operations: settings round-trip, status reporting, and on-demand
// installs of yt-dlp and (Windows-only) ffmpeg/ffprobe.
type ToolsHandler struct {
	ctx     context.Context
	paths   *app.Paths
	cfg     *config.RuntimeToolsSettings
	fetcher *fetch.Fetcher
	bus     *progressbus.Bus
}

// NewToolsHandler constructs a ToolsHandler with its dependencies.
func NewToolsHandler(paths *app.Paths, cfg *config.RuntimeToolsSettings, fetcher *fetch.Fetcher, bus *progressbus.Bus) *ToolsHandler {
	return &ToolsHandler{
		ctx:     context.Background(),
		paths:   paths,
		cfg:     cfg,
		fetcher: fetcher,
		bus:     bus,
	}
}

// SetContext sets the host runtime context.
func (h *ToolsHandler) SetContext(ctx context.Context) {
	h.ctx = ctx
}

// GetSettings returns the current runtime tools settings.
func (h *ToolsHandler) GetSettings() config.RuntimeToolsSettings {
	return h.cfg.Get()
}

// SaveSettings normalizes and atomically persists settings, returning the
// normalized result.
func (h *ToolsHandler) SaveSettings(settings config.RuntimeToolsSettings) (config.RuntimeToolsSettings, error) {
	h.cfg.Update(func(c *config.RuntimeToolsSettings) {
		c.YtdlpMode = settings.YtdlpMode
		c.YtdlpCustomPath = settings.YtdlpCustomPath
		c.FfmpegCustomPath = settings.FfmpegCustomPath
		c.FfprobeCustomPath = settings.FfprobeCustomPath
		c.ProjectsRootDir = settings.ProjectsRootDir
		c.PreferBundledFfmpeg = settings.PreferBundledFfmpeg
		c.AutoUpdateYtdlp = settings.AutoUpdateYtdlp
		c.UILanguage = settings.UILanguage
	})
	if err := h.cfg.Save(); err != nil {
		return config.RuntimeToolsSettings{}, err
	}
	return h.cfg.Get(), nil
}

// GetStatus resolves and probes ffmpeg/ffprobe/yt-dlp per the current
// settings.
func (h *ToolsHandler) GetStatus() tools.RuntimeToolsStatus {
	return tools.ResolveAll(h.paths, h.cfg.Get())
}

// InstallOrUpdateYtdlp fetches and verifies the latest yt-dlp binary
// (or a specific channel, per the supplemented self-update feature),
// replacing the managed copy atomically.
func (h *ToolsHandler) InstallOrUpdateYtdlp(channel string) (tools.Status, error) {
	if !validYtdlpChannels[channel] {
		channel = "stable"
	}
	target := h.paths.ManagedPath("yt-dlp")
	return tools.InstallYtdlp(h.ctx, h.fetcher, h.bus, target, channel)
}

// InstallOrUpdateFfmpeg installs the managed ffmpeg/ffprobe pair
// (Windows-only per §9) and returns the full resolved status afterward.
func (h *ToolsHandler) InstallOrUpdateFfmpeg() (tools.RuntimeToolsStatus, error) {
	ffmpegTarget := h.paths.ManagedPath("ffmpeg")
	ffprobeTarget := h.paths.ManagedPath("ffprobe")

	if _, _, err := tools.InstallFfmpegWindows(h.ctx, h.fetcher, h.bus, ffmpegTarget, ffprobeTarget); err != nil {
		return tools.RuntimeToolsStatus{}, err
	}
	return tools.ResolveAll(h.paths, h.cfg.Get()), nil
}
