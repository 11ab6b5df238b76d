package handlers

import (
	"context"

	"cursedclipper/internal/app"
	"cursedclipper/internal/config"
	"cursedclipper/internal/coverart"
	"cursedclipper/internal/export"
	"cursedclipper/internal/progressbus"
	"cursedclipper/internal/sandbox"
)

// ExportHandler wraps the Batch Export Renderer.
type ExportHandler struct {
	ctx          context.Context
	paths        *app.Paths
	cfg          *config.RuntimeToolsSettings
	bus          *progressbus.Bus
	sb           *sandbox.Sandbox
	resolveTools func() export.Tools
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(paths *app.Paths, cfg *config.RuntimeToolsSettings, bus *progressbus.Bus, sb *sandbox.Sandbox, resolveTools func() export.Tools) *ExportHandler {
	return &ExportHandler{
		ctx:          context.Background(),
		paths:        paths,
		cfg:          cfg,
		bus:          bus,
		sb:           sb,
		resolveTools: resolveTools,
	}
}

// SetContext sets the host runtime context.
func (h *ExportHandler) SetContext(ctx context.Context) {
	h.ctx = ctx
}

// ExportClipsBatch renders every task in req into a fresh run directory
// and returns the resulting manifest.
func (h *ExportHandler) ExportClipsBatch(req export.BatchRequest) (export.Result, error) {
	settings := h.cfg.Get()
	projectsRoot := settings.ProjectsRootDir
	if projectsRoot == "" {
		projectsRoot = h.paths.ProjectsRoot
	}

	return export.Render(h.ctx, h.resolveTools(), h.sb, h.bus, projectsRoot, req)
}

// PreviewCoverImage validates a candidate cover image and returns a small
// base64 data-URI thumbnail of it, so the UI can show what will be
// embedded before a batch export actually runs.
func (h *ExportHandler) PreviewCoverImage(path string) (string, error) {
	canonical, err := h.sb.Check(path)
	if err != nil {
		return "", err
	}
	if _, _, err := coverart.Validate(canonical); err != nil {
		return "", err
	}
	return coverart.Thumbnail(canonical, 0)
}
