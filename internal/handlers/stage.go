package handlers

import (
	"context"

	"cursedclipper/internal/app"
	"cursedclipper/internal/config"
	"cursedclipper/internal/stage"
)

// StageHandler wraps the Local Stager: copying a user-picked local video
// file into its sandboxed project directory and canonicalizing it.
type StageHandler struct {
	ctx            context.Context
	paths          *app.Paths
	cfg            *config.RuntimeToolsSettings
	resolveTools   func() stage.Tools
	consoleEmitter func(string)
}

// NewStageHandler creates a StageHandler. resolveTools is called on each
// request so staging always uses the currently-resolved ffmpeg/ffprobe
// paths rather than a snapshot taken at construction time.
func NewStageHandler(paths *app.Paths, cfg *config.RuntimeToolsSettings, resolveTools func() stage.Tools) *StageHandler {
	return &StageHandler{
		ctx:            context.Background(),
		paths:          paths,
		cfg:            cfg,
		resolveTools:   resolveTools,
		consoleEmitter: func(string) {},
	}
}

// SetContext sets the host runtime context.
func (h *StageHandler) SetContext(ctx context.Context) {
	h.ctx = ctx
}

// SetConsoleEmitter sets the function used to surface user-facing log lines.
func (h *StageHandler) SetConsoleEmitter(emitter func(string)) {
	if emitter != nil {
		h.consoleEmitter = emitter
	}
}

// StageLocalVideoFile stages sourcePath into projectName's sandboxed
// directory and canonicalizes it, returning the path of the final media
// file inside that project directory.
func (h *StageHandler) StageLocalVideoFile(sourcePath, projectName string) (string, error) {
	h.consoleEmitter("Staging local video file...")

	settings := h.cfg.Get()
	projectsRoot := settings.ProjectsRootDir
	if projectsRoot == "" {
		projectsRoot = h.paths.ProjectsRoot
	}

	final, err := stage.StageLocalFile(h.ctx, h.resolveTools(), projectsRoot, sourcePath, projectName)
	if err != nil {
		h.consoleEmitter("Staging failed")
		return "", err
	}

	h.consoleEmitter("Staging complete")
	return final, nil
}
