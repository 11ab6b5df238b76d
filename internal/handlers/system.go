package handlers

import (
	"context"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"

	apperr "cursedclipper/internal/errors"
	"cursedclipper/internal/sandbox"
)

// SystemHandler encapsulates host-OS integration operations that fall
// outside the media pipeline proper.
type SystemHandler struct {
	ctx     context.Context
	sb      *sandbox.Sandbox
	version string
}

// NewSystemHandler creates a SystemHandler. version is the running
// build's version string, reported verbatim by GetVersion.
func NewSystemHandler(sb *sandbox.Sandbox, version string) *SystemHandler {
	return &SystemHandler{
		ctx:     context.Background(),
		sb:      sb,
		version: version,
	}
}

// SetContext sets the host runtime context.
func (h *SystemHandler) SetContext(ctx context.Context) {
	h.ctx = ctx
}

// OpenPathInFileManager opens path in the host's file manager. With
// selectFile, Explorer (Windows) and Finder (macOS) open its parent with
// path selected; elsewhere xdg-open opens the parent directory without
// selecting path. path must resolve inside an allowed sandbox root per §4.A.
func (h *SystemHandler) OpenPathInFileManager(path string, selectFile bool) error {
	const op = "SystemHandler.OpenPathInFileManager"

	canonical, err := h.sb.Check(path)
	if err != nil {
		return apperr.Wrap(op, err)
	}

	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "windows":
		winPath := strings.ReplaceAll(canonical, "/", "\\")
		if selectFile {
			cmd = exec.Command("explorer", "/select,", winPath)
		} else {
			cmd = exec.Command("explorer", winPath)
		}
	case "darwin":
		if selectFile {
			cmd = exec.Command("open", "-R", canonical)
		} else {
			cmd = exec.Command("open", canonical)
		}
	default:
		if selectFile {
			cmd = exec.Command("xdg-open", filepath.Dir(canonical))
		} else {
			cmd = exec.Command("xdg-open", canonical)
		}
	}

	if err := cmd.Start(); err != nil {
		return apperr.Wrap(op, err)
	}
	return nil
}

// GetVersion returns the running build's version string.
func (h *SystemHandler) GetVersion() string {
	return h.version
}
