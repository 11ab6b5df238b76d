//go:build !windows

package tools

import (
	"context"

	apperr "cursedclipper/internal/errors"
	"cursedclipper/internal/fetch"
	"cursedclipper/internal/progressbus"
)

// InstallFfmpegWindows is unsupported outside Windows: macOS and Linux
// users are expected to install ffmpeg/ffprobe through their system
// package manager and point RuntimeToolsSettings at them, or rely on
// whatever copy is already on PATH.
func InstallFfmpegWindows(ctx context.Context, fetcher *fetch.Fetcher, bus *progressbus.Bus, ffmpegTarget, ffprobeTarget string) (ffmpegStatus, ffprobeStatus Status, err error) {
	bus.Error(progressbus.TaskFfmpeg, "managed ffmpeg install is only supported on Windows", "")
	return Status{}, Status{}, apperr.NewWithMessage("tools.InstallFfmpegWindows", apperr.ErrUnsupportedPlatform, "managed ffmpeg installation is only supported on Windows")
}
