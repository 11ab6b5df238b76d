//go:build windows

package procutil

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr hides the console window Windows would otherwise flash
// open for every ffmpeg/ffprobe/yt-dlp invocation.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: 0x08000000, // CREATE_NO_WINDOW
	}
}
