//go:build !windows

package procutil

import "os/exec"

// setSysProcAttr is a no-op on non-Windows platforms; there's no console
// window to hide.
func setSysProcAttr(cmd *exec.Cmd) {
}
