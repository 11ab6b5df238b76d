package app

import (
	"os"
	"path/filepath"
	"runtime"
)

// DevMode is set at build time via ldflags to isolate dev environment from production.
// When true, uses "CursedClipper-dev" directory instead of "CursedClipper".
// Example: -ldflags "-X 'cursedclipper/internal/app.DevMode=true'"
var DevMode string = "false"

// getAppDirName returns the app directory name based on build mode
func getAppDirName() string {
	if DevMode == "true" {
		return "CursedClipper-dev"
	}
	return "CursedClipper"
}

// Paths holds all application directory paths
type Paths struct {
	AppConfig    string // %AppData%/CursedClipper (runtime-tools.json)
	AppData      string // %AppData%/CursedClipper (managed tools, logs, ledger)
	Tools        string // AppData/tools (managed yt-dlp, ffmpeg, ffprobe)
	ProjectsRoot string // default projects root, overridable via RuntimeToolsSettings
	ExeDir       string // directory of the running executable (for bundled binaries)
}

// GetPaths returns the application paths based on OS
func GetPaths() (*Paths, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}

	appData := filepath.Join(configDir, getAppDirName())
	tools := filepath.Join(appData, "tools")

	exePath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	var projectsRoot string
	switch runtime.GOOS {
	case "windows":
		projectsRoot = filepath.Join(homeDir, "Videos", "CursedClipper", "Projects")
	case "darwin":
		projectsRoot = filepath.Join(homeDir, "Movies", "CursedClipper", "Projects")
	default:
		projectsRoot = filepath.Join(homeDir, "Videos", "CursedClipper", "Projects")
	}

	return &Paths{
		AppConfig:    appData,
		AppData:      appData,
		Tools:        tools,
		ProjectsRoot: projectsRoot,
		ExeDir:       exeDir,
	}, nil
}

// EnsureDirectories creates all required directories
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.AppConfig, p.AppData, p.Tools, p.ProjectsRoot}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// bundledCandidateDirs returns directories to probe for bundled binaries,
// adjacent to the running executable, in priority order.
//
//   - Windows installer: ExeDir/bin/<name>
//   - macOS app bundle: ExeDir/../Resources/bin/<name> (ExeDir is Contents/MacOS)
//   - Linux AppImage: ExeDir/<name>, falling back to ExeDir/bin/<name>
func (p *Paths) bundledCandidateDirs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{filepath.Join(p.ExeDir, "bin")}
	case "darwin":
		return []string{
			filepath.Join(p.ExeDir, "..", "Resources", "bin"),
			p.ExeDir,
		}
	default:
		return []string{p.ExeDir, filepath.Join(p.ExeDir, "bin")}
	}
}

// BundledCandidates returns full candidate paths for a given binary name
// (without extension) across every bundled-resource location for this OS.
func (p *Paths) BundledCandidates(binaryName string) []string {
	name := binaryName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	candidates := make([]string, 0, 2)
	for _, dir := range p.bundledCandidateDirs() {
		candidates = append(candidates, filepath.Join(dir, name))
	}
	return candidates
}

// ManagedPath returns the path a managed install of binaryName would occupy.
func (p *Paths) ManagedPath(binaryName string) string {
	name := binaryName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(p.Tools, name)
}

// fileExists reports whether path exists, is a regular file, and is non-empty.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
