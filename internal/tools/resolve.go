package tools

import (
	"os"
	"os/exec"
	"path/filepath"

	"cursedclipper/internal/app"
	"cursedclipper/internal/config"
)

// existingFile reports whether path is a non-empty existing regular file,
// after resolving it to its canonical form.
func existingFile(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return "", false
	}
	return abs, true
}

// ResolveFfmpeg implements §4.C's order for ffmpeg/ffprobe: custom →
// managed → bundled (if preferred) → system → bundled fallback.
func ResolveFfmpeg(paths *app.Paths, settings config.RuntimeToolsSettings) Status {
	return resolveFfmpegLike("ffmpeg", paths, settings, settings.FfmpegCustomPath)
}

// ResolveFfprobe mirrors ResolveFfmpeg for ffprobe.
func ResolveFfprobe(paths *app.Paths, settings config.RuntimeToolsSettings) Status {
	return resolveFfmpegLike("ffprobe", paths, settings, settings.FfprobeCustomPath)
}

func resolveFfmpegLike(name string, paths *app.Paths, settings config.RuntimeToolsSettings, customPath string) Status {
	if path, ok := existingFile(customPath); ok {
		return statusFor(name, path, SourceCustom)
	}

	managed := paths.ManagedPath(name)
	if path, ok := existingFile(managed); ok {
		return statusFor(name, path, SourceManaged)
	}

	bundled := firstExisting(paths.BundledCandidates(name))

	if settings.PreferBundledFfmpeg && bundled != "" {
		return statusFor(name, bundled, SourceBundled)
	}

	if sysPath, err := exec.LookPath(name); err == nil {
		return statusFor(name, sysPath, SourceSystem)
	}

	if bundled != "" {
		return statusFor(name, bundled, SourceBundled)
	}

	return Status{Name: name, Available: false, Source: SourceMissing, Message: "not found"}
}

// ResolveYtdlp implements §4.C's yt-dlp order, which switches on the
// configured mode rather than always preferring managed.
func ResolveYtdlp(paths *app.Paths, settings config.RuntimeToolsSettings) Status {
	const name = "yt-dlp"
	managed := paths.ManagedPath(name)

	switch settings.YtdlpMode {
	case config.YtdlpModeCustom:
		if path, ok := existingFile(settings.YtdlpCustomPath); ok {
			return statusFor(name, path, SourceCustom)
		}
		return Status{Name: name, Available: false, Source: SourceMissing, Message: "custom yt-dlp path not found"}

	case config.YtdlpModeSystem:
		if sysPath, err := exec.LookPath(name); err == nil {
			return statusFor(name, sysPath, SourceSystem)
		}
		if path, ok := existingFile(managed); ok {
			return statusFor(name, path, SourceManaged)
		}
		return Status{Name: name, Available: false, Source: SourceMissing, Message: "not found"}

	default: // config.YtdlpModeManaged
		if path, ok := existingFile(managed); ok {
			return statusFor(name, path, SourceManaged)
		}
		if sysPath, err := exec.LookPath(name); err == nil {
			return statusFor(name, sysPath, SourceSystem)
		}
		return Status{Name: name, Available: false, Source: SourceMissing, Message: "not found"}
	}
}

func firstExisting(candidates []string) string {
	for _, c := range candidates {
		if path, ok := existingFile(c); ok {
			return path
		}
	}
	return ""
}

// ResolveAll reports the combined status of every managed tool.
func ResolveAll(paths *app.Paths, settings config.RuntimeToolsSettings) RuntimeToolsStatus {
	return RuntimeToolsStatus{
		Ffmpeg:  ResolveFfmpeg(paths, settings),
		Ffprobe: ResolveFfprobe(paths, settings),
		YtDlp:   ResolveYtdlp(paths, settings),
	}
}
