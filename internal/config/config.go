// Package config loads, normalizes and persists the runtime tools settings:
// the user-facing knobs that decide where yt-dlp/ffmpeg/ffprobe come from
// and where exported projects are staged.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dario.cat/mergo"
)

// YtdlpMode selects how the yt-dlp binary is resolved.
type YtdlpMode string

const (
	YtdlpModeManaged YtdlpMode = "managed"
	YtdlpModeCustom  YtdlpMode = "custom"
	YtdlpModeSystem  YtdlpMode = "system"
)

var validYtdlpModes = map[YtdlpMode]bool{
	YtdlpModeManaged: true,
	YtdlpModeCustom:  true,
	YtdlpModeSystem:  true,
}

// UILanguage is a supported interface locale.
type UILanguage string

const (
	LanguageEnglish UILanguage = "en"
	LanguageRussian UILanguage = "ru"
)

var validLanguages = map[UILanguage]bool{
	LanguageEnglish: true,
	LanguageRussian: true,
}

// maxFieldLen bounds every free-form string field on the settings object.
const maxFieldLen = 512

// RuntimeToolsSettings is the persisted shape of the tool-resolution and
// staging configuration (§3 RuntimeToolsSettings).
type RuntimeToolsSettings struct {
	YtdlpMode           YtdlpMode  `json:"ytdlpMode"`
	YtdlpCustomPath     string     `json:"ytdlpCustomPath"`
	FfmpegCustomPath    string     `json:"ffmpegCustomPath"`
	FfprobeCustomPath   string     `json:"ffprobeCustomPath"`
	ProjectsRootDir     string     `json:"projectsRootDir"`
	PreferBundledFfmpeg bool       `json:"preferBundledFfmpeg"`
	AutoUpdateYtdlp     bool       `json:"autoUpdateYtdlp"`
	UILanguage          UILanguage `json:"uiLanguage"`

	mu       sync.RWMutex
	filePath string
}

// Default returns the baseline settings applied before any persisted file
// or partial update is merged on top.
func Default() *RuntimeToolsSettings {
	return &RuntimeToolsSettings{
		YtdlpMode:           YtdlpModeManaged,
		YtdlpCustomPath:     "",
		FfmpegCustomPath:    "",
		FfprobeCustomPath:   "",
		ProjectsRootDir:     "",
		PreferBundledFfmpeg: true,
		AutoUpdateYtdlp:     true,
		UILanguage:          LanguageEnglish,
	}
}

// Load reads runtime-tools.json from configDir, merging it over Default() with
// mergo so a partial or older-shaped file still yields a complete,
// normalized settings object.
func Load(configDir string) (*RuntimeToolsSettings, error) {
	filePath := filepath.Join(configDir, "runtime-tools.json")
	cfg := Default()
	cfg.filePath = filePath

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// Caller may want to Save() immediately to create the file.
			return cfg, nil
		}
		return nil, err
	}

	var partial RuntimeToolsSettings
	if err := json.Unmarshal(data, &partial); err != nil {
		// Corrupted file: fall back to defaults rather than failing startup.
		cfg = Default()
		cfg.filePath = filePath
		return cfg, nil
	}

	// PreferBundledFfmpeg and AutoUpdateYtdlp default to true, so an
	// explicitly-saved false is indistinguishable from an absent key once
	// decoded into a bool: both unmarshal to the Go zero value. Seed those
	// two fields from the key set actually present in the file before
	// merging, so WithOverwriteWithEmptyValue below can tell "the user
	// turned this off" apart from "this file predates the setting" instead
	// of reverting every absent key to Default()'s true.
	var present map[string]json.RawMessage
	json.Unmarshal(data, &present)
	if _, ok := present["preferBundledFfmpeg"]; !ok {
		partial.PreferBundledFfmpeg = cfg.PreferBundledFfmpeg
	}
	if _, ok := present["autoUpdateYtdlp"]; !ok {
		partial.AutoUpdateYtdlp = cfg.AutoUpdateYtdlp
	}

	if err := mergo.Merge(cfg, partial, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
		cfg = Default()
		cfg.filePath = filePath
		return cfg, nil
	}
	cfg.filePath = filePath

	cfg.normalize()
	return cfg, nil
}

// normalize enforces the invariants from §3: trimmed, length-capped,
// control-character-free strings, and closed-set fallback for enums.
func (c *RuntimeToolsSettings) normalize() {
	c.YtdlpCustomPath = sanitizeField(c.YtdlpCustomPath)
	c.FfmpegCustomPath = sanitizeField(c.FfmpegCustomPath)
	c.FfprobeCustomPath = sanitizeField(c.FfprobeCustomPath)
	c.ProjectsRootDir = sanitizeField(c.ProjectsRootDir)

	if !validYtdlpModes[c.YtdlpMode] {
		c.YtdlpMode = YtdlpModeManaged
	}
	if !validLanguages[c.UILanguage] {
		c.UILanguage = LanguageEnglish
	}
}

func sanitizeField(s string) string {
	s = strings.TrimSpace(s)

	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r != 0x7f {
			b.WriteRune(r)
		}
	}
	s = b.String()

	if len(s) > maxFieldLen {
		s = s[:maxFieldLen]
	}
	return s
}

// Save writes the current settings to disk via rename-over-temp so a crash
// mid-write never leaves a corrupted runtime-tools.json behind.
func (c *RuntimeToolsSettings) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.normalize()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := c.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c.filePath)
}

// Update executes fn with the mutex held, then re-normalizes the result.
func (c *RuntimeToolsSettings) Update(fn func(*RuntimeToolsSettings)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
	c.normalize()
}

// Get returns a normalized snapshot safe to hand to a caller.
func (c *RuntimeToolsSettings) Get() RuntimeToolsSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return RuntimeToolsSettings{
		YtdlpMode:           c.YtdlpMode,
		YtdlpCustomPath:     c.YtdlpCustomPath,
		FfmpegCustomPath:    c.FfmpegCustomPath,
		FfprobeCustomPath:   c.FfprobeCustomPath,
		ProjectsRootDir:     c.ProjectsRootDir,
		PreferBundledFfmpeg: c.PreferBundledFfmpeg,
		AutoUpdateYtdlp:     c.AutoUpdateYtdlp,
		UILanguage:          c.UILanguage,
	}
}
