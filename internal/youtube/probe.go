package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	apperr "cursedclipper/internal/errors"
	"cursedclipper/internal/procutil"
	"cursedclipper/internal/ratelimit"
	"cursedclipper/internal/validate"
)

const defaultTitle = "YouTube video"

// Probe validates url, invokes yt-dlp -J to fetch its metadata and formats,
// and maps the result into a ProbeResult (§4.G).
func Probe(ctx context.Context, ytdlpPath, rawURL string) (ProbeResult, error) {
	if _, err := validate.YoutubeURL(rawURL); err != nil {
		return ProbeResult{}, err
	}
	if !ratelimit.YoutubeProbeLimiter.Allow() {
		return ProbeResult{}, apperr.NewWithMessage("youtube.Probe", apperr.ErrRateLimited, "too many probe requests, try again shortly")
	}

	cmd := procutil.CommandUTF8(ctx, ytdlpPath,
		"-J",
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		rawURL,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := lastNonEmptyLine(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return ProbeResult{}, apperr.WrapWithMessage("youtube.Probe", apperr.ErrSubprocessFailed, "yt-dlp: "+msg)
	}

	var raw rawProbeResult
	if err := json.Unmarshal(out, &raw); err != nil {
		return ProbeResult{}, apperr.WrapWithMessage("youtube.Probe", apperr.ErrMediaInvalid, "failed to parse yt-dlp metadata")
	}

	return mapProbeResult(raw), nil
}

func mapProbeResult(raw rawProbeResult) ProbeResult {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = defaultTitle
	}

	formats := make([]FormatOption, 0, len(raw.Formats))
	for _, f := range raw.Formats {
		formats = append(formats, mapFormat(f))
	}

	return ProbeResult{
		Title:        title,
		Uploader:     raw.Uploader,
		DurationSecs: float64(raw.Duration),
		ViewCount:    int64(raw.ViewCount),
		LikeCount:    int64(raw.LikeCount),
		CommentCount: int64(raw.CommentCount),
		ChannelID:    raw.ChannelID,
		ChannelURL:   raw.ChannelURL,
		Thumbnail:    raw.Thumbnail,
		Formats:      formats,
	}
}

func mapFormat(f rawFormat) FormatOption {
	vcodec := normalizeCodec(f.VCodec)
	acodec := normalizeCodec(f.ACodec)

	opt := FormatOption{
		ID:         f.FormatID,
		Ext:        f.Ext,
		Resolution: string(f.Resolution),
		FPS:        int(f.FPS),
		Filesize:   int64(f.Filesize),
		VCodec:     vcodec,
		ACodec:     acodec,
		AudioOnly:  vcodec == "none" && acodec != "none",
		VideoOnly:  acodec == "none" && vcodec != "none",
	}
	opt.Label = formatLabel(opt, f.FormatNote)
	return opt
}

func normalizeCodec(codec string) string {
	codec = strings.TrimSpace(codec)
	if codec == "" {
		return "none"
	}
	return codec
}

// formatLabel builds "<resolution> • <ext> [• <format_note>] • <id>".
func formatLabel(opt FormatOption, formatNote string) string {
	parts := []string{opt.Resolution, opt.Ext}
	if note := strings.TrimSpace(formatNote); note != "" {
		parts = append(parts, note)
	}
	parts = append(parts, opt.ID)
	return strings.Join(parts, " • ")
}

func lastNonEmptyLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" {
			return line
		}
	}
	return ""
}
