// Package youtube implements the YouTube Probe and YouTube Downloader
// components: resolving a watch URL into its available formats, then
// driving yt-dlp through a download and handing the result off to
// media.Canonicalize.
package youtube

import (
	"encoding/json"
	"fmt"
)

// flexibleString unmarshals a JSON string or number into a Go string,
// collapsing yt-dlp's extractor-to-extractor inconsistency (resolution and
// quality sometimes arrive as numbers, sometimes as strings, sometimes
// null) into one predictable type.
type flexibleString string

func (s *flexibleString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexibleString(str)
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		if num == float64(int64(num)) {
			*s = flexibleString(fmt.Sprintf("%d", int64(num)))
		} else {
			*s = flexibleString(fmt.Sprintf("%g", num))
		}
		return nil
	}

	*s = ""
	return nil
}

// flexibleNumber unmarshals a JSON int, float or numeric string into a
// float64, and tolerates null. yt-dlp reports duration as 8 on some
// extractors and 8.171 on others.
type flexibleNumber float64

func (n *flexibleNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = 0
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = flexibleNumber(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		var parsed float64
		if _, err := fmt.Sscanf(s, "%g", &parsed); err == nil {
			*n = flexibleNumber(parsed)
		}
		return nil
	}

	*n = 0
	return nil
}

// rawFormat mirrors the subset of yt-dlp's per-format JSON object this
// package cares about. Fields use the flexible types above because a
// format's resolution/filesize/fps arrive with different JSON kinds
// depending on the extractor and whether the field was even probed.
type rawFormat struct {
	FormatID   string         `json:"format_id"`
	Ext        string         `json:"ext"`
	Resolution flexibleString `json:"resolution"`
	FormatNote string         `json:"format_note"`
	FPS        flexibleNumber `json:"fps"`
	Filesize   flexibleNumber `json:"filesize"`
	VCodec     string         `json:"vcodec"`
	ACodec     string         `json:"acodec"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
}

// rawProbeResult mirrors the subset of `yt-dlp -J`'s top-level JSON object
// this package cares about.
type rawProbeResult struct {
	Title        string         `json:"title"`
	Uploader     string         `json:"uploader"`
	Duration     flexibleNumber `json:"duration"`
	ViewCount    flexibleNumber `json:"view_count"`
	LikeCount    flexibleNumber `json:"like_count"`
	CommentCount flexibleNumber `json:"comment_count"`
	ChannelID    string         `json:"channel_id"`
	ChannelURL   string         `json:"channel_url"`
	Thumbnail    string         `json:"thumbnail"`
	Formats      []rawFormat    `json:"formats"`
}

// FormatOption is a single downloadable format surfaced to the caller.
type FormatOption struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Ext        string `json:"ext"`
	Resolution string `json:"resolution"`
	FPS        int    `json:"fps,omitempty"`
	Filesize   int64  `json:"filesize,omitempty"`
	VCodec     string `json:"vcodec"`
	ACodec     string `json:"acodec"`
	AudioOnly  bool   `json:"audio_only"`
	VideoOnly  bool   `json:"video_only"`
}

// ProbeResult is the outcome of probing a YouTube URL for metadata and
// available formats.
type ProbeResult struct {
	Title        string         `json:"title"`
	Uploader     string         `json:"uploader"`
	DurationSecs float64        `json:"duration_seconds"`
	ViewCount    int64          `json:"view_count"`
	LikeCount    int64          `json:"like_count"`
	CommentCount int64          `json:"comment_count"`
	ChannelID    string         `json:"channel_id"`
	ChannelURL   string         `json:"channel_url"`
	Thumbnail    string         `json:"thumbnail"`
	Formats      []FormatOption `json:"formats"`
}

// DownloadRequest parameters a single YouTube media download.
type DownloadRequest struct {
	URL           string
	FormatID      string
	FormatIsAudio bool // chosen FormatOption.AudioOnly, from a prior Probe call
	IncludeAudio  bool
	VideoOnly     bool
	ProjectsRoot  string
	ProjectName   string
	FfmpegPath    string
	FfprobePath   string
	TaskKey       string // progress bus task key; defaults to progressbus.TaskYoutubeDownload
}

// DownloadResult is returned once the child process exits and the final
// file has been resolved and canonicalized.
type DownloadResult struct {
	OutputPath   string  `json:"output_path"`
	SourceURL    string  `json:"source_url"`
	FormatID     string  `json:"format_id"`
	DurationSecs float64 `json:"duration_seconds,omitempty"`
}
