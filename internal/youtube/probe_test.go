package youtube

import (
	"encoding/json"
	"testing"
)

func TestMapProbeResult_DefaultsTitleAndMapsFormats(t *testing.T) {
	raw := `{"title":"T","duration":42.0,"formats":[{"format_id":"22","ext":"mp4","vcodec":"avc1.64001F","acodec":"mp4a.40.2","resolution":"1280x720"}]}`
	var parsed rawProbeResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	result := mapProbeResult(parsed)
	if result.Title != "T" {
		t.Errorf("title = %q", result.Title)
	}
	if result.DurationSecs != 42.0 {
		t.Errorf("duration = %v", result.DurationSecs)
	}
	if len(result.Formats) != 1 {
		t.Fatalf("formats = %v", result.Formats)
	}
	f := result.Formats[0]
	if f.Label != "1280x720 • mp4 • 22" {
		t.Errorf("label = %q", f.Label)
	}
	if f.AudioOnly || f.VideoOnly {
		t.Errorf("expected a combined format, got audio_only=%v video_only=%v", f.AudioOnly, f.VideoOnly)
	}
}

func TestMapProbeResult_DefaultsMissingTitle(t *testing.T) {
	result := mapProbeResult(rawProbeResult{})
	if result.Title != defaultTitle {
		t.Errorf("title = %q, want default", result.Title)
	}
}

func TestMapFormat_DerivesAudioAndVideoOnly(t *testing.T) {
	audioOnly := mapFormat(rawFormat{FormatID: "140", Ext: "m4a", VCodec: "none", ACodec: "mp4a.40.2"})
	if !audioOnly.AudioOnly || audioOnly.VideoOnly {
		t.Errorf("audio-only format misclassified: %+v", audioOnly)
	}

	videoOnly := mapFormat(rawFormat{FormatID: "137", Ext: "mp4", VCodec: "avc1", ACodec: "none"})
	if !videoOnly.VideoOnly || videoOnly.AudioOnly {
		t.Errorf("video-only format misclassified: %+v", videoOnly)
	}
}

func TestFlexibleNumber_AcceptsIntFloatAndNull(t *testing.T) {
	tests := []struct {
		json string
		want float64
	}{
		{"42", 42},
		{"8.171", 8.171},
		{"null", 0},
	}
	for _, tt := range tests {
		var n flexibleNumber
		if err := json.Unmarshal([]byte(tt.json), &n); err != nil {
			t.Fatalf("unmarshal %q: %v", tt.json, err)
		}
		if float64(n) != tt.want {
			t.Errorf("flexibleNumber(%q) = %v, want %v", tt.json, float64(n), tt.want)
		}
	}
}

func TestFlexibleString_AcceptsStringNumberAndNull(t *testing.T) {
	tests := []struct {
		json string
		want string
	}{
		{`"1280x720"`, "1280x720"},
		{"720", "720"},
		{"null", ""},
	}
	for _, tt := range tests {
		var s flexibleString
		if err := json.Unmarshal([]byte(tt.json), &s); err != nil {
			t.Fatalf("unmarshal %q: %v", tt.json, err)
		}
		if string(s) != tt.want {
			t.Errorf("flexibleString(%q) = %q, want %q", tt.json, string(s), tt.want)
		}
	}
}

func TestFormatLabel_OmitsEmptyFormatNote(t *testing.T) {
	opt := FormatOption{Resolution: "640x360", Ext: "webm", ID: "43"}
	if got := formatLabel(opt, ""); got != "640x360 • webm • 43" {
		t.Errorf("label = %q", got)
	}
	if got := formatLabel(opt, "360p"); got != "640x360 • webm • 360p • 43" {
		t.Errorf("label = %q", got)
	}
}

func TestLastNonEmptyLine(t *testing.T) {
	if got := lastNonEmptyLine("a\nb\n\n"); got != "b" {
		t.Errorf("got %q", got)
	}
	if got := lastNonEmptyLine(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
