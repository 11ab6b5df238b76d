package tools

import "testing"

func TestParseSHA256Sums(t *testing.T) {
	manifest := "abc123  yt-dlp\n" +
		"def456  yt-dlp.exe\n" +
		"ghi789 *yt-dlp_macos\n"

	tests := []struct {
		name       string
		assetName  string
		wantDigest string
		wantErr    bool
	}{
		{"linux binary", "yt-dlp", "abc123", false},
		{"windows binary", "yt-dlp.exe", "def456", false},
		{"binary-mode marker stripped", "yt-dlp_macos", "ghi789", false},
		{"unknown asset", "yt-dlp_arm64", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			digest, err := parseSHA256Sums(manifest, tt.assetName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if !tt.wantErr && digest != tt.wantDigest {
				t.Errorf("digest = %q, want %q", digest, tt.wantDigest)
			}
		})
	}
}

func TestYtdlpAssetName(t *testing.T) {
	name := ytdlpAssetName()
	if name != "yt-dlp" && name != "yt-dlp.exe" {
		t.Errorf("unexpected asset name %q", name)
	}
}

func TestYtdlpReleaseURL_VariesByChannel(t *testing.T) {
	tests := []struct {
		channel string
		want    string
	}{
		{"", "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp"},
		{"stable", "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp"},
		{"nightly", "https://github.com/yt-dlp/yt-dlp/releases/download/nightly/yt-dlp"},
		{"master", "https://github.com/yt-dlp/yt-dlp/releases/download/master/yt-dlp"},
		{"bogus", "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp"},
	}

	for _, tt := range tests {
		t.Run(tt.channel, func(t *testing.T) {
			if got := ytdlpReleaseURL(tt.channel, "yt-dlp"); got != tt.want {
				t.Errorf("ytdlpReleaseURL(%q) = %q, want %q", tt.channel, got, tt.want)
			}
		})
	}
}

func TestYtdlpManifestURL_MatchesReleaseChannel(t *testing.T) {
	if got := ytdlpManifestURL("nightly"); got != "https://github.com/yt-dlp/yt-dlp/releases/download/nightly/SHA2-256SUMS" {
		t.Errorf("unexpected manifest URL: %q", got)
	}
}
