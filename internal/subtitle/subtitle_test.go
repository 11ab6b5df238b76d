package subtitle

import (
	"strings"
	"testing"
)

func baseProfile() RenderProfile {
	return RenderProfile{
		Font:            "Arial",
		FontSize:        48,
		MaxWordsPerLine: 6,
		MaxCharsPerLine: 28,
		MaxLines:        2,
		Animation:       AnimationLine,
		Position:        PositionBottom,
	}
}

func TestNormalizeWords_FiltersBelowMinOverlap(t *testing.T) {
	words := []Word{
		{ID: "1", Text: "hi", Start: 0, End: 0.01}, // overlaps clip by only 0.01s
		{ID: "2", Text: "there", Start: 1, End: 2},
	}
	got := normalizeWords(words, 0, 10, baseProfile())
	if len(got) != 1 || got[0].text != "there" {
		t.Fatalf("got %+v", got)
	}
}

func TestNormalizeWords_RetimesRelativeToClipStart(t *testing.T) {
	words := []Word{{ID: "1", Text: "hi", Start: 10, End: 11}}
	got := normalizeWords(words, 10, 20, baseProfile())
	if len(got) != 1 {
		t.Fatalf("got %+v", got)
	}
	if got[0].start != 0 || got[0].end != 1 {
		t.Errorf("start/end = %v/%v, want 0/1", got[0].start, got[0].end)
	}
}

func TestNormalizeText_CollapsesWhitespaceAndEscapesBraces(t *testing.T) {
	got := normalizeText("  hello {world}   foo  ", false)
	if got != "hello (world) foo" {
		t.Errorf("got %q", got)
	}
}

func TestIsEmphasized(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"hi", false},
		{"INCREDIBLE", true}, // long word
		{"covid19", true},    // has digit
		{"SHOUT", true},      // >=5 letters, all upper
		{"Shout", false},     // mixed case, short
	}
	for _, tt := range tests {
		if got := isEmphasized(tt.text); got != tt.want {
			t.Errorf("isEmphasized(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestChunkWords_SentenceBoundaryThreshold(t *testing.T) {
	profile := baseProfile()
	profile.MaxWordsPerLine = 6 // sentenceMin = max(2, 6/2) = 3

	// A 1-word fragment ending in a sentence (below sentenceMin) must NOT flush.
	words := []normalizedWord{
		{text: "Hi.", start: 0, end: 0.3},
		{text: "there", start: 0.4, end: 0.7},
		{text: "friend", start: 0.8, end: 1.1},
	}
	chunks := chunkWords(words, profile)
	if len(chunks) != 1 {
		t.Fatalf("1-word sentence fragment flushed early: %d chunks", len(chunks))
	}
}

func TestChunkWords_FourWordSentenceFlushes(t *testing.T) {
	profile := baseProfile()
	profile.MaxWordsPerLine = 6 // sentenceMin = 3

	words := []normalizedWord{
		{text: "one", start: 0, end: 0.2},
		{text: "two", start: 0.3, end: 0.5},
		{text: "three", start: 0.6, end: 0.8},
		{text: "four.", start: 0.9, end: 1.1},
		{text: "five", start: 1.2, end: 1.4},
	}
	chunks := chunkWords(words, profile)
	if len(chunks) != 2 {
		t.Fatalf("expected a flush after the 4-word sentence fragment, got %d chunks", len(chunks))
	}
	if len(chunks[0].words) != 4 {
		t.Errorf("first chunk has %d words, want 4", len(chunks[0].words))
	}
}

func TestChunkWords_FlushesOnLargeGap(t *testing.T) {
	words := []normalizedWord{
		{text: "a", start: 0, end: 0.2},
		{text: "b", start: 5, end: 5.2},
	}
	chunks := chunkWords(words, baseProfile())
	if len(chunks) != 2 {
		t.Fatalf("expected gap to force a flush, got %d chunks", len(chunks))
	}
}

func TestWrapLines_RespectsWordLimitAndFoldsOverflow(t *testing.T) {
	words := []normalizedWord{
		{text: "a"}, {text: "b"}, {text: "c"}, {text: "d"}, {text: "e"},
	}
	lines := wrapLines(words, 2, 100, 2)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (overflow folded into last)", len(lines))
	}
	if len(lines[1]) != 3 {
		t.Errorf("overflow line has %d words, want 3", len(lines[1]))
	}
}

func TestFormatASSTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00:00.00"},
		{61.5, "0:01:01.50"},
		{3661.25, "1:01:01.25"},
	}
	for _, tt := range tests {
		if got := formatASSTime(tt.seconds); got != tt.want {
			t.Errorf("formatASSTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestAssColor_ConvertsRGBToBGRWithAlpha(t *testing.T) {
	if got := assColor("#112233", 0); got != "&H00332211" {
		t.Errorf("got %q", got)
	}
	if got := assColor("#000000", 0x78); got != "&H78000000" {
		t.Errorf("got %q", got)
	}
}

func TestAlignment(t *testing.T) {
	if alignment(PositionTop) != 8 {
		t.Error("top should be 8")
	}
	if alignment(PositionCenter) != 5 {
		t.Error("center should be 5")
	}
	if alignment(PositionBottom) != 2 {
		t.Error("bottom should be 2")
	}
}

func TestRender_ProducesPosAndFadeTags(t *testing.T) {
	words := []Word{
		{ID: "1", Text: "hello", Start: 10, End: 10.5},
		{ID: "2", Text: "world", Start: 10.6, End: 11.1},
	}
	ctx := RenderContext{ClipStart: 10, ClipEnd: 40, TargetW: 1080, TargetH: 1920}
	profile := baseProfile()

	out, ok := Render(words, profile, ctx)
	if !ok {
		t.Fatal("expected subtitles to render")
	}
	if !strings.Contains(out, `\pos(`) || !strings.Contains(out, `\fad(`) {
		t.Errorf("ass output missing pos/fad tags: %q", out)
	}
	if !strings.Contains(out, "Dialogue: 0,0:00:00.00,") {
		t.Errorf("expected the first event to start at clip-relative 0: %q", out)
	}
}

func TestRender_SuppressedWhenNoWordsSurvive(t *testing.T) {
	ctx := RenderContext{ClipStart: 0, ClipEnd: 5, TargetW: 1080, TargetH: 1920}
	_, ok := Render(nil, baseProfile(), ctx)
	if ok {
		t.Error("expected subtitles to be suppressed with no words")
	}
}

func TestRender_KaraokeInsertsPerWordTags(t *testing.T) {
	words := []Word{{ID: "1", Text: "hi", Start: 0, End: 1}}
	ctx := RenderContext{ClipStart: 0, ClipEnd: 5, TargetW: 1080, TargetH: 1920}
	profile := baseProfile()
	profile.Animation = AnimationKaraoke

	out, ok := Render(words, profile, ctx)
	if !ok {
		t.Fatal("expected subtitles to render")
	}
	if !strings.Contains(out, `\k`) {
		t.Errorf("expected a karaoke \\k tag: %q", out)
	}
}

func TestRender_EventsStayWithinClipWindow(t *testing.T) {
	words := []Word{
		{ID: "1", Text: "before", Start: 0, End: 2},
		{ID: "2", Text: "inside", Start: 12, End: 13},
		{ID: "3", Text: "after", Start: 50, End: 51},
	}
	ctx := RenderContext{ClipStart: 10, ClipEnd: 40, TargetW: 1080, TargetH: 1920}
	out, ok := Render(words, baseProfile(), ctx)
	if !ok {
		t.Fatal("expected subtitles to render")
	}
	if strings.Contains(out, "before") || strings.Contains(out, "after") {
		t.Errorf("event outside clip window leaked into output: %q", out)
	}
	if !strings.Contains(out, "inside") {
		t.Errorf("expected the in-window word to be present: %q", out)
	}
}
