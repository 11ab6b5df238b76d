package subtitle

import (
	"fmt"
	"strconv"
	"strings"
)

// backColorAlpha is the fixed alpha byte applied to the style's back
// (shadow box) color, per §4.J.
const backColorAlpha = 0x78

// Render builds a clip's ASS subtitle document from words and a style
// profile. It returns ok=false if no dialogue events survive filtering
// and chunking, in which case the clip should ship without subtitles.
func Render(words []Word, profile RenderProfile, ctx RenderContext) (string, bool) {
	clamped := clampProfile(profile)

	normalized := normalizeWords(words, ctx.ClipStart, ctx.ClipEnd, clamped)
	if len(normalized) == 0 {
		return "", false
	}

	chunks := chunkWords(normalized, clamped)
	if len(chunks) == 0 {
		return "", false
	}

	var b strings.Builder
	writeHeader(&b, ctx, clamped)

	for _, c := range chunks {
		writeEvent(&b, c, ctx, clamped)
	}

	return b.String(), true
}

func writeHeader(b *strings.Builder, ctx RenderContext, profile RenderProfile) {
	pos := profile.Position
	if ctx.PositionOverride != "" {
		pos = ctx.PositionOverride
	}

	fmt.Fprintf(b, "[Script Info]\n")
	fmt.Fprintf(b, "ScriptType: v4.00+\n")
	fmt.Fprintf(b, "PlayResX: %d\n", ctx.TargetW)
	fmt.Fprintf(b, "PlayResY: %d\n", ctx.TargetH)
	fmt.Fprintf(b, "WrapStyle: 2\n")
	fmt.Fprintf(b, "ScaledBorderAndShadow: yes\n\n")

	fmt.Fprintf(b, "[V4+ Styles]\n")
	fmt.Fprintf(b, "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(b, "Style: CCMain,%s,%s,%s,%s,%s,%s,0,0,0,0,100,100,%s,0,1,%s,%s,%d,10,10,10,1\n\n",
		profile.Font,
		formatNumber(profile.FontSize),
		assColor(profile.PrimaryColor, 0),
		assColor(profile.SecondaryColor, 0),
		assColor(profile.OutlineColor, 0),
		assColor(profile.BackColor, backColorAlpha),
		formatNumber(profile.Spacing),
		formatNumber(profile.Outline),
		formatNumber(profile.Shadow),
		alignment(pos),
	)

	fmt.Fprintf(b, "[Events]\n")
	fmt.Fprintf(b, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
}

func writeEvent(b *strings.Builder, c chunk, ctx RenderContext, profile RenderProfile) {
	fontSize := profile.FontSize
	x, y := position(ctx, profile, fontSize)

	fadeIn := clampInt(profile.FadeInMs, 0, 900)
	fadeOut := clampInt(profile.FadeOutMs, 0, 900)

	var text strings.Builder
	fmt.Fprintf(&text, `\pos(%s,%s)\fad(%d,%d)`, formatNumber(x), formatNumber(y), fadeIn, fadeOut)

	for li, line := range c.lines {
		if li > 0 {
			text.WriteString(`\N`)
		}
		for wi, w := range line {
			if wi > 0 {
				text.WriteByte(' ')
			}
			text.WriteString(renderWord(w, profile))
		}
	}

	fmt.Fprintf(b, "Dialogue: 0,%s,%s,CCMain,,0,0,0,,{%s}\n",
		formatASSTime(c.start()), formatASSTime(c.end()), text.String())
}

func renderWord(w normalizedWord, profile RenderProfile) string {
	var tags []string

	switch profile.Animation {
	case AnimationKaraoke:
		cs := clampInt(int((w.end-w.start)*100+0.5), 4, 220)
		tags = append(tags, fmt.Sprintf(`\k%d`, cs))
	case AnimationWordPop:
		tags = append(tags, `\t(0,120,\fscx114\fscy114)\t(120,240,\fscx100\fscy100)`)
	}

	if w.emphasized {
		tags = append(tags, fmt.Sprintf(`\c%s`, assColor(profile.SecondaryColor, 0)), `\b1`)
	}

	if len(tags) == 0 {
		return w.text
	}
	return fmt.Sprintf(`{%s}%s{\rCCMain}`, strings.Join(tags, ""), w.text)
}

// clampProfile normalizes every bounded field of a style profile per
// §4.J, without mutating the caller's copy.
func clampProfile(p RenderProfile) RenderProfile {
	p.FontSize = clampFloat(p.FontSize, 24, 104)
	p.Spacing = clampFloat(p.Spacing, -1.4, 5.8)
	p.Outline = clampFloat(p.Outline, 0, 7)
	p.Shadow = clampFloat(p.Shadow, 0, 6)
	p.FadeInMs = clampInt(p.FadeInMs, 0, 900)
	p.FadeOutMs = clampInt(p.FadeOutMs, 0, 900)
	if p.MaxWordsPerLine <= 0 {
		p.MaxWordsPerLine = 6
	}
	if p.MaxCharsPerLine <= 0 {
		p.MaxCharsPerLine = 28
	}
	if p.MaxLines <= 0 {
		p.MaxLines = 2
	}
	if p.Animation == "" {
		p.Animation = AnimationLine
	}
	if p.Position == "" {
		p.Position = PositionBottom
	}
	if p.PrimaryColor == "" {
		p.PrimaryColor = "#FFFFFF"
	}
	if p.SecondaryColor == "" {
		p.SecondaryColor = "#FFD60A"
	}
	if p.OutlineColor == "" {
		p.OutlineColor = "#000000"
	}
	if p.BackColor == "" {
		p.BackColor = "#000000"
	}
	if p.Font == "" {
		p.Font = "Arial"
	}
	return p
}

// formatNumber renders a float without a trailing ".0" for whole values,
// matching how ASS style sheets are conventionally hand-authored.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
