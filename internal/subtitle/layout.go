package subtitle

import (
	"fmt"
	"math"
)

// safeMarginFraction is the base fraction of target dimension reserved as
// a safe margin before the per-context box-scale multiplier is applied.
const safeMarginFraction = 0.05

// position computes the \pos(x,y) anchor for one subtitle event per
// §4.J's positioning rules.
func position(ctx RenderContext, profile RenderProfile, fontSize float64) (x, y float64) {
	boxW := clampFloat(ctx.SubtitleBoxWidth, 0.55, 1.65)
	boxH := clampFloat(ctx.SubtitleBoxHeight, 0.55, 1.65)

	marginX := float64(ctx.TargetW) * safeMarginFraction * boxW
	marginY := float64(ctx.TargetH) * safeMarginFraction * boxH

	x = float64(ctx.TargetW)/2 + ctx.SubtitleOffsetX*float64(ctx.TargetW)*0.36
	x = clampFloat(x, marginX, float64(ctx.TargetW)-marginX)

	pos := profile.Position
	if ctx.PositionOverride != "" {
		pos = ctx.PositionOverride
	}

	switch pos {
	case PositionTop:
		y = marginY + fontSize*0.95
	case PositionBottom:
		y = float64(ctx.TargetH) - marginY
	default:
		y = float64(ctx.TargetH) / 2
	}
	y += ctx.SubtitleOffsetY * float64(ctx.TargetH) * 0.76
	y = clampFloat(y, marginY+fontSize*0.6, float64(ctx.TargetH)-marginY)

	return x, y
}

// alignment maps a position to its ASS numpad alignment code.
func alignment(pos Position) int {
	switch pos {
	case PositionTop:
		return 8
	case PositionBottom:
		return 2
	default:
		return 5
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// assColor converts a "#RRGGBB" color into ASS's &HAABBGGRR form.
func assColor(hex string, alpha int) string {
	r, g, b := parseHexColor(hex)
	return fmt.Sprintf("&H%02X%02X%02X%02X", alpha, b, g, r)
}

func parseHexColor(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	var rv, gv, bv int
	if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return 255, 255, 255
	}
	return rv, gv, bv
}

// formatASSTime renders a clip-relative time in ASS's H:MM:SS.cc form.
func formatASSTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	centis := int(math.Round(seconds * 100))
	h := centis / 360000
	centis -= h * 360000
	m := centis / 6000
	centis -= m * 6000
	s := centis / 100
	cs := centis % 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

