package export

import "math"

const minDimension = 240
const maxDimension = 4320

// defaultResolution picks the stock target resolution from an aspect
// ratio when no override is supplied, per §4.K step 3.
func defaultResolution(aspectRatio float64) (w, h int) {
	switch {
	case aspectRatio <= 0.68:
		return 1080, 1920
	case aspectRatio >= 1.35:
		return 1920, 1080
	default:
		return 1080, 1080
	}
}

// normalizeDimension rounds v to the nearest even integer and clamps it
// into [minDimension, maxDimension].
func normalizeDimension(v float64) int {
	n := int(math.Round(v/2)) * 2
	if n < minDimension {
		n = minDimension
	}
	if n > maxDimension {
		n = maxDimension
	}
	return n
}

// resolveTargetResolution computes a task's render target per §4.K step
// 3: when an override is present, both dimensions are normalized to even
// values in range, then aligned against the target aspect ratio by
// picking whichever of "hold width" or "hold height" produces the lower
// combined ratio-error/pixel-delta score; otherwise the stock default for
// the aspect ratio is used.
func resolveTargetResolution(aspectRatio float64, overrideW, overrideH int) (w, h int) {
	if overrideW <= 0 || overrideH <= 0 {
		return defaultResolution(aspectRatio)
	}

	baseW := normalizeDimension(float64(overrideW))
	baseH := normalizeDimension(float64(overrideH))

	holdWidth := baseW
	holdWidthHeight := normalizeDimension(float64(holdWidth) / aspectRatio)

	holdHeight := baseH
	holdHeightWidth := normalizeDimension(float64(holdHeight) * aspectRatio)

	scoreA := alignmentScore(holdWidth, holdWidthHeight, aspectRatio, baseW, baseH)
	scoreB := alignmentScore(holdHeightWidth, holdHeight, aspectRatio, baseW, baseH)

	if scoreA <= scoreB {
		return holdWidth, holdWidthHeight
	}
	return holdHeightWidth, holdHeight
}

func alignmentScore(candW, candH int, targetAspect float64, baseW, baseH int) float64 {
	ratioErr := math.Abs(float64(candW)/float64(candH) - targetAspect)
	delta := math.Abs(float64(candW-baseW)) + math.Abs(float64(candH-baseH))
	return ratioErr*10000 + delta
}
