package export

import (
	"fmt"
	"strconv"
	"strings"
)

// buildVideoFilter constructs the scale/pad/crop chain for a fit mode per
// §4.K step 5. It returns the primary chain and, for the cover family, a
// fallback chain ("cover-center") to retry with if the primary one fails
// ffmpeg invocation.
func buildVideoFilter(fit FitMode, tw, th int, zoom, offsetX, offsetY float64) (primary string, fallback string) {
	switch fit {
	case FitContain:
		return fmt.Sprintf(
			"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black,setsar=1",
			tw, th, tw, th,
		), ""

	case FitCoverCenter:
		chain := coverCenterFilter(tw, th)
		return chain, ""

	default: // cover, free, crop
		z := formatFloat(zoom)
		cx := cropExpr("iw", tw, offsetX)
		cy := cropExpr("ih", th, offsetY)

		chain := fmt.Sprintf(
			"scale=%d:%d:force_original_aspect_ratio=increase,"+
				"scale='trunc(iw*%s/2)*2':'trunc(ih*%s/2)*2',"+
				"pad='max(iw,%d)':'max(ih,%d)':(ow-iw)/2:(oh-ih)/2:black,"+
				"crop=%d:%d:%s:%s,setsar=1",
			tw, th, z, z, tw, th, tw, th, cx, cy,
		)
		return chain, coverCenterFilter(tw, th)
	}
}

func coverCenterFilter(tw, th int) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1", tw, th, tw, th)
}

// cropExpr builds the clamp(0, dim-T, (dim-T)/2 + offset*(dim-T)/2)
// crop-position expression from §4.K step 5, written in ffmpeg eval
// syntax (min/max rather than a literal "clamp" function).
func cropExpr(dimVar string, target int, offset float64) string {
	o := formatFloat(offset)
	centered := fmt.Sprintf("(%s-%d)/2+%s*(%s-%d)/2", dimVar, target, o, dimVar, target)
	return fmt.Sprintf("max(0,min(%s-%d,%s))", dimVar, target, centered)
}

// subtitlesFilterClause appends the ffmpeg subtitles filter for an ASS
// path, escaping the seven special characters the filter's filename
// argument requires escaped, per §4.K step 5.
func subtitlesFilterClause(assPath string) string {
	return fmt.Sprintf(",subtitles=filename='%s':charenc=UTF-8", escapeSubtitlesFilename(assPath))
}

func escapeSubtitlesFilename(path string) string {
	var b strings.Builder
	for _, r := range path {
		switch r {
		case ':', ',', ';', '\'', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
