package subtitle

import "strings"

// chunk is a group of words that will render as a single ASS dialogue
// event, already wrapped into lines.
type chunk struct {
	words []normalizedWord
	lines [][]normalizedWord
}

func (c chunk) start() float64 { return c.words[0].start }
func (c chunk) end() float64   { return c.words[len(c.words)-1].end }

const maxChunkDuration = 4.4
const maxWordGap = 0.62

// chunkWords groups words into subtitle events per §4.J's flush rules,
// then wraps each chunk's words into lines.
func chunkWords(words []normalizedWord, profile RenderProfile) []chunk {
	maxLines := clampInt(profile.MaxLines, 1, 10)
	wordThreshold := clampInt(profile.MaxWordsPerLine*maxLines, 3, 24)
	charThreshold := clampInt(profile.MaxCharsPerLine*maxLines, 18, 140)
	sentenceMin := maxInt(2, profile.MaxWordsPerLine/2)

	var chunks []chunk
	var current []normalizedWord

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, chunk{
			words: current,
			lines: wrapLines(current, profile.MaxWordsPerLine, profile.MaxCharsPerLine, maxLines),
		})
		current = nil
	}

	for _, w := range words {
		if len(current) > 0 {
			prev := current[len(current)-1]
			gap := w.start - prev.end
			if gap > maxWordGap || (endsSentence(prev.text) && len(current) >= sentenceMin) {
				flush()
			}
		}

		current = append(current, w)

		if len(current) >= wordThreshold || sumChars(current) > charThreshold || (current[len(current)-1].end-current[0].start) > maxChunkDuration {
			flush()
		}
	}
	flush()

	return chunks
}

func sumChars(words []normalizedWord) int {
	total := 0
	for _, w := range words {
		total += len([]rune(w.text))
	}
	return total
}

func endsSentence(text string) bool {
	text = strings.TrimRight(text, "\"')]")
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") ||
		strings.HasSuffix(text, "?") || strings.HasSuffix(text, "…")
}

// wrapLines greedily packs words into at most maxLines lines honoring
// per-line word and character limits, folding any overflow into the
// final line.
func wrapLines(words []normalizedWord, maxWordsPerLine, maxCharsPerLine, maxLines int) [][]normalizedWord {
	maxWordsPerLine = maxInt(maxWordsPerLine, 1)
	maxCharsPerLine = maxInt(maxCharsPerLine, 1)

	var lines [][]normalizedWord
	var line []normalizedWord
	chars := 0

	for _, w := range words {
		wLen := len([]rune(w.text))
		wouldChars := chars + wLen
		if len(line) > 0 {
			wouldChars++ // separating space
		}

		if len(line) > 0 && (len(line)+1 > maxWordsPerLine || wouldChars > maxCharsPerLine) {
			lines = append(lines, line)
			line = nil
			chars = 0
		}

		if len(line) > 0 {
			chars++
		}
		line = append(line, w)
		chars += wLen
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}

	if len(lines) > maxLines {
		kept := lines[:maxLines-1]
		overflow := lines[maxLines-1:]
		var merged []normalizedWord
		for _, l := range overflow {
			merged = append(merged, l...)
		}
		lines = append(kept, merged)
	}

	return lines
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
