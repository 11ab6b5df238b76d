package subtitle

import (
	"sort"
	"strings"
	"unicode"
)

// minWordOverlap is the minimum intersection duration (seconds) a word
// must have with the clip window to survive filtering.
const minWordOverlap = 0.025

// minEmphasisLetters is the minimum letter count an emphasized word needs
// for the uppercase-ratio rule to apply.
const minEmphasisLetters = 5

// minEmphasisLongWord is the letter count at or above which a word is
// emphasized regardless of case.
const minEmphasisLongWord = 8

var whitespaceRun = func() func(string) string {
	return func(s string) string {
		var b strings.Builder
		lastSpace := false
		for _, r := range s {
			if unicode.IsSpace(r) {
				if !lastSpace {
					b.WriteByte(' ')
					lastSpace = true
				}
				continue
			}
			b.WriteRune(r)
			lastSpace = false
		}
		return b.String()
	}
}()

// normalizeWords applies §4.J's word-normalization and clip-intersection
// filter, returning words retimed relative to clipStart and sorted by
// start time.
func normalizeWords(words []Word, clipStart, clipEnd float64, profile RenderProfile) []normalizedWord {
	out := make([]normalizedWord, 0, len(words))
	for _, w := range words {
		overlapStart := w.Start
		if clipStart > overlapStart {
			overlapStart = clipStart
		}
		overlapEnd := w.End
		if clipEnd < overlapEnd {
			overlapEnd = clipEnd
		}
		if overlapEnd-overlapStart < minWordOverlap {
			continue
		}

		text := normalizeText(w.Text, profile.AllCaps)
		if text == "" {
			continue
		}

		out = append(out, normalizedWord{
			text:       text,
			start:      overlapStart - clipStart,
			end:        overlapEnd - clipStart,
			emphasized: profile.HighlightImportantWords && isEmphasized(text),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

func normalizeText(raw string, allCaps bool) string {
	text := strings.TrimSpace(raw)
	text = whitespaceRun(text)
	text = strings.ReplaceAll(text, "{", "(")
	text = strings.ReplaceAll(text, "}", ")")
	if allCaps {
		text = strings.ToUpper(text)
	}
	return text
}

// isEmphasized reports whether a normalized word qualifies for highlight
// emphasis: long (≥8 letters), contains a digit, or is mostly uppercase
// over at least 5 letters.
func isEmphasized(text string) bool {
	letters := 0
	upper := 0
	hasDigit := false
	for _, r := range text {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if hasDigit {
		return true
	}
	if letters >= minEmphasisLongWord {
		return true
	}
	if letters >= minEmphasisLetters && float64(upper)/float64(letters) >= 0.55 {
		return true
	}
	return false
}

