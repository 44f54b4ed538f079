// Package segment splits scene prose into caption lines.
//
// Lines are cut from fixed-size code point windows. Inside each window the
// rightmost punctuation mark wins and is dropped from the output; a window
// without punctuation is emitted verbatim. There is no backtracking across
// windows, so a line may end up empty when a window starts with punctuation.
package segment

import (
	"strings"

	"storyreel/config"
	"storyreel/types"
)

// Segmenter holds the window size and character sets used for splitting.
type Segmenter struct {
	MaxWindow   int
	Punctuation string
	Quotes      string
}

// Default returns the segmenter used for every job.
func Default() Segmenter {
	return Segmenter{
		MaxWindow:   config.CaptionMaxWindow,
		Punctuation: config.CaptionPunctuation,
		Quotes:      config.CaptionQuotes,
	}
}

// Split returns the caption texts of text using the default segmenter.
func Split(text string) []string {
	return Default().Split(text)
}

// Split returns the caption texts of text in order.
func (s Segmenter) Split(text string) []string {
	lines := s.Segment(0, text)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

// Segment splits one scene's text into numbered caption lines.
func (s Segmenter) Segment(scene int, text string) []types.CaptionLine {
	window := s.MaxWindow
	if window < 1 {
		window = config.CaptionMaxWindow
	}

	runes := []rune(StripQuotes(text, s.Quotes))

	var lines []types.CaptionLine
	cursor := 0
	for cursor < len(runes) {
		end := min(cursor+window, len(runes))
		slice := runes[cursor:end]

		line := types.CaptionLine{Scene: scene, Line: len(lines) + 1}
		if cut := lastBreak(slice, s.Punctuation); cut >= 0 {
			line.Text = string(slice[:cut])
			line.Delimiter = slice[cut]
			cursor += cut + 1
		} else {
			line.Text = string(slice)
			cursor = end
		}
		lines = append(lines, line)
	}
	return lines
}

// StripQuotes removes every rune of quotes from text.
func StripQuotes(text, quotes string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(quotes, r) {
			return -1
		}
		return r
	}, text)
}

// lastBreak returns the index of the rightmost punctuation rune, or -1.
func lastBreak(window []rune, punctuation string) int {
	for i := len(window) - 1; i >= 0; i-- {
		if strings.ContainsRune(punctuation, window[i]) {
			return i
		}
	}
	return -1
}
