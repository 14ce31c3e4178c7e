package subtitle

import (
	"math"
	"strings"
)

// Split tokenizes text on whitespace and shares the range [start, end]
// evenly between the tokens. The first token starts at start and the last
// ends exactly at end; inner boundaries are rounded half up to whole
// milliseconds, so neighbouring rounded boundaries may collide and yield a
// zero-length word.
func Split(text string, start, end int64) []Word {
	tokens := strings.Fields(text)
	switch len(tokens) {
	case 0:
		return nil
	case 1:
		return []Word{{Start: start, End: end, Text: tokens[0]}}
	}

	n := float64(len(tokens))
	per := float64(end-start) / n
	base := float64(start)

	words := make([]Word, len(tokens))
	for i, tok := range tokens {
		s := roundHalfUp(base + float64(i)*per)
		e := end
		if i < len(tokens)-1 {
			e = roundHalfUp(base + float64(i+1)*per)
		}
		words[i] = Word{Start: s, End: e, Text: tok}
	}
	return words
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

// Shift moves every word by offset milliseconds.
func Shift(words []Word, offset int64) []Word {
	out := make([]Word, len(words))
	for i, w := range words {
		out[i] = Word{Start: w.Start + offset, End: w.End + offset, Text: w.Text}
	}
	return out
}

// Text joins the words' text with single spaces.
func Text(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if w.Text != "" {
			parts = append(parts, w.Text)
		}
	}
	return strings.Join(parts, " ")
}
