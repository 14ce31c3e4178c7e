package subtitle

import (
	"strings"
	"time"
	"unicode/utf8"
)

// controls how words are folded into caption cues
type GroupOptions struct {
	MaxCharsPerLine int
	MaxLines        int
	MinDuration     time.Duration
	MaxDuration     time.Duration
	// silence longer than this always starts a new cue
	MaxGap time.Duration
}

func DefaultGroupOptions() GroupOptions {
	return GroupOptions{
		MaxCharsPerLine: 42, // Standard subtitle line length
		MaxLines:        2,  // Most players support 2 lines
		MinDuration:     time.Second,
		MaxDuration:     7 * time.Second,
		MaxGap:          1500 * time.Millisecond,
	}
}

// Group folds consecutive words into cues. A cue is closed when adding the
// next word would overflow the character budget or the maximum duration,
// when there is a long pause, or at the end of a sentence once the cue has
// lasted MinDuration. Words with empty text are skipped.
func Group(words []Word, opts GroupOptions) []Cue {
	if opts.MaxCharsPerLine <= 0 || opts.MaxLines <= 0 {
		def := DefaultGroupOptions()
		opts.MaxCharsPerLine = def.MaxCharsPerLine
		opts.MaxLines = def.MaxLines
	}
	maxChars := opts.MaxCharsPerLine * opts.MaxLines
	maxDur := opts.MaxDuration.Milliseconds()
	minDur := opts.MinDuration.Milliseconds()
	maxGap := opts.MaxGap.Milliseconds()

	var (
		cues    []Cue
		current Cue
		chars   int
	)

	flush := func() {
		if len(current.Words) > 0 {
			cues = append(cues, current)
		}
		current = Cue{}
		chars = 0
	}

	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		w.Text = text
		wordChars := utf8.RuneCountInString(text)

		if len(current.Words) > 0 {
			overflow := chars+1+wordChars > maxChars
			tooLong := maxDur > 0 && w.End-current.Start > maxDur
			paused := maxGap > 0 && w.Start-current.End > maxGap
			if overflow || tooLong || paused {
				flush()
			}
		}

		if len(current.Words) == 0 {
			current.Start = w.Start
			chars = wordChars
		} else {
			chars += 1 + wordChars
		}
		current.Words = append(current.Words, w)
		if w.End > current.End || len(current.Words) == 1 {
			current.End = w.End
		}

		if isSentenceEnd(text) && current.End-current.Start >= minDur {
			flush()
		}
	}
	flush()

	return cues
}

func isSentenceEnd(word string) bool {
	for _, v := range []string{".", "?", "!", "।"} {
		if strings.HasSuffix(word, v) {
			return true
		}
	}
	return false
}

// WrapText formats text for display, splitting it into two lines at the word
// boundary closest to the middle when it does not fit on one line.
func WrapText(text string, maxCharsPerLine int) string {
	text = strings.TrimSpace(text)
	runeCount := utf8.RuneCountInString(text)

	// if text fits on one line, return as is
	if runeCount <= maxCharsPerLine {
		return text
	}

	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	// find the best split point (closest to middle)
	middle := runeCount / 2
	bestSplit := 0
	bestDiff := runeCount

	currentLen := 0
	for i, word := range words[:len(words)-1] {
		currentLen += utf8.RuneCountInString(word)
		if i > 0 {
			currentLen++ // space
		}

		diff := abs(currentLen - middle)
		if diff < bestDiff {
			bestDiff = diff
			bestSplit = i + 1
		}
	}

	if bestSplit > 0 && bestSplit < len(words) {
		line1 := strings.Join(words[:bestSplit], " ")
		line2 := strings.Join(words[bestSplit:], " ")
		return line1 + "\n" + line2
	}

	return text
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
