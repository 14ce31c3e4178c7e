package subtitle

import (
	"math"
	"strconv"
	"strings"
)

const timeArrow = "-->"

// FormatMillis renders a millisecond offset as an SRT timestamp
// (HH:MM:SS,mmm). Negative offsets get a leading '-'; hours are not wrapped.
func FormatMillis(ms int64) string {
	if ms < 0 {
		return formatTimestamp("-", uint64(-(ms+1))+1)
	}
	return formatTimestamp("", uint64(ms))
}

// formatRawMillis takes the sign from v and floors its magnitude, so -0.5
// renders as -00:00:00,000.
func formatRawMillis(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
	}
	return formatTimestamp(sign, uint64(clampMillis(math.Floor(math.Abs(v)))))
}

func formatTimestamp(sign string, mag uint64) string {
	h := mag / 3600000
	m := (mag % 3600000) / 60000
	s := (mag % 60000) / 1000
	milli := mag % 1000

	var sb strings.Builder
	sb.Grow(13)
	sb.WriteString(sign)
	writePadded(&sb, h, 2)
	sb.WriteByte(':')
	writePadded(&sb, m, 2)
	sb.WriteByte(':')
	writePadded(&sb, s, 2)
	sb.WriteByte(',')
	writePadded(&sb, milli, 3)
	return sb.String()
}

func writePadded(sb *strings.Builder, v uint64, width int) {
	digits := strconv.FormatUint(v, 10)
	for i := len(digits); i < width; i++ {
		sb.WriteByte('0')
	}
	sb.WriteString(digits)
}

// ParseMillis parses a single HH:MM:SS,mmm timestamp. Anything that is not
// exactly two digits, colon, two digits, colon, two digits, comma, three
// digits is rejected.
func ParseMillis(ts string) (int64, bool) {
	if len(ts) != 12 || ts[2] != ':' || ts[5] != ':' || ts[8] != ',' {
		return 0, false
	}

	fields := [4]string{ts[0:2], ts[3:5], ts[6:8], ts[9:12]}
	var vals [4]int64
	for i, f := range fields {
		for j := 0; j < len(f); j++ {
			if f[j] < '0' || f[j] > '9' {
				return 0, false
			}
		}
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return 0, false
		}
		vals[i] = v
	}

	return vals[0]*3600000 + vals[1]*60000 + vals[2]*1000 + vals[3], true
}

// WordsToSRT encodes one SRT block per word, in order. Blocks are separated
// by a blank line. Empty input yields "".
func WordsToSRT(words []Word) string {
	lines := make([]string, 0, len(words)*4)
	for i, w := range words {
		lines = appendBlock(lines, i, FormatMillis(w.Start), FormatMillis(w.End), w.Text)
	}
	return strings.Join(lines, "\n")
}

// RawWordsToSRT applies the field defaults and encodes the result. Times are
// rendered from the raw values, so fractional negatives keep their sign.
func RawWordsToSRT(raw []RawWord) string {
	lines := make([]string, 0, len(raw)*4)
	for i, r := range raw {
		start, end := r.times()
		text := DefaultText
		if r.Text != nil {
			text = *r.Text
		}
		lines = appendBlock(lines, i, formatRawMillis(start), formatRawMillis(end), text)
	}
	return strings.Join(lines, "\n")
}

func appendBlock(lines []string, i int, start, end, text string) []string {
	return append(lines,
		strconv.Itoa(i+1),
		start+" "+timeArrow+" "+end,
		text,
		"",
	)
}

// SRTToWords decodes SubRip text into words. Blocks that cannot be parsed are
// skipped; a block holding several words has its time range shared evenly
// between them. The result is never nil.
func SRTToWords(text string) []Word {
	text = strings.ReplaceAll(text, "\r", "")

	words := []Word{}
	for _, block := range splitBlocks(text) {
		words = append(words, decodeBlock(block)...)
	}
	return words
}

// splits on runs of blank (whitespace-only) lines and drops blank lines
func splitBlocks(text string) [][]string {
	var (
		blocks  [][]string
		current []string
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func decodeBlock(lines []string) []Word {
	if len(lines) < 2 {
		return nil
	}

	timeIdx := 0
	if isIndexLine(lines[0]) {
		timeIdx = 1
	}

	start, end, ok := parseTimeRange(lines[timeIdx])
	if !ok || end <= start {
		return nil
	}

	text := strings.TrimSpace(strings.Join(lines[timeIdx+1:], " "))
	if text == "" {
		return nil
	}

	return Split(text, start, end)
}

func isIndexLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] < '0' || line[i] > '9' {
			return false
		}
	}
	return true
}

// parses "HH:MM:SS,mmm --> HH:MM:SS,mmm". Text after the end timestamp
// (SRT position hints such as "X1:40 X2:600") is ignored.
func parseTimeRange(line string) (int64, int64, bool) {
	left, right, found := strings.Cut(line, timeArrow)
	if !found {
		return 0, 0, false
	}

	rightFields := strings.Fields(right)
	if len(rightFields) == 0 {
		return 0, 0, false
	}

	start, ok := ParseMillis(strings.TrimSpace(left))
	if !ok {
		return 0, 0, false
	}
	end, ok := ParseMillis(rightFields[0])
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}
