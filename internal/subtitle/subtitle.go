package subtitle

import (
	"math"
	"strings"
	"time"
)

// single timed unit of transcript text, offsets in milliseconds from the
// start of the media
type Word struct {
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Text  string `json:"text"`
}

// Duration of the word. Zero or negative for malformed words.
func (w Word) Duration() time.Duration {
	return time.Duration(w.End-w.Start) * time.Millisecond
}

// word as it arrives from loosely typed input. A nil field means the source
// value was missing or not a number.
type RawWord struct {
	Start *float64
	End   *float64
	Text  *string
}

// Defaults applied by Normalize when a field is missing or not a number.
const (
	// start becomes DefaultStart
	DefaultStart int64 = 0
	// end becomes start + DefaultDuration
	DefaultDuration int64 = 1
	// text becomes DefaultText
	DefaultText = ""
)

// keeps float-to-int conversion well defined
const maxMillis = 1 << 53

// Normalize fills a RawWord into a Word using the field defaults.
// Numeric values are truncated toward zero to whole milliseconds; the
// default end is taken from the raw start before truncation.
func Normalize(r RawWord) Word {
	start, end := r.times()
	w := Word{Start: toMillis(start), End: toMillis(end), Text: DefaultText}
	if r.Text != nil {
		w.Text = *r.Text
	}
	return w
}

// times resolves start and end with the defaults applied, keeping fractions.
func (r RawWord) times() (start, end float64) {
	start = float64(DefaultStart)
	if v, ok := number(r.Start); ok {
		start = v
	}
	end = start + float64(DefaultDuration)
	if v, ok := number(r.End); ok {
		end = v
	}
	return start, end
}

// NormalizeAll applies Normalize to every element, preserving order.
func NormalizeAll(raw []RawWord) []Word {
	words := make([]Word, len(raw))
	for i, r := range raw {
		words[i] = Normalize(r)
	}
	return words
}

func number(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}

func toMillis(v float64) int64 {
	return int64(clampMillis(math.Trunc(v)))
}

func clampMillis(v float64) float64 {
	return math.Max(-maxMillis, math.Min(maxMillis, v))
}

// caption cue made of consecutive words
type Cue struct {
	Start int64
	End   int64
	Words []Word
}

// Text of the cue with words joined by single spaces.
func (c Cue) Text() string {
	parts := make([]string, len(c.Words))
	for i, w := range c.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// represents supported caption formats
type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatASS  Format = "ass"
	FormatJSON Format = "json"
)

// interface for writing words to caption files
type Writer interface {
	Write(words []Word, path string) error
}
