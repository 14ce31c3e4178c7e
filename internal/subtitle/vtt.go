package subtitle

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
)

// WebVTT writer. Words are grouped into cues unless PerWord is set.
type VTTWriter struct {
	PerWord bool
	Group   GroupOptions
}

// writes the captions to a VTT file
func (w *VTTWriter) Write(words []Word, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create VTT file: %w", err)
	}

	if err := w.Encode(words, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Encode writes WebVTT to out.
func (w *VTTWriter) Encode(words []Word, out io.Writer) error {
	var cues []Cue
	if w.PerWord {
		for _, word := range words {
			cues = append(cues, Cue{Start: word.Start, End: word.End, Words: []Word{word}})
		}
	} else {
		cues = Group(words, w.Group)
	}

	subs := astisub.NewSubtitles()
	for _, cue := range cues {
		item := &astisub.Item{
			StartAt: msToDuration(cue.Start),
			EndAt:   msToDuration(cue.End),
		}
		for _, line := range strings.Split(WrapText(cue.Text(), w.maxChars()), "\n") {
			item.Lines = append(item.Lines, astisub.Line{
				Items: []astisub.LineItem{{Text: line}},
			})
		}
		subs.Items = append(subs.Items, item)
	}

	if len(subs.Items) == 0 {
		// astisub refuses to write an empty document
		_, err := io.WriteString(out, "WEBVTT\n")
		return err
	}
	if err := subs.WriteToWebVTT(out); err != nil {
		return fmt.Errorf("failed to write VTT: %w", err)
	}
	return nil
}

func (w *VTTWriter) maxChars() int {
	if w.Group.MaxCharsPerLine > 0 {
		return w.Group.MaxCharsPerLine
	}
	return DefaultGroupOptions().MaxCharsPerLine
}

// VTTToWords reads WebVTT and splits every cue evenly into words.
func VTTToWords(r io.Reader) ([]Word, error) {
	subs, err := astisub.ReadFromWebVTT(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse VTT: %w", err)
	}

	words := []Word{}
	for _, item := range subs.Items {
		start := item.StartAt.Milliseconds()
		end := item.EndAt.Milliseconds()
		if end <= start {
			continue
		}
		words = append(words, Split(itemText(item), start, end)...)
	}
	return words, nil
}

func itemText(item *astisub.Item) string {
	var sb strings.Builder
	for i, line := range item.Lines {
		if i > 0 {
			sb.WriteByte(' ')
		}
		for j, li := range line.Items {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(li.Text)
		}
	}
	return sb.String()
}

func msToDuration(ms int64) time.Duration {
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}

// EncodeVTT is a convenience wrapper returning the document as a string.
func EncodeVTT(words []Word) (string, error) {
	var buf bytes.Buffer
	w := &VTTWriter{Group: DefaultGroupOptions()}
	if err := w.Encode(words, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
