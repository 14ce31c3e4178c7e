package subtitle

import (
	"fmt"
	"os"
	"strings"
)

// caption rendering style
type Preset string

const (
	PresetBottom  Preset = "bottom"
	PresetTop     Preset = "top"
	PresetKaraoke Preset = "karaoke"
)

func ParsePreset(s string) (Preset, error) {
	switch p := Preset(strings.ToLower(strings.TrimSpace(s))); p {
	case PresetBottom, PresetTop, PresetKaraoke:
		return p, nil
	case "":
		return PresetBottom, nil
	default:
		return "", fmt.Errorf("unsupported preset %q: use bottom, top, or karaoke", s)
	}
}

// style values in ASS colour notation (&HAABBGGRR, alpha 00 = opaque)
type presetStyle struct {
	fontSize  int
	bold      bool
	alignment int // numpad layout: 2 bottom centre, 8 top centre
	primary   string
	secondary string
	box       string
	marginV   int
}

var presetStyles = map[Preset]presetStyle{
	PresetBottom: {
		fontSize:  48,
		alignment: 2,
		primary:   "&H00FFFFFF",
		secondary: "&H00FFFFFF",
		box:       "&HA6000000",
		marginV:   40,
	},
	PresetTop: {
		fontSize:  36,
		alignment: 8,
		primary:   "&H00FFFFFF",
		secondary: "&H00FFFFFF",
		box:       "&H80000000",
		marginV:   0,
	},
	PresetKaraoke: {
		fontSize:  42,
		bold:      true,
		alignment: 2,
		primary:   "&H00FFE632", // #32e6ff once swept
		secondary: "&H00FFFFFF",
		box:       "&HA6000000",
		marginV:   40,
	},
}

// Advanced SubStation Alpha writer for burned-in captions
type ASSWriter struct {
	Title    string
	FontName string
	Preset   Preset
	// play resolution, normally the video's frame size
	Width  int
	Height int
	Group  GroupOptions
}

func NewASSWriter(preset Preset) *ASSWriter {
	return &ASSWriter{
		Title:    "capgen captions",
		FontName: "Noto Sans",
		Preset:   preset,
		Width:    1920,
		Height:   1080,
		Group:    DefaultGroupOptions(),
	}
}

// writes the captions to an ASS file
func (w *ASSWriter) Write(words []Word, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(w.Render(words)), 0644)
}

// Render produces the full ASS script.
func (w *ASSWriter) Render(words []Word) string {
	style, ok := presetStyles[w.Preset]
	if !ok {
		style = presetStyles[PresetBottom]
	}
	width, height := w.Width, w.Height
	if width <= 0 || height <= 0 {
		width, height = 1920, 1080
	}

	var sb strings.Builder

	// script info section
	sb.WriteString("[Script Info]\n")
	fmt.Fprintf(&sb, "Title: %s\n", w.Title)
	sb.WriteString("ScriptType: v4.00+\n")
	sb.WriteString("WrapStyle: 0\n")
	fmt.Fprintf(&sb, "PlayResX: %d\n", width)
	fmt.Fprintf(&sb, "PlayResY: %d\n", height)
	sb.WriteString("ScaledBorderAndShadow: yes\n\n")

	// v4+ styles section; BorderStyle 3 draws an opaque box in OutlineColour
	bold := 0
	if style.bold {
		bold = -1
	}
	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&sb, "Style: Default,%s,%d,%s,%s,%s,&H00000000,%d,0,0,0,100,100,0,0,3,8,0,%d,60,60,%d,1\n\n",
		w.FontName, style.fontSize, style.primary, style.secondary, style.box,
		bold, style.alignment, style.marginV)

	// events section
	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	maxChars := w.Group.MaxCharsPerLine
	if maxChars <= 0 {
		maxChars = DefaultGroupOptions().MaxCharsPerLine
	}

	for _, cue := range Group(words, w.Group) {
		var text string
		if w.Preset == PresetKaraoke {
			text = karaokeText(cue)
		} else {
			text = escapeASSText(WrapText(cue.Text(), maxChars))
		}
		fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(cue.Start),
			formatASSTime(cue.End),
			text)
	}

	return sb.String()
}

// karaokeText tags each word with \kf so it sweeps to the highlight colour
// over its own span. Silence before a word becomes an empty \k segment.
// Durations are derived from cumulative centisecond positions so rounding
// never drifts across the cue.
func karaokeText(cue Cue) string {
	var sb strings.Builder
	pos := cue.Start
	for i, w := range cue.Words {
		if w.Start > pos {
			if cs := centis(w.Start-cue.Start) - centis(pos-cue.Start); cs > 0 {
				fmt.Fprintf(&sb, "{\\k%d}", cs)
			}
			pos = w.Start
		}
		end := w.End
		if end < pos {
			end = pos
		}
		cs := centis(end-cue.Start) - centis(pos-cue.Start)
		fmt.Fprintf(&sb, "{\\kf%d}%s", cs, escapeASSText(w.Text))
		if i < len(cue.Words)-1 {
			sb.WriteByte(' ')
		}
		pos = end
	}
	return sb.String()
}

func centis(ms int64) int64 {
	return (ms + 5) / 10
}

func formatASSTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3600000
	minutes := (ms / 60000) % 60
	seconds := (ms / 1000) % 60
	cs := (ms % 1000) / 10

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, cs)
}

// override blocks start with '{', so braces in caption text are neutralised
func escapeASSText(text string) string {
	text = strings.ReplaceAll(text, "{", "(")
	text = strings.ReplaceAll(text, "}", ")")
	text = strings.ReplaceAll(text, "\n", "\\N")
	return text
}
