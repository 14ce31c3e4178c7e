package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParsePreset(t *testing.T) {
	tests := []struct {
		in      string
		want    Preset
		wantErr bool
	}{
		{"bottom", PresetBottom, false},
		{"TOP", PresetTop, false},
		{" karaoke ", PresetKaraoke, false},
		{"", PresetBottom, false},
		{"sideways", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePreset(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePreset(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePreset(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestASSWriterKaraoke(t *testing.T) {
	words := []Word{
		{Start: 0, End: 500, Text: "Hello"},
		{Start: 700, End: 1200, Text: "world."},
	}

	w := NewASSWriter(PresetKaraoke)
	out := w.Render(words)

	wantLine := `Dialogue: 0,0:00:00.00,0:00:01.20,Default,,0,0,0,,{\kf50}Hello {\k20}{\kf50}world.`
	if !strings.Contains(out, wantLine) {
		t.Errorf("missing karaoke dialogue %q in:\n%s", wantLine, out)
	}
	if !strings.Contains(out, "&H00FFE632") {
		t.Errorf("karaoke highlight colour missing")
	}
	if !strings.Contains(out, "PlayResX: 1920") || !strings.Contains(out, "PlayResY: 1080") {
		t.Errorf("default play resolution missing")
	}
}

func TestASSWriterPresetAlignment(t *testing.T) {
	words := []Word{{Start: 1000, End: 2000, Text: "caption"}}

	tests := []struct {
		preset    Preset
		alignment string
		fontSize  string
	}{
		{PresetBottom, ",2,60,60,40,1", "Noto Sans,48,"},
		{PresetTop, ",8,60,60,0,1", "Noto Sans,36,"},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			out := NewASSWriter(tt.preset).Render(words)
			if !strings.Contains(out, tt.alignment) {
				t.Errorf("expected style suffix %q in:\n%s", tt.alignment, out)
			}
			if !strings.Contains(out, tt.fontSize) {
				t.Errorf("expected font %q in:\n%s", tt.fontSize, out)
			}
			if !strings.Contains(out, "Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,caption\n") {
				t.Errorf("missing dialogue in:\n%s", out)
			}
		})
	}
}

func TestASSWriterEscapesText(t *testing.T) {
	words := []Word{{Start: 0, End: 1000, Text: "{\\b1}bold"}}
	out := NewASSWriter(PresetBottom).Render(words)
	if strings.Contains(out, "{\\b1}") {
		t.Errorf("override block leaked into output:\n%s", out)
	}
}

func TestASSWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "captions.ass")
	w := NewASSWriter(PresetTop)
	w.Width, w.Height = 1280, 720

	if err := w.Write([]Word{{Start: 0, End: 1000, Text: "hi"}}, path); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(data), "PlayResY: 720") {
		t.Errorf("play resolution not applied:\n%s", data)
	}
}

func TestFormatASSTime(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0:00:00.00"},
		{-50, "0:00:00.00"},
		{1234, "0:00:01.23"},
		{3661005, "1:01:01.00"},
	}
	for _, tt := range tests {
		if got := formatASSTime(tt.ms); got != tt.want {
			t.Errorf("formatASSTime(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
