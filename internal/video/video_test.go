package video

import (
	"math"
	"testing"
	"time"
)

func TestParseProbe(t *testing.T) {
	out := []byte(`{
		"format": {"duration": "61.250000"},
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720, "r_frame_rate": "30000/1001"},
			{"codec_type": "audio", "codec_name": "aac"}
		]
	}`)

	info, err := parseProbe(out)
	if err != nil {
		t.Fatalf("parseProbe() error: %v", err)
	}
	if info.Width != 1280 || info.Height != 720 || info.Codec != "h264" {
		t.Errorf("unexpected video stream info: %+v", info)
	}
	if !info.HasAudio {
		t.Error("expected HasAudio")
	}
	if info.Duration != 61250*time.Millisecond {
		t.Errorf("duration = %v", info.Duration)
	}
	if math.Abs(info.FrameRate-29.97) > 0.01 {
		t.Errorf("frame rate = %v", info.FrameRate)
	}
}

func TestParseFrameRate(t *testing.T) {
	tests := map[string]float64{
		"25/1": 25,
		"24":   24,
		"0/0":  0,
		"":     0,
	}
	for in, want := range tests {
		if got := parseFrameRate(in); got != want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEscapeFilterPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/tmp/captions.ass", "/tmp/captions.ass"},
		{"C:/work/a.ass", `C\\:/work/a.ass`},
		{"/tmp/it's [1].ass", `/tmp/it\\\'s \[1\].ass`},
	}
	for _, tt := range tests {
		if got := escapeFilterPath(tt.in); got != tt.want {
			t.Errorf("escapeFilterPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
