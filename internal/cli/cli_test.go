package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mgpai22/capgen/internal/subtitle"
)

// run executes the root command with fresh flag values and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	err := rootCmd.Execute()
	return stdout.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleSRT = `1
00:00:00,000 --> 00:00:00,500
Hello

2
00:00:00,500 --> 00:00:01,500
big world
`

func TestDerivedPath(t *testing.T) {
	tests := []struct {
		input, tag, ext, want string
	}{
		{"video.mp4", "", ".srt", "video.srt"},
		{"dir/clip.srt", "ja", ".srt", "dir/clip.ja.srt"},
		{"noext", "captioned", ".mp4", "noext.captioned.mp4"},
		{"a.b.vtt", "", ".json", "a.b.json"},
	}
	for _, tt := range tests {
		if got := derivedPath(tt.input, tt.tag, tt.ext); got != tt.want {
			t.Errorf("derivedPath(%q, %q, %q) = %q, want %q", tt.input, tt.tag, tt.ext, got, tt.want)
		}
	}
}

func TestSRT2WordsToStdout(t *testing.T) {
	srt := writeFile(t, t.TempDir(), "clip.srt", sampleSRT)

	out, err := run(t, "srt2words", srt)
	if err != nil {
		t.Fatalf("srt2words error: %v", err)
	}

	var words []subtitle.Word
	if err := json.Unmarshal([]byte(out), &words); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	want := []subtitle.Word{
		{Start: 0, End: 500, Text: "Hello"},
		{Start: 500, End: 1000, Text: "big"},
		{Start: 1000, End: 1500, Text: "world"},
	}
	if len(words) != len(want) {
		t.Fatalf("got %d words, want %d: %+v", len(words), len(want), words)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d = %+v, want %+v", i, words[i], want[i])
		}
	}
}

func TestWords2SRTToFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "words.json", `[{"start":0,"end":500,"text":"Hello"},{"start":"500","end":null}]`)
	out := filepath.Join(dir, "out", "clip.srt")

	if _, err := run(t, "words2srt", in, "-o", out); err != nil {
		t.Fatalf("words2srt error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "1\n00:00:00,000 --> 00:00:00,500\nHello\n\n2\n00:00:00,000 --> 00:00:00,001\n\n"
	if string(data) != want {
		t.Errorf("SRT =\n%q\nwant\n%q", data, want)
	}
}

func TestWords2SRTRejectsNonArray(t *testing.T) {
	in := writeFile(t, t.TempDir(), "words.json", `{"start":0}`)
	if _, err := run(t, "words2srt", in); err == nil {
		t.Error("expected error for non-array input")
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	srt := writeFile(t, dir, "clip.srt", sampleSRT)

	tests := []struct {
		name     string
		args     []string
		output   string
		contains string
	}{
		{"vtt from extension", []string{"-o", filepath.Join(dir, "clip.vtt")}, "clip.vtt", "WEBVTT"},
		{"json from flag", []string{"-f", "json"}, "clip.json", `"text": "world"`},
		{"karaoke ass", []string{"-o", filepath.Join(dir, "k.ass"), "--preset", "karaoke"}, "k.ass", `{\k`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"convert", srt}, tt.args...)
			if _, err := run(t, args...); err != nil {
				t.Fatalf("convert error: %v", err)
			}
			data, err := os.ReadFile(filepath.Join(dir, tt.output))
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), tt.contains) {
				t.Errorf("%s missing %q:\n%s", tt.output, tt.contains, data)
			}
		})
	}
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	srt := writeFile(t, dir, "clip.srt", sampleSRT)

	tests := []struct {
		name string
		args []string
	}{
		{"no format", []string{"convert", srt}},
		{"unknown format", []string{"convert", srt, "-f", "docx"}},
		{"overwrite input", []string{"convert", srt, "-f", "srt"}},
		{"missing input", []string{"convert", filepath.Join(dir, "nope.srt"), "-f", "vtt"}},
		{"bad preset", []string{"convert", srt, "-f", "ass", "--preset", "neon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTranscribeValidation(t *testing.T) {
	dir := t.TempDir()
	notes := writeFile(t, dir, "notes.txt", "hi")
	clip := writeFile(t, dir, "clip.mp4", "x")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing file", []string{"transcribe", filepath.Join(dir, "nope.mp4")}, "file not found"},
		{"not media", []string{"transcribe", notes}, "unsupported file type"},
		{"bad provider", []string{"transcribe", clip, "--provider", "whisperx"}, "unsupported provider"},
		{"bad format", []string{"transcribe", clip, "-f", "docx"}, "unsupported format"},
		{"bad chunks", []string{"transcribe", clip, "-d", "0", "-k", "key"}, "chunk-duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestTranslateValidation(t *testing.T) {
	srt := writeFile(t, t.TempDir(), "clip.srt", sampleSRT)

	if _, err := run(t, "translate", srt); err == nil {
		t.Error("expected error without --target-language")
	}

	_, err := run(t, "translate", srt, "-t", "English", "-l", "english")
	if err == nil || !strings.Contains(err.Error(), "cannot be the same") {
		t.Errorf("same language error = %v", err)
	}

	_, err = run(t, "translate", srt, "-t", "ja", "--provider", "deepl")
	if err == nil || !strings.Contains(err.Error(), "unsupported translation provider") {
		t.Errorf("provider error = %v", err)
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("GEMINI_API_KEY", "")

	if got, err := resolveAPIKey("flag-key", "openai"); err != nil || got != "flag-key" {
		t.Errorf("flag: got %q, %v", got, err)
	}
	if got, err := resolveAPIKey("", "openai"); err != nil || got != "env-key" {
		t.Errorf("env: got %q, %v", got, err)
	}
	_, err := resolveAPIKey("", "gemini")
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("missing key error = %v", err)
	}
}
