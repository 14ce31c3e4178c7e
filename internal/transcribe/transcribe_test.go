package transcribe

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mgpai22/capgen/internal/audio"
	"github.com/mgpai22/capgen/internal/subtitle"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{"", ProviderAssemblyAI, false},
		{"AssemblyAI", ProviderAssemblyAI, false},
		{" openai ", ProviderOpenAI, false},
		{"gemini", ProviderGemini, false},
		{"whisper", "", true},
	}
	for _, tt := range tests {
		got, err := ParseProvider(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseProvider(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	for _, p := range []Provider{ProviderAssemblyAI, ProviderOpenAI, ProviderGemini} {
		if _, err := Factory(context.Background(), p, "", Options{}); err == nil {
			t.Errorf("%s: expected error without API key", p)
		}
	}
	if _, err := Factory(context.Background(), "nope", "key", Options{}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryDefaultsToAssemblyAI(t *testing.T) {
	tr, err := Factory(context.Background(), "", "key", Options{})
	if err != nil {
		t.Fatalf("Factory() error: %v", err)
	}
	if _, ok := tr.(*AssemblyAITranscriber); !ok {
		t.Errorf("expected *AssemblyAITranscriber, got %T", tr)
	}
}

func TestChunkingTranscribersImplementInterface(t *testing.T) {
	var _ ConcurrentTranscriber = (*OpenAITranscriber)(nil)
	var _ ConcurrentTranscriber = (*GeminiTranscriber)(nil)
}

// fakeTranscriber answers each chunk path with one word per second of chunk
type fakeTranscriber struct {
	words map[string][]subtitle.Word
	fail  string
	calls atomic.Int32
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (*Result, error) {
	f.calls.Add(1)
	if path == f.fail {
		return nil, errors.New("boom")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words := f.words[path]
	return &Result{Text: subtitle.Text(words), Words: words}, nil
}

func TestTranscribeChunksShiftsAndOrders(t *testing.T) {
	fake := &fakeTranscriber{words: map[string][]subtitle.Word{
		"a": {{Start: 0, End: 400, Text: "first"}},
		"b": {{Start: 100, End: 900, Text: "second"}},
		"c": {{Start: 0, End: 250, Text: "third"}},
	}}
	chunks := []audio.ChunkInfo{
		{Path: "a", Index: 0, StartTime: 0, EndTime: 10 * time.Second},
		{Path: "b", Index: 1, StartTime: 10 * time.Second, EndTime: 20 * time.Second},
		{Path: "c", Index: 2, StartTime: 20 * time.Second, EndTime: 25 * time.Second},
	}

	res, err := transcribeChunks(context.Background(), fake, chunks, 3, "en")
	if err != nil {
		t.Fatalf("transcribeChunks() error: %v", err)
	}

	want := []subtitle.Word{
		{Start: 0, End: 400, Text: "first"},
		{Start: 10100, End: 10900, Text: "second"},
		{Start: 20000, End: 20250, Text: "third"},
	}
	if !reflect.DeepEqual(res.Words, want) {
		t.Errorf("words = %+v, want %+v", res.Words, want)
	}
	if res.Text != "first second third" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Duration != 25*time.Second || res.Language != "en" {
		t.Errorf("duration/language = %v/%q", res.Duration, res.Language)
	}
}

func TestTranscribeChunksFirstErrorWins(t *testing.T) {
	fake := &fakeTranscriber{fail: "chunk-1", words: map[string][]subtitle.Word{}}
	var chunks []audio.ChunkInfo
	for i := 0; i < 10; i++ {
		chunks = append(chunks, audio.ChunkInfo{Path: fmt.Sprintf("chunk-%d", i), Index: i})
	}

	_, err := transcribeChunks(context.Background(), fake, chunks, 1, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := fake.calls.Load(); got > 3 {
		t.Errorf("expected remaining chunks to be skipped, got %d calls", got)
	}
}

func TestTranscribeChunksEmpty(t *testing.T) {
	res, err := transcribeChunks(context.Background(), &fakeTranscriber{}, nil, 2, "")
	if err != nil {
		t.Fatalf("transcribeChunks() error: %v", err)
	}
	if res.Words == nil || len(res.Words) != 0 {
		t.Errorf("expected empty word list, got %#v", res.Words)
	}
}

func TestSegmentsToWords(t *testing.T) {
	got := segmentsToWords([]segment{
		{Start: 0, End: 1.5, Text: " hello there "},
		{Start: 2, End: 2.5, Text: ""},
	}, 1000)
	want := []subtitle.Word{
		{Start: 0, End: 750, Text: "hello"},
		{Start: 750, End: 1500, Text: "there"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestPipelinePassesMediaToHostedProvider(t *testing.T) {
	fake := &fakeTranscriber{words: map[string][]subtitle.Word{
		"/videos/talk.mp4": {{Start: 0, End: 100, Text: "hi"}},
	}}
	p := &Pipeline{Transcriber: fake, Provider: ProviderAssemblyAI}

	res, err := p.Transcribe(context.Background(), "/videos/talk.mp4")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if len(res.Words) != 1 || fake.calls.Load() != 1 {
		t.Errorf("expected a single direct call, got %d calls and %+v", fake.calls.Load(), res.Words)
	}
}
