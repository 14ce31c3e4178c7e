package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mgpai22/capgen/internal/subtitle"
)

func TestFactoryReturnsProviderTranslators(t *testing.T) {
	ctx := context.Background()
	opts := Options{TargetLanguage: "Japanese"}

	tests := []struct {
		provider Provider
		check    func(Translator) bool
	}{
		{ProviderGemini, func(tr Translator) bool { _, ok := tr.(*GeminiTranslator); return ok }},
		{ProviderOpenAI, func(tr Translator) bool { _, ok := tr.(*OpenAITranslator); return ok }},
		{ProviderAnthropic, func(tr Translator) bool { _, ok := tr.(*AnthropicTranslator); return ok }},
	}
	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			tr, err := Factory(ctx, tt.provider, "fake-key", opts)
			if err != nil {
				t.Fatalf("Factory(%s) returned error: %v", tt.provider, err)
			}
			if !tt.check(tr) {
				t.Errorf("unexpected translator type %T", tr)
			}
		})
	}
}

func TestFactoryRequiresTargetLanguage(t *testing.T) {
	if _, err := Factory(context.Background(), ProviderGemini, "fake-key", Options{}); err == nil {
		t.Error("expected error for missing target language")
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	opts := Options{TargetLanguage: "French"}
	if _, err := Factory(context.Background(), Provider("unknown"), "fake-key", opts); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	opts := Options{TargetLanguage: "French"}
	for _, p := range []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic} {
		if _, err := Factory(context.Background(), p, "", opts); err == nil {
			t.Errorf("%s: expected error without API key", p)
		}
	}
}

// echoCompleter answers every prompt by upper-casing the input items
func echoCompleter(calls *atomic.Int32) completeFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		start := strings.Index(prompt, "Input JSON:\n") + len("Input JSON:\n")
		end := strings.LastIndex(prompt, "\n\nOutput")
		var items []TranslationItem
		if err := json.Unmarshal([]byte(prompt[start:end]), &items); err != nil {
			return "", err
		}
		for i := range items {
			items[i].Text = strings.ToUpper(items[i].Text)
		}
		out, _ := json.Marshal(items)
		return "```json\n" + string(out) + "\n```", nil
	}
}

func TestBatcherTranslateWithConcurrency(t *testing.T) {
	var calls atomic.Int32
	b := &batcher{options: Options{TargetLanguage: "x", BatchSize: 3}, complete: echoCompleter(&calls)}

	var items []TranslationItem
	for i := 0; i < 10; i++ {
		items = append(items, TranslationItem{Index: i, Text: fmt.Sprintf("line %d", i)})
	}

	results, err := b.TranslateWithConcurrency(context.Background(), items, 4)
	if err != nil {
		t.Fatalf("TranslateWithConcurrency() error: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i || r.Text != fmt.Sprintf("LINE %d", i) {
			t.Errorf("result %d = %+v", i, r)
		}
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("expected 4 batches, got %d", got)
	}
}

func TestBatcherPropagatesErrors(t *testing.T) {
	b := &batcher{
		options: Options{TargetLanguage: "x", BatchSize: 1},
		complete: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("rate limited")
		},
	}
	items := []TranslationItem{{Index: 0, Text: "a"}, {Index: 1, Text: "b"}}
	if _, err := b.TranslateWithConcurrency(context.Background(), items, 2); err == nil {
		t.Error("expected error")
	}
	if _, err := b.Translate(context.Background(), items[:1]); err == nil {
		t.Error("expected error from sequential path")
	}
}

func TestParseResponseChecksIndices(t *testing.T) {
	items := []TranslationItem{{Index: 4, Text: "a"}, {Index: 5, Text: "b"}}

	if _, err := parseResponse(`[{"index": 4, "text": "A"}, {"index": 5, "text": "B"}]`, items); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := parseResponse(`[{"index": 4, "text": "A"}]`, items); err == nil {
		t.Error("expected count mismatch error")
	}
	if _, err := parseResponse(`[{"index": 4, "text": "A"}, {"index": 4, "text": "B"}]`, items); err == nil {
		t.Error("expected duplicate index error")
	}
	if _, err := parseResponse("", items); err == nil {
		t.Error("expected error for empty response")
	}
}

func TestTranslateWords(t *testing.T) {
	var calls atomic.Int32
	tr := &GeminiTranslator{}
	tr.batcher = batcher{options: Options{TargetLanguage: "x"}, complete: echoCompleter(&calls)}

	words := []subtitle.Word{
		{Start: 0, End: 500, Text: "hello"},
		{Start: 500, End: 1200, Text: "there."},
		{Start: 5000, End: 5600, Text: "again"},
	}

	got, err := TranslateWords(context.Background(), tr, words, subtitle.DefaultGroupOptions(), 2)
	if err != nil {
		t.Fatalf("TranslateWords() error: %v", err)
	}
	want := []subtitle.Word{
		{Start: 0, End: 600, Text: "HELLO"},
		{Start: 600, End: 1200, Text: "THERE."},
		{Start: 5000, End: 5600, Text: "AGAIN"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestTranslateWordsEmpty(t *testing.T) {
	tr := &OpenAITranslator{}
	got, err := TranslateWords(context.Background(), tr, nil, subtitle.DefaultGroupOptions(), 1)
	if err != nil || len(got) != 0 {
		t.Errorf("got (%v, %v), want empty", got, err)
	}
}

// Integration test: only runs if OPENAI_API_KEY is set
func TestOpenAITranslatorIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set; skipping integration test")
	}

	ctx := context.Background()
	translator, err := NewOpenAITranslator(ctx, apiKey, Options{TargetLanguage: "Spanish"})
	if err != nil {
		t.Fatalf("NewOpenAITranslator error: %v", err)
	}

	results, err := translator.Translate(ctx, []TranslationItem{
		{Index: 0, Text: "Hello"},
		{Index: 1, Text: "Goodbye"},
	})
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	for _, r := range results {
		if r.Text == "" {
			t.Errorf("result index %d has empty text", r.Index)
		}
	}
}
