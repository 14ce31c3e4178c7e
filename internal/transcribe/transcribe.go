package transcribe

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mgpai22/capgen/internal/audio"
	"github.com/mgpai22/capgen/internal/subtitle"
)

// DefaultPollInterval is how often a hosted transcript is checked for completion.
const DefaultPollInterval = 3 * time.Second

// transcription result
type Result struct {
	Text     string
	Words    []subtitle.Word
	Language string
	Duration time.Duration
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (*Result, error)
}

type ConcurrentTranscriber interface {
	Transcriber
	TranscribeWithChunks(
		ctx context.Context,
		chunks []audio.ChunkInfo,
		concurrency int,
	) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderAssemblyAI Provider = "assemblyai"
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
)

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ProviderAssemblyAI, nil
	case ProviderAssemblyAI, ProviderOpenAI, ProviderGemini:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", s)
	}
}

// transcription options
type Options struct {
	Language     string // spoken language; providers that need one default to English
	Model        string
	Prompt       string
	PollInterval time.Duration
	BaseURL      string // API endpoint override, mostly for tests
}

func (o Options) pollInterval() time.Duration {
	if o.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return o.PollInterval
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderAssemblyAI, "":
		return NewAssemblyAITranscriber(apiKey, opts)
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// holds the result of transcribing a chunk
type chunkResult struct {
	Index int
	Words []subtitle.Word
	Text  string
	Error error
}

// transcribeChunks fans chunks out to a bounded pool of workers, shifts each
// chunk's words by its start offset and merges them in chunk order. The first
// failure cancels the remaining work.
func transcribeChunks(
	ctx context.Context,
	t Transcriber,
	chunks []audio.ChunkInfo,
	concurrency int,
	language string,
) (*Result, error) {
	if len(chunks) == 0 {
		return &Result{Words: []subtitle.Word{}, Language: language}, nil
	}
	if concurrency <= 0 {
		concurrency = 3
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workChan := make(chan audio.ChunkInfo)
	resultChan := make(chan chunkResult, len(chunks))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range workChan {
				if ctx.Err() != nil {
					return
				}
				res, err := t.Transcribe(ctx, chunk.Path)
				if err != nil {
					cancel()
					resultChan <- chunkResult{Index: chunk.Index, Error: err}
					continue
				}
				resultChan <- chunkResult{
					Index: chunk.Index,
					Words: subtitle.Shift(res.Words, chunk.Offset()),
					Text:  res.Text,
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for _, chunk := range chunks {
			select {
			case <-ctx.Done():
				return
			case workChan <- chunk:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]chunkResult, 0, len(chunks))
	var firstErr error
	for result := range resultChan {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("chunk %d failed: %w", result.Index, result.Error)
			}
			continue
		}
		results = append(results, result)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil && len(results) != len(chunks) {
		return nil, err
	}

	// sort by index to maintain order
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	words := []subtitle.Word{}
	texts := make([]string, 0, len(results))
	for _, r := range results {
		words = append(words, r.Words...)
		if s := strings.TrimSpace(r.Text); s != "" {
			texts = append(texts, s)
		}
	}

	return &Result{
		Text:     strings.Join(texts, " "),
		Words:    words,
		Language: language,
		Duration: chunks[len(chunks)-1].EndTime,
	}, nil
}

// segment-level timing, used when a provider cannot give word timestamps
type segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// segmentsToWords spreads each segment's text evenly over its range.
// scale converts the segment's unit to milliseconds.
func segmentsToWords(segments []segment, scale float64) []subtitle.Word {
	words := []subtitle.Word{}
	for _, seg := range segments {
		words = append(words, subtitle.Split(
			seg.Text,
			toMillis(seg.Start, scale),
			toMillis(seg.End, scale),
		)...)
	}
	return words
}

func toMillis(v, scale float64) int64 {
	return int64(math.Round(v * scale))
}

// seconds as float -> raw millisecond value for the defaults table
func secondsPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	ms := math.Round(*v * 1000)
	return &ms
}

func resultText(text string, words []subtitle.Word) string {
	if s := strings.TrimSpace(text); s != "" {
		return s
	}
	return subtitle.Text(words)
}

func durationOf(words []subtitle.Word) time.Duration {
	if len(words) == 0 {
		return 0
	}
	return time.Duration(words[len(words)-1].End) * time.Millisecond
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
