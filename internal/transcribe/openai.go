package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mgpai22/capgen/internal/audio"
	"github.com/mgpai22/capgen/internal/subtitle"
)

// implements Transcriber interface using OpenAI Audio API
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
}

type whisperWord struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Word  *string  `json:"word"`
}

// verbose_json response structure from Whisper
type whisperVerboseResponse struct {
	Text     string        `json:"text"`
	Words    []whisperWord `json:"words"`
	Segments []segment     `json:"segments"`
	Language string        `json:"language"`
	Duration float64       `json:"duration"`
}

func NewOpenAITranscriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}

	return &OpenAITranscriber{
		client:  openai.NewClient(reqOpts...),
		model:   model,
		options: opts,
	}, nil
}

// transcribes single audio file with word timestamps
func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
) (*Result, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("audio file not found: %s", audioPath)
		}
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word", "segment"},
	}
	if t.options.Language != "" {
		params.Language = openai.String(t.options.Language)
	}
	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	result, err := parseVerboseJSONResponse(resp.RawJSON())
	if err != nil {
		return nil, err
	}
	if result.Language == "" {
		result.Language = t.options.Language
	}
	if result.Duration == 0 {
		result.Duration, _ = audio.GetDuration(ctx, audioPath)
	}
	return result, nil
}

// parseVerboseJSONResponse prefers word timestamps, then segments split
// evenly, then a bare text answer with no timing at all.
func parseVerboseJSONResponse(rawJSON string) (*Result, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var resp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	var words []subtitle.Word
	switch {
	case len(resp.Words) > 0:
		raw := make([]subtitle.RawWord, 0, len(resp.Words))
		for _, w := range resp.Words {
			var text *string
			if w.Word != nil {
				s := strings.TrimSpace(*w.Word)
				text = &s
			}
			raw = append(raw, subtitle.RawWord{
				Start: secondsPtr(w.Start),
				End:   secondsPtr(w.End),
				Text:  text,
			})
		}
		words = subtitle.NormalizeAll(raw)
	case len(resp.Segments) > 0:
		words = segmentsToWords(resp.Segments, 1000)
	case strings.TrimSpace(resp.Text) != "":
		words = subtitle.Split(resp.Text, 0, toMillis(resp.Duration, 1000))
	default:
		return nil, fmt.Errorf("no words, segments or text in response")
	}

	duration := durationOf(words)
	if resp.Duration > 0 {
		duration = secondsToDuration(resp.Duration)
	}

	return &Result{
		Text:     resultText(resp.Text, words),
		Words:    words,
		Language: resp.Language,
		Duration: duration,
	}, nil
}

// transcribes multiple chunks in parallel
func (t *OpenAITranscriber) TranscribeWithChunks(
	ctx context.Context,
	chunks []audio.ChunkInfo,
	concurrency int,
) (*Result, error) {
	return transcribeChunks(ctx, t, chunks, concurrency, t.options.Language)
}
