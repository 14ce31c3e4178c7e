package transcribe

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/mgpai22/capgen/internal/subtitle"
)

// implements Transcriber using AssemblyAI's hosted pipeline: the media is
// uploaded, a transcript is submitted, then polled until it settles
type AssemblyAITranscriber struct {
	client  *aai.Client
	options Options
}

func NewAssemblyAITranscriber(apiKey string, opts Options) (*AssemblyAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	clientOpts := []aai.ClientOption{
		aai.WithAPIKey(apiKey),
		aai.WithHTTPClient(&http.Client{Timeout: 5 * time.Minute}),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, aai.WithBaseURL(opts.BaseURL))
	}

	return &AssemblyAITranscriber{
		client:  aai.NewClientWithOptions(clientOpts...),
		options: opts,
	}, nil
}

func (t *AssemblyAITranscriber) Transcribe(ctx context.Context, mediaPath string) (*Result, error) {
	file, err := os.Open(mediaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("media file not found: %s", mediaPath)
		}
		return nil, fmt.Errorf("failed to open media file: %w", err)
	}
	defer file.Close()

	uploadURL, err := t.client.Upload(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	transcript, err := t.client.Transcripts.SubmitFromURL(ctx, uploadURL, &aai.TranscriptOptionalParams{
		LanguageCode: aai.TranscriptLanguageCode(t.language()),
		Punctuate:    ptr(true),
		FormatText:   ptr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit transcript: %w", err)
	}

	transcript, err = t.wait(ctx, transcript)
	if err != nil {
		return nil, err
	}

	words := assemblyWords(transcript.Words)
	return &Result{
		Text:     resultText(deref(transcript.Text), words),
		Words:    words,
		Language: t.language(),
		Duration: durationOf(words),
	}, nil
}

// wait polls until the transcript completes or fails
func (t *AssemblyAITranscriber) wait(ctx context.Context, transcript aai.Transcript) (aai.Transcript, error) {
	id := deref(transcript.ID)
	if id == "" {
		return transcript, fmt.Errorf("transcript submission returned no id")
	}

	ticker := time.NewTicker(t.options.pollInterval())
	defer ticker.Stop()

	for {
		switch transcript.Status {
		case aai.TranscriptStatusCompleted:
			return transcript, nil
		case aai.TranscriptStatusError:
			return transcript, fmt.Errorf("transcription failed: %s", deref(transcript.Error))
		}

		select {
		case <-ctx.Done():
			return transcript, ctx.Err()
		case <-ticker.C:
		}

		var err error
		transcript, err = t.client.Transcripts.Get(ctx, id)
		if err != nil {
			return transcript, fmt.Errorf("failed to poll transcript %s: %w", id, err)
		}
	}
}

func (t *AssemblyAITranscriber) language() string {
	if t.options.Language == "" {
		return "en"
	}
	return t.options.Language
}

// AssemblyAI reports word times in milliseconds; absent fields fall back to
// the usual word defaults
func assemblyWords(in []aai.TranscriptWord) []subtitle.Word {
	raw := make([]subtitle.RawWord, len(in))
	for i, w := range in {
		raw[i] = subtitle.RawWord{
			Start: int64Ptr(w.Start),
			End:   int64Ptr(w.End),
			Text:  w.Text,
		}
	}
	return subtitle.NormalizeAll(raw)
}

func int64Ptr(v *int64) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
