package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgpai22/capgen/internal/audio"
	"github.com/mgpai22/capgen/internal/logging"
)

// DefaultChunkDuration keeps each upload well inside the request limits of
// the OpenAI and Gemini audio endpoints.
const DefaultChunkDuration = 10 * time.Minute

// Pipeline prepares local media before handing it to a provider. Hosted
// providers that ingest video themselves receive the file untouched; the
// others get a compact mono mp3, split into chunks when it is long.
type Pipeline struct {
	Transcriber   Transcriber
	Provider      Provider
	ChunkDuration time.Duration
	Concurrency   int
	TempDir       string
	Logger        *logging.Logger
}

func (p *Pipeline) Transcribe(ctx context.Context, mediaPath string) (*Result, error) {
	if p.Provider == ProviderAssemblyAI || p.Provider == "" {
		return p.Transcriber.Transcribe(ctx, mediaPath)
	}

	log := p.Logger
	if log == nil {
		log = logging.Nop()
	}

	workDir, err := os.MkdirTemp(p.TempDir, "capgen-audio-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	audioPath := filepath.Join(workDir, base+".mp3")

	log.Debugw("compressing audio", "input", mediaPath, "output", audioPath)
	if err := audio.CompressAudio(ctx, mediaPath, audioPath, audio.DefaultCompressionOptions()); err != nil {
		return nil, err
	}

	chunkDuration := p.ChunkDuration
	if chunkDuration <= 0 {
		chunkDuration = DefaultChunkDuration
	}

	concurrent, ok := p.Transcriber.(ConcurrentTranscriber)
	if !ok {
		return p.Transcriber.Transcribe(ctx, audioPath)
	}

	duration, err := audio.GetDuration(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	if duration <= chunkDuration {
		return p.Transcriber.Transcribe(ctx, audioPath)
	}

	chunks, err := audio.ChunkAudio(ctx, audioPath, chunkDuration, filepath.Join(workDir, "chunks"), 0)
	if err != nil {
		return nil, err
	}
	defer audio.CleanupChunks(chunks)

	log.Infow("transcribing in chunks", "chunks", len(chunks), "duration", duration)
	return concurrent.TranscribeWithChunks(ctx, chunks, p.Concurrency)
}
