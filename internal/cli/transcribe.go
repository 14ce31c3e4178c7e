package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/capgen/internal/audio"
	"github.com/mgpai22/capgen/internal/subtitle"
	"github.com/mgpai22/capgen/internal/transcribe"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [media_file]",
	Short: "Transcribe an audio or video file into word-timed captions",
	Long: `Transcribe the given audio or video file and write word-level captions.

AssemblyAI receives the file as is. For OpenAI and Gemini the audio is
compressed to mono mp3 and, when long, split into chunks that are
transcribed in parallel.

Examples:
  capgen transcribe clip.mp4
  capgen transcribe clip.mp4 -f vtt -o clip.vtt
  capgen transcribe talk.mp3 --provider gemini -d 5 --concurrency 4
  capgen transcribe clip.mp4 -f ass --preset karaoke`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().
		String("provider", "assemblyai", "Transcription provider (assemblyai, openai, gemini)")
	transcribeCmd.Flags().
		StringP("api-key", "k", "", "API key (or set ASSEMBLYAI_API_KEY/OPENAI_API_KEY/GEMINI_API_KEY)")
	transcribeCmd.Flags().
		StringP("format", "f", "srt", "Output format (srt, vtt, ass, json)")
	transcribeCmd.Flags().
		String("preset", "bottom", "Caption preset for ass output (bottom, top, karaoke)")
	transcribeCmd.Flags().
		IntP("chunk-duration", "d", 10, "Chunk duration in minutes for chunked providers")
	transcribeCmd.Flags().
		Int("concurrency", 3, "Number of parallel transcription workers")
	transcribeCmd.Flags().
		String("model", "", "Provider model override")
	transcribeCmd.Flags().
		String("prompt", "", "Extra instructions or vocabulary for the provider")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	ctx := cmd.Context()

	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", mediaPath)
	}
	if !audio.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
	}

	providerStr, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	formatStr, _ := cmd.Flags().GetString("format")
	presetStr, _ := cmd.Flags().GetString("preset")
	chunkMinutes, _ := cmd.Flags().GetInt("chunk-duration")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	model, _ := cmd.Flags().GetString("model")
	prompt, _ := cmd.Flags().GetString("prompt")
	outputPath, _ := cmd.Flags().GetString("output")
	language, _ := cmd.Flags().GetString("language")

	provider, err := transcribe.ParseProvider(providerStr)
	if err != nil {
		return err
	}
	format, err := subtitle.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	writer, err := newCaptionWriter(format, presetStr)
	if err != nil {
		return err
	}
	if chunkMinutes <= 0 {
		return fmt.Errorf("chunk-duration must be positive, got %d", chunkMinutes)
	}
	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}

	apiKey, err = resolveAPIKey(apiKey, string(provider))
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = derivedPath(mediaPath, "", subtitle.GetExtensionForFormat(format))
	}

	logger.Infow("Starting transcription",
		"input", mediaPath,
		"output", outputPath,
		"provider", provider,
		"format", format,
	)

	tr, err := transcribe.Factory(ctx, provider, apiKey, transcribe.Options{
		Language: language,
		Model:    model,
		Prompt:   prompt,
	})
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	pipeline := &transcribe.Pipeline{
		Transcriber:   tr,
		Provider:      provider,
		ChunkDuration: time.Duration(chunkMinutes) * time.Minute,
		Concurrency:   concurrency,
		Logger:        logger,
	}

	started := time.Now()
	result, err := pipeline.Transcribe(ctx, mediaPath)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}

	logger.Infow("Transcription complete",
		"words", len(result.Words),
		"took", time.Since(started).Round(time.Millisecond),
	)

	if err := writer.Write(result.Words, outputPath); err != nil {
		return fmt.Errorf("failed to write captions: %w", err)
	}

	printDone(cmd, "Captions written", outputPath)
	return nil
}

// newCaptionWriter is subtitle.NewWriter with the preset applied to ASS.
func newCaptionWriter(format subtitle.Format, presetStr string) (subtitle.Writer, error) {
	if format == subtitle.FormatASS {
		preset, err := subtitle.ParsePreset(presetStr)
		if err != nil {
			return nil, err
		}
		return subtitle.NewASSWriter(preset), nil
	}
	return subtitle.NewWriter(format)
}
