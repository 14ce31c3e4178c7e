package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/capgen/internal/subtitle"
	"github.com/mgpai22/capgen/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [caption_file]",
	Short: "Translate captions to another language using AI",
	Long: `Translate a caption file (.srt, .vtt or .json) to another language.

Words are grouped into caption cues, each cue is translated as a unit and
the translation is spread evenly over the cue's original time range.

Examples:
  capgen translate clip.srt --target-language japanese
  capgen translate words.json -t es --provider anthropic -o words.es.json
  capgen translate clip.vtt -l english -t german -f ass`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for translation (required)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	translateCmd.Flags().
		String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	translateCmd.Flags().
		String("provider", "gemini", "Translation provider (gemini, openai, anthropic)")
	translateCmd.Flags().
		String("prompt", "", "Additional instructions for the translator")
	translateCmd.Flags().
		StringP("format", "f", "", "Output format (srt, vtt, ass, json); defaults to the input's")
	translateCmd.Flags().
		String("preset", "bottom", "Caption preset for ass output (bottom, top, karaoke)")
	translateCmd.Flags().
		Int("concurrency", 3, "Number of parallel translation workers")
	translateCmd.Flags().
		Int("batch-size", translate.DefaultBatchSize, "Number of caption cues per API request")

	_ = translateCmd.MarkFlagRequired("target-language")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	captionPath := args[0]
	ctx := cmd.Context()

	targetLang, _ := cmd.Flags().GetString("target-language")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	providerStr, _ := cmd.Flags().GetString("provider")
	prompt, _ := cmd.Flags().GetString("prompt")
	formatStr, _ := cmd.Flags().GetString("format")
	presetStr, _ := cmd.Flags().GetString("preset")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	outputPath, _ := cmd.Flags().GetString("output")
	inputLang, _ := cmd.Flags().GetString("language")

	if _, err := os.Stat(captionPath); os.IsNotExist(err) {
		return fmt.Errorf("caption file not found: %s", captionPath)
	}

	targetLang = strings.TrimSpace(targetLang)
	if targetLang == "" {
		return fmt.Errorf("target language is required")
	}
	if inputLang != "" && strings.EqualFold(strings.TrimSpace(inputLang), targetLang) {
		return fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			targetLang,
		)
	}
	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

	provider, err := translate.ParseProvider(providerStr)
	if err != nil {
		return err
	}

	if formatStr == "" && outputPath != "" {
		formatStr = filepath.Ext(outputPath)
	}
	if formatStr == "" {
		formatStr = filepath.Ext(captionPath)
	}
	format, err := subtitle.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	writer, err := newCaptionWriter(format, presetStr)
	if err != nil {
		return err
	}

	apiKey, err = resolveAPIKey(apiKey, string(provider))
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = derivedPath(captionPath, targetLang, subtitle.GetExtensionForFormat(format))
	}

	words, err := subtitle.Open(captionPath)
	if err != nil {
		return fmt.Errorf("failed to parse caption file: %w", err)
	}
	if len(words) == 0 {
		return fmt.Errorf("caption file contains no words")
	}

	logger.Infow("Starting caption translation",
		"input", captionPath,
		"output", outputPath,
		"target_language", targetLang,
		"input_language", inputLang,
		"provider", provider,
		"words", len(words),
	)

	translator, err := translate.Factory(ctx, provider, apiKey, translate.Options{
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          model,
		Prompt:         prompt,
		BatchSize:      batchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	translated, err := translate.TranslateWords(ctx, translator, words, subtitle.DefaultGroupOptions(), concurrency)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	logger.Infow("Translation complete", "words", len(translated))

	if err := writer.Write(translated, outputPath); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	printDone(cmd, "Captions translated", outputPath)
	return nil
}
