package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/capgen/internal/subtitle"
)

var srt2wordsCmd = &cobra.Command{
	Use:   "srt2words [file.srt]",
	Short: "Decode a SubRip file into a JSON word array",
	Long: `Decode SubRip text into {start, end, text} words with millisecond
timestamps. Multi-word blocks are split evenly across their time range.
Malformed blocks are skipped. Use "-" to read stdin.

Examples:
  capgen srt2words clip.srt
  capgen srt2words clip.srt -o clip.json
  cat clip.srt | capgen srt2words -`,
	Args: cobra.ExactArgs(1),
	RunE: runSRT2Words,
}

var words2srtCmd = &cobra.Command{
	Use:   "words2srt [file.json]",
	Short: "Encode a JSON word array as SubRip, one block per word",
	Long: `Encode a JSON array of word objects as SubRip. Missing or invalid
start/end values become 0 and missing text becomes empty. Use "-" to read
stdin.

Examples:
  capgen words2srt words.json
  capgen words2srt words.json -o clip.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runWords2SRT,
}

var convertCmd = &cobra.Command{
	Use:   "convert [input]",
	Short: "Convert captions between srt, vtt, ass and json",
	Long: `Read captions in any supported format and write them in another.

The input format is taken from its extension (.srt, .vtt, .json). The
output format comes from --format or, failing that, the output extension.

Examples:
  capgen convert clip.srt -o clip.vtt
  capgen convert words.json -o clip.ass --preset karaoke
  capgen convert clip.vtt -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(srt2wordsCmd)
	rootCmd.AddCommand(words2srtCmd)
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		StringP("format", "f", "", "Output format (srt, vtt, ass, json)")
	convertCmd.Flags().
		String("preset", "bottom", "Caption preset for ass output (bottom, top, karaoke)")
}

func runSRT2Words(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	out, err := subtitle.WordsToJSON(subtitle.SRTToWords(string(data)))
	if err != nil {
		return err
	}
	outputPath, _ := cmd.Flags().GetString("output")
	return writeOutput(cmd, outputPath, append(out, '\n'))
}

func runWords2SRT(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	raw, err := subtitle.RawWordsFromJSON(data)
	if err != nil {
		return err
	}
	outputPath, _ := cmd.Flags().GetString("output")
	return writeOutput(cmd, outputPath, []byte(subtitle.RawWordsToSRT(raw)))
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	formatStr, _ := cmd.Flags().GetString("format")
	presetStr, _ := cmd.Flags().GetString("preset")
	outputPath, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("caption file not found: %s", inputPath)
	}

	var format subtitle.Format
	switch {
	case formatStr != "":
		f, err := subtitle.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		format = f
	case outputPath != "":
		f, err := subtitle.ParseFormat(filepath.Ext(outputPath))
		if err != nil {
			return fmt.Errorf("cannot infer output format from %s: use --format", outputPath)
		}
		format = f
	default:
		return fmt.Errorf("output format is required: use --format or --output")
	}

	if outputPath == "" {
		outputPath = derivedPath(inputPath, "", subtitle.GetExtensionForFormat(format))
	}
	if filepath.Clean(outputPath) == filepath.Clean(inputPath) {
		return fmt.Errorf("output would overwrite input %s", inputPath)
	}

	words, err := subtitle.Open(inputPath)
	if err != nil {
		return err
	}

	writer, err := newCaptionWriter(format, presetStr)
	if err != nil {
		return err
	}

	logger.Infow("Converting captions",
		"input", inputPath,
		"output", outputPath,
		"format", format,
		"words", len(words),
	)
	if err := writer.Write(words, outputPath); err != nil {
		return fmt.Errorf("failed to write captions: %w", err)
	}

	printDone(cmd, "Captions written", outputPath)
	return nil
}
