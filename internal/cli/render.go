package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mgpai22/capgen/internal/subtitle"
	"github.com/mgpai22/capgen/internal/video"
)

var renderCmd = &cobra.Command{
	Use:   "render [video_file]",
	Short: "Burn captions into a video",
	Long: `Render word captions onto a video with one of the caption presets.

The captions file may be .srt, .vtt or .json. The output is H.264 mp4 with
the original audio copied.

Examples:
  capgen render clip.mp4 --captions clip.srt
  capgen render clip.mp4 -c words.json --preset karaoke -o out.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().
		StringP("captions", "c", "", "Caption file to burn in (required)")
	renderCmd.Flags().
		String("preset", "bottom", "Caption preset (bottom, top, karaoke)")
	renderCmd.Flags().
		Bool("keep-ass", false, "Keep the generated .ass script next to the output")

	_ = renderCmd.MarkFlagRequired("captions")
}

func runRender(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	ctx := cmd.Context()

	captionsPath, _ := cmd.Flags().GetString("captions")
	presetStr, _ := cmd.Flags().GetString("preset")
	keepASS, _ := cmd.Flags().GetBool("keep-ass")
	outputPath, _ := cmd.Flags().GetString("output")

	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", videoPath)
	}
	preset, err := subtitle.ParsePreset(presetStr)
	if err != nil {
		return err
	}

	words, err := subtitle.Open(captionsPath)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = derivedPath(videoPath, "captioned", ".mp4")
	}

	writer := subtitle.NewASSWriter(preset)
	info, err := video.Probe(ctx, videoPath)
	if err != nil {
		return err
	}
	if info.Width > 0 && info.Height > 0 {
		writer.Width, writer.Height = info.Width, info.Height
	}

	assPath := derivedPath(outputPath, "", ".ass")
	if !keepASS {
		tmp, err := os.MkdirTemp("", "capgen-render-*")
		if err != nil {
			return fmt.Errorf("failed to create temp directory: %w", err)
		}
		defer os.RemoveAll(tmp)
		assPath = filepath.Join(tmp, "captions.ass")
	}
	if err := writer.Write(words, assPath); err != nil {
		return fmt.Errorf("failed to write captions: %w", err)
	}

	logger.Infow("Rendering captions",
		"video", videoPath,
		"output", outputPath,
		"preset", preset,
		"words", len(words),
		"resolution", fmt.Sprintf("%dx%d", writer.Width, writer.Height),
	)

	if err := video.BurnCaptions(ctx, videoPath, assPath, outputPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	printDone(cmd, "Video rendered", outputPath)
	return nil
}
