package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/capgen/internal/config"
	"github.com/mgpai22/capgen/internal/logging"
)

var (
	verbose  bool
	envFiles []string
	logger   *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "capgen",
	Short: "Word-level captions for short videos",
	Long: `capgen transcribes videos into word-timed captions, converts them
between SRT, WebVTT, ASS and JSON, translates them and burns them into video.

Run "capgen serve" to start the HTTP relay used by the caption app.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)
		return config.LoadEnvFiles(envFiles...)
	},
}

func Execute() error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Language code (e.g., en, es, fr)")
	rootCmd.PersistentFlags().
		StringSliceVar(&envFiles, "env-file", nil, "Load environment from these files (default .env)")
}

// resolveAPIKey prefers the flag, then the provider's environment variable.
func resolveAPIKey(flagValue, provider string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if key := cfg.APIKey(provider); key != "" {
		return key, nil
	}
	return "", fmt.Errorf(
		"API key is required: use --api-key flag or set %s_API_KEY environment variable",
		strings.ToUpper(provider),
	)
}

// derivedPath swaps the extension of input, inserting an optional tag
// (video.mp4, "en", ".srt" -> video.en.srt).
func derivedPath(input, tag, ext string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if tag != "" {
		base += "." + tag
	}
	return base + ext
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func printDone(cmd *cobra.Command, what, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", what, abs)
}
