package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/capgen/internal/api"
	"github.com/mgpai22/capgen/internal/config"
	"github.com/mgpai22/capgen/internal/ffmpeg"
	"github.com/mgpai22/capgen/internal/store"
	"github.com/mgpai22/capgen/internal/transcribe"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the transcription relay for the caption app",
	Long: `Start the HTTP server the caption app talks to.

Uploads posted to /transcribe are transcribed with the configured provider
and kept so /render can burn captions into them. Configuration comes from
the environment (PORT, DATA_PATH, TRANSCRIBE_PROVIDER, ASSEMBLYAI_API_KEY, ...),
optionally preloaded from .env.

Examples:
  capgen serve
  capgen serve --port 8080 --provider gemini`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Listen port (overrides PORT)")
	serveCmd.Flags().String("provider", "", "Transcription provider: assemblyai, openai, gemini (overrides TRANSCRIBE_PROVIDER)")
	serveCmd.Flags().String("model", "", "Provider model override")
	serveCmd.Flags().Int("concurrency", 3, "Parallel chunk transcriptions for chunked providers")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Port = port
	}
	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		cfg.TranscribeProvider = p
	}
	model, _ := cmd.Flags().GetString("model")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	language, _ := cmd.Flags().GetString("language")

	provider, err := transcribe.ParseProvider(cfg.TranscribeProvider)
	if err != nil {
		return err
	}
	cfg.TranscribeProvider = string(provider)

	apiKey := cfg.APIKey(string(provider))
	if apiKey == "" {
		return fmt.Errorf("no API key configured for provider %s", provider)
	}

	// assemblyai transcription works without ffmpeg, /render does not
	if paths, err := ffmpeg.Ensure(); err != nil {
		logger.Warnw("ffmpeg not found, rendering will fail", "error", err)
	} else {
		logger.Debugw("using ffmpeg", "ffmpeg", paths.FFmpeg, "ffprobe", paths.FFprobe)
	}

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	tr, err := transcribe.Factory(ctx, provider, apiKey, transcribe.Options{
		Language:     language,
		Model:        model,
		PollInterval: cfg.PollInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	router := api.NewRouter(api.Deps{
		Config: cfg,
		Store:  st,
		Transcriber: &transcribe.Pipeline{
			Transcriber: tr,
			Provider:    provider,
			Concurrency: concurrency,
			Logger:      logger,
		},
		Logger: logger,
	})

	logger.Infow("capgen relay configured",
		"provider", provider,
		"data", cfg.DataPath,
		"db", cfg.DBPath,
		"cors", cfg.CORSOrigins,
	)
	return api.Serve(ctx, fmt.Sprintf(":%d", cfg.Port), router, logger)
}
