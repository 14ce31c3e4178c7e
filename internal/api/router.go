package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mgpai22/capgen/internal/api/handlers"
	"github.com/mgpai22/capgen/internal/api/middleware"
	"github.com/mgpai22/capgen/internal/config"
	"github.com/mgpai22/capgen/internal/logging"
	"github.com/mgpai22/capgen/internal/store"
	"github.com/mgpai22/capgen/internal/transcribe"
)

// JSON and SRT bodies
const maxJSONBody = 8 << 20

type Deps struct {
	Config      *config.Config
	Store       *store.Store
	Transcriber transcribe.Transcriber
	Logger      *logging.Logger

	// nil means ffmpeg via internal/video
	Burn  handlers.BurnFunc
	Probe handlers.ProbeFunc
}

func NewRouter(d Deps) *chi.Mux {
	cfg := d.Config
	log := d.Logger
	if log == nil {
		log = logging.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))

	transcribeHandler := handlers.NewTranscribeHandler(
		d.Store, d.Transcriber, cfg.TranscribeProvider,
		cfg.UploadPath, cfg.PropsPath, cfg.MaxUploadBytes(), log,
	)
	renderHandler := handlers.NewRenderHandler(cfg.UploadPath, cfg.RenderPath, d.Burn, d.Probe, log)
	videoHandler := handlers.NewVideoHandler(cfg.UploadPath)
	transcriptHandler := handlers.NewTranscriptHandler(d.Store, log)

	// routes the caption app calls
	r.Post("/transcribe", transcribeHandler.Transcribe)
	r.Post("/upload", transcribeHandler.Upload)
	r.With(middleware.MaxBodySize(maxJSONBody)).Post("/render", renderHandler.Render)
	r.Get("/videos/{name}", videoHandler.Serve)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBodySize(maxJSONBody))
			r.Post("/srt/encode", handlers.EncodeSRT)
			r.Post("/srt/decode", handlers.DecodeSRT)
		})

		r.Get("/transcripts", transcriptHandler.List)
		r.Get("/transcripts/{id}", transcriptHandler.Get)
		r.Get("/transcripts/{id}/captions.{ext}", transcriptHandler.Captions)
		r.Delete("/transcripts/{id}", transcriptHandler.Delete)
	})

	return r
}
