package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mgpai22/capgen/internal/logging"
	"github.com/mgpai22/capgen/internal/subtitle"
	"github.com/mgpai22/capgen/internal/video"
)

// BurnFunc renders an ASS script onto a video
type BurnFunc func(ctx context.Context, videoPath, assPath, outputPath string) error

// ProbeFunc reports a video's dimensions
type ProbeFunc func(ctx context.Context, path string) (*video.Info, error)

type RenderHandler struct {
	uploadPath string
	renderPath string
	burn       BurnFunc
	probe      ProbeFunc
	log        *logging.Logger
}

func NewRenderHandler(uploadPath, renderPath string, burn BurnFunc, probe ProbeFunc, log *logging.Logger) *RenderHandler {
	if burn == nil {
		burn = video.BurnCaptions
	}
	if probe == nil {
		probe = video.Probe
	}
	return &RenderHandler{
		uploadPath: uploadPath,
		renderPath: renderPath,
		burn:       burn,
		probe:      probe,
		log:        log,
	}
}

type renderRequest struct {
	Preset   string          `json:"preset"`
	Words    json.RawMessage `json:"words"`
	VideoURL string          `json:"videoUrl"`
}

// Render burns the posted words into a previously uploaded video using the
// chosen caption preset and streams the result back as mp4.
func (h *RenderHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		bodyError(w, err, "invalid JSON body")
		return
	}

	preset, err := subtitle.ParsePreset(req.Preset)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	words := []subtitle.Word{}
	if len(req.Words) > 0 && string(req.Words) != "null" {
		if words, err = subtitle.WordsFromJSON(req.Words); err != nil {
			jsonError(w, "words must be an array", http.StatusBadRequest)
			return
		}
	}

	videoPath, ok := h.resolveVideo(req.VideoURL)
	if !ok {
		jsonError(w, "video not found", http.StatusNotFound)
		return
	}

	if err := os.MkdirAll(h.renderPath, 0755); err != nil {
		h.log.Errorw("failed to create render dir", "error", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}

	id := uuid.New().String()
	assPath := filepath.Join(h.renderPath, id+".ass")
	outPath := filepath.Join(h.renderPath, id+".mp4")
	defer os.Remove(assPath)
	defer os.Remove(outPath)

	writer := subtitle.NewASSWriter(preset)
	if info, err := h.probe(r.Context(), videoPath); err == nil && info.Width > 0 && info.Height > 0 {
		writer.Width, writer.Height = info.Width, info.Height
	} else if err != nil {
		h.log.Debugw("probe failed, using default resolution", "error", err)
	}
	if err := writer.Write(words, assPath); err != nil {
		h.log.Errorw("failed to write captions", "error", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}

	log := h.log.With("render", id, "preset", preset)
	log.Infow("rendering", "video", videoPath, "words", len(words))
	if err := h.burn(r.Context(), videoPath, assPath, outPath); err != nil {
		log.Errorw("render failed", "error", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="captioned.mp4"`)
	http.ServeFile(w, r, outPath)
}

// resolveVideo maps a /videos/<name> URL (absolute or relative) back to a
// file in the upload directory. Only the final path element is trusted.
func (h *RenderHandler) resolveVideo(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	return uploadFile(h.uploadPath, path.Base(u.Path))
}

func uploadFile(dir, name string) (string, bool) {
	if name == "" || name == "." || name == "/" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, "..") {
		return "", false
	}
	full := filepath.Join(dir, name)
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", false
	}
	return full, true
}
