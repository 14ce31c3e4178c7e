package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mgpai22/capgen/internal/logging"
	"github.com/mgpai22/capgen/internal/store"
	"github.com/mgpai22/capgen/internal/subtitle"
)

type TranscriptHandler struct {
	store *store.Store
	log   *logging.Logger
}

func NewTranscriptHandler(st *store.Store, log *logging.Logger) *TranscriptHandler {
	return &TranscriptHandler{store: st, log: log}
}

func (h *TranscriptHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	transcripts, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.log.Errorw("failed to list transcripts", "error", err)
		jsonError(w, "failed to list transcripts", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, transcripts, http.StatusOK)
}

func (h *TranscriptHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonResponse(w, t, http.StatusOK)
}

// Captions renders a transcript's words in the format named by {ext}.
func (h *TranscriptHandler) Captions(w http.ResponseWriter, r *http.Request) {
	format, err := subtitle.ParseFormat(chi.URLParam(r, "ext"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	t, ok := h.load(w, r)
	if !ok {
		return
	}
	if t.Status != store.StatusCompleted {
		jsonError(w, "transcript is "+string(t.Status), http.StatusConflict)
		return
	}

	var body []byte
	switch format {
	case subtitle.FormatSRT:
		body = []byte(subtitle.WordsToSRT(t.Words))
	case subtitle.FormatVTT:
		var buf bytes.Buffer
		err = (&subtitle.VTTWriter{Group: subtitle.DefaultGroupOptions()}).Encode(t.Words, &buf)
		body = buf.Bytes()
	case subtitle.FormatASS:
		preset, perr := subtitle.ParsePreset(r.URL.Query().Get("preset"))
		if perr != nil {
			jsonError(w, perr.Error(), http.StatusBadRequest)
			return
		}
		body = []byte(subtitle.NewASSWriter(preset).Render(t.Words))
	case subtitle.FormatJSON:
		body, err = subtitle.WordsToJSON(t.Words)
	}
	if err != nil {
		h.log.Errorw("failed to encode captions", "format", format, "error", err)
		jsonError(w, "failed to encode captions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", subtitle.ContentType(format))
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+t.ID+subtitle.GetExtensionForFormat(format)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Delete removes the record and the upload it kept, if any.
func (h *TranscriptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), t.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "transcript not found", http.StatusNotFound)
			return
		}
		h.log.Errorw("failed to delete transcript", "id", t.ID, "error", err)
		jsonError(w, "failed to delete transcript", http.StatusInternalServerError)
		return
	}
	if t.VideoPath != "" {
		if err := os.Remove(t.VideoPath); err != nil && !os.IsNotExist(err) {
			h.log.Warnw("failed to remove video", "path", t.VideoPath, "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TranscriptHandler) load(w http.ResponseWriter, r *http.Request) (*store.Transcript, bool) {
	id := chi.URLParam(r, "id")
	t, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "transcript not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.log.Errorw("failed to load transcript", "id", id, "error", err)
		jsonError(w, "failed to load transcript", http.StatusInternalServerError)
		return nil, false
	}
	return t, true
}
