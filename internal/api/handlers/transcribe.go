package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mgpai22/capgen/internal/audio"
	"github.com/mgpai22/capgen/internal/logging"
	"github.com/mgpai22/capgen/internal/store"
	"github.com/mgpai22/capgen/internal/subtitle"
	"github.com/mgpai22/capgen/internal/transcribe"
)

// multipart parts above this size spill to disk
const multipartMemory = 32 << 20

// errRecord wraps store failures
var errRecord = errors.New("failed to record transcript")

type TranscribeHandler struct {
	store       *store.Store
	transcriber transcribe.Transcriber
	provider    string
	uploadPath  string
	propsPath   string
	maxUpload   int64
	log         *logging.Logger
	now         func() time.Time
}

func NewTranscribeHandler(
	st *store.Store,
	tr transcribe.Transcriber,
	provider, uploadPath, propsPath string,
	maxUpload int64,
	log *logging.Logger,
) *TranscribeHandler {
	return &TranscribeHandler{
		store:       st,
		transcriber: tr,
		provider:    provider,
		uploadPath:  uploadPath,
		propsPath:   propsPath,
		maxUpload:   maxUpload,
		log:         log,
		now:         time.Now,
	}
}

type transcribeResponse struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Words    []subtitle.Word `json:"words"`
	VideoURL string          `json:"videoUrl"`
}

// Transcribe stores the uploaded "video" part, transcribes it and keeps the
// upload so the caption app can preview and render it.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	path, original, ok := h.saveUpload(w, r)
	if !ok {
		return
	}

	rec, res, err := h.transcribe(r.Context(), original, path, path)
	if errors.Is(err, errRecord) {
		h.removeUpload(path)
		jsonError(w, "failed to record transcript", http.StatusInternalServerError)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	jsonResponse(w, transcribeResponse{
		ID:       rec.ID,
		Text:     res.Text,
		Words:    res.Words,
		VideoURL: "/videos/" + filepath.Base(path),
	}, http.StatusOK)
}

type props struct {
	Captions string          `json:"captions"`
	Words    []subtitle.Word `json:"words"`
}

// Upload transcribes the uploaded "video" part and writes a
// props-<unix ms>.json file for the video renderer. The upload itself is
// removed once the transcript is in.
func (h *TranscribeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	path, original, ok := h.saveUpload(w, r)
	if !ok {
		return
	}
	defer h.removeUpload(path)

	_, res, err := h.transcribe(r.Context(), original, path, "")
	if errors.Is(err, errRecord) {
		jsonError(w, "failed to record transcript", http.StatusInternalServerError)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	propsFile, err := h.writeProps(res)
	if err != nil {
		h.log.Errorw("failed to write props", "error", err)
		jsonError(w, "failed to write props file", http.StatusInternalServerError)
		return
	}

	jsonResponse(w, map[string]string{"propsFile": propsFile}, http.StatusOK)
}

// transcribe records a transcript, transcribes mediaPath and stores the
// outcome. keepPath is the path recorded for later rendering, empty when the
// upload is discarded.
func (h *TranscribeHandler) transcribe(ctx context.Context, sourceName, mediaPath, keepPath string) (*store.Transcript, *transcribe.Result, error) {
	rec, err := h.store.Create(ctx, h.provider, sourceName, keepPath)
	if err != nil {
		h.log.Errorw("failed to create transcript", "source", sourceName, "error", err)
		return nil, nil, fmt.Errorf("%w: %v", errRecord, err)
	}

	log := h.log.With("transcript", rec.ID, "provider", h.provider)
	log.Infow("transcribing", "source", sourceName)
	started := time.Now()

	res, err := h.transcriber.Transcribe(ctx, mediaPath)
	if err != nil {
		log.Errorw("transcription failed", "error", err)
		// the request context may be gone, record the failure regardless
		if ferr := h.store.Fail(context.WithoutCancel(ctx), rec.ID, err); ferr != nil {
			log.Warnw("failed to record failure", "error", ferr)
		}
		return nil, nil, fmt.Errorf("transcription failed: %w", err)
	}
	if res.Words == nil {
		res.Words = []subtitle.Word{}
	}

	if err := h.store.Complete(ctx, rec.ID, res.Text, res.Words); err != nil {
		log.Errorw("failed to store transcript", "error", err)
		return nil, nil, fmt.Errorf("%w: %v", errRecord, err)
	}
	log.Infow("transcription complete", "words", len(res.Words), "took", time.Since(started))
	return rec, res, nil
}

func (h *TranscribeHandler) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.log.Warnw("failed to remove upload", "path", path, "error", err)
	}
}

func (h *TranscribeHandler) writeProps(res *transcribe.Result) (string, error) {
	if err := os.MkdirAll(h.propsPath, 0755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(props{Captions: res.Text, Words: res.Words}, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(h.propsPath, fmt.Sprintf("props-%d.json", h.now().UnixMilli()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, nil
}

// saveUpload copies the multipart "video" part into the upload directory
// under a fresh name and returns that path with the client's file name. It
// writes the error response itself.
func (h *TranscribeHandler) saveUpload(w http.ResponseWriter, r *http.Request) (path, original string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		bodyError(w, err, "expected multipart form with a video file")
		return "", "", false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("video")
	if err != nil {
		jsonError(w, "missing video file", http.StatusBadRequest)
		return "", "", false
	}
	defer file.Close()

	if err := os.MkdirAll(h.uploadPath, 0755); err != nil {
		h.log.Errorw("failed to create upload dir", "error", err)
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return "", "", false
	}

	original = header.Filename
	path = filepath.Join(h.uploadPath, uuid.New().String()+uploadExt(original))

	out, err := os.Create(path)
	if err != nil {
		h.log.Errorw("failed to create upload", "error", err)
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return "", "", false
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(path)
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return "", "", false
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return "", "", false
	}

	h.log.Debugw("stored upload", "name", header.Filename, "path", path, "size", header.Size)
	return path, original, true
}

// browsers send recorded blobs without an extension; assume mp4 then
func uploadExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if audio.IsMediaFile("x" + ext) {
		return ext
	}
	return ".mp4"
}
