package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type VideoHandler struct {
	uploadPath string
}

func NewVideoHandler(uploadPath string) *VideoHandler {
	return &VideoHandler{uploadPath: uploadPath}
}

// Serve streams an uploaded video with range support.
func (h *VideoHandler) Serve(w http.ResponseWriter, r *http.Request) {
	full, ok := uploadFile(h.uploadPath, chi.URLParam(r, "name"))
	if !ok {
		jsonError(w, "video not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, full)
}
