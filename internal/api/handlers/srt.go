package handlers

import (
	"io"
	"net/http"

	"github.com/mgpai22/capgen/internal/subtitle"
)

// EncodeSRT turns a loosely typed JSON word array into SubRip text.
func EncodeSRT(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		bodyError(w, err, "failed to read body")
		return
	}

	raw, err := subtitle.RawWordsFromJSON(body)
	if err != nil {
		jsonError(w, "expected a JSON array of words", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", subtitle.ContentType(subtitle.FormatSRT))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, subtitle.RawWordsToSRT(raw))
}

// DecodeSRT parses a SubRip body into words. Malformed blocks are skipped,
// so any body decodes.
func DecodeSRT(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		bodyError(w, err, "failed to read body")
		return
	}
	jsonResponse(w, subtitle.SRTToWords(string(body)), http.StatusOK)
}
