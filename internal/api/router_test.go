package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgpai22/capgen/internal/config"
	"github.com/mgpai22/capgen/internal/logging"
	"github.com/mgpai22/capgen/internal/store"
	"github.com/mgpai22/capgen/internal/transcribe"
)

type nopTranscriber struct{}

func (nopTranscriber) Transcribe(ctx context.Context, path string) (*transcribe.Result, error) {
	return &transcribe.Result{}, nil
}

func newTestRouter(t *testing.T, origins ...string) http.Handler {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "capgen.db"))
	if err != nil {
		t.Fatalf("store.Open() error: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{
		DataPath:           dir,
		UploadPath:         filepath.Join(dir, "uploads"),
		PropsPath:          filepath.Join(dir, "props"),
		RenderPath:         filepath.Join(dir, "renders"),
		CORSOrigins:        origins,
		MaxUploadMB:        1,
		TranscribeProvider: "assemblyai",
	}
	return NewRouter(Deps{Config: cfg, Store: st, Transcriber: nopTranscriber{}})
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"status":"ok"}` {
		t.Errorf("body = %s", got)
	}
}

func TestRoutesAreMounted(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/transcripts", http.StatusOK},
		{http.MethodGet, "/api/transcripts/missing", http.StatusNotFound},
		{http.MethodGet, "/api/transcripts/missing/captions.srt", http.StatusNotFound},
		{http.MethodDelete, "/api/transcripts/missing", http.StatusNotFound},
		{http.MethodGet, "/videos/missing.mp4", http.StatusNotFound},
		{http.MethodPost, "/api/srt/decode", http.StatusOK},
		{http.MethodPost, "/render", http.StatusBadRequest},
		{http.MethodPost, "/transcribe", http.StatusBadRequest},
		{http.MethodPost, "/upload", http.StatusBadRequest},
		{http.MethodGet, "/api/health/extra", http.StatusNotFound},
		{http.MethodPut, "/api/health", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader("")))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestJSONBodyLimit(t *testing.T) {
	r := newTestRouter(t)
	body := "[" + strings.Repeat(`{"text":"x"},`, maxJSONBody/12) + `{"text":"x"}]`

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/srt/encode", strings.NewReader(body)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{"wildcard by default", nil, "http://localhost:3000", "*"},
		{"allowed origin", []string{"http://app.example"}, "http://app.example", "http://app.example"},
		{"other origin", []string{"http://app.example"}, "http://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, tt.origins...)
			req := httptest.NewRequest(http.MethodOptions, "/transcribe", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), logging.Nop())
	}()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve() error: %v", err)
	}
}
