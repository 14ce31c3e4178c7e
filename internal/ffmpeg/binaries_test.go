package ffmpeg

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePrefersEnvironment(t *testing.T) {
	dir := t.TempDir()
	ffmpegBin := filepath.Join(dir, "ffmpeg")
	ffprobeBin := filepath.Join(dir, "ffprobe")
	for _, p := range []string{ffmpegBin, ffprobeBin} {
		if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatalf("failed to write fake binary: %v", err)
		}
	}

	env := map[string]string{
		EnvFFmpegPath:  ffmpegBin,
		EnvFFprobePath: ffprobeBin,
	}
	lookPath := func(string) (string, error) {
		t.Fatal("PATH lookup should not happen when overrides are set")
		return "", nil
	}

	paths, err := resolve(func(k string) string { return env[k] }, lookPath)
	if err != nil {
		t.Fatalf("resolve() error: %v", err)
	}
	if paths.FFmpeg != ffmpegBin || paths.FFprobe != ffprobeBin {
		t.Errorf("unexpected paths: %+v", paths)
	}
}

func TestResolveFallsBackToPath(t *testing.T) {
	lookPath := func(name string) (string, error) {
		return "/usr/bin/" + name, nil
	}

	paths, err := resolve(func(string) string { return "" }, lookPath)
	if err != nil {
		t.Fatalf("resolve() error: %v", err)
	}
	if paths.FFmpeg != "/usr/bin/ffmpeg" || paths.FFprobe != "/usr/bin/ffprobe" {
		t.Errorf("unexpected paths: %+v", paths)
	}
}

func TestResolveErrors(t *testing.T) {
	missing := func(string) (string, error) { return "", errors.New("not found") }
	if _, err := resolve(func(string) string { return "" }, missing); err == nil {
		t.Error("expected error when binaries are missing")
	}

	env := func(k string) string {
		if k == EnvFFmpegPath {
			return filepath.Join(t.TempDir(), "nope")
		}
		return ""
	}
	if _, err := resolve(env, missing); err == nil {
		t.Error("expected error for a bad override path")
	}
}
