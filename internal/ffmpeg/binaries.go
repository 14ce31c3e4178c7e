package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// environment overrides for the binaries
const (
	EnvFFmpegPath  = "CAPGEN_FFMPEG_PATH"
	EnvFFprobePath = "CAPGEN_FFPROBE_PATH"
)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var (
	ensureOnce sync.Once
	ensureErr  error
	ensurePath BinaryPaths
)

// Ensure resolves ffmpeg and ffprobe once per process: explicit environment
// paths win, otherwise both are looked up on PATH.
func Ensure() (BinaryPaths, error) {
	ensureOnce.Do(func() {
		ensurePath, ensureErr = resolve(os.Getenv, exec.LookPath)
	})
	return ensurePath, ensureErr
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

func resolve(
	getenv func(string) string,
	lookPath func(string) (string, error),
) (BinaryPaths, error) {
	ffmpegPath, err := resolveOne("ffmpeg", getenv(EnvFFmpegPath), lookPath)
	if err != nil {
		return BinaryPaths{}, err
	}
	ffprobePath, err := resolveOne("ffprobe", getenv(EnvFFprobePath), lookPath)
	if err != nil {
		return BinaryPaths{}, err
	}
	return BinaryPaths{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func resolveOne(
	name, override string,
	lookPath func(string) (string, error),
) (string, error) {
	if override != "" {
		if !fileExists(override) {
			return "", fmt.Errorf("%s not found at %s", name, override)
		}
		return override, nil
	}
	found, err := lookPath(name)
	if err != nil {
		return "", fmt.Errorf(
			"%s not found on PATH (install it or set %s): %w",
			name,
			envFor(name),
			err,
		)
	}
	return found, nil
}

func envFor(name string) string {
	if name == "ffprobe" {
		return EnvFFprobePath
	}
	return EnvFFmpegPath
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
