package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// Run executes a compiled ffmpeg-go stream with the resolved binary. The
// process is killed when ctx is cancelled and stderr is folded into the error.
func Run(ctx context.Context, stream *ffmpeggo.Stream) error {
	bin, err := FFmpegPath()
	if err != nil {
		return err
	}

	cmd := stream.OverWriteOutput().SetFfmpegPath(bin).Compile()
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	return wait(ctx, cmd, &stderr)
}

// Probe runs ffprobe with the given arguments and returns its stdout.
func Probe(ctx context.Context, args ...string) ([]byte, error) {
	bin, err := FFprobePath()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w%s", err, tail(&stderr))
	}
	return stdout.Bytes(), nil
}

func wait(ctx context.Context, cmd *exec.Cmd, stderr *bytes.Buffer) error {
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("ffmpeg failed: %w%s", err, tail(stderr))
		}
		return nil
	}
}

// last few lines of stderr, enough to show ffmpeg's actual complaint
func tail(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return ""
	}
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return ": " + strings.Join(lines, " | ")
}
