package carrier

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Transcoder turns arbitrary audio into a canonical PCM WAV.
type Transcoder interface {
	ToPCM(ctx context.Context, input []byte) ([]byte, error)
}

// FFmpeg runs the ffmpeg binary in a private temporary directory that is
// removed before ToPCM returns.
type FFmpeg struct {
	Path    string
	TempDir string // parent for the scratch directory; empty means os.TempDir
	Logger  *slog.Logger
}

// LocateFFmpeg returns explicit if set, then ./ffmpeg(.exe), then whatever
// "ffmpeg" resolves to on PATH.
func LocateFFmpeg(explicit string) string {
	if explicit != "" {
		return explicit
	}

	local := "ffmpeg"
	if runtime.GOOS == "windows" {
		local = "ffmpeg.exe"
	}
	if wd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(wd, local)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}

	if path, err := exec.LookPath("ffmpeg"); err == nil {
		return path
	}
	return "ffmpeg"
}

// NewFFmpeg creates a transcoder using the binary found by LocateFFmpeg.
func NewFFmpeg(explicit string, logger *slog.Logger) *FFmpeg {
	return &FFmpeg{Path: LocateFFmpeg(explicit), Logger: logger}
}

// ToPCM converts input to 16-bit little-endian PCM, 44.1 kHz, stereo.
func (f *FFmpeg) ToPCM(ctx context.Context, input []byte) ([]byte, error) {
	dir, err := os.MkdirTemp(f.TempDir, "varicrypt-audio-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input")
	out := filepath.Join(dir, "clean.wav")
	if err := os.WriteFile(in, input, 0600); err != nil {
		return nil, fmt.Errorf("failed to stage audio input: %w", err)
	}

	cmd := exec.CommandContext(ctx, f.Path,
		"-y", "-i", in,
		"-c:a", "pcm_s16le",
		"-ar", strconv.Itoa(CanonicalSampleRate),
		"-ac", strconv.Itoa(CanonicalChannels),
		"-f", "wav", out)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger().Debug("transcoding audio", "ffmpeg", f.Path, "bytes", len(input))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrTranscode, err, lastLine(stderr.String()))
	}

	pcm, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: no output: %v", ErrTranscode, err)
	}
	return pcm, nil
}

func (f *FFmpeg) logger() *slog.Logger {
	if f.Logger == nil {
		return discardLogger
	}
	return f.Logger
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
