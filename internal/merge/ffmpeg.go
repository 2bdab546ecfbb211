package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrMerge is returned when the multiplexer exits unsuccessfully.
var ErrMerge = errors.New("merge failed")

// Muxer combines a video-only and an audio-only file into one container.
type Muxer interface {
	Merge(ctx context.Context, videoPath, audioPath, outputPath string) error
}

// FFmpeg wraps an ffmpeg binary that copies both streams without re-encoding.
type FFmpeg struct {
	ffmpegPath string
}

// NewFFmpeg creates a new FFmpeg instance.
func NewFFmpeg(ffmpegPath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpeg{ffmpegPath: ffmpegPath}
}

// Args returns the ffmpeg arguments used for a merge.
func (f *FFmpeg) Args(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-loglevel", "error",
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c", "copy",
		outputPath,
	}
}

// Merge runs ffmpeg to completion. Any failure to start it or a non-zero exit
// status is reported as ErrMerge together with ffmpeg's stderr.
func (f *FFmpeg) Merge(ctx context.Context, videoPath, audioPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, f.Args(videoPath, audioPath, outputPath)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s: %w, stderr: %s", ErrMerge, f.ffmpegPath, err, msg)
		}
		return fmt.Errorf("%w: %s: %w", ErrMerge, f.ffmpegPath, err)
	}
	return nil
}
