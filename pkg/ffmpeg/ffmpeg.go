// Package ffmpeg wraps the ffmpeg binary for extracting audio from a video
// container and muxing an audio track into one.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/avsync/pkg/audio"
	"github.com/xaionaro-go/datacounter"
)

const (
	DefaultPath         = "ffmpeg"
	DefaultAudioCodec   = "aac"
	DefaultAudioBitrate = "160k"
)

// ExternalToolError is returned when the tool exits with a non-zero status.
type ExternalToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Output   string
}

func (e *ExternalToolError) Error() string {
	output := strings.TrimSpace(e.Output)
	if output == "" {
		return fmt.Sprintf("'%s' exited with code %d", e.Tool, e.ExitCode)
	}
	return fmt.Sprintf("'%s' exited with code %d: %s", e.Tool, e.ExitCode, output)
}

type FFmpeg struct {
	Path string
}

func New(path string) *FFmpeg {
	if path == "" {
		path = DefaultPath
	}
	return &FFmpeg{
		Path: path,
	}
}

type ExtractConfig struct {
	SampleRate  audio.SampleRate
	MaxDuration time.Duration
}

// Extract decodes the audio stream of the video into a mono 16-bit PCM WAV file.
func (f *FFmpeg) Extract(
	ctx context.Context,
	videoPath string,
	outPath string,
	cfg ExtractConfig,
) error {
	args := []string{"-y", "-v", "error", "-i", videoPath, "-vn", "-ac", "1"}
	if cfg.SampleRate != 0 {
		args = append(args, "-ar", strconv.FormatUint(uint64(cfg.SampleRate), 10))
	}
	if cfg.MaxDuration > 0 {
		args = append(args, "-t", strconv.FormatFloat(cfg.MaxDuration.Seconds(), 'f', -1, 64))
	}
	args = append(args, "-c:a", "pcm_s16le", outPath)
	if err := f.run(ctx, args...); err != nil {
		return fmt.Errorf("unable to extract the audio of '%s': %w", videoPath, err)
	}
	return nil
}

type CombineConfig struct {
	AudioCodec   string
	AudioBitrate string
}

func DefaultCombineConfig() CombineConfig {
	return CombineConfig{
		AudioCodec:   DefaultAudioCodec,
		AudioBitrate: DefaultAudioBitrate,
	}
}

// Combine writes outputPath with the video stream of videoPath copied as is and
// the audio of audioPath re-encoded.
func (f *FFmpeg) Combine(
	ctx context.Context,
	audioPath string,
	videoPath string,
	outputPath string,
	cfg CombineConfig,
) error {
	if cfg.AudioCodec == "" {
		cfg.AudioCodec = DefaultAudioCodec
	}
	if cfg.AudioBitrate == "" {
		cfg.AudioBitrate = DefaultAudioBitrate
	}
	err := f.run(ctx,
		"-y", "-v", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v", "-map", "1:a",
		"-c:v", "copy",
		"-c:a", cfg.AudioCodec, "-b:a", cfg.AudioBitrate,
		outputPath,
	)
	if err != nil {
		return fmt.Errorf("unable to combine '%s' and '%s' into '%s': %w", videoPath, audioPath, outputPath, err)
	}
	return nil
}

func (f *FFmpeg) run(
	ctx context.Context,
	args ...string,
) (_err error) {
	logger.Debugf(ctx, "running: %s %s", f.Path, strings.Join(args, " "))
	defer func() { logger.Debugf(ctx, "/running: %s: %v", f.Path, _err) }()

	var output bytes.Buffer
	outputCounter := datacounter.NewWriterCounter(&output)
	cmd := exec.CommandContext(ctx, f.Path, args...)
	cmd.Stdout = outputCounter
	cmd.Stderr = outputCounter

	err := cmd.Run()
	logger.Tracef(ctx, "'%s' wrote %d bytes of output", f.Path, outputCounter.Count())
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExternalToolError{
			Tool:     f.Path,
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Output:   output.String(),
		}
	}
	return fmt.Errorf("unable to run '%s': %w", f.Path, err)
}
