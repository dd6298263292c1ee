package ffmpeg

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeFFmpegScript = `#!/bin/sh
printf '%s\n' "$@" > "$FAKE_FFMPEG_ARGS_FILE"
if [ -n "$FAKE_FFMPEG_EXIT_CODE" ]; then
	echo "fake failure" >&2
	exit "$FAKE_FFMPEG_EXIT_CODE"
fi
exit 0
`

func fakeFFmpeg(t *testing.T) (*FFmpeg, string) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte(fakeFFmpegScript), 0o755))
	argsFile := filepath.Join(dir, "args")
	t.Setenv("FAKE_FFMPEG_ARGS_FILE", argsFile)
	t.Setenv("FAKE_FFMPEG_EXIT_CODE", "")
	return New(path), argsFile
}

func readArgs(t *testing.T, path string) []string {
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
}

func TestExtract(t *testing.T) {
	f, argsFile := fakeFFmpeg(t)
	err := f.Extract(context.Background(), "in.mp4", "out.wav", ExtractConfig{SampleRate: 22050, MaxDuration: 90 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"-y", "-v", "error", "-i", "in.mp4", "-vn", "-ac", "1",
		"-ar", "22050", "-t", "90", "-c:a", "pcm_s16le", "out.wav",
	}, readArgs(t, argsFile))
}

func TestCombine(t *testing.T) {
	f, argsFile := fakeFFmpeg(t)
	err := f.Combine(context.Background(), "synced.wav", "in.mp4", "out.mp4", CombineConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"-y", "-v", "error", "-i", "in.mp4", "-i", "synced.wav",
		"-map", "0:v", "-map", "1:a", "-c:v", "copy", "-c:a", "aac", "-b:a", "160k", "out.mp4",
	}, readArgs(t, argsFile))
}

func TestExternalToolError(t *testing.T) {
	f, _ := fakeFFmpeg(t)
	t.Setenv("FAKE_FFMPEG_EXIT_CODE", "3")

	err := f.Combine(context.Background(), "a.wav", "v.mp4", "o.mp4", DefaultCombineConfig())
	require.Error(t, err)
	var toolErr *ExternalToolError
	require.True(t, errors.As(err, &toolErr), err)
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Equal(t, f.Path, toolErr.Tool)
	assert.Contains(t, toolErr.Output, "fake failure")
	assert.Contains(t, err.Error(), "fake failure")
}

func TestMissingBinary(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "no-such-ffmpeg"))
	err := f.Extract(context.Background(), "in.mp4", "out.wav", ExtractConfig{})
	require.Error(t, err)
	var toolErr *ExternalToolError
	assert.False(t, errors.As(err, &toolErr))
}

func TestNew(t *testing.T) {
	assert.Equal(t, DefaultPath, New("").Path)
	assert.Equal(t, "/opt/ffmpeg", New("/opt/ffmpeg").Path)
}
