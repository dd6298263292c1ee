// Package audiofile loads audio files into waveforms and writes them back.
package audiofile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/avsync/pkg/audio"
	"github.com/xaionaro-go/avsync/pkg/audio/resampler"
)

// ErrUnsupportedContainer is returned when the file is neither RIFF/WAVE nor Ogg.
var ErrUnsupportedContainer = errors.New("unsupported audio container")

type LoadConfig struct {
	// SampleRate is the rate of the resulting waveform; zero keeps the rate of the file.
	SampleRate audio.SampleRate

	// MaxDuration limits the amount of decoded audio; non-positive means no limit.
	MaxDuration time.Duration
}

type container int

const (
	containerUnknown = container(iota)
	containerWAV
	containerOgg
)

func (c container) String() string {
	switch c {
	case containerWAV:
		return "wav"
	case containerOgg:
		return "ogg"
	default:
		return "unknown"
	}
}

func detectContainer(header []byte) container {
	switch {
	case len(header) >= 12 && bytes.Equal(header[:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return containerWAV
	case len(header) >= 4 && bytes.Equal(header[:4], []byte("OggS")):
		return containerOgg
	default:
		return containerUnknown
	}
}

// decoded is interleaved PCM as produced by a container decoder.
type decoded struct {
	Format resampler.Format
	Data   []byte
}

// Load decodes the audio file at path, mixes it down to mono and resamples it to cfg.SampleRate.
func Load(
	ctx context.Context,
	path string,
	cfg LoadConfig,
) (_ret audio.Waveform, _err error) {
	logger.Debugf(ctx, "Load(ctx, '%s', %#+v)", path, cfg)
	defer func() { logger.Debugf(ctx, "/Load(ctx, '%s', %#+v): %d samples, %v", path, cfg, _ret.Len(), _err) }()

	pcm, err := decodeFile(ctx, path, cfg.MaxDuration)
	if err != nil {
		return audio.Waveform{}, err
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = pcm.Format.SampleRate
	}
	w, err := resampler.ToWaveform(pcm.Format, pcm.Data, sampleRate)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("unable to convert '%s' to a %dHz mono waveform: %w", path, sampleRate, err)
	}
	w = w.Truncate(cfg.MaxDuration)
	if w.Len() == 0 {
		return audio.Waveform{}, fmt.Errorf("'%s': %w", path, audio.ErrEmptyWaveform)
	}
	return w, nil
}

// LoadInterleaved decodes the whole audio file at path keeping its channels and sample rate.
func LoadInterleaved(
	ctx context.Context,
	path string,
) (_ret audio.Interleaved, _err error) {
	logger.Debugf(ctx, "LoadInterleaved(ctx, '%s')", path)
	defer func() {
		logger.Debugf(ctx, "/LoadInterleaved(ctx, '%s'): %d frames of %d channels, %v", path, _ret.Len(), _ret.Channels, _err)
	}()

	pcm, err := decodeFile(ctx, path, 0)
	if err != nil {
		return audio.Interleaved{}, err
	}
	a, err := resampler.ToInterleaved(pcm.Format, pcm.Data)
	if err != nil {
		return audio.Interleaved{}, fmt.Errorf("unable to convert '%s': %w", path, err)
	}
	return a, nil
}

func decodeFile(
	ctx context.Context,
	path string,
	maxDuration time.Duration,
) (decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return decoded{}, fmt.Errorf("unable to open '%s': %w", path, err)
	}
	defer f.Close()

	header := make([]byte, 12)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return decoded{}, fmt.Errorf("unable to read the header of '%s': %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return decoded{}, fmt.Errorf("unable to rewind '%s': %w", path, err)
	}

	var pcm decoded
	switch c := detectContainer(header[:n]); c {
	case containerWAV:
		pcm, err = decodeWAV(ctx, f, maxDuration)
	case containerOgg:
		pcm, err = decodeOgg(ctx, f, maxDuration)
	default:
		return decoded{}, fmt.Errorf("'%s': %w", path, ErrUnsupportedContainer)
	}
	if err != nil {
		return decoded{}, fmt.Errorf("unable to decode '%s': %w", path, err)
	}
	if len(pcm.Data) == 0 {
		return decoded{}, fmt.Errorf("'%s': %w", path, audio.ErrEmptyWaveform)
	}
	return pcm, nil
}

// maxFrames returns how many frames of the given rate fit into maxDuration, or -1 for no limit.
func maxFrames(sampleRate int, maxDuration time.Duration) int {
	if maxDuration <= 0 {
		return -1
	}
	// one extra frame absorbs the rounding of the resampler
	return int(maxDuration.Seconds()*float64(sampleRate)) + 1
}
