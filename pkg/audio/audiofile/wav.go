package audiofile

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/xaionaro-go/avsync/pkg/audio"
	"github.com/xaionaro-go/avsync/pkg/audio/resampler"
)

const (
	wavFormatPCM       = 1
	wavFormatIEEEFloat = 3
)

func decodeWAV(
	ctx context.Context,
	r io.ReadSeeker,
	maxDuration time.Duration,
) (decoded, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return decoded{}, fmt.Errorf("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return decoded{}, fmt.Errorf("unable to read the PCM data: %w", err)
	}
	channels := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)
	logger.Debugf(ctx, "WAV: format:%d rate:%d channels:%d bitDepth:%d values:%d",
		decoder.WavAudioFormat, decoder.SampleRate, channels, bitDepth, len(buf.Data))
	if channels == 0 || decoder.SampleRate == 0 {
		return decoded{}, fmt.Errorf("invalid WAV header: %d channels at %dHz", channels, decoder.SampleRate)
	}

	toFloat, err := wavSampleDecoder(int(decoder.WavAudioFormat), bitDepth)
	if err != nil {
		return decoded{}, err
	}

	values := buf.Data[:len(buf.Data)-len(buf.Data)%channels]
	if limit := maxFrames(int(decoder.SampleRate), maxDuration); limit >= 0 && len(values) > limit*channels {
		values = values[:limit*channels]
	}

	data := make([]byte, len(values)*8)
	for idx, v := range values {
		binary.LittleEndian.PutUint64(data[idx*8:], math.Float64bits(toFloat(v)))
	}
	return decoded{
		Format: resampler.Format{
			Channels:   audio.Channel(channels),
			SampleRate: audio.SampleRate(decoder.SampleRate),
			PCMFormat:  audio.PCMFormatFloat64LE,
		},
		Data: data,
	}, nil
}

func wavSampleDecoder(wavFormat int, bitDepth int) (func(int) float64, error) {
	switch wavFormat {
	case wavFormatPCM:
		switch bitDepth {
		case 8:
			return func(v int) float64 { return float64(v-128) / 128 }, nil
		case 16, 24, 32:
			scale := float64(int64(1) << (bitDepth - 1))
			return func(v int) float64 { return float64(v) / scale }, nil
		}
	case wavFormatIEEEFloat:
		if bitDepth == 32 {
			return func(v int) float64 { return float64(math.Float32frombits(uint32(v))) }, nil
		}
	}
	return nil, fmt.Errorf("unsupported WAV encoding: format %d with %d bits per sample", wavFormat, bitDepth)
}

// SaveWAV writes the waveform as a mono integer PCM WAV file; samples are clipped to [-1, 1].
func SaveWAV(
	path string,
	w audio.Waveform,
	bitDepth int,
) error {
	return SaveInterleavedWAV(path, w.Interleaved(), bitDepth)
}

// SaveInterleavedWAV writes the audio as an integer PCM WAV file with the same
// amount of channels; samples are clipped to [-1, 1].
func SaveInterleavedWAV(
	path string,
	a audio.Interleaved,
	bitDepth int,
) (_err error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d, expected 16, 24 or 32", bitDepth)
	}
	if a.SampleRate == 0 {
		return fmt.Errorf("the sample rate is not set")
	}
	if a.Channels == 0 || len(a.Samples)%int(a.Channels) != 0 {
		return fmt.Errorf("%d samples do not form whole frames of %d channels", len(a.Samples), a.Channels)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) && _err == nil {
			_err = fmt.Errorf("unable to close '%s': %w", path, err)
		}
	}()

	maxValue := float64(int64(1)<<(bitDepth-1) - 1)
	data := make([]int, len(a.Samples))
	for idx, sample := range a.Samples {
		data[idx] = int(math.Round(math.Max(-1, math.Min(1, sample)) * maxValue))
	}

	encoder := wav.NewEncoder(f, int(a.SampleRate), bitDepth, int(a.Channels), wavFormatPCM)
	err = encoder.Write(&goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: int(a.Channels),
			SampleRate:  int(a.SampleRate),
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return fmt.Errorf("unable to write the samples to '%s': %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("unable to finalize '%s': %w", path, err)
	}
	return nil
}
