package avsync

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/avsync/pkg/aligner"
	"github.com/xaionaro-go/avsync/pkg/audio"
	"github.com/xaionaro-go/avsync/pkg/chroma"
	"github.com/xaionaro-go/avsync/pkg/ffmpeg"
)

const (
	DefaultSampleRate           = audio.SampleRate(22050)
	DefaultFFTSize              = 4410
	DefaultHopSize              = 2205
	DefaultMaxDuration          = 60 * time.Second
	DefaultCrossCheckSampleRate = audio.SampleRate(8000)
	DefaultCrossCheckTolerance  = 100 * time.Millisecond
	DefaultOutputBitDepth       = 16
)

type Config struct {
	// SampleRate is the rate both tracks are analysed at.
	SampleRate audio.SampleRate
	FFTSize    int
	HopSize    int

	// MaxDuration caps the analysed prefix of both tracks; zero disables the cap.
	// The shifted output is always produced from the whole audio track.
	MaxDuration time.Duration

	Aligner aligner.Config

	// CrossCheck enables an independent GCC-PHAT estimate which is only
	// reported; a disagreement beyond CrossCheckTolerance is logged as a warning.
	CrossCheck           bool
	CrossCheckSampleRate audio.SampleRate
	CrossCheckTolerance  time.Duration

	FFmpegPath   string
	TempDir      string
	AudioCodec   string
	AudioBitrate string

	// OutputBitDepth of the intermediate shifted WAV file.
	OutputBitDepth int
}

func DefaultConfig() Config {
	return Config{
		SampleRate:           DefaultSampleRate,
		FFTSize:              DefaultFFTSize,
		HopSize:              DefaultHopSize,
		MaxDuration:          DefaultMaxDuration,
		Aligner:              aligner.DefaultConfig(),
		CrossCheckSampleRate: DefaultCrossCheckSampleRate,
		CrossCheckTolerance:  DefaultCrossCheckTolerance,
		FFmpegPath:           ffmpeg.DefaultPath,
		AudioCodec:           ffmpeg.DefaultAudioCodec,
		AudioBitrate:         ffmpeg.DefaultAudioBitrate,
		OutputBitDepth:       DefaultOutputBitDepth,
	}
}

// Validate returns all the problems of the configuration at once.
func (cfg Config) Validate() error {
	var result *multierror.Error
	if cfg.SampleRate == 0 {
		result = multierror.Append(result, fmt.Errorf("the sample rate must be positive"))
	}
	if cfg.FFTSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("the FFT size must be positive, got %d", cfg.FFTSize))
	}
	if cfg.HopSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("the hop size must be positive, got %d", cfg.HopSize))
	}
	if cfg.MaxDuration < 0 {
		result = multierror.Append(result, fmt.Errorf("the maximal duration must not be negative, got %v", cfg.MaxDuration))
	}
	if cfg.Aligner.Strategy <= aligner.StrategyUndefined || cfg.Aligner.Strategy >= aligner.EndOfStrategy {
		result = multierror.Append(result, fmt.Errorf("unknown alignment strategy %d", cfg.Aligner.Strategy))
	}
	if cfg.CrossCheck {
		if cfg.CrossCheckSampleRate == 0 {
			result = multierror.Append(result, fmt.Errorf("the cross-check sample rate must be positive"))
		}
		if cfg.CrossCheckTolerance <= 0 {
			result = multierror.Append(result, fmt.Errorf("the cross-check tolerance must be positive, got %v", cfg.CrossCheckTolerance))
		}
	}
	switch cfg.OutputBitDepth {
	case 16, 24, 32:
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported output bit depth %d", cfg.OutputBitDepth))
	}
	return result.ErrorOrNil()
}

func (cfg Config) chromaConfig() chroma.Config {
	chromaCfg := chroma.DefaultConfig()
	chromaCfg.SampleRate = cfg.SampleRate
	chromaCfg.FFTSize = cfg.FFTSize
	chromaCfg.HopSize = cfg.HopSize
	return chromaCfg
}

func (cfg Config) combineConfig() ffmpeg.CombineConfig {
	return ffmpeg.CombineConfig{
		AudioCodec:   cfg.AudioCodec,
		AudioBitrate: cfg.AudioBitrate,
	}
}
