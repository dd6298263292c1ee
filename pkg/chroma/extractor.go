// Package chroma computes chromagrams: per-frame energy profiles over the
// twelve pitch classes, insensitive to timbre and octave.
package chroma

import (
	"context"
	"fmt"
	"math"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/mjibson/go-dsp/fft"
	"github.com/xaionaro-go/avsync/pkg/audio"
)

const (
	// DefaultMinFreq is A0; lower bins carry no musical pitch information.
	DefaultMinFreq = 27.5

	referenceFreq  = 440.0
	referenceMIDI  = 69
	noPitchClass   = -1
	ctxCheckFrames = 64

	// minNorm is the energy below which a frame is considered silent.
	minNorm = 1e-12
)

type Config struct {
	SampleRate audio.SampleRate
	FFTSize    int
	HopSize    int

	// MinFreq and MaxFreq bound the spectrum bins taken into account;
	// zero MaxFreq means the Nyquist frequency.
	MinFreq float64
	MaxFreq float64
}

func DefaultConfig() Config {
	return Config{
		SampleRate: 22050,
		FFTSize:    4410,
		HopSize:    2205,
		MinFreq:    DefaultMinFreq,
	}
}

type Extractor struct {
	config Config
	window []float64
	// binClass maps an FFT bin to its pitch class, or noPitchClass if the bin is out of range.
	binClass []int
}

func NewExtractor(cfg Config) (*Extractor, error) {
	if cfg.SampleRate == 0 {
		return nil, fmt.Errorf("the sample rate must be positive")
	}
	if cfg.FFTSize <= 0 {
		return nil, fmt.Errorf("the FFT size must be positive, got %d", cfg.FFTSize)
	}
	if cfg.HopSize <= 0 {
		return nil, fmt.Errorf("the hop size must be positive, got %d", cfg.HopSize)
	}
	nyquist := float64(cfg.SampleRate) / 2
	if cfg.MaxFreq <= 0 || cfg.MaxFreq > nyquist {
		cfg.MaxFreq = nyquist
	}
	if cfg.MinFreq < 0 || cfg.MinFreq >= cfg.MaxFreq {
		return nil, fmt.Errorf("invalid frequency range [%v, %v]", cfg.MinFreq, cfg.MaxFreq)
	}

	window := make([]float64, cfg.FFTSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(cfg.FFTSize)))
	}

	binClass := make([]int, cfg.FFTSize/2+1)
	for k := range binClass {
		binClass[k] = noPitchClass
		if k == 0 {
			continue
		}
		freq := float64(k) * float64(cfg.SampleRate) / float64(cfg.FFTSize)
		if freq < cfg.MinFreq || freq > cfg.MaxFreq {
			continue
		}
		binClass[k] = PitchClass(freq)
	}

	return &Extractor{
		config:   cfg,
		window:   window,
		binClass: binClass,
	}, nil
}

// PitchClass returns the equal-tempered pitch class (C = 0, A = 9) nearest to freq, with A4 = 440Hz.
func PitchClass(freq float64) int {
	midi := int(math.Round(referenceMIDI + NumPitchClasses*math.Log2(freq/referenceFreq)))
	return ((midi % NumPitchClasses) + NumPitchClasses) % NumPitchClasses
}

func (e *Extractor) Config() Config {
	return e.config
}

// NumFrames returns the amount of full analysis windows fitting into numSamples samples.
func (e *Extractor) NumFrames(numSamples int) int {
	if numSamples < e.config.FFTSize {
		return 0
	}
	return (numSamples-e.config.FFTSize)/e.config.HopSize + 1
}

// Extract computes the chromagram of the waveform. The result is a pure function of
// the samples and the configuration.
func (e *Extractor) Extract(
	ctx context.Context,
	w audio.Waveform,
) (*Matrix, error) {
	if w.SampleRate != e.config.SampleRate {
		return nil, fmt.Errorf("the waveform sample rate %d does not match the configured %d", w.SampleRate, e.config.SampleRate)
	}

	numFrames := e.NumFrames(w.Len())
	logger.Tracef(ctx, "extracting %d chroma frames from %d samples", numFrames, w.Len())
	m := &Matrix{
		SampleRate: e.config.SampleRate,
		HopSize:    e.config.HopSize,
		Columns:    make([]Vector, numFrames),
	}

	frame := make([]float64, e.config.FFTSize)
	for frameIdx := 0; frameIdx < numFrames; frameIdx++ {
		if frameIdx%ctxCheckFrames == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		start := frameIdx * e.config.HopSize
		for i, sample := range w.Samples[start : start+e.config.FFTSize] {
			frame[i] = sample * e.window[i]
		}
		m.Columns[frameIdx] = e.frameChroma(fft.FFTReal(frame))
	}
	return m, nil
}

func (e *Extractor) frameChroma(spectrum []complex128) Vector {
	var v Vector
	for k, class := range e.binClass {
		if class == noPitchClass {
			continue
		}
		re, im := real(spectrum[k]), imag(spectrum[k])
		v[class] += re*re + im*im
	}

	norm := v.Norm()
	if norm < minNorm {
		return Vector{}
	}
	for idx := range v {
		v[idx] /= norm
	}
	return v
}
