package audio

import (
	"errors"
	"time"
)

// ErrEmptyWaveform is returned when a decoded stream contains no samples.
var ErrEmptyWaveform = errors.New("the waveform contains no samples")

// Waveform is a mono sequence of samples in range [-1, 1] at a fixed sample rate.
//
// A Waveform is treated as immutable: functions that derive a new waveform
// never modify Samples of their input.
type Waveform struct {
	SampleRate SampleRate
	Samples    []float64
}

func (w Waveform) Len() int {
	return len(w.Samples)
}

func (w Waveform) Duration() time.Duration {
	if w.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// SamplesFor returns the amount of samples that fits into duration d.
func (w Waveform) SamplesFor(d time.Duration) int {
	return int(d.Seconds() * float64(w.SampleRate))
}

// Truncate returns the waveform limited to the first maxDuration of audio.
// A non-positive maxDuration means no limit.
func (w Waveform) Truncate(maxDuration time.Duration) Waveform {
	if maxDuration <= 0 {
		return w
	}
	limit := w.SamplesFor(maxDuration)
	if limit >= len(w.Samples) {
		return w
	}
	return Waveform{
		SampleRate: w.SampleRate,
		Samples:    w.Samples[:limit:limit],
	}
}

func (w Waveform) Clone() Waveform {
	samples := make([]float64, len(w.Samples))
	copy(samples, w.Samples)
	return Waveform{
		SampleRate: w.SampleRate,
		Samples:    samples,
	}
}
