package audio

import (
	"time"
)

// Interleaved is multi-channel audio in range [-1, 1]; the samples of one
// frame (one per channel) are stored next to each other.
type Interleaved struct {
	SampleRate SampleRate
	Channels   Channel
	Samples    []float64
}

// Len returns the amount of frames.
func (a Interleaved) Len() int {
	if a.Channels == 0 {
		return 0
	}
	return len(a.Samples) / int(a.Channels)
}

func (a Interleaved) Duration() time.Duration {
	if a.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(a.Len()) / float64(a.SampleRate) * float64(time.Second))
}

// Interleaved returns the waveform as single-channel interleaved audio sharing the same samples.
func (w Waveform) Interleaved() Interleaved {
	return Interleaved{
		SampleRate: w.SampleRate,
		Channels:   1,
		Samples:    w.Samples,
	}
}
