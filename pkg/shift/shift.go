// Package shift moves audio in time at sample granularity.
package shift

import (
	"math"

	"github.com/xaionaro-go/avsync/pkg/audio"
)

// Samples returns the amount of samples corresponding to |offsetSeconds|.
func Samples(offsetSeconds float64, sampleRate audio.SampleRate) int {
	return int(math.Round(math.Abs(offsetSeconds) * float64(sampleRate)))
}

// Apply returns a new waveform: for a positive offset the leading offsetSeconds
// are dropped (at most the whole waveform), otherwise -offsetSeconds of silence
// is prepended. The input is never modified.
func Apply(
	w audio.Waveform,
	offsetSeconds float64,
) audio.Waveform {
	return audio.Waveform{
		SampleRate: w.SampleRate,
		Samples:    shiftFrames(w.Samples, 1, Samples(offsetSeconds, w.SampleRate), offsetSeconds > 0),
	}
}

// ApplyInterleaved is Apply for multi-channel audio; whole frames are dropped or prepended.
func ApplyInterleaved(
	a audio.Interleaved,
	offsetSeconds float64,
) audio.Interleaved {
	channels := int(a.Channels)
	if channels == 0 {
		channels = 1
	}
	return audio.Interleaved{
		SampleRate: a.SampleRate,
		Channels:   a.Channels,
		Samples:    shiftFrames(a.Samples, channels, Samples(offsetSeconds, a.SampleRate), offsetSeconds > 0),
	}
}

func shiftFrames(
	samples []float64,
	channels int,
	frames int,
	trim bool,
) []float64 {
	n := frames * channels
	if trim {
		if n > len(samples) {
			n = len(samples)
		}
		result := make([]float64, len(samples)-n)
		copy(result, samples[n:])
		return result
	}

	result := make([]float64, n+len(samples))
	copy(result[n:], samples)
	return result
}
