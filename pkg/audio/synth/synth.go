// Package synth generates simple waveforms: tones, silence and random melodies.
package synth

import (
	"math"
	"math/rand"
	"time"

	"github.com/xaionaro-go/avsync/pkg/audio"
)

func numSamples(sampleRate audio.SampleRate, duration time.Duration) int {
	return int(math.Round(duration.Seconds() * float64(sampleRate)))
}

func Silence(sampleRate audio.SampleRate, duration time.Duration) audio.Waveform {
	return audio.Waveform{
		SampleRate: sampleRate,
		Samples:    make([]float64, numSamples(sampleRate, duration)),
	}
}

// Tone is a sine wave of the given frequency and amplitude.
func Tone(
	sampleRate audio.SampleRate,
	freq float64,
	amplitude float64,
	duration time.Duration,
) audio.Waveform {
	w := Silence(sampleRate, duration)
	for idx := range w.Samples {
		w.Samples[idx] = amplitude * math.Sin(2*math.Pi*freq*float64(idx)/float64(sampleRate))
	}
	return w
}

// NoteFrequency returns the equal-tempered frequency of a MIDI note (A4 = 69 = 440Hz).
func NoteFrequency(midiNote int) float64 {
	return 440 * math.Pow(2, float64(midiNote-69)/12)
}

type MelodyConfig struct {
	SampleRate   audio.SampleRate
	Duration     time.Duration
	NoteDuration time.Duration

	// LowestNote and HighestNote bound the MIDI notes to pick from.
	LowestNote  int
	HighestNote int

	Seed int64
}

func DefaultMelodyConfig() MelodyConfig {
	return MelodyConfig{
		SampleRate:   22050,
		Duration:     5 * time.Second,
		NoteDuration: 100 * time.Millisecond,
		LowestNote:   48,
		HighestNote:  83,
	}
}

// Melody is a deterministic (for a given seed) sequence of random notes
// of random loudness.
func Melody(cfg MelodyConfig) audio.Waveform {
	rng := rand.New(rand.NewSource(cfg.Seed))
	w := Silence(cfg.SampleRate, cfg.Duration)
	noteLen := numSamples(cfg.SampleRate, cfg.NoteDuration)
	if noteLen <= 0 {
		noteLen = 1
	}
	noteRange := cfg.HighestNote - cfg.LowestNote + 1
	if noteRange <= 0 {
		noteRange = 1
	}

	for start := 0; start < len(w.Samples); start += noteLen {
		freq := NoteFrequency(cfg.LowestNote + rng.Intn(noteRange))
		amplitude := 0.1 + 0.4*rng.Float64()
		end := start + noteLen
		if end > len(w.Samples) {
			end = len(w.Samples)
		}
		for idx := start; idx < end; idx++ {
			w.Samples[idx] = amplitude * math.Sin(2*math.Pi*freq*float64(idx-start)/float64(cfg.SampleRate))
		}
	}
	return w
}

// Concat joins the waveforms; all of them must have the same sample rate as the first one.
func Concat(waveforms ...audio.Waveform) audio.Waveform {
	if len(waveforms) == 0 {
		return audio.Waveform{}
	}
	total := 0
	for _, w := range waveforms {
		total += w.Len()
	}
	result := audio.Waveform{
		SampleRate: waveforms[0].SampleRate,
		Samples:    make([]float64, 0, total),
	}
	for _, w := range waveforms {
		if w.SampleRate != result.SampleRate {
			panic("sample rates of the concatenated waveforms differ")
		}
		result.Samples = append(result.Samples, w.Samples...)
	}
	return result
}

// Slice returns a copy of the part of the waveform between from and to.
func Slice(w audio.Waveform, from, to time.Duration) audio.Waveform {
	start := numSamples(w.SampleRate, from)
	end := numSamples(w.SampleRate, to)
	if end > w.Len() || to <= 0 {
		end = w.Len()
	}
	if start > end {
		start = end
	}
	samples := make([]float64, end-start)
	copy(samples, w.Samples[start:end])
	return audio.Waveform{
		SampleRate: w.SampleRate,
		Samples:    samples,
	}
}
