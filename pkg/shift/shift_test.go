package shift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avsync/pkg/audio"
)

func ramp(sampleRate audio.SampleRate, n int) audio.Waveform {
	w := audio.Waveform{
		SampleRate: sampleRate,
		Samples:    make([]float64, n),
	}
	for idx := range w.Samples {
		w.Samples[idx] = float64(idx+1) / float64(n)
	}
	return w
}

func TestApply(t *testing.T) {
	t.Run("Trim", func(t *testing.T) {
		w := ramp(1000, 5000)
		shifted := Apply(w, 1.5)
		require.Equal(t, 3500, shifted.Len())
		assert.Equal(t, w.Samples[1500:], shifted.Samples)
		assert.Equal(t, w.SampleRate, shifted.SampleRate)
	})

	t.Run("Pad", func(t *testing.T) {
		w := ramp(1000, 5000)
		shifted := Apply(w, -2)
		require.Equal(t, 7000, shifted.Len())
		for idx := 0; idx < 2000; idx++ {
			require.Zero(t, shifted.Samples[idx], "sample %d", idx)
		}
		assert.Equal(t, w.Samples, shifted.Samples[2000:])
	})

	t.Run("Rounding", func(t *testing.T) {
		w := ramp(22050, 22050)
		assert.Equal(t, 22050-2205, Apply(w, 0.1).Len())
		assert.Equal(t, 22050-1, Apply(w, 0.5/22050*1.01).Len())
		assert.Equal(t, 22050, Apply(w, 0.49/22050).Len())
		assert.Equal(t, 22050+3, Apply(w, -3.0/22050).Len())
	})

	t.Run("TrimBeyondEnd", func(t *testing.T) {
		w := ramp(1000, 500)
		shifted := Apply(w, 3)
		assert.Zero(t, shifted.Len())
		assert.NotNil(t, shifted.Samples)
	})

	t.Run("ZeroIsIdentity", func(t *testing.T) {
		w := ramp(1000, 100)
		shifted := Apply(w, 0)
		assert.Equal(t, w, shifted)
		shifted.Samples[0] = -1
		assert.NotEqual(t, -1.0, w.Samples[0])
	})

	t.Run("InputUntouched", func(t *testing.T) {
		w := ramp(1000, 100)
		orig := w.Clone()
		Apply(w, 0.05)
		Apply(w, -0.05)
		assert.Equal(t, orig, w)
	})
}

func TestSamples(t *testing.T) {
	assert.Equal(t, 44100, Samples(-2, 22050))
	assert.Equal(t, 33075, Samples(1.5, 22050))
	assert.Equal(t, 0, Samples(0, 22050))
}

func TestApplyInterleaved(t *testing.T) {
	stereo := audio.Interleaved{
		SampleRate: 10,
		Channels:   2,
		Samples:    []float64{1, -1, 2, -2, 3, -3, 4, -4},
	}

	t.Run("Trim", func(t *testing.T) {
		out := ApplyInterleaved(stereo, 0.2)
		assert.Equal(t, audio.Channel(2), out.Channels)
		assert.Equal(t, []float64{3, -3, 4, -4}, out.Samples)
	})

	t.Run("Pad", func(t *testing.T) {
		out := ApplyInterleaved(stereo, -0.1)
		assert.Equal(t, []float64{0, 0, 1, -1, 2, -2, 3, -3, 4, -4}, out.Samples)
		assert.Equal(t, stereo.Len()+1, out.Len())
	})

	t.Run("TrimBeyondEnd", func(t *testing.T) {
		out := ApplyInterleaved(stereo, 10)
		assert.Empty(t, out.Samples)
	})

	t.Run("InputUntouched", func(t *testing.T) {
		out := ApplyInterleaved(stereo, 0)
		require.Equal(t, stereo.Samples, out.Samples)
		out.Samples[0] = 42
		assert.Equal(t, 1.0, stereo.Samples[0])
	})
}
