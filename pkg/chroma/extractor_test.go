package chroma

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avsync/pkg/audio"
)

func tone(sampleRate audio.SampleRate, freq float64, numSamples int) audio.Waveform {
	w := audio.Waveform{
		SampleRate: sampleRate,
		Samples:    make([]float64, numSamples),
	}
	for i := range w.Samples {
		w.Samples[i] = 0.3 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return w
}

func noise(sampleRate audio.SampleRate, numSamples int, seed int64) audio.Waveform {
	rng := rand.New(rand.NewSource(seed))
	w := audio.Waveform{
		SampleRate: sampleRate,
		Samples:    make([]float64, numSamples),
	}
	for i := range w.Samples {
		w.Samples[i] = rng.Float64()*2 - 1
	}
	return w
}

func TestNewExtractor(t *testing.T) {
	_, err := NewExtractor(DefaultConfig())
	require.NoError(t, err)

	for name, mutate := range map[string]func(*Config){
		"ZeroSampleRate": func(c *Config) { c.SampleRate = 0 },
		"ZeroFFTSize":    func(c *Config) { c.FFTSize = 0 },
		"NegativeHop":    func(c *Config) { c.HopSize = -1 },
		"EmptyBand":      func(c *Config) { c.MinFreq = 20000 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := NewExtractor(cfg)
			assert.Error(t, err)
		})
	}
}

func TestPitchClass(t *testing.T) {
	assert.Equal(t, 9, PitchClass(440))
	assert.Equal(t, 9, PitchClass(220))
	assert.Equal(t, 9, PitchClass(27.5))
	assert.Equal(t, 0, PitchClass(261.63))
	assert.Equal(t, 7, PitchClass(392))
	assert.Equal(t, 11, PitchClass(493.88))
	assert.Equal(t, 1, PitchClass(277.18))
}

func TestExtract(t *testing.T) {
	ctx := context.Background()
	e, err := NewExtractor(DefaultConfig())
	require.NoError(t, err)

	t.Run("FrameCount", func(t *testing.T) {
		for _, tc := range []struct {
			samples int
			frames  int
		}{
			{0, 0},
			{4409, 0},
			{4410, 1},
			{4410 + 2204, 1},
			{4410 + 2205, 2},
			{4410 + 3*2205, 4},
			{22050 * 2, 19},
		} {
			m, err := e.Extract(ctx, audio.Waveform{SampleRate: 22050, Samples: make([]float64, tc.samples)})
			require.NoError(t, err)
			assert.Equal(t, tc.frames, m.Len(), "samples: %d", tc.samples)
			assert.Equal(t, tc.frames, e.NumFrames(tc.samples))
		}
	})

	t.Run("SampleRateMismatch", func(t *testing.T) {
		_, err := e.Extract(ctx, audio.Waveform{SampleRate: 44100, Samples: make([]float64, 10000)})
		assert.Error(t, err)
	})

	t.Run("Normalisation", func(t *testing.T) {
		m, err := e.Extract(ctx, noise(22050, 22050*3, 1))
		require.NoError(t, err)
		require.NotZero(t, m.Len())
		for idx, column := range m.Columns {
			assert.InDelta(t, 1.0, column.Norm(), 1e-9, "frame %d: %s", idx, spew.Sdump(column))
			for _, v := range column {
				assert.GreaterOrEqual(t, v, 0.0)
			}
		}
	})

	t.Run("Silence", func(t *testing.T) {
		m, err := e.Extract(ctx, audio.Waveform{SampleRate: 22050, Samples: make([]float64, 22050)})
		require.NoError(t, err)
		for idx, column := range m.Columns {
			assert.True(t, column.IsZero(), "frame %d", idx)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		w := noise(22050, 22050*2, 2)
		m1, err := e.Extract(ctx, w)
		require.NoError(t, err)
		m2, err := e.Extract(ctx, w)
		require.NoError(t, err)
		assert.Equal(t, m1, m2)
	})

	t.Run("ToneA", func(t *testing.T) {
		m, err := e.Extract(ctx, tone(22050, 440, 22050))
		require.NoError(t, err)
		require.NotZero(t, m.Len())
		for idx, column := range m.Columns {
			assert.Equal(t, 9, column.Dominant(), "frame %d: %s", idx, spew.Sdump(column))
			assert.Greater(t, column[9], 0.99)
		}
	})

	t.Run("ToneG", func(t *testing.T) {
		m, err := e.Extract(ctx, tone(22050, 392, 22050))
		require.NoError(t, err)
		for idx, column := range m.Columns {
			assert.Equal(t, 7, column.Dominant(), "frame %d", idx)
		}
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.Extract(ctx, noise(22050, 22050, 3))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCosine(t *testing.T) {
	a := Vector{1, 0, 0}
	b := Vector{0, 1, 0}
	c := Vector{2, 0, 0}
	assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-12)
	assert.InDelta(t, 1.0, CosineSimilarity(a, c), 1e-12)
	assert.InDelta(t, 0.0, CosineDistance(a, c), 1e-12)
	assert.Equal(t, 0.0, CosineSimilarity(a, Vector{}))
	assert.Equal(t, 1.0, CosineDistance(Vector{}, Vector{}))
}

func BenchmarkExtract(b *testing.B) {
	e, err := NewExtractor(DefaultConfig())
	require.NoError(b, err)
	w := noise(22050, 22050*10, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := e.Extract(context.Background(), w)
		if err != nil {
			b.Fatal(err)
		}
	}
}
