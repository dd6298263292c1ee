package chromasync

import (
	"context"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/avsync/pkg/aligner"
	"github.com/xaionaro-go/avsync/pkg/audio"
	"github.com/xaionaro-go/avsync/pkg/audio/synth"
	"github.com/xaionaro-go/avsync/pkg/chroma"
)

func melody(seed int64, duration time.Duration) audio.Waveform {
	cfg := synth.DefaultMelodyConfig()
	cfg.Seed = seed
	cfg.Duration = duration
	return synth.Melody(cfg)
}

func newSyncer(t testing.TB, strategy aligner.Strategy) *Syncer {
	alignerCfg := aligner.DefaultConfig()
	alignerCfg.Strategy = strategy
	s, err := NewSyncer(chroma.DefaultConfig(), alignerCfg)
	require.NoError(t, err)
	return s
}

func TestSyncer_CalculateShiftBetween(t *testing.T) {
	ctx := context.Background()
	track := melody(1, 5*time.Second)

	for _, strategy := range []aligner.Strategy{aligner.StrategySubsequenceDTW, aligner.StrategyRecurrence} {
		s := newSyncer(t, strategy)
		t.Run(strategy.String(), func(t *testing.T) {
			t.Run("Identical", func(t *testing.T) {
				results, err := s.CalculateShiftBetween(ctx, track, track)
				require.NoError(t, err)
				require.Len(t, results, 1)
				assert.InDelta(t, 0.0, results[0].Shift, 1e-9)
				assert.Equal(t, 1.0, results[0].Confidence)
			})

			t.Run("ReferenceHasLeadingSilence", func(t *testing.T) {
				reference := synth.Concat(synth.Silence(22050, 2*time.Second), track)
				details, err := s.CalculateShiftDetails(ctx, reference, track)
				require.NoError(t, err)
				require.Len(t, details, 1)
				assert.InDelta(t, -2.0, details[0].Offset.Offset, 1e-6, spew.Sdump(details[0].Path))
			})

			t.Run("ComparisonHasExtraHead", func(t *testing.T) {
				reference := synth.Slice(track, 1500*time.Millisecond, 0)
				results, err := s.CalculateShiftBetween(ctx, reference, track)
				require.NoError(t, err)
				require.Len(t, results, 1)
				assert.InDelta(t, 1.5, results[0].Shift, 1e-6)
				assert.Greater(t, results[0].Confidence, 0.5)
			})

			t.Run("StationaryToneWithLeadingSilence", func(t *testing.T) {
				tone := synth.Tone(22050, 440, 0.5, 5*time.Second)
				reference := synth.Concat(synth.Silence(22050, 2*time.Second), tone)
				details, err := s.CalculateShiftDetails(ctx, reference, tone)
				require.NoError(t, err)
				require.Len(t, details, 1)
				assert.InDelta(t, -2.0, details[0].Offset.Offset, 0.1, spew.Sdump(details[0].Offset))
			})

			t.Run("MultipleComparisons", func(t *testing.T) {
				reference := synth.Concat(synth.Silence(22050, time.Second), track)
				results, err := s.CalculateShiftBetween(ctx, reference, track, reference, synth.Slice(track, time.Second, 0))
				require.NoError(t, err)
				require.Len(t, results, 3)
				assert.InDelta(t, -1.0, results[0].Shift, 1e-6)
				assert.InDelta(t, 0.0, results[1].Shift, 1e-6)
				assert.InDelta(t, -2.0, results[2].Shift, 1e-6)
			})
		})
	}
}

func TestSyncer_Errors(t *testing.T) {
	ctx := context.Background()
	s := newSyncer(t, aligner.StrategySubsequenceDTW)
	track := melody(2, 2*time.Second)

	t.Run("EmptyTrack", func(t *testing.T) {
		_, err := s.CalculateShiftBetween(ctx, track, audio.Waveform{SampleRate: 22050})
		assert.ErrorIs(t, err, audio.ErrEmptyWaveform)
	})

	t.Run("TooShortForAFrame", func(t *testing.T) {
		short := synth.Slice(track, 0, 100*time.Millisecond)
		_, err := s.CalculateShiftBetween(ctx, track, short)
		assert.ErrorIs(t, err, aligner.ErrEmptyInput)
	})

	t.Run("SampleRateMismatch", func(t *testing.T) {
		other := audio.Waveform{SampleRate: 44100, Samples: make([]float64, 44100)}
		_, err := s.CalculateShiftBetween(ctx, other, other)
		assert.Error(t, err)
	})

	t.Run("UnknownStrategy", func(t *testing.T) {
		_, err := NewSyncer(chroma.DefaultConfig(), aligner.Config{Strategy: aligner.StrategyUndefined})
		assert.Error(t, err)
	})
}

func BenchmarkSyncer_CalculateShiftBetween(b *testing.B) {
	reference := melody(3, 60*time.Second)
	comparison := synth.Slice(reference, 7*time.Second, 0)
	for _, strategy := range []aligner.Strategy{aligner.StrategySubsequenceDTW, aligner.StrategyRecurrence} {
		b.Run(strategy.String(), func(b *testing.B) {
			s := newSyncer(b, strategy)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := s.CalculateShiftBetween(context.Background(), reference, comparison)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
