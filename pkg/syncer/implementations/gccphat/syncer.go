// Package gccphat estimates the shift between whole tracks using
// Generalized Cross-Correlation with Phase Transform (GCC-PHAT).
//
// The cross-power spectrum of the two tracks is whitened (every bin is
// normalised to unit magnitude), so the inverse transform has a sharp peak
// at the delay regardless of the spectral envelope of the content.
package gccphat

import (
	"context"
	"fmt"

	"github.com/brettbuddin/fourier"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/avsync/pkg/audio"
	"github.com/xaionaro-go/avsync/pkg/syncer"
)

const (
	DefaultMinFreq = 100
	DefaultMaxFreq = 12000
)

type Syncer struct {
	MinFreq float64
	MaxFreq float64
}

var _ syncer.Syncer = (*Syncer)(nil)

// NewSyncer returns a syncer limited to the 100Hz-12kHz band, which carries
// most of the informative content without low rumble and digital noise.
func NewSyncer() *Syncer {
	return &Syncer{
		MinFreq: DefaultMinFreq,
		MaxFreq: DefaultMaxFreq,
	}
}

func (s *Syncer) CalculateShiftBetween(
	ctx context.Context,
	referenceTrack audio.Waveform,
	comparisonTracks ...audio.Waveform,
) ([]syncer.ShiftResult, error) {
	if err := syncer.CheckTracks(referenceTrack, comparisonTracks...); err != nil {
		return nil, err
	}
	sampleRate := float64(referenceTrack.SampleRate)

	var (
		fref    []complex128
		fftSize int
	)
	results := make([]syncer.ShiftResult, len(comparisonTracks))
	for idx, comparisonTrack := range comparisonTracks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// the next power of two of n1+n2-1 avoids circular convolution artifacts
		n := 1
		for n < referenceTrack.Len()+comparisonTrack.Len()-1 {
			n <<= 1
		}
		if n != fftSize {
			var err error
			fref, err = spectrum(referenceTrack.Samples, n)
			if err != nil {
				return nil, fmt.Errorf("unable to transform the reference track: %w", err)
			}
			fftSize = n
		}
		fcomp, err := spectrum(comparisonTrack.Samples, n)
		if err != nil {
			return nil, fmt.Errorf("unable to transform comparison track #%d: %w", idx, err)
		}

		lag, confidence, err := CrossCorrelate(fref, fcomp, sampleRate, s.MinFreq, s.MaxFreq)
		if err != nil {
			return nil, fmt.Errorf("unable to cross-correlate track #%d: %w", idx, err)
		}
		logger.Debugf(ctx, "GCC-PHAT: track #%d: FFT size %d, lag %f samples, confidence %f", idx, n, lag, confidence)
		results[idx] = syncer.ShiftResult{
			Shift:      lag / sampleRate,
			Confidence: confidence,
		}
	}
	return results, nil
}

func spectrum(samples []float64, n int) ([]complex128, error) {
	buf := make([]complex128, n)
	for idx, sample := range samples {
		buf[idx] = complex(sample, 0)
	}
	if err := fourier.Forward(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
