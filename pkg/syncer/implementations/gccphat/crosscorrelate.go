package gccphat

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/brettbuddin/fourier"
)

// whiteningThreshold is the magnitude, relative to the strongest bin, below
// which a bin of the cross-power spectrum is dropped instead of whitened (-60dB).
const whiteningThreshold = 0.001

// CrossCorrelate returns the lag (in samples) of the comparison signal relative to
// the reference one and the confidence of the estimate in range 0..1.
// fref and fcomp are the spectra of the zero-padded signals and must be of the
// same power-of-two length. A positive lag means the content appears later in
// the comparison signal.
//
// Bins outside [minFreq, maxFreq] are ignored; zero values disable the respective limit.
func CrossCorrelate(fref, fcomp []complex128, sampleRate float64, minFreq, maxFreq float64) (float64, float64, error) {
	if sampleRate <= 0 {
		return 0, 0, fmt.Errorf("sampleRate must be positive: got %v", sampleRate)
	}
	if len(fref) != len(fcomp) {
		return 0, 0, fmt.Errorf("fref and fcomp must have same length: %d != %d", len(fref), len(fcomp))
	}
	n := len(fref)

	binMin, binMax := 0, n/2
	if minFreq > 0 {
		binMin = int(minFreq * float64(n) / sampleRate)
	}
	if maxFreq > 0 && maxFreq < sampleRate/2 {
		binMax = int(maxFreq * float64(n) / sampleRate)
	}

	cross := make([]complex128, n)
	maxMag := 0.0
	for i := range cross {
		cross[i] = fcomp[i] * cmplx.Conj(fref[i])
		maxMag = math.Max(maxMag, cmplx.Abs(cross[i]))
	}
	threshold := maxMag * whiteningThreshold

	activeBins := 0
	for i, prod := range cross {
		freqIdx := i
		if i > n/2 {
			freqIdx = n - i
		}
		mag := cmplx.Abs(prod)
		if freqIdx < binMin || freqIdx > binMax || mag <= threshold || mag <= 1e-12 {
			cross[i] = 0
			continue
		}
		cross[i] = prod / complex(mag, 0)
		activeBins++
	}
	if activeBins == 0 {
		return 0, 0, nil
	}

	correlation, err := inverse(cross)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to perform the inverse FFT: %w", err)
	}

	peakVal, peakIdx := -1.0, 0
	for i, v := range correlation {
		if mag := cmplx.Abs(v); mag > peakVal {
			peakVal, peakIdx = mag, i
		}
	}

	lag := float64(peakIdx)
	if peakIdx > n/2 {
		lag -= float64(n)
	}

	// parabolic interpolation of the peak
	if peakIdx > 0 && peakIdx < n-1 {
		y1 := cmplx.Abs(correlation[peakIdx-1])
		y3 := cmplx.Abs(correlation[peakIdx+1])
		denom := y1 - 2*peakVal + y3
		if math.Abs(denom) > 1e-12 {
			lag += (y1 - y3) / (2 * denom)
		}
	}

	// a perfect match concentrates all the activeBins unit magnitudes
	// into the single peak of height activeBins/n
	confidence := math.Min(1, peakVal*float64(n)/float64(activeBins))
	return lag, confidence, nil
}

// inverse computes the normalised inverse FFT in place using the forward
// transform: ifft(x) = conj(fft(conj(x))) / n.
func inverse(x []complex128) ([]complex128, error) {
	for i := range x {
		x[i] = cmplx.Conj(x[i])
	}
	if err := fourier.Forward(x); err != nil {
		return nil, err
	}
	scale := complex(1/float64(len(x)), 0)
	for i := range x {
		x[i] = cmplx.Conj(x[i]) * scale
	}
	return x, nil
}
