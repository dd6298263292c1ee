// Package offset converts a correspondence path into a single time offset.
package offset

import (
	"errors"
	"fmt"
	"math"

	"github.com/xaionaro-go/avsync/pkg/aligner"
	"github.com/xaionaro-go/avsync/pkg/audio"
)

// ErrDegenerateAlignment is returned when the path has no points to estimate the offset from.
var ErrDegenerateAlignment = errors.New("the alignment path is empty")

// RejectionBand is the maximal deviation from the mean, in standard deviations,
// of a time difference to be taken into account.
const RejectionBand = 0.5

type Result struct {
	// Offset is timeA - timeB in seconds: positive if A leads B.
	Offset float64

	// Mean and StdDev describe all the differences before the outliers were rejected.
	Mean   float64
	StdDev float64

	// Retained is the amount of differences the Offset was calculated from; Total is the path length.
	Retained int
	Total    int
}

// Confidence is the share of path points which agree on the offset.
func (r Result) Confidence() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Retained) / float64(r.Total)
}

// Estimate converts each pair of the path to the time difference
// index*hopSize/sampleRate of A minus the same of B and returns the robust mean of them.
func Estimate(
	path aligner.Path,
	hopSize int,
	sampleRate audio.SampleRate,
) (Result, error) {
	if hopSize <= 0 {
		return Result{}, fmt.Errorf("the hop size must be positive, got %d", hopSize)
	}
	if sampleRate == 0 {
		return Result{}, fmt.Errorf("the sample rate must be positive")
	}
	if len(path) == 0 {
		return Result{}, ErrDegenerateAlignment
	}

	frameDuration := float64(hopSize) / float64(sampleRate)
	diffs := make([]float64, len(path))
	for idx, pair := range path {
		diffs[idx] = float64(pair.A)*frameDuration - float64(pair.B)*frameDuration
	}
	return RobustMean(diffs), nil
}

// RobustMean returns the mean of the values which deviate from the overall mean by
// at most RejectionBand population standard deviations. If no value qualifies,
// the overall mean is returned.
func RobustMean(values []float64) Result {
	result := Result{Total: len(values)}
	switch len(values) {
	case 0:
		result.Offset = math.NaN()
		result.Mean = math.NaN()
		return result
	case 1:
		result.Offset = values[0]
		result.Mean = values[0]
		result.Retained = 1
		return result
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sqSum float64
	for _, v := range values {
		sqSum += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(sqSum / float64(len(values)))
	result.Mean = mean
	result.StdDev = stdDev

	// a tolerance of a few ULPs keeps identical values from being rejected against a rounded mean
	limit := RejectionBand*stdDev + 1e-12*math.Max(1, math.Abs(mean))
	var keptSum float64
	for _, v := range values {
		if math.Abs(v-mean) <= limit {
			keptSum += v
			result.Retained++
		}
	}
	if result.Retained == 0 {
		result.Offset = mean
		return result
	}
	result.Offset = keptSum / float64(result.Retained)
	return result
}
