// Package syncer defines the estimation of the time shift between audio tracks.
package syncer

import (
	"context"

	"github.com/xaionaro-go/avsync/pkg/audio"
)

type ShiftResult struct {
	// Shift is the position of some content in the comparison track minus its
	// position in the reference track, in seconds. A positive value means the
	// comparison track has to be trimmed by Shift to become synced with the
	// reference one; a negative value means -Shift of silence has to be prepended.
	Shift float64

	// Confidence is a score in range 0..1.
	Confidence float64
}

type Syncer interface {
	// CalculateShiftBetween returns a ShiftResult for each of the comparison
	// tracks. All the tracks must have the same sample rate.
	CalculateShiftBetween(
		ctx context.Context,
		referenceTrack audio.Waveform,
		comparisonTracks ...audio.Waveform,
	) ([]ShiftResult, error)
}
