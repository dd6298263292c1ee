package syncer

import (
	"fmt"

	"github.com/xaionaro-go/avsync/pkg/audio"
)

// CheckTracks verifies that the tracks are non-empty and share the sample rate of the reference one.
func CheckTracks(
	referenceTrack audio.Waveform,
	comparisonTracks ...audio.Waveform,
) error {
	if referenceTrack.SampleRate == 0 {
		return fmt.Errorf("the sample rate of the reference track is not set")
	}
	if referenceTrack.Len() == 0 {
		return fmt.Errorf("the reference track: %w", audio.ErrEmptyWaveform)
	}
	for idx, track := range comparisonTracks {
		if track.SampleRate != referenceTrack.SampleRate {
			return fmt.Errorf("the sample rate of comparison track #%d (%d) differs from the reference one (%d)", idx, track.SampleRate, referenceTrack.SampleRate)
		}
		if track.Len() == 0 {
			return fmt.Errorf("comparison track #%d: %w", idx, audio.ErrEmptyWaveform)
		}
	}
	return nil
}
