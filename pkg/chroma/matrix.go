package chroma

import (
	"github.com/xaionaro-go/avsync/pkg/audio"
)

// Matrix is a chromagram: one L2-normalised Vector per analysis frame.
type Matrix struct {
	SampleRate audio.SampleRate
	HopSize    int
	Columns    []Vector
}

func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Columns)
}

// FrameTime returns the start of the frame in seconds.
func (m *Matrix) FrameTime(frameIdx int) float64 {
	return float64(frameIdx) * float64(m.HopSize) / float64(m.SampleRate)
}
