package chroma

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix(t *testing.T) {
	var empty *Matrix
	assert.Equal(t, 0, empty.Len())

	m := &Matrix{SampleRate: 22050, HopSize: 2205, Columns: make([]Vector, 3)}
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 0.0, m.FrameTime(0))
	assert.InDelta(t, 0.1, m.FrameTime(1), 1e-12)
	assert.InDelta(t, 2.0, m.FrameTime(20), 1e-12)
}
