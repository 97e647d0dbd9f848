package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillSquareWave(t *testing.T) {
	// 11025 Hz at 44100 Hz sample rate: two samples high, two samples low
	out := make([]float32, 8)
	phase := fillSquareWave(out, 11025, 0)
	assert.Equal(t, []float32{0.2, 0.2, -0.2, -0.2, 0.2, 0.2, -0.2, -0.2}, out)
	assert.InDelta(t, 0, phase, 1e-9)

	// the phase carries over between buffers
	out = make([]float32, 2)
	phase = fillSquareWave(out, 11025, 0.5)
	assert.Equal(t, []float32{-0.2, -0.2}, out)
	assert.InDelta(t, 0, phase, 1e-9)
}

func TestFillSquareWave_Silence(t *testing.T) {
	out := []float32{1, 1, 1}
	assert.Equal(t, 0.0, fillSquareWave(out, 0, 0.3))
	assert.Equal(t, []float32{0, 0, 0}, out)
}
