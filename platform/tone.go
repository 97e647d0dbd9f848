package platform

import "math"

const (
	toneSampleRate = 44100
	toneAmplitude  = 0.2
)

// fillSquareWave writes a square wave of frequency into out, starting at
// phase (0..1), and returns the phase to continue with. A frequency of zero
// writes silence. The piezo buzzer of the device sounds like this.
func fillSquareWave(out []float32, frequency float64, phase float64) float64 {
	if frequency <= 0 {
		clear(out)
		return 0
	}
	step := frequency / toneSampleRate
	for i := range out {
		if phase < 0.5 {
			out[i] = toneAmplitude
		} else {
			out[i] = -toneAmplitude
		}
		phase += step
		phase -= math.Floor(phase)
	}
	return phase
}
