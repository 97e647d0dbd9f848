package feeder

import (
	"math"
	"time"

	c "lautenbacher.net/gofeeder/config"
)

// Ranger is the ultrasonic distance sensor driver: one pulse, one bounded
// wait for the echo, no retries. A missing echo is a NoSample, not an error.
type Ranger struct {
	pulse       PulseEmitter
	echo        EchoReader
	timeout     time.Duration
	speedFactor float64
	wholeCm     bool
}

// NewRanger measures over pulse and echo with the timing of cfg.
func NewRanger(pulse PulseEmitter, echo EchoReader, cfg c.SensorConfig) *Ranger {
	return &Ranger{
		pulse:       pulse,
		echo:        echo,
		timeout:     cfg.EchoTimeout,
		speedFactor: cfg.SpeedFactor,
		wholeCm:     cfg.WholeCentimeters,
	}
}

// Measure takes one sample.
func (r *Ranger) Measure() Sample {
	r.pulse.EmitPulse()
	d, ok := r.echo.WaitForEcho(r.timeout)
	if !ok || d < 0 || d > r.timeout {
		return NoSample()
	}
	return Distance(EchoToCentimeters(d, r.speedFactor, r.wholeCm))
}

// EchoToCentimeters converts the echo pulse length into the one-way
// distance: microseconds times speedFactor (cm/µs) halved. With whole set
// the result is truncated to full centimeters like the original firmware.
func EchoToCentimeters(d time.Duration, speedFactor float64, whole bool) float64 {
	cm := float64(d.Microseconds()) * speedFactor / 2
	if whole {
		cm = math.Trunc(cm)
	}
	return cm
}

// CentimetersToEcho is the inverse of EchoToCentimeters, used by the
// simulated sensor.
func CentimetersToEcho(cm float64, speedFactor float64) time.Duration {
	if speedFactor <= 0 || cm <= 0 {
		return 0
	}
	us := math.Ceil(cm * 2 / speedFactor)
	return time.Duration(us) * time.Microsecond
}
