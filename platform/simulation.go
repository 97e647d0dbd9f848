package platform

import (
	"math"
	"sync"
	"time"

	c "lautenbacher.net/gofeeder/config"
	"lautenbacher.net/gofeeder/feeder"
)

const maxSimulatedDistance = 400.0

// simHardware is the dispenser as seen by the terminal simulation. It
// implements every collaborator of the feeder loop; the TUI changes the
// inputs from the keyboard and renders the outputs.
type simHardware struct {
	mu           sync.Mutex
	distance     float64
	echoTimeout  bool
	speedFactor  float64
	buttonHold   time.Duration
	pressedUntil time.Time
	pulses       int
	angle        float64
	color        feeder.Color
	tone         float64
	text         string
	logLine      string
	audio        feeder.ToneOutput
	now          func() time.Time
	changed      func()
}

type simSnapshot struct {
	distance    float64
	echoTimeout bool
	pressed     bool
	angle       float64
	color       feeder.Color
	tone        float64
	text        string
	logLine     string
}

func newSimHardware(conf *c.Config) *simHardware {
	return &simHardware{
		distance:    conf.Simulation.StartDistance,
		speedFactor: conf.Sensor.SpeedFactor,
		buttonHold:  conf.Simulation.ButtonHold,
		angle:       conf.Dispense.ClosedAngle,
		now:         time.Now,
	}
}

func (h *simHardware) hardware() feeder.Hardware {
	return feeder.Hardware{
		Trigger:   h,
		Actuator:  h,
		Pulse:     h,
		Echo:      h,
		Indicator: h,
		Tone:      h,
		Display:   h,
		Log:       h,
	}
}

// update applies fn under the lock and reports a change afterwards if fn
// returned true.
func (h *simHardware) update(fn func() bool) {
	h.mu.Lock()
	changed := fn()
	notify := h.changed
	h.mu.Unlock()
	if changed && notify != nil {
		notify()
	}
}

func (h *simHardware) snapshot() simSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return simSnapshot{
		distance:    h.distance,
		echoTimeout: h.echoTimeout,
		pressed:     h.now().Before(h.pressedUntil),
		angle:       h.angle,
		color:       h.color,
		tone:        h.tone,
		text:        h.text,
		logLine:     h.logLine,
	}
}

// press holds the button down for the configured time.
func (h *simHardware) press() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pressedUntil = h.now().Add(h.buttonHold)
}

func (h *simHardware) adjustDistance(delta float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.distance = math.Max(0, math.Min(maxSimulatedDistance, h.distance+delta))
	return h.distance
}

func (h *simHardware) toggleEchoTimeout() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.echoTimeout = !h.echoTimeout
	return h.echoTimeout
}

func (h *simHardware) IsPressed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now().Before(h.pressedUntil)
}

func (h *simHardware) EmitPulse() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pulses++
}

// WaitForEcho answers at once with the echo length belonging to the
// simulated distance.
func (h *simHardware) WaitForEcho(timeout time.Duration) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.echoTimeout {
		return 0, false
	}
	echo := feeder.CentimetersToEcho(h.distance, h.speedFactor)
	if echo > timeout {
		return 0, false
	}
	return echo, true
}

func (h *simHardware) SetAngle(degrees float64) {
	h.update(func() bool {
		old := h.angle
		h.angle = degrees
		return old != degrees
	})
}

func (h *simHardware) SetColor(color feeder.Color) {
	h.update(func() bool {
		old := h.color
		h.color = color
		return old != color
	})
}

func (h *simHardware) PlayTone(frequency float64) {
	h.update(func() bool {
		if h.audio != nil {
			h.audio.PlayTone(frequency)
		}
		old := h.tone
		h.tone = frequency
		return old != frequency
	})
}

func (h *simHardware) Stop() {
	h.update(func() bool {
		if h.audio != nil {
			h.audio.Stop()
		}
		old := h.tone
		h.tone = 0
		return old != 0
	})
}

func (h *simHardware) ShowText(text string) {
	h.update(func() bool {
		old := h.text
		h.text = text
		return old != text
	})
}

func (h *simHardware) LogLine(text string) {
	h.update(func() bool {
		old := h.logLine
		h.logLine = text
		return old != text
	})
}
