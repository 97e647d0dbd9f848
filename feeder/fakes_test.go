package feeder

import (
	"fmt"
	"time"
)

const testSpeedFactor = 0.034

type fakeTrigger struct {
	pressed bool
}

func (f *fakeTrigger) IsPressed() bool { return f.pressed }

type fakeActuator struct {
	angles []float64
}

func (f *fakeActuator) SetAngle(degrees float64) { f.angles = append(f.angles, degrees) }

// fakeSensor is both pulse emitter and echo reader.
type fakeSensor struct {
	pulses int
	echo   time.Duration
	ok     bool
}

func (f *fakeSensor) EmitPulse() { f.pulses++ }

func (f *fakeSensor) WaitForEcho(_ time.Duration) (time.Duration, bool) {
	return f.echo, f.ok
}

func (f *fakeSensor) setDistance(cm float64) {
	f.echo = CentimetersToEcho(cm, testSpeedFactor)
	f.ok = true
}

func (f *fakeSensor) setTimeout() {
	f.echo = 0
	f.ok = false
}

type fakeIndicator struct {
	colors []Color
}

func (f *fakeIndicator) SetColor(color Color) { f.colors = append(f.colors, color) }

func (f *fakeIndicator) last() Color {
	if len(f.colors) == 0 {
		return ColorOff
	}
	return f.colors[len(f.colors)-1]
}

type fakeTone struct {
	events []string
}

func (f *fakeTone) PlayTone(frequency float64) {
	f.events = append(f.events, fmt.Sprintf("play %g", frequency))
}

func (f *fakeTone) Stop() { f.events = append(f.events, "stop") }

type fakeDisplay struct {
	texts []string
}

func (f *fakeDisplay) ShowText(text string) { f.texts = append(f.texts, text) }

func (f *fakeDisplay) last() string {
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type fakeLog struct {
	lines []string
}

func (f *fakeLog) LogLine(text string) { f.lines = append(f.lines, text) }

type fakeHardware struct {
	trigger   *fakeTrigger
	actuator  *fakeActuator
	sensor    *fakeSensor
	indicator *fakeIndicator
	tone      *fakeTone
	display   *fakeDisplay
	log       *fakeLog
}

func newFakeHardware(cm float64) *fakeHardware {
	f := &fakeHardware{
		trigger:   &fakeTrigger{},
		actuator:  &fakeActuator{},
		sensor:    &fakeSensor{},
		indicator: &fakeIndicator{},
		tone:      &fakeTone{},
		display:   &fakeDisplay{},
		log:       &fakeLog{},
	}
	f.sensor.setDistance(cm)
	return f
}

func (f *fakeHardware) hardware() Hardware {
	return Hardware{
		Trigger:   f.trigger,
		Actuator:  f.actuator,
		Pulse:     f.sensor,
		Echo:      f.sensor,
		Indicator: f.indicator,
		Tone:      f.tone,
		Display:   f.display,
		Log:       f.log,
	}
}
