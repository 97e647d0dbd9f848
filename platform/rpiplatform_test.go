package platform

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
	"github.com/stretchr/testify/assert"
	"lautenbacher.net/gofeeder/config"
	"lautenbacher.net/gofeeder/feeder"
)

type fakePin struct {
	state  rpio.State
	writes []rpio.State
	duty   [][2]uint32
}

func (p *fakePin) Read() rpio.State { return p.state }

func (p *fakePin) Write(state rpio.State) {
	p.state = state
	p.writes = append(p.writes, state)
}

func (p *fakePin) DutyCycle(dutyLen, cycleLen uint32) {
	p.duty = append(p.duty, [2]uint32{dutyLen, cycleLen})
}

// fakeClock advances by one microsecond on every reading.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Microsecond)
	return c.t
}

// echoPin is high during [rise, rise+width) on the fake clock.
type echoPin struct {
	clock *fakeClock
	start time.Time
	rise  time.Duration
	width time.Duration
}

func (p *echoPin) Read() rpio.State {
	elapsed := p.clock.t.Sub(p.start)
	if elapsed >= p.rise && elapsed < p.rise+p.width {
		return rpio.High
	}
	return rpio.Low
}

func TestRpiButton(t *testing.T) {
	pin := &fakePin{}
	activeLow := &rpiButton{pin: pin, activeLow: true}
	activeHigh := &rpiButton{pin: pin}

	pin.state = rpio.Low
	assert.True(t, activeLow.IsPressed())
	assert.False(t, activeHigh.IsPressed())

	pin.state = rpio.High
	assert.False(t, activeLow.IsPressed())
	assert.True(t, activeHigh.IsPressed())
}

func TestRpiLed_Polarity(t *testing.T) {
	var r, g, b fakePin
	led := &rpiLed{pins: [3]levelWriter{&r, &g, &b}}

	led.SetColor(feeder.ColorYellow)
	assert.Equal(t, []rpio.State{rpio.High, rpio.High, rpio.Low}, []rpio.State{r.state, g.state, b.state})

	led.activeLow = true
	led.SetColor(feeder.ColorYellow)
	assert.Equal(t, []rpio.State{rpio.Low, rpio.Low, rpio.High}, []rpio.State{r.state, g.state, b.state})

	led.SetColor(feeder.ColorOff)
	assert.Equal(t, []rpio.State{rpio.High, rpio.High, rpio.High}, []rpio.State{r.state, g.state, b.state})
}

func TestServoDuty(t *testing.T) {
	minPulse, maxPulse := 544*time.Microsecond, 2400*time.Microsecond
	assert.Equal(t, uint32(544), servoDuty(0, minPulse, maxPulse))
	assert.Equal(t, uint32(1472), servoDuty(90, minPulse, maxPulse))
	assert.Equal(t, uint32(2400), servoDuty(180, minPulse, maxPulse))
	assert.Equal(t, uint32(2400), servoDuty(270, minPulse, maxPulse))
	assert.Equal(t, uint32(544), servoDuty(-10, minPulse, maxPulse))

	pin := &fakePin{}
	servo := &rpiServo{pin: pin, minPulse: minPulse, maxPulse: maxPulse}
	servo.SetAngle(90)
	assert.Equal(t, [][2]uint32{{1472, servoCycle}}, pin.duty)
}

func TestRpiBuzzer(t *testing.T) {
	assert.Equal(t, uint32(1000), toneCycle(1000))
	assert.Equal(t, uint32(667), toneCycle(1500))
	assert.Equal(t, uint32(0), toneCycle(0))
	assert.Equal(t, uint32(2), toneCycle(5e6))

	pin := &fakePin{}
	bz := &rpiBuzzer{pin: pin}
	bz.Stop()
	bz.PlayTone(1500)
	bz.Stop()
	bz.PlayTone(0)
	assert.Equal(t, [][2]uint32{{0, 1000}, {333, 667}, {0, 667}, {0, 667}}, pin.duty)
}

func TestRpiRanger_Pulse(t *testing.T) {
	trigger := &fakePin{}
	var slept []time.Duration
	r := newRpiRanger(trigger, &fakePin{}, config.Default().Sensor)
	r.sleep = func(d time.Duration) { slept = append(slept, d) }

	r.EmitPulse()
	assert.Equal(t, []rpio.State{rpio.Low, rpio.High, rpio.Low}, trigger.writes)
	assert.Equal(t, []time.Duration{5 * time.Microsecond, 10 * time.Microsecond}, slept)
}

func TestRpiRanger_WaitForEcho(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	pin := &echoPin{clock: clock, start: clock.t, rise: 500 * time.Microsecond, width: 1059 * time.Microsecond}
	r := newRpiRanger(&fakePin{}, pin, config.Default().Sensor)
	r.now = clock.now

	d, ok := r.WaitForEcho(30 * time.Millisecond)
	assert.True(t, ok)
	assert.InDelta(t, 1059, d.Microseconds(), 3)
	assert.Equal(t, 18.0, feeder.EchoToCentimeters(d, 0.034, true))
}

func TestRpiRanger_LateEchoExceedsTimeout(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	pin := &echoPin{clock: clock, start: clock.t, rise: 29900 * time.Microsecond, width: 29 * time.Millisecond}
	r := newRpiRanger(&fakePin{}, pin, config.Default().Sensor)
	r.now = clock.now

	_, ok := r.WaitForEcho(30 * time.Millisecond)
	assert.False(t, ok)
	assert.LessOrEqual(t, clock.t.Sub(pin.start), 30*time.Millisecond+5*time.Microsecond)
}

func TestRpiRanger_NoEcho(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := newRpiRanger(&fakePin{}, &fakePin{state: rpio.Low}, config.Default().Sensor)
	r.now = clock.now

	_, ok := r.WaitForEcho(30 * time.Millisecond)
	assert.False(t, ok)
}

func TestRpiRanger_StuckHigh(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := newRpiRanger(&fakePin{}, &fakePin{state: rpio.High}, config.Default().Sensor)
	r.now = clock.now

	_, ok := r.WaitForEcho(30 * time.Millisecond)
	assert.False(t, ok)
}

type fakePort struct {
	buf    bytes.Buffer
	closed bool
	err    error
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	return p.buf.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSerialLog(t *testing.T) {
	port := &fakePort{}
	log := newSerialLog(port)

	log.LogLine("Distance: 18 cm")
	log.LogLine("Distance: no reading")
	assert.Equal(t, "Distance: 18 cm\r\nDistance: no reading\r\n", port.buf.String())

	port.err = errors.New("unplugged")
	log.LogLine("Distance: 10 cm")
	assert.True(t, log.failed)
	port.err = nil
	log.LogLine("Distance: 11 cm")
	assert.False(t, log.failed)
	assert.Contains(t, port.buf.String(), "Distance: 11 cm\r\n")
	assert.NotContains(t, port.buf.String(), "Distance: 10 cm")

	assert.NoError(t, log.Close())
	assert.True(t, port.closed)
	assert.NoError(t, log.Close())
	assert.NotPanics(t, func() { log.LogLine("after close") })
}

func TestLogDisplay(t *testing.T) {
	d := &logDisplay{}
	d.ShowText("Nivel Baixo")
	d.ShowText("Nivel Baixo")
	assert.Equal(t, "Nivel Baixo", d.last)
}
