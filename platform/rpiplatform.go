package platform

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
	"lautenbacher.net/gofeeder/config"
	"lautenbacher.net/gofeeder/feeder"
)

const (
	// Both hardware PWM channels run from the same clock, so servo and
	// buzzer only differ in their cycle length. One count is one µs.
	pwmClock   = 1_000_000
	servoCycle = 20_000 // 50 Hz
)

type RaspberryPiPlatform struct {
	*AbstractPlatform
	hw           feeder.Hardware
	opened       bool
	outputPins   []rpio.Pin
	servo        *rpiServo
	buzzer       *rpiBuzzer
	leds         *rpiLed
	serialLog    *SerialLog
	statusViewer *StatusViewer
}

func NewRaspberryPiPlatform(conf *config.Config) *RaspberryPiPlatform {
	inst := &RaspberryPiPlatform{}
	inst.AbstractPlatform = newAbstractPlatform(conf, inst.showStatus)
	return inst
}

// SetStatusViewer attaches an optional TUI viewer for the loop status.
func (s *RaspberryPiPlatform) SetStatusViewer(v *StatusViewer) {
	s.statusViewer = v
}

func (s *RaspberryPiPlatform) Hardware() feeder.Hardware {
	return s.hw
}

func (s *RaspberryPiPlatform) Start(feed *feeder.StatusFeed) error {
	hwc := s.config.Hardware

	slog.Info("Initialise GPIO and PWM...")
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("failed to open rpio: %w", err)
	}
	s.opened = true

	trigger := rpio.Pin(hwc.TriggerPin)
	trigger.Output()
	trigger.Low()

	echo := rpio.Pin(hwc.EchoPin)
	echo.Input()
	echo.PullDown()

	button := rpio.Pin(hwc.ButtonPin)
	button.Input()
	if hwc.ButtonActiveLow {
		button.PullUp()
	} else {
		button.PullDown()
	}

	var ledPins [3]levelWriter
	for i, pinNo := range hwc.LedPins {
		if i == len(ledPins) {
			break
		}
		pin := rpio.Pin(pinNo)
		pin.Output()
		ledPins[i] = pin
		s.outputPins = append(s.outputPins, pin)
	}
	s.outputPins = append(s.outputPins, trigger)

	servoPin := rpio.Pin(hwc.ServoPin)
	servoPin.Mode(rpio.Pwm)
	servoPin.Freq(pwmClock)

	buzzerPin := rpio.Pin(hwc.BuzzerPin)
	buzzerPin.Mode(rpio.Pwm)
	buzzerPin.Freq(pwmClock)

	s.servo = &rpiServo{pin: servoPin, minPulse: hwc.ServoMinPulse, maxPulse: hwc.ServoMaxPulse}
	s.buzzer = &rpiBuzzer{pin: buzzerPin}
	s.leds = &rpiLed{pins: ledPins, activeLow: hwc.LedActiveLow}

	ranger := newRpiRanger(trigger, echo, s.config.Sensor)
	s.hw = feeder.Hardware{
		Trigger:   &rpiButton{pin: button, activeLow: hwc.ButtonActiveLow},
		Actuator:  s.servo,
		Pulse:     ranger,
		Echo:      ranger,
		Indicator: s.leds,
		Tone:      s.buzzer,
		Display:   &logDisplay{},
	}

	if hwc.Serial.Device != "" {
		serialLog, err := OpenSerialLog(hwc.Serial)
		if err != nil {
			s.closeGpio()
			return err
		}
		s.serialLog = serialLog
		s.hw.Log = serialLog
	}

	if s.statusViewer != nil {
		s.statusViewer.Start()
	}
	s.startStatusRelay(feed)

	s.setReady() // For RPi, we are ready immediately.
	return nil
}

func (s *RaspberryPiPlatform) Stop() {
	s.setInShutdown()
	s.stopStatusRelay()

	if s.serialLog != nil {
		if err := s.serialLog.Close(); err != nil {
			slog.Error("Error closing serial port", "error", err)
		}
		s.serialLog = nil
	}

	s.closeGpio()

	// If there is a StatusViewer TUI, close it.
	if s.statusViewer != nil {
		s.statusViewer.Stop()
	}
}

func (s *RaspberryPiPlatform) closeGpio() {
	if !s.opened {
		return
	}
	if s.buzzer != nil {
		s.buzzer.Stop()
	}
	if s.leds != nil {
		s.leds.SetColor(feeder.ColorOff)
	}
	for _, pin := range s.outputPins {
		pin.Input()
	}
	s.outputPins = nil
	if err := rpio.Close(); err != nil {
		slog.Error("Error closing rpio", "error", err)
	}
	s.opened = false
}

func (s *RaspberryPiPlatform) showStatus(st feeder.Status) {
	if s.statusViewer != nil {
		s.statusViewer.Update(st)
	}
}

// The pin capabilities used below; rpio.Pin has them all.
type levelReader interface {
	Read() rpio.State
}

type levelWriter interface {
	Write(state rpio.State)
}

type pwmOutput interface {
	DutyCycle(dutyLen, cycleLen uint32)
}

type rpiButton struct {
	pin       levelReader
	activeLow bool
}

func (b *rpiButton) IsPressed() bool {
	return (b.pin.Read() == rpio.High) != b.activeLow
}

// rpiRanger drives an HC-SR04 style sensor. The echo is timed by polling the
// pin, which is accurate enough at the resolution of whole centimeters.
type rpiRanger struct {
	trigger levelWriter
	echo    levelReader
	settle  time.Duration
	width   time.Duration
	now     func() time.Time
	sleep   func(time.Duration)
}

func newRpiRanger(trigger levelWriter, echo levelReader, cfg config.SensorConfig) *rpiRanger {
	return &rpiRanger{
		trigger: trigger,
		echo:    echo,
		settle:  cfg.SettleTime,
		width:   cfg.PulseWidth,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

func (r *rpiRanger) EmitPulse() {
	r.trigger.Write(rpio.Low)
	r.sleep(r.settle)
	r.trigger.Write(rpio.High)
	r.sleep(r.width)
	r.trigger.Write(rpio.Low)
}

// WaitForEcho busy-waits for the echo pulse. Waiting for the rising edge and
// the pulse itself share one timeout, like pulseIn on a microcontroller.
func (r *rpiRanger) WaitForEcho(timeout time.Duration) (time.Duration, bool) {
	deadline := r.now().Add(timeout)
	for r.echo.Read() != rpio.High {
		if r.now().After(deadline) {
			return 0, false
		}
	}
	rise := r.now()
	for r.echo.Read() == rpio.High {
		if r.now().After(deadline) {
			return 0, false
		}
	}
	return r.now().Sub(rise), true
}

type rpiLed struct {
	pins      [3]levelWriter
	activeLow bool
}

func (l *rpiLed) SetColor(color feeder.Color) {
	red, green, blue := color.RGB()
	for i, on := range [3]bool{red, green, blue} {
		if l.pins[i] != nil {
			l.pins[i].Write(ledState(on, l.activeLow))
		}
	}
}

func ledState(on bool, activeLow bool) rpio.State {
	if on != activeLow {
		return rpio.High
	}
	return rpio.Low
}

type rpiServo struct {
	pin      pwmOutput
	minPulse time.Duration
	maxPulse time.Duration
}

func (sv *rpiServo) SetAngle(degrees float64) {
	sv.pin.DutyCycle(servoDuty(degrees, sv.minPulse, sv.maxPulse), servoCycle)
}

// servoDuty is the pulse width for the angle in PWM counts (µs).
func servoDuty(degrees float64, minPulse, maxPulse time.Duration) uint32 {
	degrees = math.Max(0, math.Min(180, degrees))
	span := float64((maxPulse - minPulse).Microseconds())
	return uint32(math.Round(float64(minPulse.Microseconds()) + span*degrees/180))
}

type rpiBuzzer struct {
	pin   pwmOutput
	cycle uint32
}

func (b *rpiBuzzer) PlayTone(frequency float64) {
	cycle := toneCycle(frequency)
	if cycle == 0 {
		b.Stop()
		return
	}
	b.cycle = cycle
	b.pin.DutyCycle(cycle/2, cycle)
}

func (b *rpiBuzzer) Stop() {
	cycle := b.cycle
	if cycle == 0 {
		cycle = toneCycle(1000)
	}
	b.pin.DutyCycle(0, cycle)
}

// toneCycle is the PWM cycle length for a square wave of frequency.
func toneCycle(frequency float64) uint32 {
	if frequency <= 0 {
		return 0
	}
	return uint32(max(math.Round(pwmClock/frequency), 2))
}

// logDisplay stands in for the character LCD and logs label changes.
type logDisplay struct {
	last string
}

func (d *logDisplay) ShowText(text string) {
	if text == d.last {
		return
	}
	d.last = text
	slog.Info("Display", "text", text)
}
