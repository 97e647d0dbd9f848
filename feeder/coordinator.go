package feeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	c "lautenbacher.net/gofeeder/config"
)

// Coordinator runs the measurement-to-actuation loop. It owns the actuator
// state and is not safe for concurrent use; only Run or the caller of Tick
// may touch it.
type Coordinator struct {
	hw         Hardware
	feed       *StatusFeed
	period     time.Duration
	ranger     *Ranger
	thresholds Thresholds
	labels     Labels
	alerts     AlertTable
	dispenser  Dispenser
	confirm    c.ToneConfig
	night      *NightSchedule
	sleep      func(time.Duration)

	state      ActuatorState
	wasPressed bool
	beep       beepTimer
	buzzer     buzzer
	lastLevel  Level
	haveLevel  bool
	iteration  uint64
}

// NewCoordinator wires the loop. feed may be nil, as may hw.Log.
func NewCoordinator(cfg *c.Config, hw Hardware, feed *StatusFeed) (*Coordinator, error) {
	if err := checkHardware(hw); err != nil {
		return nil, err
	}
	alerts, err := NewAlertTable(cfg.Alerts)
	if err != nil {
		return nil, fmt.Errorf("can't build alert table: %w", err)
	}

	co := &Coordinator{
		hw:         hw,
		feed:       feed,
		period:     cfg.Loop.Period,
		ranger:     NewRanger(hw.Pulse, hw.Echo, cfg.Sensor),
		thresholds: NewThresholds(cfg.Levels),
		labels:     NewLabels(cfg.Levels),
		alerts:     alerts,
		dispenser:  NewDispenser(cfg.Dispense),
		confirm:    cfg.Dispense.ConfirmTone,
		sleep:      time.Sleep,
		buzzer:     buzzer{out: hw.Tone},
	}
	if cfg.Alerts.QuietAtNight {
		co.night = &NightSchedule{Latitude: cfg.Alerts.Latitude, Longitude: cfg.Alerts.Longitude}
	}
	return co, nil
}

func checkHardware(hw Hardware) error {
	var missing []error
	if hw.Trigger == nil {
		missing = append(missing, errors.New("no trigger input"))
	}
	if hw.Actuator == nil {
		missing = append(missing, errors.New("no actuator output"))
	}
	if hw.Pulse == nil || hw.Echo == nil {
		missing = append(missing, errors.New("no distance sensor"))
	}
	if hw.Indicator == nil {
		missing = append(missing, errors.New("no indicator output"))
	}
	if hw.Tone == nil {
		missing = append(missing, errors.New("no tone output"))
	}
	if hw.Display == nil {
		missing = append(missing, errors.New("no status display"))
	}
	return errors.Join(missing...)
}

// State returns the current actuator state.
func (co *Coordinator) State() ActuatorState {
	return co.state
}

// Tick performs one iteration at time now: trigger and dispense timer first,
// then measurement, classification, alert outputs and status relay.
func (co *Coordinator) Tick(now time.Time) Status {
	co.iteration++

	pressed := co.hw.Trigger.IsPressed()
	triggered := co.dispenser.Triggered(pressed, co.wasPressed)
	co.wasPressed = pressed

	next, transition := co.dispenser.Step(co.state, triggered, now)
	co.state = next
	switch transition {
	case Opened:
		slog.Info("Dispense started", "angle", co.dispenser.OpenAngle, "duration", co.dispenser.Duration)
		co.hw.Actuator.SetAngle(co.dispenser.OpenAngle)
		co.confirmBeep(now)
	case Closed:
		slog.Info("Dispense finished", "angle", co.dispenser.ClosedAngle)
		co.hw.Actuator.SetAngle(co.dispenser.ClosedAngle)
	}

	sample := co.ranger.Measure()
	level := Classify(sample, co.thresholds)
	signal := co.alerts.Map(level)
	entered := !co.haveLevel || level != co.lastLevel
	if entered {
		slog.Debug("Level changed", "level", level, "distance", sample)
	}
	co.lastLevel, co.haveLevel = level, true

	co.hw.Indicator.SetColor(signal.Color)

	if entered && signal.Buzzer == BuzzerMomentary {
		co.beep.start(signal.Frequency, co.confirm.Duration, now)
	}
	var frequency float64
	muted := false
	beeping := co.beep.running(now)
	switch {
	case beeping:
		frequency = co.beep.frequency
	case signal.Buzzer == BuzzerContinuous:
		if co.night != nil && co.night.IsNight(now) {
			muted = true
		} else {
			frequency = signal.Frequency
		}
	}
	co.buzzer.set(frequency)

	label := co.labels.Label(level)
	co.hw.Display.ShowText(label)
	if co.hw.Log != nil {
		co.hw.Log.LogLine("Distance: " + sample.String())
	}

	st := Status{
		Iteration:  co.iteration,
		Time:       now,
		Sample:     sample,
		Level:      level,
		Label:      label,
		Signal:     signal,
		Actuator:   co.state,
		Angle:      co.dispenser.Angle(co.state),
		Transition: transition,
		Remaining:  co.dispenser.Remaining(co.state, now),
		Beeping:    beeping,
		Muted:      muted,
	}
	if co.feed != nil {
		co.feed.Publish(st)
	}
	return st
}

// confirmBeep sounds the dispense confirmation. In blocking mode the loop
// waits for the tone like the original device does.
func (co *Coordinator) confirmBeep(now time.Time) {
	if co.confirm.Frequency <= 0 || co.confirm.Duration <= 0 {
		return
	}
	if co.confirm.Blocking {
		co.buzzer.set(co.confirm.Frequency)
		co.sleep(co.confirm.Duration)
		co.buzzer.set(0)
		return
	}
	co.beep.start(co.confirm.Frequency, co.confirm.Duration, now)
}

// Run ticks at the loop period until ctx is done, then parks the outputs.
func (co *Coordinator) Run(ctx context.Context) {
	defer co.Close()

	slog.Info("Starting feeder loop", "period", co.period)
	ticker := time.NewTicker(co.period)
	defer ticker.Stop()

	co.Tick(time.Now())
	for {
		select {
		case <-ctx.Done():
			slog.Info("Ending feeder loop")
			return
		case now := <-ticker.C:
			co.Tick(now)
		}
	}
}

// Close moves the arm to the closed angle, silences the buzzer and turns the
// indicator off. A running dispense cycle is abandoned.
func (co *Coordinator) Close() {
	if co.state.Phase == Dispensing {
		slog.Warn("Dispense cycle interrupted by shutdown")
	}
	co.state = ActuatorState{Phase: Idle}
	co.beep = beepTimer{}
	co.hw.Actuator.SetAngle(co.dispenser.ClosedAngle)
	co.buzzer.silence()
	co.hw.Indicator.SetColor(ColorOff)
}
