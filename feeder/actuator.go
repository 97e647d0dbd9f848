package feeder

import (
	"time"

	c "lautenbacher.net/gofeeder/config"
)

// Phase of the dispenser arm.
type Phase int

const (
	Idle Phase = iota
	Dispensing
)

func (p Phase) String() string {
	if p == Dispensing {
		return "Dispensing"
	}
	return "Idle"
}

// ActuatorState is owned by the coordinator and replaced on every step.
// StartedAt is only meaningful while dispensing.
type ActuatorState struct {
	Phase     Phase
	StartedAt time.Time
}

// Transition tells the caller which output action a step requires.
type Transition int

const (
	NoTransition Transition = iota
	// Opened: move the arm to the open angle and confirm with a beep.
	Opened
	// Closed: move the arm back to the closed angle.
	Closed
)

func (t Transition) String() string {
	switch t {
	case Opened:
		return "Opened"
	case Closed:
		return "Closed"
	}
	return "None"
}

// Dispenser is the timed actuator state machine: a trigger while idle opens
// the arm, and the arm closes again once Duration has elapsed. Triggers while
// dispensing are ignored, nothing is queued.
type Dispenser struct {
	Duration    time.Duration
	OpenAngle   float64
	ClosedAngle float64
	// RequireRelease demands a released-to-pressed edge. Without it a button
	// that is still held when a cycle ends starts the next cycle right away.
	RequireRelease bool
}

// NewDispenser takes duration, angles and trigger mode from the Dispense section.
func NewDispenser(cfg c.DispenseConfig) Dispenser {
	return Dispenser{
		Duration:       cfg.Duration,
		OpenAngle:      cfg.OpenAngle,
		ClosedAngle:    cfg.ClosedAngle,
		RequireRelease: cfg.RequireRelease,
	}
}

// Triggered reports whether the button state counts as a trigger, given
// whether it was pressed in the previous iteration.
func (d Dispenser) Triggered(pressed, wasPressed bool) bool {
	if d.RequireRelease {
		return pressed && !wasPressed
	}
	return pressed
}

// Step advances the state machine. The trigger is looked at first and the
// elapsed time second; an arm opened in this step stays open at least until
// the next one.
func (d Dispenser) Step(st ActuatorState, triggered bool, now time.Time) (ActuatorState, Transition) {
	switch st.Phase {
	case Idle:
		if triggered {
			return ActuatorState{Phase: Dispensing, StartedAt: now}, Opened
		}
	case Dispensing:
		if now.Sub(st.StartedAt) >= d.Duration {
			return ActuatorState{Phase: Idle}, Closed
		}
	}
	return st, NoTransition
}

// Angle is the arm position belonging to st.
func (d Dispenser) Angle(st ActuatorState) float64 {
	if st.Phase == Dispensing {
		return d.OpenAngle
	}
	return d.ClosedAngle
}

// Remaining is the time left in the current cycle, zero when idle.
func (d Dispenser) Remaining(st ActuatorState, now time.Time) time.Duration {
	if st.Phase != Dispensing {
		return 0
	}
	return max(d.Duration-now.Sub(st.StartedAt), 0)
}
