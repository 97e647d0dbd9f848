package feeder

import "time"

// The collaborators the loop talks to. Implementations live in the
// platform package (Raspberry Pi GPIO or the terminal simulation). None of
// them report errors back into the loop; they log their own I/O problems.

// TriggerInput is the dispense button. IsPressed reports true while the
// button is held, whatever the electrical polarity.
type TriggerInput interface {
	IsPressed() bool
}

// ActuatorOutput moves the dispenser arm.
type ActuatorOutput interface {
	SetAngle(degrees float64)
}

// PulseEmitter fires the ranging pulse of an ultrasonic sensor.
type PulseEmitter interface {
	EmitPulse()
}

// EchoReader waits for the echo of the last pulse. It returns the length of
// the echo pulse and true, or false if nothing came back within timeout.
type EchoReader interface {
	WaitForEcho(timeout time.Duration) (time.Duration, bool)
}

// IndicatorOutput drives the tri-color LED.
type IndicatorOutput interface {
	SetColor(color Color)
}

// ToneOutput drives the buzzer. PlayTone keeps sounding until Stop or the
// next PlayTone; durations are handled by the loop.
type ToneOutput interface {
	PlayTone(frequency float64)
	Stop()
}

// StatusDisplay shows the human readable level label.
type StatusDisplay interface {
	ShowText(text string)
}

// DiagnosticLog receives one line per iteration with the raw distance.
type DiagnosticLog interface {
	LogLine(text string)
}

// Hardware bundles all collaborators of one platform. Log may be nil.
type Hardware struct {
	Trigger   TriggerInput
	Actuator  ActuatorOutput
	Pulse     PulseEmitter
	Echo      EchoReader
	Indicator IndicatorOutput
	Tone      ToneOutput
	Display   StatusDisplay
	Log       DiagnosticLog
}
