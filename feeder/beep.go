package feeder

import "time"

// beepTimer plays a short tone without holding up the loop. While it runs it
// owns the buzzer; the alert table takes over again once it expires.
type beepTimer struct {
	frequency float64
	until     time.Time
	active    bool
}

func (b *beepTimer) start(frequency float64, d time.Duration, now time.Time) {
	b.frequency = frequency
	b.until = now.Add(d)
	b.active = d > 0
}

// running reports whether the beep still sounds at now and ends it otherwise.
func (b *beepTimer) running(now time.Time) bool {
	if b.active && !now.Before(b.until) {
		b.active = false
	}
	return b.active
}

// buzzer forwards tone changes only, so a continuous alarm is not restarted
// on every iteration.
type buzzer struct {
	out     ToneOutput
	playing float64
}

func (b *buzzer) set(frequency float64) {
	if frequency == b.playing {
		return
	}
	if frequency > 0 {
		b.out.PlayTone(frequency)
	} else {
		b.out.Stop()
	}
	b.playing = frequency
}

// silence stops the buzzer unconditionally.
func (b *buzzer) silence() {
	b.out.Stop()
	b.playing = 0
}
