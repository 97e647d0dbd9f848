package platform

import (
	"lautenbacher.net/gofeeder/feeder"
)

// Platform defines the interface for abstracting away the real hardware
// from the TUI simulation.
type Platform interface {
	// Start initializes the platform (opens GPIO, or starts the TUI). The
	// feed delivers the loop status to viewers; it may be nil.
	Start(feed *feeder.StatusFeed) error

	// Stop cleans up all platform resources.
	Stop()

	// Ready is closed once the platform can take output, for the TUI this
	// is after the first draw.
	Ready() <-chan bool

	// Hardware returns the collaborators for the feeder loop. Only valid
	// after Start returned without error.
	Hardware() feeder.Hardware
}
