package feeder

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Status is the outcome of one loop iteration.
type Status struct {
	Iteration  uint64
	Time       time.Time
	Sample     Sample
	Level      Level
	Label      string
	Signal     AlertSignal
	Actuator   ActuatorState
	Angle      float64
	Transition Transition
	Remaining  time.Duration
	Beeping    bool
	Muted      bool
}

// StatusFeed holds the latest Status and provides non-blocking updates.
// Only the most recent status is retained; readers that fall behind skip
// iterations instead of stalling the loop.
type StatusFeed struct {
	mu     sync.Mutex
	value  Status
	set    bool
	notify chan struct{}
}

func NewStatusFeed() *StatusFeed {
	return &StatusFeed{
		notify: make(chan struct{}, 1),
	}
}

// Publish replaces the latest status. It never blocks.
func (f *StatusFeed) Publish(st Status) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.value = st
	f.set = true

	select {
	case f.notify <- struct{}{}:
	default:
		// a notification is already pending
	}
}

// Updates returns the notification channel for use in select statements.
func (f *StatusFeed) Updates() <-chan struct{} {
	return f.notify
}

// Latest returns the most recent status and whether one was published yet.
func (f *StatusFeed) Latest() (Status, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.set
}

type statusJSON struct {
	Iteration   uint64    `json:"iteration"`
	Time        time.Time `json:"time"`
	DistanceCm  *float64  `json:"distance_cm"`
	Level       string    `json:"level"`
	Label       string    `json:"label"`
	Color       string    `json:"color"`
	Buzzer      string    `json:"buzzer"`
	Muted       bool      `json:"muted"`
	Phase       string    `json:"phase"`
	Angle       float64   `json:"angle"`
	RemainingMs int64     `json:"remaining_ms"`
	Beeping     bool      `json:"beeping"`
}

// ServeHTTP serves the latest status as JSON on GET /api/status.
func (f *StatusFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	st, ok := f.Latest()
	if !ok {
		http.Error(w, "No measurement yet", http.StatusServiceUnavailable)
		return
	}
	out := statusJSON{
		Iteration:   st.Iteration,
		Time:        st.Time,
		Level:       st.Level.String(),
		Label:       st.Label,
		Color:       st.Signal.Color.String(),
		Buzzer:      st.Signal.Buzzer.String(),
		Muted:       st.Muted,
		Phase:       st.Actuator.Phase.String(),
		Angle:       st.Angle,
		RemainingMs: st.Remaining.Milliseconds(),
		Beeping:     st.Beeping,
	}
	if cm, valid := st.Sample.Centimeters(); valid {
		out.DistanceCm = &cm
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.Error("Failed to encode status", "error", err)
	}
}
