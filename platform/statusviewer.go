package platform

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/gammazero/deque"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"lautenbacher.net/gofeeder/feeder"
)

const (
	maxDistanceHistory = 500
	viewerTitle        = " GOFEEDER Status Viewer "
)

// StatusViewer is a TUI component for watching the loop on real hardware.
type StatusViewer struct {
	tuiApp    *tview.Application
	view      *tview.TextView
	distances *deque.Deque[float64]
	noReading int
	mu        sync.Mutex
	running   bool
	wg        sync.WaitGroup
	ossignal  chan os.Signal
}

type distanceStats struct {
	min    float64
	max    float64
	mean   float64
	median float64
	stdDev float64
}

// NewStatusViewer creates and initializes a new StatusViewer.
func NewStatusViewer(ossignal chan os.Signal) *StatusViewer {
	sv := &StatusViewer{
		tuiApp:    tview.NewApplication(),
		distances: new(deque.Deque[float64]),
		ossignal:  ossignal,
	}
	sv.distances.Grow(maxDistanceHistory)
	return sv
}

// Start sets up the UI and runs it in its own goroutine.
func (sv *StatusViewer) Start() {
	sv.setupUI()

	sv.mu.Lock()
	sv.running = true
	sv.mu.Unlock()

	sv.wg.Add(1)
	go func() {
		defer sv.wg.Done()
		if err := sv.tuiApp.Run(); err != nil {
			slog.Error("Error running StatusViewer TUI", "error", err)
			sv.ossignal <- os.Interrupt
		}
		slog.Info("StatusViewer TUI has stopped.")
	}()
}

func (sv *StatusViewer) Stop() {
	sv.mu.Lock()
	wasRunning := sv.running
	sv.running = false
	sv.mu.Unlock()
	if !wasRunning {
		return
	}
	slog.Info("Stopping StatusViewer TUI...")
	sv.tuiApp.Stop()
	sv.wg.Wait()
}

// Update records the latest status, prepares the display text and schedules
// a TUI redraw. This method is safe for concurrent use.
func (sv *StatusViewer) Update(st feeder.Status) {
	sv.mu.Lock()

	if cm, ok := st.Sample.Centimeters(); ok {
		if sv.distances.Len() == maxDistanceHistory {
			sv.distances.PopFront()
		}
		sv.distances.PushBack(cm)
	} else {
		sv.noReading++
	}

	text := sv.prepareDisplayText(st)
	running := sv.running

	sv.mu.Unlock()

	if running {
		sv.tuiApp.QueueUpdateDraw(func() {
			sv.view.SetText(text)
		})
	}
}

func (sv *StatusViewer) setupUI() {
	sv.view = tview.NewTextView()
	sv.view.SetDynamicColors(true)
	sv.view.SetTextAlign(tview.AlignLeft)
	sv.view.SetBackgroundColor(tcell.ColorDarkSlateGray)
	sv.view.SetBorder(true).SetTitle(viewerTitle).SetTitleColor(tcell.ColorLightBlue)

	intro := tview.NewTextView()
	intro.SetBorder(true).SetTitle(" GOFEEDER ").SetTitleColor(tcell.ColorLightBlue)
	intro.SetText("Displaying real sensor values.\nHit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload config file and restart")
	intro.SetTextAlign(tview.AlignCenter)
	intro.SetDynamicColors(true)
	intro.SetBackgroundColor(tcell.ColorDarkSlateGray)

	layout := tview.NewFlex().SetDirection(tview.FlexRow)
	layout.AddItem(intro, 4, 1, false)
	layout.AddItem(sv.view, 8, 1, true)

	sv.tuiApp.SetRoot(layout, true).SetFocus(sv.view)
	sv.tuiApp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch string(event.Rune()) {
		case "q", "Q":
			sv.ossignal <- os.Interrupt
			return nil
		case "r", "R":
			sv.ossignal <- syscall.SIGHUP
			return nil
		}
		return event
	})
}

// prepareDisplayText renders the status and the distance statistics.
// This method MUST be called with the mutex already held.
func (sv *StatusViewer) prepareDisplayText(st feeder.Status) string {
	data := make([]float64, sv.distances.Len())
	for i := range sv.distances.Len() {
		data[i] = sv.distances.At(i)
	}
	stats := calculateStats(data)

	var buf strings.Builder
	fmt.Fprintf(&buf, "[yellow]%-22s[white] %s\n", " Distance:", st.Sample)
	fmt.Fprintf(&buf, "[yellow]%-22s[white] %s (%s)\n", " Level:", st.Label, st.Level)
	fmt.Fprintf(&buf, "[yellow]%-22s[white] %s, buzzer %s%s\n", " Alert:", st.Signal.Color, st.Signal.Buzzer, mutedNote(st.Muted))
	fmt.Fprintf(&buf, "[yellow]%-22s[white] %s at %.0f°", " Dispenser:", st.Actuator.Phase, st.Angle)
	if st.Actuator.Phase == feeder.Dispensing {
		fmt.Fprintf(&buf, ", %.1fs left", st.Remaining.Seconds())
	}
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "[yellow]%-22s[white] [%5.1f|%5.1f|%5.1f] σ %.2f median %.1f\n", " [min|mean|max] cm:", stats.min, stats.mean, stats.max, stats.stdDev, stats.median)
	fmt.Fprintf(&buf, "[yellow]%-22s[white] %d", " No reading count:", sv.noReading)
	return buf.String()
}

func mutedNote(muted bool) string {
	if muted {
		return " (muted at night)"
	}
	return ""
}

func calculateStats(data []float64) distanceStats {
	if len(data) == 0 {
		return distanceStats{}
	}

	// Min, Max, Sum
	var sum float64
	min, max := data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}

	// Mean
	mean := sum / float64(len(data))

	// Median
	sort.Float64s(data)
	var median float64
	mid := len(data) / 2
	if len(data)%2 == 0 {
		median = (data[mid-1] + data[mid]) / 2.0
	} else {
		median = data[mid]
	}

	// Standard Deviation
	var sumOfSquares float64
	for _, v := range data {
		sumOfSquares += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(sumOfSquares / float64(len(data)))

	return distanceStats{
		min:    min,
		max:    max,
		mean:   mean,
		median: median,
		stdDev: stdDev,
	}
}
