package platform

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/exp/maps"

	"lautenbacher.net/gofeeder/config"
	"lautenbacher.net/gofeeder/feeder"
	"lautenbacher.net/gofeeder/logging"
)

const lcdWidth = 16

type TUIPlatform struct {
	*AbstractPlatform
	sim          *simHardware
	audio        *PortAudioTone
	tviewapp     *tview.Application
	intro        *tview.TextView
	lcdView      *tview.TextView
	ledView      *tview.TextView
	buzzerView   *tview.TextView
	servoView    *tview.TextView
	serialView   *tview.TextView
	logView      *tview.TextView
	ossignalChan chan os.Signal
	logFlushOnce sync.Once
	statusMutex  sync.Mutex
	status       feeder.Status
	lastPanes    map[string]string
}

func NewTUIPlatform(conf *config.Config, ossignalchan chan os.Signal) *TUIPlatform {
	inst := &TUIPlatform{
		ossignalChan: ossignalchan,
		sim:          newSimHardware(conf),
	}
	inst.AbstractPlatform = newAbstractPlatform(conf, inst.showStatus)
	return inst
}

func (s *TUIPlatform) Hardware() feeder.Hardware {
	return s.sim.hardware()
}

func (s *TUIPlatform) Start(feed *feeder.StatusFeed) error {
	if s.config.Simulation.Audio {
		audio, err := NewPortAudioTone()
		if err != nil {
			slog.Warn("Audio output not available, buzzer is shown only", "error", err)
		} else {
			s.audio = audio
			s.sim.audio = audio
		}
	}

	s.initSimulationTUI(s.ossignalChan)
	s.sim.changed = s.queueRedraw
	s.startStatusRelay(feed)

	return nil
}

func (s *TUIPlatform) Stop() {
	s.setInShutdown()
	s.stopStatusRelay()

	if s.audio != nil {
		s.audio.Close()
		s.audio = nil
	}
	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

func (s *TUIPlatform) showStatus(st feeder.Status) {
	s.statusMutex.Lock()
	s.status = st
	s.statusMutex.Unlock()
	s.queueRedraw()
}

func (s *TUIPlatform) queueRedraw() {
	if s.inShutdown() || s.tviewapp == nil {
		return
	}
	s.tviewapp.QueueUpdateDraw(s.drawDevices)
}

// getIntroText generates the dynamic text for the top info pane.
func (s *TUIPlatform) getIntroText() string {
	snap := s.sim.snapshot()
	distance := fmt.Sprintf("%.0f cm", snap.distance)
	if snap.echoTimeout {
		distance = "no echo"
	}

	line1 := fmt.Sprintf("Distance: [#ffff00]%-8s[white] | Hit [#ff0000]Up[white]/[#ff0000]Down[white] ±1 cm, [#ff0000]PgUp[white]/[#ff0000]PgDn[white] ±5 cm, [#ff0000]t[white] for no echo", distance)
	line2 := "Hit [blue]space[-] to press the dispense button"
	line3 := "Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload"

	return fmt.Sprintf("%s\n%s\n%s", line1, line2, line3)
}

func newPane(title string) *tview.TextView {
	pane := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	pane.SetBorder(true).SetTitle(title).SetTitleColor(tcell.ColorLightBlue)
	pane.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))
	return pane
}

func (s *TUIPlatform) initSimulationTUI(ossignal chan os.Signal) {
	s.tviewapp = tview.NewApplication()

	// --- Intro Pane ---
	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(s.getIntroText())
	s.intro.SetBorder(true).SetTitle(" GOFEEDER Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	// --- Device Panes ---
	s.lcdView = newPane(" LCD ")
	s.ledView = newPane(" Indicator ")
	s.buzzerView = newPane(" Buzzer ")
	s.servoView = newPane(" Servo ")
	s.serialView = newPane(" Serial ")
	s.serialView.SetTextAlign(tview.AlignLeft)

	devices := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(s.lcdView, lcdWidth+4, 0, false).
		AddItem(s.ledView, 0, 1, false).
		AddItem(s.buzzerView, 0, 1, false).
		AddItem(s.servoView, 0, 1, false)

	// --- Log Pane ---
	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	// --- Layout ---
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(devices, 4, 0, false).
		AddItem(s.serialView, 3, 0, false).
		AddItem(s.logView, 0, 1, true)

	// --- Flush logs after first draw ---
	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			logWriter := tview.ANSIWriter(s.logView)
			logging.SetOutput(logWriter)
			s.setReady() // Signal that the TUI is ready
		})
	})

	// --- Input Handling ---
	s.tviewapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			ossignal <- os.Interrupt
			return nil
		case tcell.KeyUp:
			s.sim.adjustDistance(1)
		case tcell.KeyDown:
			s.sim.adjustDistance(-1)
		case tcell.KeyPgUp:
			s.sim.adjustDistance(5)
		case tcell.KeyPgDn:
			s.sim.adjustDistance(-5)
		case tcell.KeyRune:
			switch event.Rune() {
			case ' ':
				slog.Debug("Dispense button pressed")
				s.sim.press()
				return nil
			case 't', 'T':
				timeout := s.sim.toggleEchoTimeout()
				slog.Info("Simulated echo timeout", "enabled", timeout)
			case 'q', 'Q':
				ossignal <- os.Interrupt
				return nil
			case 'r', 'R':
				ossignal <- syscall.SIGHUP
				return nil
			default:
				return event
			}
		default:
			return event
		}
		s.intro.SetText(s.getIntroText())
		return nil
	})

	// --- Start TUI ---
	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.ossignalChan <- os.Interrupt
		}
	}()
}

// drawDevices redraws the device panes if anything they show has changed.
// This function must be called on the main TUI thread via app.QueueUpdateDraw().
func (s *TUIPlatform) drawDevices() {
	s.statusMutex.Lock()
	st := s.status
	s.statusMutex.Unlock()

	panes := renderPanes(s.sim.snapshot(), st)
	if maps.Equal(panes, s.lastPanes) {
		return
	}
	s.lastPanes = panes

	s.lcdView.SetText(panes["lcd"])
	s.ledView.SetText(panes["indicator"])
	s.buzzerView.SetText(panes["buzzer"])
	s.servoView.SetText(panes["servo"])
	s.serialView.SetText(panes["serial"])
}

// renderPanes builds the text of every device pane.
func renderPanes(snap simSnapshot, st feeder.Status) map[string]string {
	panes := make(map[string]string, 5)

	panes["lcd"] = "[#000000:#7fbf3f]" + lcdLine(snap.text) + "[-:-]\n" +
		"[#000000:#7fbf3f]" + lcdLine(st.Sample.String()) + "[-:-]"

	panes["indicator"] = fmt.Sprintf("%s●[-] %s", colorTag(snap.color), snap.color)

	if snap.tone > 0 {
		panes["buzzer"] = fmt.Sprintf("[#ff0000]♪ %.0f Hz[-]", snap.tone)
	} else if st.Muted {
		panes["buzzer"] = "[gray]muted (night)[-]"
	} else {
		panes["buzzer"] = "[gray]silent[-]"
	}

	phase := "closed"
	if st.Actuator.Phase == feeder.Dispensing {
		phase = fmt.Sprintf("open %.1fs", st.Remaining.Seconds())
	}
	panes["servo"] = fmt.Sprintf("%3.0f° %s\n%s", snap.angle, phase, servoGauge(snap.angle))

	panes["serial"] = " " + snap.logLine
	return panes
}

// lcdLine pads or cuts text to the width of a 16x2 character display.
func lcdLine(text string) string {
	runes := []rune(text)
	if len(runes) > lcdWidth {
		runes = runes[:lcdWidth]
	}
	return string(runes) + strings.Repeat(" ", lcdWidth-len(runes))
}

func colorTag(color feeder.Color) string {
	switch color {
	case feeder.ColorRed:
		return "[#ff0000]"
	case feeder.ColorGreen:
		return "[#00ff00]"
	case feeder.ColorBlue:
		return "[#0000ff]"
	case feeder.ColorYellow:
		return "[#ffff00]"
	}
	return "[#404040]"
}

// servoGauge draws the arm position as a bar, one block per 18 degrees.
func servoGauge(degrees float64) string {
	n := int(max(0, min(180, degrees)) / 18)
	return "[#ffff00]" + strings.Repeat("█", n) + "[#404040]" + strings.Repeat("░", 10-n) + "[-]"
}
