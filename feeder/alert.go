package feeder

import (
	"fmt"
	"strings"

	c "lautenbacher.net/gofeeder/config"
)

// Color is a named indicator color. Pin levels and polarity are the
// business of the IndicatorOutput.
type Color int

const (
	ColorOff Color = iota
	ColorRed
	ColorGreen
	ColorBlue
	ColorYellow
)

var colorNames = map[Color]string{
	ColorOff:    "off",
	ColorRed:    "red",
	ColorGreen:  "green",
	ColorBlue:   "blue",
	ColorYellow: "yellow",
}

func (col Color) String() string {
	if name, ok := colorNames[col]; ok {
		return name
	}
	return fmt.Sprintf("Color(%d)", int(col))
}

// RGB reports which of the three LED channels are lit for the color.
// Yellow is red and green together.
func (col Color) RGB() (red, green, blue bool) {
	switch col {
	case ColorRed:
		return true, false, false
	case ColorGreen:
		return false, true, false
	case ColorBlue:
		return false, false, true
	case ColorYellow:
		return true, true, false
	}
	return false, false, false
}

// ParseColor accepts the color names of the config file, in any case.
func ParseColor(name string) (Color, error) {
	for col, n := range colorNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return col, nil
		}
	}
	return ColorOff, fmt.Errorf("unknown color %q", name)
}

// BuzzerMode says how the buzzer reacts to a level.
type BuzzerMode int

const (
	// BuzzerOff keeps the buzzer silent.
	BuzzerOff BuzzerMode = iota
	// BuzzerMomentary beeps once when the level is entered.
	BuzzerMomentary
	// BuzzerContinuous sounds for as long as the level holds.
	BuzzerContinuous
)

var buzzerNames = map[BuzzerMode]string{
	BuzzerOff:        "off",
	BuzzerMomentary:  "momentary",
	BuzzerContinuous: "continuous",
}

func (b BuzzerMode) String() string {
	if name, ok := buzzerNames[b]; ok {
		return name
	}
	return fmt.Sprintf("BuzzerMode(%d)", int(b))
}

// ParseBuzzerMode accepts off, momentary or continuous, in any case.
func ParseBuzzerMode(name string) (BuzzerMode, error) {
	for mode, n := range buzzerNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return mode, nil
		}
	}
	return BuzzerOff, fmt.Errorf("unknown buzzer mode %q", name)
}

// AlertSignal is what the indicator and buzzer should do for one level.
type AlertSignal struct {
	Color     Color
	Buzzer    BuzzerMode
	Frequency float64
}

// AlertTable maps every level to its signal.
type AlertTable map[Level]AlertSignal

// NewAlertTable builds the table from the Alerts config section.
func NewAlertTable(cfg c.AlertsConfig) (AlertTable, error) {
	entries := cfg.Entries()
	table := make(AlertTable, len(entries))
	for _, level := range Levels() {
		entry, ok := entries[level.String()]
		if !ok {
			return nil, fmt.Errorf("no alert entry for level %s", level)
		}
		color, err := ParseColor(entry.Color)
		if err != nil {
			return nil, fmt.Errorf("alert for level %s: %w", level, err)
		}
		mode, err := ParseBuzzerMode(entry.Buzzer)
		if err != nil {
			return nil, fmt.Errorf("alert for level %s: %w", level, err)
		}
		signal := AlertSignal{Color: color, Buzzer: mode}
		if mode != BuzzerOff {
			signal.Frequency = cfg.AlarmFrequency
		}
		table[level] = signal
	}
	return table, nil
}

// Map returns the signal for level. Levels missing from the table get the
// NoReading signal, and an empty table yields a dark, silent signal.
func (t AlertTable) Map(level Level) AlertSignal {
	if signal, ok := t[level]; ok {
		return signal
	}
	return t[NoReading]
}
