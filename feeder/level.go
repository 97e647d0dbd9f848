package feeder

import (
	c "lautenbacher.net/gofeeder/config"
)

// Level is the classified fill level, ordered from full to unknown.
type Level int

const (
	Full Level = iota
	Low
	Empty
	NoReading
)

var levelNames = [...]string{
	Full:      c.LevelFull,
	Low:       c.LevelLow,
	Empty:     c.LevelEmpty,
	NoReading: c.LevelNoReading,
}

func (l Level) String() string {
	if l < Full || l > NoReading {
		return "Level(?)"
	}
	return levelNames[l]
}

// Levels lists all level states in order.
func Levels() []Level {
	return []Level{Full, Low, Empty, NoReading}
}

// Thresholds are the upper distance bounds (exclusive ordering, a larger
// distance means an emptier dispenser).
type Thresholds struct {
	Low   float64
	Empty float64
}

// NewThresholds reads the two cut-off distances from the Levels section.
func NewThresholds(cfg c.LevelsConfig) Thresholds {
	return Thresholds{Low: cfg.LowThreshold, Empty: cfg.EmptyThreshold}
}

// Classify maps a sample to a level. It has no memory: the same sample always
// gives the same level. A distance of exactly zero counts as no reading, the
// sensor reports a timeout that way.
func Classify(s Sample, t Thresholds) Level {
	cm, ok := s.Centimeters()
	switch {
	case !ok || cm == 0:
		return NoReading
	case cm > t.Empty:
		return Empty
	case cm > t.Low:
		return Low
	default:
		return Full
	}
}

// Labels holds the display text for each level.
type Labels map[Level]string

// NewLabels builds the label table from the config, keeping the level name
// for levels without a configured text.
func NewLabels(cfg c.LevelsConfig) Labels {
	labels := make(Labels, len(levelNames))
	for _, l := range Levels() {
		if text, ok := cfg.Labels[l.String()]; ok {
			labels[l] = text
		} else {
			labels[l] = l.String()
		}
	}
	return labels
}

// Label returns the display text for level, or the level name if none is set.
func (l Labels) Label(level Level) string {
	if text, ok := l[level]; ok {
		return text
	}
	return level.String()
}
