package feeder

import (
	"fmt"
	"math"
)

// Sample is one distance measurement in centimeters, or the marker for a
// measurement whose echo never came back.
type Sample struct {
	cm    float64
	valid bool
}

// Distance returns a sample for the given distance. Negative values are
// clamped to zero.
func Distance(cm float64) Sample {
	return Sample{cm: math.Max(cm, 0), valid: true}
}

// NoSample returns the no-reading marker.
func NoSample() Sample {
	return Sample{}
}

// Centimeters returns the distance and whether the sample holds one.
func (s Sample) Centimeters() (float64, bool) {
	return s.cm, s.valid
}

func (s Sample) String() string {
	if !s.valid {
		return "no reading"
	}
	return fmt.Sprintf("%g cm", s.cm)
}
