package platform

import (
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"lautenbacher.net/gofeeder/feeder"
)

func TestCalculateStats(t *testing.T) {
	data := []float64{10, 20, 30, 40, 50}

	stats := calculateStats(data)

	// Expected values
	expectedMin := 10.0
	expectedMax := 50.0
	expectedMean := 30.0
	expectedMedian := 30.0
	expectedStdDev := math.Sqrt(200) // sqrt((400+100+0+100+400)/5)

	if stats.min != expectedMin {
		t.Errorf("Expected min to be %.2f, got %.2f", expectedMin, stats.min)
	}
	if stats.max != expectedMax {
		t.Errorf("Expected max to be %.2f, got %.2f", expectedMax, stats.max)
	}
	if stats.mean != expectedMean {
		t.Errorf("Expected mean to be %.2f, got %.2f", expectedMean, stats.mean)
	}
	if stats.median != expectedMedian {
		t.Errorf("Expected median to be %.2f, got %.2f", expectedMedian, stats.median)
	}
	if math.Abs(stats.stdDev-expectedStdDev) > 1e-9 {
		t.Errorf("Expected stdDev to be %.2f, got %.2f", expectedStdDev, stats.stdDev)
	}
}

func TestCalculateStats_Empty(t *testing.T) {
	stats := calculateStats([]float64{})
	if stats != (distanceStats{}) {
		t.Errorf("Expected all stats to be 0 for empty data, got %+v", stats)
	}
}

func TestCalculateStats_EvenLength(t *testing.T) {
	stats := calculateStats([]float64{40, 10, 30, 20})
	if stats.median != 25.0 {
		t.Errorf("Expected median for even length data to be 25.00, got %.2f", stats.median)
	}
}

func TestStatusViewer_Update(t *testing.T) {
	sv := NewStatusViewer(make(chan os.Signal, 1))

	for _, cm := range []float64{10, 12, 14} {
		sv.Update(feeder.Status{Sample: feeder.Distance(cm), Level: feeder.Full, Label: "Dispenser Cheio!"})
	}
	sv.Update(feeder.Status{Sample: feeder.NoSample(), Level: feeder.NoReading, Label: "Sem leitura"})

	assert.Equal(t, 3, sv.distances.Len())
	assert.Equal(t, 1, sv.noReading)

	text := sv.prepareDisplayText(feeder.Status{
		Sample:    feeder.Distance(14),
		Level:     feeder.Full,
		Label:     "Dispenser Cheio!",
		Actuator:  feeder.ActuatorState{Phase: feeder.Dispensing},
		Angle:     90,
		Remaining: 2500 * time.Millisecond,
		Muted:     true,
	})
	assert.Contains(t, text, "14 cm")
	assert.Contains(t, text, "Dispenser Cheio! (Full)")
	assert.Contains(t, text, "Dispensing at 90°, 2.5s left")
	assert.Contains(t, text, "muted at night")
	assert.Contains(t, text, "[ 10.0| 12.0| 14.0]")
}

func TestStatusViewer_HistoryIsBounded(t *testing.T) {
	sv := NewStatusViewer(make(chan os.Signal, 1))
	for i := range maxDistanceHistory + 10 {
		sv.Update(feeder.Status{Sample: feeder.Distance(float64(i + 1))})
	}
	assert.Equal(t, maxDistanceHistory, sv.distances.Len())
	assert.Equal(t, 11.0, sv.distances.Front())
}
