package feeder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	c "lautenbacher.net/gofeeder/config"
)

func TestNewAlertTable_Defaults(t *testing.T) {
	table, err := NewAlertTable(c.Default().Alerts)
	require.NoError(t, err)
	assert.Equal(t, deviceAlertTable(1500), table)

	assert.Equal(t, AlertSignal{Color: ColorGreen, Buzzer: BuzzerOff}, table.Map(Full))
	assert.Equal(t, AlertSignal{Color: ColorYellow, Buzzer: BuzzerOff}, table.Map(Low))
	assert.Equal(t, AlertSignal{Color: ColorRed, Buzzer: BuzzerContinuous, Frequency: 1500}, table.Map(Empty))
	assert.Equal(t, AlertSignal{Color: ColorRed, Buzzer: BuzzerOff}, table.Map(NoReading))
}

func TestNewAlertTable_Custom(t *testing.T) {
	cfg := c.Default().Alerts
	cfg.Low = c.AlertEntry{Color: "Blue", Buzzer: "momentary"}
	cfg.AlarmFrequency = 880

	table, err := NewAlertTable(cfg)
	require.NoError(t, err)
	assert.Equal(t, AlertSignal{Color: ColorBlue, Buzzer: BuzzerMomentary, Frequency: 880}, table.Map(Low))
	assert.Equal(t, 880.0, table.Map(Empty).Frequency)
}

func TestNewAlertTable_Invalid(t *testing.T) {
	cfg := c.Default().Alerts
	cfg.Full.Color = "purple"
	_, err := NewAlertTable(cfg)
	assert.ErrorContains(t, err, "purple")

	cfg = c.Default().Alerts
	cfg.Empty.Buzzer = "siren"
	_, err = NewAlertTable(cfg)
	assert.ErrorContains(t, err, "siren")
}

func TestAlertTable_MapIsPure(t *testing.T) {
	table := deviceAlertTable(1500)
	want := make(map[Level]AlertSignal)
	for _, l := range Levels() {
		want[l] = table.Map(l)
	}
	// interleave calls in a different order, results must not change
	for range 3 {
		for i := len(Levels()) - 1; i >= 0; i-- {
			l := Levels()[i]
			assert.Equal(t, want[l], table.Map(l))
		}
	}
}

func TestAlertTable_UnknownLevel(t *testing.T) {
	table := deviceAlertTable(1500)
	assert.Equal(t, table.Map(NoReading), table.Map(Level(17)))

	assert.Equal(t, AlertSignal{}, AlertTable{}.Map(Full))
}

func TestColor(t *testing.T) {
	r, g, b := ColorYellow.RGB()
	assert.Equal(t, []bool{true, true, false}, []bool{r, g, b})
	r, g, b = ColorOff.RGB()
	assert.Equal(t, []bool{false, false, false}, []bool{r, g, b})

	col, err := ParseColor(" RED ")
	assert.NoError(t, err)
	assert.Equal(t, ColorRed, col)
	assert.Equal(t, "red", col.String())

	_, err = ParseColor("")
	assert.Error(t, err)
}

func TestParseBuzzerMode(t *testing.T) {
	mode, err := ParseBuzzerMode("Continuous")
	assert.NoError(t, err)
	assert.Equal(t, BuzzerContinuous, mode)
	assert.Equal(t, "continuous", mode.String())

	_, err = ParseBuzzerMode("loud")
	assert.Error(t, err)
}

// deviceAlertTable is the alert table of the wired prototype.
func deviceAlertTable(alarmFrequency float64) AlertTable {
	return AlertTable{
		NoReading: {Color: ColorRed, Buzzer: BuzzerOff},
		Empty:     {Color: ColorRed, Buzzer: BuzzerContinuous, Frequency: alarmFrequency},
		Low:       {Color: ColorYellow, Buzzer: BuzzerOff},
		Full:      {Color: ColorGreen, Buzzer: BuzzerOff},
	}
}
