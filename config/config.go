package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const CONFILE = "config.yml"

// Names of the level states as used for map keys in the config file.
const (
	LevelFull      = "Full"
	LevelLow       = "Low"
	LevelEmpty     = "Empty"
	LevelNoReading = "NoReading"
)

var (
	levelNames  = []string{LevelFull, LevelLow, LevelEmpty, LevelNoReading}
	colorNames  = []string{"off", "red", "green", "blue", "yellow"}
	buzzerNames = []string{"off", "momentary", "continuous"}
)

type Config struct {
	RealHW     bool             `yaml:"-"`
	Configfile string           `yaml:"-"`
	Loop       LoopConfig       `yaml:"Loop"`
	Sensor     SensorConfig     `yaml:"Sensor"`
	Levels     LevelsConfig     `yaml:"Levels"`
	Alerts     AlertsConfig     `yaml:"Alerts"`
	Dispense   DispenseConfig   `yaml:"Dispense"`
	Hardware   HardwareConfig   `yaml:"Hardware"`
	Simulation SimulationConfig `yaml:"Simulation"`
	Logging    LoggingConfig    `yaml:"Logging"`
	Web        WebConfig        `yaml:"Web"`
}

type LoopConfig struct {
	Period time.Duration `yaml:"Period" json:"Period"`
}

type SensorConfig struct {
	SettleTime       time.Duration `yaml:"SettleTime"`
	PulseWidth       time.Duration `yaml:"PulseWidth"`
	EchoTimeout      time.Duration `yaml:"EchoTimeout"`
	SpeedFactor      float64       `yaml:"SpeedFactor"`
	WholeCentimeters bool          `yaml:"WholeCentimeters"`
}

type LevelsConfig struct {
	LowThreshold   float64           `yaml:"LowThreshold" json:"LowThreshold"`
	EmptyThreshold float64           `yaml:"EmptyThreshold" json:"EmptyThreshold"`
	Labels         map[string]string `yaml:"Labels" json:"Labels"`
}

type AlertEntry struct {
	Color  string `yaml:"Color" json:"Color"`
	Buzzer string `yaml:"Buzzer" json:"Buzzer"`
}

type AlertsConfig struct {
	Full           AlertEntry `yaml:"Full" json:"Full"`
	Low            AlertEntry `yaml:"Low" json:"Low"`
	Empty          AlertEntry `yaml:"Empty" json:"Empty"`
	NoReading      AlertEntry `yaml:"NoReading" json:"NoReading"`
	AlarmFrequency float64    `yaml:"AlarmFrequency" json:"AlarmFrequency"`
	QuietAtNight   bool       `yaml:"QuietAtNight" json:"QuietAtNight"`
	Latitude       float64    `yaml:"Latitude" json:"Latitude"`
	Longitude      float64    `yaml:"Longitude" json:"Longitude"`
}

// Entries returns the alert entries keyed by level name.
func (a AlertsConfig) Entries() map[string]AlertEntry {
	return map[string]AlertEntry{
		LevelFull:      a.Full,
		LevelLow:       a.Low,
		LevelEmpty:     a.Empty,
		LevelNoReading: a.NoReading,
	}
}

type ToneConfig struct {
	Frequency float64       `yaml:"Frequency" json:"Frequency"`
	Duration  time.Duration `yaml:"Duration" json:"Duration"`
	Blocking  bool          `yaml:"Blocking" json:"Blocking"`
}

type DispenseConfig struct {
	Duration       time.Duration `yaml:"Duration" json:"Duration"`
	OpenAngle      float64       `yaml:"OpenAngle" json:"OpenAngle"`
	ClosedAngle    float64       `yaml:"ClosedAngle" json:"ClosedAngle"`
	RequireRelease bool          `yaml:"RequireRelease" json:"RequireRelease"`
	ConfirmTone    ToneConfig    `yaml:"ConfirmTone" json:"ConfirmTone"`
}

type SerialConfig struct {
	Device string `yaml:"Device"`
	Baud   int    `yaml:"Baud"`
}

type HardwareConfig struct {
	TriggerPin      int           `yaml:"TriggerPin"`
	EchoPin         int           `yaml:"EchoPin"`
	ButtonPin       int           `yaml:"ButtonPin"`
	ButtonActiveLow bool          `yaml:"ButtonActiveLow"`
	BuzzerPin       int           `yaml:"BuzzerPin"`
	ServoPin        int           `yaml:"ServoPin"`
	ServoMinPulse   time.Duration `yaml:"ServoMinPulse"`
	ServoMaxPulse   time.Duration `yaml:"ServoMaxPulse"`
	LedPins         []int         `yaml:"LedPins"`
	LedActiveLow    bool          `yaml:"LedActiveLow"`
	Serial          SerialConfig  `yaml:"Serial"`
}

type SimulationConfig struct {
	StartDistance float64       `yaml:"StartDistance"`
	ButtonHold    time.Duration `yaml:"ButtonHold"`
	Audio         bool          `yaml:"Audio"`
}

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

type LoggingConfig struct {
	TUI LogConfig `yaml:"TUI"`
	HW  LogConfig `yaml:"HW"`
}

type WebConfig struct {
	Enabled bool   `yaml:"Enabled"`
	Address string `yaml:"Address"`
}

// Default returns the configuration of the original device: 15/20 cm
// thresholds, a 90 degree arm held open for five seconds and a 1.5 kHz
// alarm on an empty dispenser.
func Default() *Config {
	return &Config{
		Loop: LoopConfig{Period: 200 * time.Millisecond},
		Sensor: SensorConfig{
			SettleTime:       5 * time.Microsecond,
			PulseWidth:       10 * time.Microsecond,
			EchoTimeout:      30 * time.Millisecond,
			SpeedFactor:      0.034,
			WholeCentimeters: true,
		},
		Levels: LevelsConfig{
			LowThreshold:   15,
			EmptyThreshold: 20,
			Labels: map[string]string{
				LevelFull:      "Dispenser Cheio!",
				LevelLow:       "Nivel Baixo",
				LevelEmpty:     "Dispenser Vazio!",
				LevelNoReading: "Sem leitura",
			},
		},
		Alerts: AlertsConfig{
			Full:           AlertEntry{Color: "green", Buzzer: "off"},
			Low:            AlertEntry{Color: "yellow", Buzzer: "off"},
			Empty:          AlertEntry{Color: "red", Buzzer: "continuous"},
			NoReading:      AlertEntry{Color: "red", Buzzer: "off"},
			AlarmFrequency: 1500,
		},
		Dispense: DispenseConfig{
			Duration:    5 * time.Second,
			OpenAngle:   90,
			ClosedAngle: 0,
			ConfirmTone: ToneConfig{Frequency: 1000, Duration: 200 * time.Millisecond},
		},
		Hardware: HardwareConfig{
			TriggerPin:      23,
			EchoPin:         24,
			ButtonPin:       17,
			ButtonActiveLow: true,
			BuzzerPin:       13,
			ServoPin:        18,
			ServoMinPulse:   544 * time.Microsecond,
			ServoMaxPulse:   2400 * time.Microsecond,
			LedPins:         []int{5, 6, 26},
			Serial:          SerialConfig{Baud: 9600},
		},
		Simulation: SimulationConfig{
			StartDistance: 10,
			ButtonHold:    300 * time.Millisecond,
		},
		Logging: LoggingConfig{
			TUI: LogConfig{Level: "INFO", Format: "text"},
			HW:  LogConfig{Level: "INFO", Format: "text"},
		},
		Web: WebConfig{Address: ":8080"},
	}
}

// ReadConfig reads the config file cfile on top of the defaults and
// validates the result. realhw enables the checks for the Raspberry Pi
// wiring.
func ReadConfig(cfile string, realhw bool) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := Default()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	conf.Configfile = cfile
	conf.RealHW = realhw

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return conf, nil
}

// Validate checks the whole configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Loop.Period > 0, "Loop.Period must be positive, got %s", c.Loop.Period)

	check(c.Sensor.EchoTimeout > 0, "Sensor.EchoTimeout must be positive, got %s", c.Sensor.EchoTimeout)
	check(c.Sensor.PulseWidth > 0, "Sensor.PulseWidth must be positive, got %s", c.Sensor.PulseWidth)
	check(c.Sensor.SettleTime >= 0, "Sensor.SettleTime must not be negative, got %s", c.Sensor.SettleTime)
	check(c.Sensor.SpeedFactor > 0, "Sensor.SpeedFactor must be positive, got %v", c.Sensor.SpeedFactor)

	check(c.Levels.LowThreshold > 0, "Levels.LowThreshold must be positive, got %v", c.Levels.LowThreshold)
	check(c.Levels.LowThreshold < c.Levels.EmptyThreshold,
		"Levels.LowThreshold (%v) must be below Levels.EmptyThreshold (%v)", c.Levels.LowThreshold, c.Levels.EmptyThreshold)
	for name := range c.Levels.Labels {
		check(slices.Contains(levelNames, name), "Levels.Labels: unknown level %q, must be one of %s", name, strings.Join(levelNames, ", "))
	}

	for name, entry := range c.Alerts.Entries() {
		check(slices.Contains(colorNames, strings.ToLower(entry.Color)),
			"Alerts.%s.Color %q must be one of %s", name, entry.Color, strings.Join(colorNames, ", "))
		check(slices.Contains(buzzerNames, strings.ToLower(entry.Buzzer)),
			"Alerts.%s.Buzzer %q must be one of %s", name, entry.Buzzer, strings.Join(buzzerNames, ", "))
	}
	check(c.Alerts.AlarmFrequency > 0, "Alerts.AlarmFrequency must be positive, got %v", c.Alerts.AlarmFrequency)
	if c.Alerts.QuietAtNight {
		check(c.Alerts.Latitude >= -90 && c.Alerts.Latitude <= 90, "Alerts.Latitude must be between -90 and 90, got %v", c.Alerts.Latitude)
		check(c.Alerts.Longitude >= -180 && c.Alerts.Longitude <= 180, "Alerts.Longitude must be between -180 and 180, got %v", c.Alerts.Longitude)
	}

	check(c.Dispense.Duration > 0, "Dispense.Duration must be positive, got %s", c.Dispense.Duration)
	check(c.Dispense.OpenAngle >= 0 && c.Dispense.OpenAngle <= 180, "Dispense.OpenAngle must be between 0 and 180, got %v", c.Dispense.OpenAngle)
	check(c.Dispense.ClosedAngle >= 0 && c.Dispense.ClosedAngle <= 180, "Dispense.ClosedAngle must be between 0 and 180, got %v", c.Dispense.ClosedAngle)
	check(c.Dispense.ConfirmTone.Duration >= 0, "Dispense.ConfirmTone.Duration must not be negative, got %s", c.Dispense.ConfirmTone.Duration)
	if c.Dispense.ConfirmTone.Duration > 0 {
		check(c.Dispense.ConfirmTone.Frequency > 0, "Dispense.ConfirmTone.Frequency must be positive, got %v", c.Dispense.ConfirmTone.Frequency)
	}

	if c.RealHW {
		check(len(c.Hardware.LedPins) == 3, "Hardware.LedPins needs exactly 3 pins (red, green, blue), got %d", len(c.Hardware.LedPins))
		check(c.Hardware.ServoMinPulse > 0 && c.Hardware.ServoMinPulse < c.Hardware.ServoMaxPulse,
			"Hardware.ServoMinPulse (%s) must be positive and below Hardware.ServoMaxPulse (%s)", c.Hardware.ServoMinPulse, c.Hardware.ServoMaxPulse)
		check(isPwmPin(c.Hardware.ServoPin), "Hardware.ServoPin %d is not a hardware PWM pin", c.Hardware.ServoPin)
		check(isPwmPin(c.Hardware.BuzzerPin), "Hardware.BuzzerPin %d is not a hardware PWM pin", c.Hardware.BuzzerPin)
		check(pwmChannel(c.Hardware.ServoPin) != pwmChannel(c.Hardware.BuzzerPin),
			"Hardware.ServoPin %d and Hardware.BuzzerPin %d share a PWM channel", c.Hardware.ServoPin, c.Hardware.BuzzerPin)
		if c.Hardware.Serial.Device != "" {
			check(c.Hardware.Serial.Baud > 0, "Hardware.Serial.Baud must be positive, got %d", c.Hardware.Serial.Baud)
		}
	}

	check(c.Simulation.StartDistance >= 0, "Simulation.StartDistance must not be negative, got %v", c.Simulation.StartDistance)
	check(c.Simulation.ButtonHold > 0, "Simulation.ButtonHold must be positive, got %s", c.Simulation.ButtonHold)

	for name, lc := range map[string]LogConfig{"TUI": c.Logging.TUI, "HW": c.Logging.HW} {
		format := strings.ToLower(lc.Format)
		check(format == "text" || format == "json", "Logging.%s.Format must be text or json, got %q", name, lc.Format)
	}

	if c.Web.Enabled {
		check(c.Web.Address != "", "Web.Address must be set when Web.Enabled is true")
	}

	return errors.Join(errs...)
}

// isPwmPin reports whether the BCM pin is routed to one of the two
// hardware PWM channels of the Raspberry Pi.
func isPwmPin(pin int) bool {
	return pwmChannel(pin) >= 0
}

func pwmChannel(pin int) int {
	switch pin {
	case 12, 18, 40, 52:
		return 0
	case 13, 19, 41, 45, 53:
		return 1
	}
	return -1
}
