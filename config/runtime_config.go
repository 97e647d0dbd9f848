package config

// RuntimeConfig defines the subset of the configuration that can be
// safely modified at runtime through the web API. It excludes the
// pin wiring, logging and other hardware-specific settings.
type RuntimeConfig struct {
	Loop     LoopConfig     `yaml:"Loop" json:"Loop"`
	Levels   LevelsConfig   `yaml:"Levels" json:"Levels"`
	Alerts   AlertsConfig   `yaml:"Alerts" json:"Alerts"`
	Dispense DispenseConfig `yaml:"Dispense" json:"Dispense"`
}

// Runtime extracts the runtime-safe part of c.
func (c *Config) Runtime() RuntimeConfig {
	return RuntimeConfig{
		Loop:     c.Loop,
		Levels:   c.Levels,
		Alerts:   c.Alerts,
		Dispense: c.Dispense,
	}
}

// Merge copies the runtime settings of rc into c.
func (c *Config) Merge(rc RuntimeConfig) {
	c.Loop = rc.Loop
	c.Levels = rc.Levels
	c.Alerts = rc.Alerts
	c.Dispense = rc.Dispense
}
