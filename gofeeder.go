package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	c "lautenbacher.net/gofeeder/config"
)

var (
	// configPath to the YAML configuration file.
	configPath string
	// realHW selects the Raspberry Pi platform instead of the simulation.
	realHW bool
	// withViewer attaches the status viewer on real hardware.
	withViewer bool

	rootCmd = &cobra.Command{
		Use:   "gofeeder",
		Short: "Run the pet food dispenser control loop.",
		Long: `Runs the dispenser loop: measures the fill level with the ultrasonic sensor,
shows it on the display and the tri-color LED, sounds the buzzer when the
dispenser is empty and opens the servo arm when the button is pressed.

Without --real the hardware is simulated in the terminal. SIGHUP or any
write to the config file reloads the configuration.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			ossignal := make(chan os.Signal, 4)
			app := NewApp(ossignal, configPath, realHW, withViewer)
			return app.Run(context.Background())
		},
	}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Validate the config file and print the effective values.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := c.ReadConfig(configPath, realHW)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(conf)
			if err != nil {
				return fmt.Errorf("can't encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
)

func main() {
	Execute()
}

// Execute runs the gofeeder CLI and exits with non-zero status on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", c.CONFILE, "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&realHW, "real", "r", false, "drive the Raspberry Pi hardware instead of the simulation")
	rootCmd.Flags().BoolVarP(&withViewer, "viewer", "v", false, "show the status viewer on real hardware")
	rootCmd.AddCommand(checkCmd)
}
