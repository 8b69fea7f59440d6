package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// CLI flags for the schedule preview
	configPath    string // Path to the schedule bundle YAML
	distancesPath string // Path to the recorded per-generation distance CSV
	populations   int    // Declared run length (max_nr_populations)
	logLevel      string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "abcsim",
	Short: "Threshold and temperature scheduling for ABC-SMC runs",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	previewCmd.Flags().StringVar(&configPath, "config", "", "Schedule bundle YAML file")
	previewCmd.Flags().StringVar(&distancesPath, "distances", "", "CSV with generation,distance,weight,acceptance_rate rows")
	previewCmd.Flags().IntVar(&populations, "populations", 0, "Declared run length (max_nr_populations); 0 infers it from the CSV")
	previewCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.AddCommand(previewCmd)
}

// setupLogging configures logrus from the --log flag.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}
