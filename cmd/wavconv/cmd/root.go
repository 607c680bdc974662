package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/convert"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "wavconv",
	Short: "Capture to waveform converter",
	Long: `Convert raw captures from a simulator or an in-circuit trace unit
into a VCD waveform file with a 1 ns timescale.

Examples:
  wavconv convert --capture ila.csv --structure probes.hcl --out wave.vcd
  wavconv convert --capture dump.vcd --structure probe_config.txt --out wave.vcd --cycles
  wavconv signals dump.vcd                          # List signals of a dump
  wavconv probes probes.hcl                         # Show the probe catalog`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func setupLogger() error {
	var (
		l   *zap.Logger
		err error
	)
	if verbose {
		l, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		l, err = cfg.Build()
	}
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	convert.SetLogger(l)
	return nil
}
