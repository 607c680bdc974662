package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/probe"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/vcd"
)

var signalsCmd = &cobra.Command{
	Use:   "signals <vcd-file>",
	Short: "List the signals declared in a VCD dump",
	Long: `Print the qualified name of every signal in the header of a VCD dump,
one per line. The body of the dump is not read.

Examples:
  wavconv signals dump.vcd`,
	Args: cobra.ExactArgs(1),
	RunE: runSignals,
}

var probesCmd = &cobra.Command{
	Use:   "probes <structure-file>",
	Short: "Show the probe catalog of a structure file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbes,
}

func init() {
	rootCmd.AddCommand(signalsCmd)
	rootCmd.AddCommand(probesCmd)
}

func runSignals(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open dump: %w", err)
	}
	defer f.Close()

	names, err := vcd.ListSignals(f, args[0])
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runProbes(cmd *cobra.Command, args []string) error {
	cfg, settings, err := probe.Load(args[0])
	if err != nil {
		return err
	}
	cat, err := probe.NewCatalog(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d probe(s):\n", cat.Len())
	for _, d := range cat.All() {
		fmt.Fprintf(out, "  %-12s %s\n", d.Name, d)
	}

	if settings.FloatType != nil {
		fmt.Fprintf(out, "float_type:      %t\n", *settings.FloatType)
	}
	if settings.TimeScaled != nil {
		fmt.Fprintf(out, "emu_time_scaled: %t\n", *settings.TimeScaled)
	}
	if settings.PipelineOffset != nil {
		fmt.Fprintf(out, "pipeline_offset: %d\n", *settings.PipelineOffset)
	}
	return nil
}
