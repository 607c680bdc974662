package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceWave/pkg/convert"
	"github.com/OpenTraceLab/OpenTraceWave/pkg/probe"
)

var (
	capturePath    string
	structurePath  string
	outputPath     string
	captureFormat  string
	floatType      bool
	cycleIndexed   bool
	pipelineOffset int64
	headerComment  string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a capture into a VCD waveform",
	Long: `Parse a CSV or VCD capture, decode every probe named in the structure
file and write the result as a VCD file with a 1 ns timescale.

The structure file is HCL when it ends in .hcl and probe-config text otherwise.
Flags given on the command line override the settings block of an HCL file.

Examples:
  wavconv convert --capture ila.csv --structure probes.hcl --out wave.vcd
  wavconv convert --capture dump.vcd --structure probe_config.txt --out wave.vcd --float
  wavconv convert --capture dump.vcd --structure probes.hcl --out wave.vcd --pipeline-offset 0`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&capturePath, "capture", "c", "", "raw capture file (required)")
	convertCmd.Flags().StringVarP(&structurePath, "structure", "s", "", "probe structure file (required)")
	convertCmd.Flags().StringVarP(&outputPath, "out", "o", "", "output VCD file (required)")
	convertCmd.Flags().StringVar(&captureFormat, "format", "auto", "capture format: csv, vcd or auto")
	convertCmd.Flags().BoolVar(&floatType, "float", false, "analog values in the capture are real numbers")
	convertCmd.Flags().BoolVar(&cycleIndexed, "cycles", false, "use cycle counts as the time axis")
	convertCmd.Flags().Int64Var(&pipelineOffset, "pipeline-offset", convert.DefaultOptions().PipelineOffset,
		"probe to time register latency in cycles")
	convertCmd.Flags().StringVar(&headerComment, "comment", "", "text for the $comment header section")

	convertCmd.MarkFlagRequired("capture")
	convertCmd.MarkFlagRequired("structure")
	convertCmd.MarkFlagRequired("out")
}

func runConvert(cmd *cobra.Command, args []string) error {
	format, err := convert.ParseFormat(captureFormat)
	if err != nil {
		return err
	}

	cfg, settings, err := probe.Load(structurePath)
	if err != nil {
		return fmt.Errorf("failed to load structure: %w", err)
	}

	opts := convert.DefaultOptions()
	opts.Apply(settings)
	opts.Comment = headerComment

	flags := cmd.Flags()
	if flags.Changed("float") {
		opts.FloatType = floatType
	}
	if flags.Changed("cycles") {
		opts.TimeScaled = !cycleIndexed
	}
	if flags.Changed("pipeline-offset") {
		opts.PipelineOffset = pipelineOffset
	}

	res, err := convert.Convert(convert.Request{
		Format:      format,
		CapturePath: capturePath,
		OutputPath:  outputPath,
		Structure:   cfg,
		Options:     opts,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n", outputPath)
	fmt.Fprintf(out, "  Probes:  %d\n", len(res.Probes))
	fmt.Fprintf(out, "  Changes: %d\n", res.Events)
	if len(res.Skipped) > 0 {
		fmt.Fprintf(out, "  Skipped: %d (not in capture)\n", len(res.Skipped))
		if verbose {
			for _, name := range res.Skipped {
				fmt.Fprintf(out, "    %s\n", name)
			}
		}
	}
	if res.Wrapped {
		fmt.Fprintf(out, "  Time register wrapped at cycle %d, later samples dropped\n", res.WrapCycle)
	}

	return nil
}
