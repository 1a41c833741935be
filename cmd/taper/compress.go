package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/taper-ml/taper/backend/cpu"
	"github.com/taper-ml/taper/compress"
	"github.com/taper-ml/taper/loader"
	"github.com/taper-ml/taper/tensor"
)

func newCompressCmd() *cobra.Command {
	compressCmd := &cobra.Command{
		Use:   "compress MODEL",
		Short: "Rewrite a model's weights into low-rank form",
		Args:  cobra.ExactArgs(1),
		RunE:  compressHandler,
	}

	compressCmd.Flags().StringP("output", "o", "", "Path for the compressed model (required)")
	_ = compressCmd.MarkFlagRequired("output")
	compressCmd.Flags().String("conv", "tucker", "Convolution rewrite: tucker or cp")
	compressCmd.Flags().String("linear", "svd", "Linear rewrite: svd")
	compressCmd.Flags().Int("rank", 0, "Fixed rank for cp and svd rewrites (0 estimates per layer)")
	compressCmd.Flags().Int("min-params", 0, "Skip layers with fewer parameters than this")

	return compressCmd
}

func compressHandler(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	convName, _ := cmd.Flags().GetString("conv")
	linearName, _ := cmd.Flags().GetString("linear")
	rank, _ := cmd.Flags().GetInt("rank")
	minParams, _ := cmd.Flags().GetInt("min-params")

	config := compress.Config{CPRank: rank, LinearRank: rank, MinParams: minParams}
	switch convName {
	case "tucker":
		config.Conv = compress.ConvTucker
	case "cp":
		config.Conv = compress.ConvCP
	default:
		return fmt.Errorf("unknown conv method %q (want tucker or cp)", convName)
	}
	if linearName != "svd" {
		return fmt.Errorf("unknown linear method %q (want svd)", linearName)
	}

	backend := cpu.New()

	r, err := loader.Open(args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	stateDict := make(map[string]*tensor.RawTensor)
	for _, name := range r.Names() {
		raw, err := r.Load(name, backend)
		if err != nil {
			return err
		}
		stateDict[name] = raw
	}

	compressed, report, err := compress.CompressStateDict(stateDict, config, backend)
	if err != nil {
		return err
	}

	metadata := r.Metadata()
	if metadata == nil {
		metadata = make(map[string]string)
	}
	metadata["taper.version"] = version
	metadata["taper.conv"] = config.Conv.String()

	if err := loader.SaveStateDict(output, compressed, metadata); err != nil {
		return err
	}

	if len(report.Layers) == 0 {
		fmt.Println("No layers were eligible for compression.")
		return nil
	}

	printReport(report)
	fmt.Printf("\n%s -> %s parameters (%.2fx), written to %s\n",
		humanNumber(report.ParamsBefore()), humanNumber(report.ParamsAfter()), report.Ratio(), output)
	return nil
}

func printReport(report *compress.Report) {
	var data [][]string
	for _, layer := range report.Layers {
		data = append(data, []string{
			layer.Name,
			layer.Method,
			fmt.Sprint(layer.Shape),
			fmt.Sprint(layer.Ranks),
			humanNumber(layer.ParamsBefore),
			humanNumber(layer.ParamsAfter),
			fmt.Sprintf("%.4f", layer.WeightError),
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"LAYER", "METHOD", "SHAPE", "RANKS", "BEFORE", "AFTER", "ERROR"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}
