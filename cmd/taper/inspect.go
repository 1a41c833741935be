package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/taper-ml/taper/loader"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect MODEL",
		Short: "List the tensors in a safetensors file",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectHandler,
	}
}

func inspectHandler(_ *cobra.Command, args []string) error {
	r, err := loader.Open(args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	var data [][]string
	total := 0
	for _, name := range r.Names() {
		info, err := r.Info(name)
		if err != nil {
			return err
		}
		params := 1
		for _, dim := range info.Shape {
			params *= dim
		}
		total += params
		data = append(data, []string{name, info.DType, fmt.Sprint(info.Shape), humanNumber(params)})
	}

	if meta := r.Metadata(); len(meta) > 0 {
		keys := make([]string, 0, len(meta))
		for key := range meta {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("%s: %s\n", key, meta[key])
		}
		fmt.Println()
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"NAME", "DTYPE", "SHAPE", "PARAMS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	fmt.Printf("\n%d tensors, %s parameters\n", len(data), humanNumber(total))
	return nil
}
