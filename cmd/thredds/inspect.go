package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tmc/thredds"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <index-file>",
		Short: "Print the schema and size of a saved index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := thredds.LoadIndex(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			title := color.New(color.FgCyan, color.Bold)
			title.Fprint(out, "Base URL:    ")
			fmt.Fprintln(out, index.BaseURL)
			title.Fprint(out, "OPeNDAP URL: ")
			fmt.Fprintln(out, index.OpendapURL)
			title.Fprint(out, "Datasets:    ")
			fmt.Fprintln(out, len(index.Datasets))

			if index.Meta == nil {
				return nil
			}
			title.Fprintln(out, "Dimensions:")
			for _, name := range sortedKeys(index.Meta.Dimensions) {
				fmt.Fprintf(out, "  %s = %s\n", name, index.Meta.Dimensions[name])
			}
			title.Fprintln(out, "Variables:")
			for _, name := range sortedKeys(index.Meta.Variables) {
				v := index.Meta.Variables[name]
				fmt.Fprintf(out, "  %s %s(%s)\n", v.Type, name, strings.Join(v.Shape, ", "))
			}
			return nil
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
