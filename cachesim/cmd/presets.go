package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/workload"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in examples",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

		for _, name := range workload.PresetNames() {
			e, err := workload.Preset(name)
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "%s\t%s\n", name, e.Description)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
