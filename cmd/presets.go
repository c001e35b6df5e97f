package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alde/tinypdf/pkg/settings"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List compression presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDPI\tQUALITY\tDESCRIPTION")
		for _, p := range settings.Presets() {
			name := p.Name
			if name == settings.DefaultPreset {
				name += " (default)"
			}
			fmt.Fprintf(w, "%s\t%d\t%.2f\t%s\n", name, p.Resolution, p.Quality, p.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
