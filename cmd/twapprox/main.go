// Command twapprox computes a tree decomposition by decoding a greedy
// elimination order per splitter atom; it runs no Robertson–Seymour
// approximator and gives no 4k+4 guarantee.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cem-okulmus/twdecomp/internal/cliapp"
	"github.com/cem-okulmus/twdecomp/internal/pipeline"
)

func main() {
	flags := &cliapp.Flags{}
	cmd := &cobra.Command{
		Use:   "twapprox",
		Short: "Compute a greedy-order tree decomposition from a PACE .gr graph on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cliapp.LoadOverlay(cmd, flags); err != nil {
				return err
			}
			os.Exit(cliapp.Run(pipeline.RunApproximation, flags, pipeline.ModeApproximation, false))
			return nil
		},
	}
	cliapp.BindFlags(cmd, flags)

	if err := cmd.Execute(); err != nil {
		os.Exit(cliapp.ExitComputeFailed)
	}
}
