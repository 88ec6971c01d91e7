// Command twheuristic computes an anytime heuristic tree decomposition,
// responding to SIGTERM/SIGINT by emitting the current best and exiting.
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
		Use:   "twheuristic",
		Short: "Compute an anytime heuristic tree decomposition from a PACE .gr graph on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cliapp.LoadOverlay(cmd, flags); err != nil {
				return err
			}
			os.Exit(cliapp.Run(pipeline.RunHeuristic, flags, pipeline.ModeHeuristic, true))
			return nil
		},
	}
	cliapp.BindFlags(cmd, flags)

	if err := cmd.Execute(); err != nil {
		os.Exit(cliapp.ExitComputeFailed)
	}
}
