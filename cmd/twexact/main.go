// Command twexact computes a minimum-width tree decomposition, exactly.
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
		Use:   "twexact",
		Short: "Compute an exact minimum-width tree decomposition from a PACE .gr graph on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cliapp.LoadOverlay(cmd, flags); err != nil {
				return err
			}
			os.Exit(cliapp.Run(pipeline.RunExact, flags, pipeline.ModeExact, false))
			return nil
		},
	}
	cliapp.BindFlags(cmd, flags)

	if err := cmd.Execute(); err != nil {
		os.Exit(cliapp.ExitComputeFailed)
	}
}
