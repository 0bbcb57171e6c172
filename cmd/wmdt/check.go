package main

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

var (
	checkOpts = struct {
		strict bool
	}{}

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Check that the description compiles",
		Long:  "Compile the description without writing any file and report the warnings. In strict mode every warning fails the check.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := compile("", checkOpts.strict)
			if err != nil {
				return err
			}

			for _, warning := range out.Warnings {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", warning)
			}
			if checkOpts.strict && len(out.Warnings) > 0 {
				return errors.Errorf("%d warnings", len(out.Warnings))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d devices\n", len(out.Devices))
			return nil
		},
	}
)

func init() {
	checkCmd.Flags().BoolVar(&checkOpts.strict, "strict", false, "fail on warnings and pin conflicts")
}
