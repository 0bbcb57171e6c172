package main

import (
	"github.com/spf13/cobra"

	"omibyte.io/wmdt/pinmux"
)

var (
	pinsOpts = struct {
		json bool
		all  bool
	}{}

	pinsCmd = &cobra.Command{
		Use:   "pins",
		Short: "Show the pin assignments",
		Long:  "Resolve which enabled device claims each physical pin of the chip.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gate, chip, err := loadGate()
			if err != nil {
				return err
			}
			m, err := loadModel(chip)
			if err != nil {
				return err
			}

			table := pinmux.Resolve(m, gate, chip)
			if pinsOpts.json {
				return table.WriteJSON(cmd.OutOrStdout())
			}
			return table.WriteText(cmd.OutOrStdout(), pinsOpts.all)
		},
	}
)

func init() {
	pinsCmd.Flags().BoolVar(&pinsOpts.json, "json", false, "print the table as JSON")
	pinsCmd.Flags().BoolVarP(&pinsOpts.all, "all", "a", false, "list unassigned pins too")
}
