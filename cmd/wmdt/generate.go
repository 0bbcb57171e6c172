package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"omibyte.io/wmdt/dtc"
)

var (
	generateOpts = struct {
		output             string
		table              string
		rejectPinConflicts bool
	}{}

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate the device table sources",
		Long:  "Compile the enabled devices of the description into the device table source, its type header and the device name header.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := compile(generateOpts.table, generateOpts.rejectPinConflicts)
			if err != nil {
				return err
			}

			if err = out.Write(generateOpts.output); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d devices, %d warnings, written to %s\n",
				len(out.Devices), len(out.Warnings), generateOpts.output)
			return nil
		},
	}
)

func init() {
	generateCmd.Flags().StringVarP(&generateOpts.output, "output", "o", ".", "output directory")
	generateCmd.Flags().StringVarP(&generateOpts.table, "table", "t", "", "table name, overrides the description")
	generateCmd.Flags().BoolVar(&generateOpts.rejectPinConflicts, "reject-pin-conflicts", false, "fail when a pin is claimed by more than one device")
}

// compile runs the device table compiler on the inputs selected by the
// global flags.
func compile(table string, rejectPinConflicts bool) (*dtc.Output, error) {
	gate, chip, err := loadGate()
	if err != nil {
		return nil, err
	}
	m, err := loadModel(chip)
	if err != nil {
		return nil, err
	}

	if len(table) == 0 {
		table = m.TableName()
	}

	return dtc.Compile(m, gate, chip, dtc.Options{
		TableName:          table,
		RejectPinConflicts: rejectPinConflicts,
	})
}
